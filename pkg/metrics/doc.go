/*
Package metrics provides Prometheus instrumentation for Matchday.

All collectors are package-level variables registered in init, covering
the full event path: publishes and their retries, messages received and
malformed, reconnects, handler invocations and durations, duplicate
detections, queue depths and dispatches, dead letters, and standings
recomputes.

The package also serves the HTTP operational surface: the /metrics
exposition endpoint plus /health, /ready and /live. Components register
live Probe functions (a store ping, a broker ping) that run on every
request, so the reported state is current rather than a flag set once
at startup. Readiness requires the critical probes only.
*/
package metrics
