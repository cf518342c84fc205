/*
Package publisher emits event envelopes with bounded retries.

Publish wraps a payload in an envelope, serializes it once, and sends
it on the channel named after the event type. Transient transport
failures are retried with doubling delay up to the configured attempt
budget; the envelope and its event ID are fixed at creation and
identical across retries.

A publish failure is returned to the caller but is never a reason to
roll back the state change that triggered it. Consumers that must not
miss an event rely on the durable queue path instead.
*/
package publisher
