/*
Package log provides structured logging for Matchday using zerolog.

Init configures the global logger once at startup; components then take
child loggers via WithComponent and attach event context (event IDs,
tournament IDs) as fields at each call site. JSON output is for
production, the console writer for development.
*/
package log
