/*
Package config loads the Matchday service configuration.

Configuration is a single YAML file layered over defaults: any field
left unset keeps its default value. Validate rejects configurations the
pipeline cannot run with, and duration helpers convert the integer
fields into time.Durations at the call sites that need them.
*/
package config
