// Package config loads the relay's configuration: SMTP credentials from the
// process environment, read fresh for every invocation, and the optional YAML
// file used by the long-running HTTP mode.
package config
