// Package config handles configuration loading, parsing, and validation
// from environment variables and an optional config file. It provides
// type-safe access to the settings needed by the HTTP server, the stores,
// the task engine client and the background runner.
package config
