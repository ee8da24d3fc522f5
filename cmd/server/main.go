// Package main is the entry point of the scheduler API: it serves the HTTP
// API, runs database migrations and provisions users.
package main

import (
	"os"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
