package main

// Exit codes returned by the CLI.
const (
	ExitOK          = 0
	ExitError       = 1
	ExitConfigError = 2
)
