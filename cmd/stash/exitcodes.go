package main

// Exit codes surfaced to callers.
const (
	ExitSuccess     = 0 // Success
	ExitError       = 1 // General error (invalid arguments, runtime failure)
	ExitConfigError = 2 // Configuration error (no repository, invalid paths)
	ExitDataError   = 3 // Data error (validation failure, not found, bad input file)
)
