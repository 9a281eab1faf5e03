package cmd

// Exit codes for the restcheck CLI
const (
	// ExitSuccess indicates all requests passed
	ExitSuccess = 0

	// ExitRequestFailure indicates one or more requests failed
	ExitRequestFailure = 1

	// ExitParseError indicates a template parsing error
	ExitParseError = 2

	// ExitConfigError indicates a configuration or resolution error
	ExitConfigError = 3

	// ExitUsageError indicates invalid CLI usage
	ExitUsageError = 64
)
