package audit

// Process exit codes reported by the audit commands.
const (
	ExitCodeSuccess          = 0
	ExitCodeCriticalFindings = 1
	ExitCodeWarningFindings  = 2
	ExitCodeExecutionFailure = 3
	ExitCodeInvalidArguments = 4
)

// ExitError carries a process exit code alongside the failure message so the
// entrypoint can translate command outcomes into exit statuses.
type ExitError struct {
	Code    int
	message string
}

// NewExitError constructs an ExitError with the provided code and message.
func NewExitError(exitCode int, message string) *ExitError {
	return &ExitError{Code: exitCode, message: message}
}

// Error returns the failure message.
func (exitError *ExitError) Error() string {
	return exitError.message
}
