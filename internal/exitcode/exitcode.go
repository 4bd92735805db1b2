// Package exitcode maps pipeline failure phases to process exit codes so
// wrapping scripts can tell bad input from a broken database.
package exitcode

const (
	Success         = 0
	UsageError      = 1
	ValidationError = 2
	DBConnError     = 3
	ParseError      = 4
	ReconcileError  = 5
	ExportError     = 6
)
