package constants

// RunStatus is the canonical status for rows in glr_run.
type RunStatus string

// Stable values (store these exact strings in DB).
const (
	RunStatusRunning RunStatus = "RUNNING" // in progress
	RunStatusFilled  RunStatus = "FILLED"  // document generated
	RunStatusFailed  RunStatus = "FAILED"  // terminal failure
)
