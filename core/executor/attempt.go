package executor

// Outcome is the terminal status of a single attempt.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
)

// AttemptRecord captures one bounded try at resolving a request. Records
// accumulate across a single escalation and are discarded, after logging,
// once a result is produced.
type AttemptRecord struct {
	AttemptIndex int
	ResourceName string
	Outcome      Outcome
	ErrorDetail  string
}

// Attempt is the per-try context handed to the resolution callback. Briefing
// carries the prior failure history in the downstream message contract.
type Attempt struct {
	Index        int
	ResourceName string
	Briefing     string
	History      []AttemptRecord
}

// State names a position in the executor's attempt loop, used for telemetry.
type State string

const (
	StateIdle       State = "idle"
	StateAttempting State = "attempting"
	StateSucceeded  State = "succeeded"
	StateExhausted  State = "exhausted"
)
