package loader

// State is a step of a load run.
type State int

const (
	StateIdle State = iota
	StateAnalyze
	StateInferSchema
	StateEnsureTable
	StateStreamLoad
	StateFinalize
	// StateFailed is absorbing: once entered the run never leaves it.
	StateFailed
)

var stateNames = [...]string{
	StateIdle:        "IDLE",
	StateAnalyze:     "ANALYZE",
	StateInferSchema: "INFER_SCHEMA",
	StateEnsureTable: "ENSURE_TABLE",
	StateStreamLoad:  "STREAM_LOAD",
	StateFinalize:    "FINALIZE",
	StateFailed:      "FAILED",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "UNKNOWN"
	}
	return stateNames[s]
}

// Policy decides what ENSURE_TABLE does with an existing table.
type Policy string

const (
	// PolicyFail aborts the run when the table exists.
	PolicyFail Policy = "fail"
	// PolicyReplace drops and recreates the table.
	PolicyReplace Policy = "replace"
	// PolicyAppend keeps the table and inserts into it.
	PolicyAppend Policy = "append"
)

// ParsePolicy validates s. The empty string is PolicyFail.
func ParsePolicy(s string) (Policy, bool) {
	switch Policy(s) {
	case "", PolicyFail:
		return PolicyFail, true
	case PolicyReplace, PolicyAppend:
		return Policy(s), true
	}
	return "", false
}
