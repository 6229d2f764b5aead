package job

// State is the scheduling state of a job.
type State int

const (
	// Pending indicates the job has never been attempted.
	Pending State = iota
	// Delayed indicates the job waits for a tag another job may produce.
	Delayed
	// Done indicates the job built or updated its target.
	Done
	// Invalid indicates missing or malformed input. Not retried.
	Invalid
	// Errored indicates the builder reported a domain failure.
	Errored
	// Crashed indicates the builder failed unexpectedly.
	Crashed
	// Canceled indicates the job was switched off before scheduling.
	Canceled
)

// String returns the lowercase name of the state.
func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Delayed:
		return "delayed"
	case Done:
		return "done"
	case Invalid:
		return "invalid"
	case Errored:
		return "error"
	case Crashed:
		return "crash"
	case Canceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further attempt will change the state.
func (s State) Terminal() bool {
	return s != Pending && s != Delayed
}

// Failed reports whether the state is one of the failure states.
func (s State) Failed() bool {
	return s == Invalid || s == Errored || s == Crashed
}

// MarshalText renders the state by name in JSON and YAML reports.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Mode selects between creating a target and updating an existing one.
type Mode int

const (
	// Build creates the job's target.
	Build Mode = iota
	// Update modifies the target that already exists.
	Update
)

// String returns the lowercase name of the mode.
func (m Mode) String() string {
	if m == Update {
		return "update"
	}
	return "build"
}
