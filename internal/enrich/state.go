package enrich

// State is the terminal state of a run.
type State int

const (
	StateSuccess State = iota
	StateNoOp
	StateFatalLoadError
	StateSaveError
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateSuccess:
		return "success"
	case StateNoOp:
		return "noop"
	case StateFatalLoadError:
		return "fatal_load_error"
	case StateSaveError:
		return "save_error"
	case StateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}
