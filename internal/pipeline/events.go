package pipeline

import "github.com/avearchive/avocado/internal/metadata"

// State names the phases of one enrichment run.
type State int

const (
	StateIdle State = iota
	StateAuthenticating
	StateReadingInput
	StateResolvingIdentifiers
	StateFetchingMetadata
	StateSaving
	StateCompleted
	StateCancelled
	StateErrored
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAuthenticating:
		return "authenticating"
	case StateReadingInput:
		return "reading-input"
	case StateResolvingIdentifiers:
		return "resolving-identifiers"
	case StateFetchingMetadata:
		return "fetching-metadata"
	case StateSaving:
		return "saving"
	case StateCompleted:
		return "completed"
	case StateCancelled:
		return "cancelled"
	case StateErrored:
		return "errored"
	default:
		return "unknown"
	}
}

// Terminal reports whether the state ends a run.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateCancelled || s == StateErrored
}

// EventKind distinguishes the signals emitted during a run.
type EventKind int

const (
	// EventStatus carries a human-readable status line.
	EventStatus EventKind = iota
	// EventProgress carries a percentage in [0,100].
	EventProgress
	// EventCompleted is the terminal success signal; Result is set.
	EventCompleted
	// EventCancelled is the terminal signal after a cooperative stop.
	// Result is set only when a partial basic export was written.
	EventCancelled
	// EventFailed is the terminal failure signal; Err is set.
	EventFailed
)

// Event is one signal on the run's progress channel.
type Event struct {
	Kind    EventKind
	Message string
	Percent int
	Result  *Result
	Err     error
}

// Result aggregates the outcome of one run.
type Result struct {
	// OutputFile is the export written, empty when cancellation discarded
	// all output.
	OutputFile string
	// Basic marks an export without fetched metadata.
	Basic bool
	// Total is the number of processed records.
	Total int
	// IdentifiersFound counts records that ended up with an OCLC number,
	// pre-existing ones included.
	IdentifiersFound int
	// MetadataComplete counts records with both title and publisher
	// populated.
	MetadataComplete int
	// Records is the final enriched record set, nil for basic exports.
	Records []metadata.Record
}
