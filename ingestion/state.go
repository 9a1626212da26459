package ingestion

import "fmt"

// State is a pipeline stage.
type State int32

const (
	StateIdle State = iota
	StateLoading
	StateSplitting
	StateEmbedding
	StateUpserting
	StateDone
	StateFailed
)

var stateNames = [...]string{
	StateIdle:      "idle",
	StateLoading:   "loading",
	StateSplitting: "splitting",
	StateEmbedding: "embedding",
	StateUpserting: "upserting",
	StateDone:      "done",
	StateFailed:    "failed",
}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", int32(s))
}

// Terminal reports whether s ends a run.
func (s State) Terminal() bool {
	return s == StateDone || s == StateFailed
}
