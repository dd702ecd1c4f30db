// Package events translates engine step emissions into the client-facing
// event stream: named events with JSON payloads, de-duplicated per session
// and ordered by super-step completion.
package events

// Outgoing event names. The stream always opens with EventSessionStart and
// closes with exactly one of EventComplete or EventError.
const (
	EventSessionStart   = "session_start"
	EventQuranSearch    = "quran_search"
	EventQuranFound     = "quran_found"
	EventLinguistic     = "linguistic"
	EventTafseer        = "tafseer"
	EventSynthesisToken = "synthesis_token"
	EventQualityDone    = "quality_done"
	EventComplete       = "complete"
	EventError          = "error"
)

// EventFinding is emitted once per science or humanities finding. Both
// disciplines share the one name in the current client contract; keeping
// it a single constant makes a future split a one-line change.
const EventFinding = "science_finding"

// Outgoing is one item in the client-facing stream.
type Outgoing struct {
	Event   string
	Payload any
}
