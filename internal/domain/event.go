package domain

// EventKind classifies a filesystem event handed to the ingestion pipeline.
type EventKind string

const (
	// EventStartup marks a file found during the initial backlog scan.
	EventStartup  EventKind = "startup"
	EventCreated  EventKind = "created"
	EventModified EventKind = "modified"
	EventDeleted  EventKind = "deleted"
)

// FileEvent is a transient record of one filesystem change, queued and
// consumed exactly once.
type FileEvent struct {
	Kind EventKind
	Path string
}
