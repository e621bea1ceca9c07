package hub

// Event names published through the hub. The set is closed but
// extensible: new names need no change to the hub itself.
const (
	EventNoteCreated = "note.created"
	EventNoteUpdated = "note.updated"
	EventNoteDeleted = "note.deleted"

	EventSTTTaskCreated = "stt.task.created"
	EventSTTTaskDone    = "stt.task.done"
	EventSTTChunkReady  = "transcript.chunk.ready"

	EventErrorOccurred = "error.occurred"

	// EventConnected is the handshake sent to a newly accepted
	// connection only; it is never broadcast.
	EventConnected = "connected"

	// EventPing is emitted by the liveness sweep. Clients may ignore it;
	// its only purpose is to surface dead connections.
	EventPing = "ping"
)

// ErrorData is the payload of an [EventErrorOccurred] event.
type ErrorData struct {
	Message string `json:"message"`
	Source  string `json:"source"`
}

// ConnectedData is the payload of the [EventConnected] handshake.
type ConnectedData struct {
	Message string `json:"message"`
}

// DeletedData is the payload of an [EventNoteDeleted] event.
type DeletedData struct {
	ID string `json:"id"`
}
