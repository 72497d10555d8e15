package world

import "errors"

var (
	// ErrInvalidChunkSize rejects a generation request before any state
	// changes.
	ErrInvalidChunkSize = errors.New("world: chunk size out of range")
	// ErrChunkGenerating is returned when an operation would touch a chunk
	// whose generation is still in flight.
	ErrChunkGenerating = errors.New("world: chunk is generating")
	// ErrMissingCollaborator means the configured render path has no
	// builder to hand meshes to.
	ErrMissingCollaborator = errors.New("world: missing render collaborator")
	ErrClosed              = errors.New("world: streamer closed")
)
