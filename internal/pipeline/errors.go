package pipeline

import "errors"

var (
	// ErrConfiguration is returned by New for unusable options.
	ErrConfiguration = errors.New("configuration error")
	// ErrDocumentIngest marks a document that could not be added to the store.
	// It never aborts construction; the document is reported as skipped.
	ErrDocumentIngest = errors.New("document ingest error")
	// ErrRetrieval is returned by Run when the store query fails.
	ErrRetrieval = errors.New("retrieval error")
	// ErrAgentInvocation is returned by Run when the agent fails on a chunk.
	ErrAgentInvocation = errors.New("agent invocation error")
)
