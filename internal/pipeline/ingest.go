package pipeline

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
)

// IngestStatus tells whether a document made it into the store.
type IngestStatus string

const (
	Ingested IngestStatus = "ingested"
	Skipped  IngestStatus = "skipped"
)

// IngestOutcome is the result of ingesting one document.
type IngestOutcome struct {
	Document string       `json:"document"`
	Status   IngestStatus `json:"status"`
	Reason   string       `json:"reason,omitempty"`
	Err      error        `json:"-"`
}

// Ingest converts the document at path to text and adds it to the store.
// Failures are reported in the outcome and logged; they are never returned.
func (o *Orchestrator[T]) Ingest(path string) IngestOutcome {
	text, err := o.source.Read(path)
	if errors.Is(err, fs.ErrNotExist) {
		o.errLog.Printf("pipeline: document %s not found, skipping", path)
		return IngestOutcome{Document: path, Status: Skipped, Reason: "file not found"}
	}
	if err != nil {
		return o.skip(path, fmt.Errorf("read: %w", err))
	}
	if err := o.store.Add(text); err != nil {
		return o.skip(path, fmt.Errorf("add to store: %w", err))
	}
	o.infoLog.Printf("pipeline: ingested %s (%d tokens)", path, o.tokenizer.Count(text))
	return IngestOutcome{Document: path, Status: Ingested}
}

func (o *Orchestrator[T]) skip(path string, cause error) IngestOutcome {
	err := fmt.Errorf("%w: %s: %w", ErrDocumentIngest, path, cause)
	o.errLog.Printf("pipeline: %v", err)
	return IngestOutcome{Document: path, Status: Skipped, Reason: cause.Error(), Err: err}
}

// expand resolves glob patterns; a pattern without matches is kept literally
// so the missing file is reported as skipped.
func expand(names []string) []string {
	var paths []string
	for _, name := range names {
		matches, err := filepath.Glob(name)
		if err != nil || len(matches) == 0 {
			paths = append(paths, name)
			continue
		}
		paths = append(paths, matches...)
	}
	return paths
}
