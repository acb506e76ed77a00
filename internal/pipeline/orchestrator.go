// Package pipeline ties the document store, the token chunker and the
// extraction agent together: documents are ingested once, and every Run
// retrieves context for a query, cuts it into token-bounded chunks and
// records the agent's result for each chunk in an output log.
package pipeline

import (
	"fmt"
	"io"
	"log"

	"omniparse/internal/agent"
	"omniparse/internal/chunker"
	"omniparse/internal/domain"
	"omniparse/internal/source"
	"omniparse/internal/tokenizer"
)

// Options configures an Orchestrator. Agent and Store are required; Source,
// Tokenizer and Splitter default to the file reader, the token estimator and
// a token chunker over that estimator.
type Options[T any] struct {
	Agent     agent.Agent[T]
	Store     domain.DocumentStore
	Source    domain.TextSource
	Tokenizer domain.Tokenizer
	Splitter  domain.Splitter

	CollectionName string
	ResultCount    int
	TokenLimit     int
	// DocumentName takes precedence over DocumentNames when both are set.
	DocumentName  string
	DocumentNames []string

	// Logger receives progress lines, ErrorLogger failures. A nil Logger
	// discards; a nil ErrorLogger falls back to Logger.
	Logger      *log.Logger
	ErrorLogger *log.Logger
}

// Orchestrator runs queries against the ingested documents.
// It is not safe for concurrent use.
type Orchestrator[T any] struct {
	agent     agent.Agent[T]
	store     domain.DocumentStore
	source    domain.TextSource
	tokenizer domain.Tokenizer
	splitter  domain.Splitter
	infoLog   *log.Logger
	errLog    *log.Logger

	log      OutputLog[T]
	outcomes []IngestOutcome
}

// New validates opts and ingests every configured document.
// Documents that cannot be ingested are skipped and reported by Outcomes.
func New[T any](opts Options[T]) (*Orchestrator[T], error) {
	if opts.Agent == nil {
		return nil, fmt.Errorf("%w: agent is required", ErrConfiguration)
	}
	if opts.Store == nil {
		return nil, fmt.Errorf("%w: document store is required", ErrConfiguration)
	}
	if opts.ResultCount < 1 {
		return nil, fmt.Errorf("%w: result count must be at least 1, got %d", ErrConfiguration, opts.ResultCount)
	}
	if opts.TokenLimit < 1 {
		return nil, fmt.Errorf("%w: token limit must be at least 1, got %d", ErrConfiguration, opts.TokenLimit)
	}

	var docs []string
	switch {
	case opts.DocumentName != "":
		docs = []string{opts.DocumentName}
	case len(opts.DocumentNames) > 0:
		docs = opts.DocumentNames
	default:
		return nil, fmt.Errorf("%w: either a document name or a list of document names is required", ErrConfiguration)
	}

	o := &Orchestrator[T]{
		agent:     opts.Agent,
		store:     opts.Store,
		source:    opts.Source,
		tokenizer: opts.Tokenizer,
		splitter:  opts.Splitter,
		infoLog:   opts.Logger,
		errLog:    opts.ErrorLogger,
	}
	if o.source == nil {
		o.source = source.NewFileReader()
	}
	if o.tokenizer == nil {
		o.tokenizer = tokenizer.NewEstimator()
	}
	if o.splitter == nil {
		o.splitter = chunker.NewTokenChunker(o.tokenizer, false)
	}
	if o.infoLog == nil {
		o.infoLog = log.New(io.Discard, "", 0)
	}
	if o.errLog == nil {
		o.errLog = o.infoLog
	}

	o.log = OutputLog[T]{
		CollectionName:       opts.CollectionName,
		Entries:              []OutputLogEntry[T]{},
		TokenLimit:           opts.TokenLimit,
		RequestedResultCount: opts.ResultCount,
	}
	if opts.DocumentName != "" {
		name := opts.DocumentName
		o.log.DocumentName = &name
	}
	if opts.DocumentNames != nil {
		o.log.DocumentNames = append([]string{}, opts.DocumentNames...)
	}

	for _, path := range expand(docs) {
		o.outcomes = append(o.outcomes, o.Ingest(path))
	}
	o.infoLog.Printf("pipeline: collection %q ready, %d of %d documents ingested", opts.CollectionName, o.ingestedCount(), len(o.outcomes))
	return o, nil
}

func (o *Orchestrator[T]) ingestedCount() int {
	n := 0
	for _, out := range o.outcomes {
		if out.Status == Ingested {
			n++
		}
	}
	return n
}

// Run retrieves context for query, feeds each token-bounded chunk of it to
// the agent and returns the accumulated output log as JSON.
//
// An agent failure aborts the remaining chunks; entries appended before the
// failure stay in the log.
func (o *Orchestrator[T]) Run(query string) (string, error) {
	retrieved, err := o.store.Query(query, o.log.RequestedResultCount)
	if err != nil {
		err = fmt.Errorf("%w: query %q: %w", ErrRetrieval, query, err)
		o.errLog.Printf("pipeline: %v", err)
		return "", err
	}
	o.infoLog.Printf("pipeline: retrieved context of %d tokens for %q", o.tokenizer.Count(retrieved), query)

	chunks := o.splitter.Split(retrieved, o.log.TokenLimit)
	for i, chunk := range chunks {
		out, err := o.agent.Run(chunk)
		if err != nil {
			err = fmt.Errorf("%w: chunk %d of %d: %w", ErrAgentInvocation, i+1, len(chunks), err)
			o.errLog.Printf("pipeline: %v", err)
			return "", err
		}
		o.log.Entries = append(o.log.Entries, OutputLogEntry[T]{
			TokenCount:  o.log.TokenLimit,
			Context:     chunk,
			AgentOutput: out,
		})
		o.infoLog.Printf("pipeline: processed chunk %d of %d", i+1, len(chunks))
	}

	data, err := o.log.JSON()
	if err != nil {
		err = fmt.Errorf("encode output log: %w", err)
		o.errLog.Printf("pipeline: %v", err)
		return "", err
	}
	return data, nil
}

// Log returns a copy of the output log.
func (o *Orchestrator[T]) Log() OutputLog[T] { return o.log.clone() }

// Outcomes reports how each document fared during construction and any
// later Ingest calls made through AddDocument.
func (o *Orchestrator[T]) Outcomes() []IngestOutcome {
	return append([]IngestOutcome(nil), o.outcomes...)
}

// AddDocument ingests another document after construction and records the outcome.
func (o *Orchestrator[T]) AddDocument(path string) IngestOutcome {
	out := o.Ingest(path)
	o.outcomes = append(o.outcomes, out)
	return out
}

// Reset drops the accumulated entries.
func (o *Orchestrator[T]) Reset() {
	o.log.Entries = []OutputLogEntry[T]{}
}

// Close releases the document store if it holds resources.
func (o *Orchestrator[T]) Close() error {
	if c, ok := o.store.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
