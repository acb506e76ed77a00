// Package mcpserver exposes the pipeline as MCP tools so agents can query
// the ingested documents and add new ones.
package mcpserver

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"omniparse/internal/pipeline"
)

// Pipeline is the subset of the orchestrator the tools drive.
type Pipeline[T any] interface {
	Run(query string) (string, error)
	Log() pipeline.OutputLog[T]
	AddDocument(path string) pipeline.IngestOutcome
}

// RunQueryInput is the input of the run_query tool.
type RunQueryInput struct {
	Query string `json:"query" jsonschema:"the question to answer from the ingested documents"`
}

// RunQueryOutput is the result of the run_query tool.
type RunQueryOutput struct {
	Log        string `json:"log" jsonschema:"the accumulated output log as JSON"`
	Entries    int    `json:"entries" jsonschema:"total number of entries in the log"`
	NewEntries int    `json:"newEntries" jsonschema:"entries added by this query"`
}

// IngestDocumentInput is the input of the ingest_document tool.
type IngestDocumentInput struct {
	Path string `json:"path" jsonschema:"path of the document to add to the collection"`
}

// IngestDocumentOutput is the result of the ingest_document tool.
type IngestDocumentOutput struct {
	Document string `json:"document"`
	Status   string `json:"status" jsonschema:"ingested or skipped"`
	Reason   string `json:"reason,omitempty"`
}

// Service serializes tool calls onto a single pipeline; the SDK may
// dispatch calls concurrently.
type Service[T any] struct {
	mu       sync.Mutex
	pipeline Pipeline[T]
}

// NewService wraps p.
func NewService[T any](p Pipeline[T]) *Service[T] {
	return &Service[T]{pipeline: p}
}

// RunQuery runs the pipeline for one query.
func (s *Service[T]) RunQuery(_ context.Context, _ *mcp.CallToolRequest, in RunQueryInput) (*mcp.CallToolResult, RunQueryOutput, error) {
	if strings.TrimSpace(in.Query) == "" {
		return nil, RunQueryOutput{}, errors.New("query is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	before := len(s.pipeline.Log().Entries)
	out, err := s.pipeline.Run(in.Query)
	if err != nil {
		return nil, RunQueryOutput{}, err
	}
	total := len(s.pipeline.Log().Entries)
	return nil, RunQueryOutput{Log: out, Entries: total, NewEntries: total - before}, nil
}

// IngestDocument adds one more document to the collection.
func (s *Service[T]) IngestDocument(_ context.Context, _ *mcp.CallToolRequest, in IngestDocumentInput) (*mcp.CallToolResult, IngestDocumentOutput, error) {
	if strings.TrimSpace(in.Path) == "" {
		return nil, IngestDocumentOutput{}, errors.New("path is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	outcome := s.pipeline.AddDocument(in.Path)
	return nil, IngestDocumentOutput{
		Document: outcome.Document,
		Status:   string(outcome.Status),
		Reason:   outcome.Reason,
	}, nil
}

// New creates an MCP server with the run_query and ingest_document tools registered.
func New[T any](p Pipeline[T], version string) *mcp.Server {
	svc := NewService(p)

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "omniparse",
		Version: version,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "run_query",
		Description: "Retrieve the passages relevant to a query, extract structured data from them and return the accumulated output log.",
	}, svc.RunQuery)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "ingest_document",
		Description: "Convert a document (PDF, DOCX, ODT, XLSX, PPTX, HTML or text) and add it to the collection.",
	}, svc.IngestDocument)

	return server
}

// Handler serves server over the streamable HTTP transport.
func Handler(server *mcp.Server) http.Handler {
	return mcp.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcp.Server { return server },
		nil,
	)
}
