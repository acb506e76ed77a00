// Package agent defines the extraction agent the pipeline feeds context
// chunks to, and the structured result the shipped agents produce.
package agent

// Agent turns a chunk of document text into a structured result. The
// pipeline treats T as an opaque payload and only serializes it.
type Agent[T any] interface {
	Run(text string) (T, error)
}

// Func adapts an ordinary function to the Agent interface.
type Func[T any] func(text string) (T, error)

// Run calls f(text).
func (f Func[T]) Run(text string) (T, error) { return f(text) }

// StructuredData is the extraction result: a short summary plus the
// key/value facts found in the text.
type StructuredData struct {
	Summary     string            `json:"summary" jsonschema:"The summary of the document"`
	Information map[string]string `json:"information" jsonschema:"The information extracted from the document"`
}
