package pipeline

import "encoding/json"

// OutputLogEntry records one agent invocation over one context chunk.
type OutputLogEntry[T any] struct {
	TokenCount  int    `json:"token_count"`
	Context     string `json:"context"`
	AgentOutput T      `json:"agent_output"`
}

// OutputLog is the artifact returned by every Run. Entries accumulate across
// runs until Reset is called.
type OutputLog[T any] struct {
	CollectionName       string              `json:"collection_name"`
	Entries              []OutputLogEntry[T] `json:"entries"`
	TokenLimit           int                 `json:"token_limit"`
	RequestedResultCount int                 `json:"requested_result_count"`
	DocumentName         *string             `json:"document_name"`
	DocumentNames        []string            `json:"document_names"`
}

// JSON renders the log with four-space indentation.
func (l OutputLog[T]) JSON() (string, error) {
	data, err := json.MarshalIndent(l, "", "    ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (l OutputLog[T]) clone() OutputLog[T] {
	out := l
	out.Entries = append([]OutputLogEntry[T](nil), l.Entries...)
	if out.Entries == nil {
		out.Entries = []OutputLogEntry[T]{}
	}
	if l.DocumentName != nil {
		name := *l.DocumentName
		out.DocumentName = &name
	}
	if l.DocumentNames != nil {
		out.DocumentNames = append([]string{}, l.DocumentNames...)
	}
	return out
}
