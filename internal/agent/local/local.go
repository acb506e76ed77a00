// Package local is an offline extraction agent: a frequency summary plus
// "Key: Value" facts pulled from the text. It needs no model and is the
// default when no API key is configured.
package local

import (
	"regexp"
	"strings"

	"omniparse/internal/agent"
	"omniparse/internal/chunker"
	"omniparse/internal/domain"
	"omniparse/internal/summarizer"
)

var _ agent.Agent[agent.StructuredData] = (*Agent)(nil)

// keys start with a letter and end with a letter or ')' so times like 10:30 are skipped
var keyValue = regexp.MustCompile(`^(\p{L}(?:[\p{L}\p{N} #/&().'-]{0,58}[\p{L})])?)\s*:\s*(.+)$`)

// Agent extracts StructuredData without calling a model.
type Agent struct {
	summarizer   domain.Summarizer
	maxSentences int
}

// New creates an Agent whose summaries keep at most maxSentences sentences.
func New(maxSentences int) *Agent {
	if maxSentences <= 0 {
		maxSentences = 3
	}
	return &Agent{summarizer: summarizer.NewFrequencySummarizer(), maxSentences: maxSentences}
}

// Run summarizes text and collects its key/value facts. The first value seen
// for a key wins.
func (a *Agent) Run(text string) (agent.StructuredData, error) {
	summary, err := a.summarizer.Summarize(text, a.maxSentences)
	if err != nil {
		return agent.StructuredData{}, err
	}
	return agent.StructuredData{Summary: summary, Information: Facts(text)}, nil
}

// Facts returns the "Key: Value" pairs found per line and sentence of text.
func Facts(text string) map[string]string {
	facts := make(map[string]string)
	for _, line := range strings.Split(text, "\n") {
		for _, sentence := range chunker.SplitSentences(line) {
			m := keyValue.FindStringSubmatch(sentence)
			if m == nil {
				continue
			}
			key := strings.TrimSpace(m[1])
			value := strings.TrimSuffix(strings.TrimSpace(m[2]), ".")
			if value == "" {
				continue
			}
			if _, seen := facts[key]; !seen {
				facts[key] = value
			}
		}
	}
	return facts
}
