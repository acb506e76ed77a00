package tui

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"omniparse/internal/chunker"
	"omniparse/internal/lexical"
	"omniparse/internal/pipeline"
)

// PipelinePort is the TUI-facing subset of the orchestrator.
type PipelinePort interface {
	Run(query string) (string, error)
	Outcomes() []pipeline.IngestOutcome
	Reset()
}

// Model is the Bubble Tea model for the TUI application.
type Model struct {
	pipeline  PipelinePort
	input     textinput.Model
	viewport  viewport.Model
	entries   []pipeline.OutputLogEntry[json.RawMessage]
	summary   string
	status    string
	cursor    int
	ready     bool
	lastQuery string
}

// New creates a new TUI model instance.
func New(p PipelinePort) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Type query and press Enter"
	ti.Focus()
	ti.CharLimit = 0
	vp := viewport.New(0, 0)
	return Model{
		pipeline: p,
		input:    ti,
		viewport: vp,
		summary:  summarizeOutcomes(p.Outcomes()),
		status:   "Loaded. Type a query. Ctrl+R clears the log.",
	}
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key and window events and updates the view state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		// account for frames around result and query boxes
		_, rh := resultBoxStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		totalHeaderLines := 2                                    // header + summary
		totalFooterLines := 1                                    // status
		reserved := totalHeaderLines + totalFooterLines + qh + 1 // 1 spacer
		vh := msg.Height - reserved
		if vh < 3 {
			vh = 3
		}
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, vh-rh)
		m.viewport.SetContent(m.renderCurrentEntry())
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		switch msg.String() {
		case "enter":
			q := strings.TrimSpace(m.input.Value())
			if q != "" {
				m = m.runQuery(q)
				return m, nil
			}
		case "ctrl+r":
			m.pipeline.Reset()
			m.entries = nil
			m.cursor = 0
			m.status = "Output log cleared."
			m.viewport.SetContent(m.renderCurrentEntry())
			return m, nil
		case "down":
			if len(m.entries) > 0 {
				m.cursor = (m.cursor + 1) % len(m.entries)
				m.viewport.SetContent(m.renderCurrentEntry())
				return m, nil
			}
		case "up":
			if len(m.entries) > 0 {
				m.cursor = (m.cursor - 1 + len(m.entries)) % len(m.entries)
				m.viewport.SetContent(m.renderCurrentEntry())
				return m, nil
			}
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) runQuery(q string) Model {
	out, err := m.pipeline.Run(q)
	if err != nil {
		m.status = "Error: " + err.Error()
		return m
	}
	var outLog pipeline.OutputLog[json.RawMessage]
	if err := json.Unmarshal([]byte(out), &outLog); err != nil {
		m.status = "Error: " + err.Error()
		return m
	}
	added := len(outLog.Entries) - len(m.entries)
	m.entries = outLog.Entries
	m.lastQuery = q
	m.cursor = 0
	if added > 0 {
		// jump to the first entry of this run
		m.cursor = len(m.entries) - added
	}
	m.status = fmt.Sprintf("%d new entries for %q (%d total)", max(added, 0), q, len(m.entries))
	m.viewport.SetContent(m.renderCurrentEntry())
	return m
}

// View renders the TUI layout and current entry.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := lipgloss.NewStyle().Bold(true).Render("OmniParse")
	summary := lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Render(m.summary)
	input := queryBoxStyle.Render(m.input.View())
	status := lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Render(m.status)
	results := resultBoxStyle.Render(m.viewport.View())
	return header + "\n" + summary + "\n" + results + "\n" + input + "\n" + status
}

func (m Model) renderCurrentEntry() string {
	if len(m.entries) == 0 {
		return "No entries yet."
	}
	e := m.entries[m.cursor]
	title := fmt.Sprintf("Entry %d/%d  token_limit=%d", m.cursor+1, len(m.entries), e.TokenCount)
	var output bytes.Buffer
	if err := json.Indent(&output, e.AgentOutput, "", "  "); err != nil {
		output.Reset()
		output.Write(e.AgentOutput)
	}
	body := highlightBestSentence(e.Context, m.lastQuery)
	return title + "\n\n" + outputStyle.Render(output.String()) + "\n\n" + body
}

func summarizeOutcomes(outcomes []pipeline.IngestOutcome) string {
	ingested := 0
	var skipped []string
	for _, o := range outcomes {
		if o.Status == pipeline.Ingested {
			ingested++
			continue
		}
		skipped = append(skipped, fmt.Sprintf("%s (%s)", o.Document, o.Reason))
	}
	s := fmt.Sprintf("%d of %d documents ingested", ingested, len(outcomes))
	if len(skipped) > 0 {
		s += "; skipped: " + strings.Join(skipped, ", ")
	}
	return s
}

var (
	resultBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	highlightStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	outputStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
)

func highlightBestSentence(text, query string) string {
	if strings.TrimSpace(text) == "" {
		return text
	}
	sentences := chunker.SplitSentences(text)
	if len(sentences) == 0 {
		sentences = []string{strings.TrimSpace(text)}
	}
	qTokens := lexical.TermSet(query)
	if len(qTokens) == 0 {
		return strings.Join(sentences, " ")
	}
	bestIdx := 0
	bestScore := -1
	for i, s := range sentences {
		score := lexical.Overlap(qTokens, s)
		if score > bestScore {
			bestScore = score
			bestIdx = i
		}
	}
	out := make([]string, len(sentences))
	for i, sent := range sentences {
		if i == bestIdx {
			out[i] = highlightStyle.Render(sent)
		} else {
			out[i] = sent
		}
	}
	return strings.Join(out, " ")
}
