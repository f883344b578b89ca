package tui

import (
	"fmt"
	"io"
	"sort"
	"text/template"

	"github.com/kotoba-bench/prefeval/internal/corpus"
	"github.com/kotoba-bench/prefeval/internal/ledger"
	"github.com/kotoba-bench/prefeval/internal/session"
)

// utterance is one rendered line of conversation context.
type utterance struct {
	Speaker string
	Text    string
}

// cellData is everything the cell template needs. Responses are shown as
// A and B only; model names never reach the screen.
type cellData struct {
	PageNumber   int
	PageCount    int
	PairNumber   int
	PairCount    int
	Judged       int
	TotalCells   int
	Title        string
	Speaker      string
	PersonaFacts []string
	Context      []utterance
	GoldResponse string
	ResponseA    string
	ResponseB    string
	Outcome      string
}

const cellTemplate = `
=== Prompt {{ .PageNumber }}/{{ .PageCount }} | Pair {{ .PairNumber }}/{{ .PairCount }} | {{ .Judged }}/{{ .TotalCells }} judged ===

Title: {{ .Title }} (speaker: {{ .Speaker }})
{{- if .PersonaFacts }}

Persona:
{{- range .PersonaFacts }}
  - {{ . }}
{{- end }}
{{- end }}

Context:
{{- range .Context }}
  [{{ .Speaker }}] {{ .Text }}
{{- end }}

Reference response:
  {{ .GoldResponse }}

--- Response A ---
{{ .ResponseA }}

--- Response B ---
{{ .ResponseB }}
{{- if .Outcome }}

Current judgment: {{ .Outcome }}
{{- end }}
`

var cellTmpl = template.Must(template.New("cell").Parse(cellTemplate))

// renderCell writes the active cell to out.
func renderCell(out io.Writer, sess *session.Session, facts []corpus.PersonaFact) error {
	prompt := sess.Prompt()
	respA, respB := sess.Responses()
	judged, total := sess.Progress()

	data := cellData{
		PageNumber:   sess.Page() + 1,
		PageCount:    sess.PageCount(),
		PairNumber:   sess.PairIndex() + 1,
		PairCount:    sess.PairCount(),
		Judged:       judged,
		TotalCells:   total,
		Title:        prompt.Title,
		Speaker:      prompt.Speaker,
		GoldResponse: prompt.Response,
		ResponseA:    respA,
		ResponseB:    respB,
	}
	for _, f := range corpus.Facts(facts, prompt.Title, prompt.Speaker) {
		data.PersonaFacts = append(data.PersonaFacts, f.Persona)
	}
	for _, turn := range prompt.Context {
		speakers := make([]string, 0, len(turn))
		for s := range turn {
			speakers = append(speakers, s)
		}
		sort.Strings(speakers)
		for _, s := range speakers {
			data.Context = append(data.Context, utterance{Speaker: s, Text: turn[s]})
		}
	}
	if outcome, ok := sess.OutcomeFor(sess.CurrentCell()); ok {
		data.Outcome = outcomeLabel(outcome)
	}

	if err := cellTmpl.Execute(out, data); err != nil {
		return fmt.Errorf("failed to render cell: %w", err)
	}
	return nil
}

// outcomeLabel maps an outcome to its on-screen label.
func outcomeLabel(o ledger.Outcome) string {
	switch o {
	case ledger.OutcomeModelA:
		return "Response A"
	case ledger.OutcomeModelB:
		return "Response B"
	case ledger.OutcomeTie:
		return "Tie"
	default:
		return string(o)
	}
}
