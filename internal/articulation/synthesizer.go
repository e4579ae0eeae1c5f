// Package articulation renders routed queries into Portuguese markdown
// reports.
//
// The synthesizer is pure: given a decision, a validated snapshot and a
// reference clock it always produces the same text. Ratios are zero-guarded,
// so every path yields a renderable report.
package articulation

import (
	"fmt"
	"strings"

	"procintel/internal/aggregate"
	"procintel/internal/health"
	"procintel/internal/logging"
	"procintel/internal/perception"
	"procintel/internal/retrieval"
	"procintel/internal/types"
)

// Input is everything a report may draw on. Active must hold only open
// records and Completed only records with an exit date.
type Input struct {
	Active    []types.ProcessRecord
	Completed []types.ProcessRecord
	Biddings  []types.BiddingRecord

	// Views may be precomputed; when nil the synthesizer builds them.
	Views *aggregate.Views

	// Match and LookupErr carry the resolver outcome for lookups.
	Match     *retrieval.Match
	LookupErr error

	// Excluded counts records dropped by validation.
	Excluded int
}

// Report is a composed answer.
type Report struct {
	Intent perception.Intent `json:"intent"`
	Title  string            `json:"title"`
	Body   string            `json:"body"`
}

// String returns the markdown body.
func (r Report) String() string {
	return r.Body
}

// Synthesizer composes reports.
type Synthesizer struct {
	classifier   *health.Classifier
	recentWindow int
}

// Option configures a Synthesizer.
type Option func(*Synthesizer)

// WithRecentWindow sets the "last N days" window for recent completions and
// bidding updates.
func WithRecentWindow(days int) Option {
	return func(s *Synthesizer) {
		if days > 0 {
			s.recentWindow = days
		}
	}
}

// NewSynthesizer creates a synthesizer over classifier.
func NewSynthesizer(classifier *health.Classifier, opts ...Option) *Synthesizer {
	if classifier == nil {
		classifier = health.New()
	}
	s := &Synthesizer{classifier: classifier, recentWindow: 30}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Compose renders the report for d.
func (s *Synthesizer) Compose(d perception.Decision, in Input) Report {
	if in.Views == nil {
		in.Views = aggregate.BuildViewsSequential(in.Active, in.Completed, s.classifier)
	}

	var r Report
	switch d.Intent {
	case perception.SpecificRecordLookup:
		r = s.lookup(d, in)
	case perception.ResponsibleBreakdown:
		if d.Named() {
			r = s.responsible(d.Subject, in)
		} else {
			r = s.efficiency(in)
		}
	case perception.DelayedOrCritical:
		r = s.delayed(in)
	case perception.TrendsAndPatterns:
		r = s.trends(in)
	case perception.PredictiveForecast:
		r = s.forecast(in)
	case perception.BiddingStatus:
		r = s.biddings(in)
	case perception.CompletedSummary:
		r = s.completed(in)
	case perception.GeneralSummary:
		r = s.general(in)
	default:
		r = Help()
	}
	r.Intent = d.Intent

	if in.Excluded > 0 {
		r.Body = strings.TrimRight(r.Body, "\n") + "\n\n" + excludedNote(in.Excluded)
	}
	logging.ArticulationDebug("composed %s report (%d bytes)", d.Intent, len(r.Body))
	return r
}

func excludedNote(n int) string {
	if n == 1 {
		return "_Nota: 1 registro com dados inconsistentes foi desconsiderado nesta análise._"
	}
	return fmt.Sprintf("_Nota: %d registros com dados inconsistentes foram desconsiderados nesta análise._", n)
}

// Help is the fixed reply for unrecognized queries.
func Help() Report {
	return Report{
		Intent: perception.Unrecognized,
		Title:  "Ajuda",
		Body: `Não consegui entender completamente sua pergunta. Você pode perguntar sobre:

- Um processo específico (informe o número SEI)
- Processos de um responsável específico
- Eficiência por responsável
- Processos atrasados ou críticos
- Tendências e padrões
- Previsões para os próximos 30 dias
- Pregões em andamento
- Processos concluídos
- Resumo geral da situação

Como posso ajudar você?`,
	}
}
