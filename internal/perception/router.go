package perception

import (
	"strings"

	"procintel/internal/logging"
	"procintel/internal/retrieval"
)

// MatchFunc tests a query. folded is the output of Fold; raw is the query as
// typed. hit is the fragment that triggered the match.
type MatchFunc func(folded, raw string) (hit string, ok bool)

// Rule is one entry of the routing table.
type Rule struct {
	Name   string
	Intent Intent
	Match  MatchFunc
	// Subject, when set, extracts the rule's subject from a hit.
	Subject func(hit string) string
}

// Decision is the outcome of routing one query.
type Decision struct {
	Query   string `json:"query"`
	Folded  string `json:"-"`
	Intent  Intent `json:"intent"`
	Rule    string `json:"rule,omitempty"`
	Matched string `json:"matched,omitempty"`
	// Subject is the reference code for lookups and the party name for
	// responsible breakdowns. Empty otherwise.
	Subject string `json:"subject,omitempty"`
	Err     error  `json:"-"`
}

// Named reports whether a responsible breakdown targets one party. Without a
// name it is an efficiency comparison across parties.
func (d Decision) Named() bool {
	return d.Intent == ResponsibleBreakdown && d.Subject != ""
}

// DefaultResponsibleNames is the built-in list of known parties.
var DefaultResponsibleNames = []string{
	"DIEGO", "GUDRIAN", "KOHL", "THAYS", "ALESSANDRA", "ISABELA",
	"JOELSON", "KAREN", "MICHELI", "EDUARDO", "EDUARDA",
}

// Keyword sets, already folded.
var (
	responsibleWords = []string{"responsavel", "responsaveis", "eficien"}
	delayWords       = []string{"atrasado", "critico", "pendente"}
	trendWords       = []string{"tendencia", "padrao", "padroes"}
	forecastWords    = []string{"previsao", "previsoes", "prever", "futuro"}
	biddingWords     = []string{"pregao", "pregoes", "licitacao", "licitacoes"}
	completedWords   = []string{"concluido", "finalizado", "completo"}
	summaryWords     = []string{"resumo", "situacao", "geral", "status"}
	lookupWords      = []string{"processo", "sei", "numero"}
)

// Keywords returns a MatchFunc hitting on the first word contained in the
// folded query.
func Keywords(words ...string) MatchFunc {
	return func(folded, _ string) (string, bool) {
		for _, w := range words {
			if strings.Contains(folded, w) {
				return w, true
			}
		}
		return "", false
	}
}

// Any combines match functions, first hit wins.
func Any(fns ...MatchFunc) MatchFunc {
	return func(folded, raw string) (string, bool) {
		for _, fn := range fns {
			if hit, ok := fn(folded, raw); ok {
				return hit, true
			}
		}
		return "", false
	}
}

// ReferenceCode matches the first process reference code in the raw query.
func ReferenceCode() MatchFunc {
	return func(_, raw string) (string, bool) {
		return retrieval.ExtractCode(raw)
	}
}

// Names matches the first known party name in the folded query. The hit is
// the name as configured.
func Names(names []string) MatchFunc {
	folded := make([]string, len(names))
	for i, n := range names {
		folded[i] = Fold(strings.TrimSpace(n))
	}
	return func(q, _ string) (string, bool) {
		for i, n := range folded {
			if n != "" && strings.Contains(q, n) {
				return strings.ToUpper(strings.TrimSpace(names[i])), true
			}
		}
		return "", false
	}
}

func identity(hit string) string { return hit }

// DefaultRules builds the routing table in precedence order.
func DefaultRules(names []string) []Rule {
	if len(names) == 0 {
		names = DefaultResponsibleNames
	}
	nameMatch := Names(names)
	return []Rule{
		{Name: "reference_code", Intent: SpecificRecordLookup, Match: ReferenceCode(), Subject: identity},
		{Name: "responsible_name", Intent: ResponsibleBreakdown, Match: nameMatch, Subject: identity},
		{Name: "responsible_word", Intent: ResponsibleBreakdown, Match: Keywords(responsibleWords...)},
		{Name: "delay", Intent: DelayedOrCritical, Match: Keywords(delayWords...)},
		{Name: "trend", Intent: TrendsAndPatterns, Match: Keywords(trendWords...)},
		{Name: "forecast", Intent: PredictiveForecast, Match: Keywords(forecastWords...)},
		{Name: "bidding", Intent: BiddingStatus, Match: Keywords(biddingWords...)},
		{Name: "completed", Intent: CompletedSummary, Match: Keywords(completedWords...)},
		{Name: "summary", Intent: GeneralSummary, Match: Keywords(summaryWords...)},
		{Name: "lookup_word", Intent: SpecificRecordLookup, Match: Keywords(lookupWords...)},
	}
}

// Router maps queries to intents.
type Router struct {
	rules []Rule
}

// RouterOption configures a Router.
type RouterOption func(*Router)

// WithRules replaces the routing table.
func WithRules(rules []Rule) RouterOption {
	return func(r *Router) {
		r.rules = append([]Rule(nil), rules...)
	}
}

// NewRouter creates a router over the default table for names.
func NewRouter(names []string, opts ...RouterOption) *Router {
	r := &Router{rules: DefaultRules(names)}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Rules returns a copy of the routing table.
func (r *Router) Rules() []Rule {
	return append([]Rule(nil), r.rules...)
}

// Route classifies query. It never fails; a query no rule matches yields
// Unrecognized with ErrUnrecognized attached.
func (r *Router) Route(query string) Decision {
	folded := Fold(strings.TrimSpace(query))
	d := Decision{Query: query, Folded: folded}
	for _, rule := range r.rules {
		hit, ok := rule.Match(folded, query)
		if !ok {
			continue
		}
		d.Intent = rule.Intent
		d.Rule = rule.Name
		d.Matched = hit
		if rule.Subject != nil {
			d.Subject = rule.Subject(hit)
		}
		logging.PerceptionDebug("routed %q via %s (%q) -> %s", query, rule.Name, hit, rule.Intent)
		return d
	}
	d.Intent = Unrecognized
	d.Err = ErrUnrecognized
	logging.PerceptionDebug("no rule matched %q", query)
	return d
}
