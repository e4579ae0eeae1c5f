package transparency

import (
	"fmt"
	"strings"

	"procintel/internal/core"
	"procintel/internal/perception"
)

// Explainer builds human-readable explanations of routing and validation.
type Explainer struct {
	showDetails bool
	maxExcluded int
}

// NewExplainer creates a new explainer with default settings.
func NewExplainer() *Explainer {
	return &Explainer{
		showDetails: true,
		maxExcluded: 10,
	}
}

// SetShowDetails configures whether to show the folded query and stage list.
func (e *Explainer) SetShowDetails(show bool) {
	e.showDetails = show
}

// SetMaxExcluded caps how many excluded records are listed.
func (e *Explainer) SetMaxExcluded(n int) {
	e.maxExcluded = n
}

// ExplainRouting walks the rule table for query and marks each rule as
// skipped, fired or not reached.
func (e *Explainer) ExplainRouting(rules []perception.Rule, query string) string {
	folded := perception.Fold(strings.TrimSpace(query))

	var sb strings.Builder
	sb.WriteString("## Explicação\n\n")
	sb.WriteString(fmt.Sprintf("**Consulta**: `%s`\n\n", query))
	if e.showDetails {
		sb.WriteString(fmt.Sprintf("**Normalizada**: `%s`\n\n", folded))
	}

	sb.WriteString("**Regras avaliadas (em ordem):**\n")
	fired := false
	for i, rule := range rules {
		if fired {
			sb.WriteString(fmt.Sprintf("%d. `%s` → %s *(não avaliada)*\n", i+1, rule.Name, rule.Intent))
			continue
		}
		hit, ok := rule.Match(folded, query)
		if !ok {
			sb.WriteString(fmt.Sprintf("%d. `%s` → %s: sem correspondência\n", i+1, rule.Name, rule.Intent))
			continue
		}
		fired = true
		sb.WriteString(fmt.Sprintf("%d. `%s` → **%s**: correspondeu a `%s`\n", i+1, rule.Name, rule.Intent, hit))
	}
	if !fired {
		sb.WriteString(fmt.Sprintf("\nNenhuma regra correspondeu; resultado: **%s**.\n", perception.Unrecognized))
	}
	return sb.String()
}

// ExplainResult describes an answered query: decision, validation outcome and
// the stages it went through.
func (e *Explainer) ExplainResult(res core.Result) string {
	var sb strings.Builder
	d := res.Decision

	sb.WriteString("## Como cheguei a esta resposta\n\n")
	sb.WriteString(fmt.Sprintf("**Intenção**: %s\n", d.Intent))
	if d.Rule != "" {
		sb.WriteString(fmt.Sprintf("**Regra**: `%s` (termo `%s`)\n", d.Rule, d.Matched))
	}
	if d.Subject != "" {
		sb.WriteString(fmt.Sprintf("**Assunto**: %s\n", d.Subject))
	}
	if d.Err != nil {
		sb.WriteString(fmt.Sprintf("**Observação**: %v\n", d.Err))
	}

	if n := len(res.Excluded); n > 0 {
		sb.WriteString(fmt.Sprintf("\n**Registros desconsiderados**: %d\n", n))
		for i, dq := range res.Excluded {
			if e.maxExcluded > 0 && i >= e.maxExcluded {
				sb.WriteString(fmt.Sprintf("- *... e mais %d*\n", n-i))
				break
			}
			sb.WriteString(fmt.Sprintf("- %v\n", &dq))
		}
	}

	if e.showDetails && len(res.Stages) > 0 {
		names := make([]string, len(res.Stages))
		for i, s := range res.Stages {
			names[i] = s.String()
		}
		sb.WriteString("\n---\n")
		sb.WriteString(fmt.Sprintf("*Etapas: %s em %v*\n", strings.Join(names, " → "), res.Duration))
	}
	return sb.String()
}
