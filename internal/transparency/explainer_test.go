package transparency

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"procintel/internal/core"
	"procintel/internal/perception"
	"procintel/internal/types"
)

func TestExplainRouting_MarksFiredRule(t *testing.T) {
	rules := perception.NewRouter(nil).Rules()
	out := NewExplainer().ExplainRouting(rules, "processos atrasados da equipe")

	assert.Contains(t, out, "**Normalizada**: `processos atrasados da equipe`")
	assert.Contains(t, out, "1. `reference_code` → specific_record_lookup: sem correspondência")
	assert.Contains(t, out, "4. `delay` → **delayed_or_critical**: correspondeu a `atrasado`")
	assert.Contains(t, out, "5. `trend` → trends_and_patterns *(não avaliada)*")
	assert.Equal(t, 1, strings.Count(out, "correspondeu a"))
}

func TestExplainRouting_NoMatch(t *testing.T) {
	e := NewExplainer()
	e.SetShowDetails(false)
	out := e.ExplainRouting(perception.NewRouter(nil).Rules(), "bom dia")

	assert.NotContains(t, out, "Normalizada")
	assert.Contains(t, out, "Nenhuma regra correspondeu; resultado: **unrecognized**.")
}

func TestExplainResult(t *testing.T) {
	res := core.Result{
		Decision: perception.Decision{Intent: perception.ResponsibleBreakdown, Rule: "responsible_name", Matched: "DIEGO", Subject: "DIEGO"},
		Excluded: []types.DataQualityError{
			{SEI: "1-1.1", Field: "arrivalDate", Reason: "missing arrival date"},
			{SEI: "2-2.2", Field: "arrivalDate", Reason: "missing arrival date"},
			{SEI: "3-3.3", Field: "exitDate", Reason: "exit date before arrival date"},
		},
		Stages: []core.Stage{core.StageIdle, core.StageRouting, core.StageDone},
	}
	e := NewExplainer()
	e.SetMaxExcluded(2)
	out := e.ExplainResult(res)

	assert.Contains(t, out, "**Intenção**: responsible_breakdown")
	assert.Contains(t, out, "**Regra**: `responsible_name` (termo `DIEGO`)")
	assert.Contains(t, out, "**Registros desconsiderados**: 3")
	assert.Contains(t, out, "- record 1-1.1: arrivalDate: missing arrival date")
	assert.Contains(t, out, "- *... e mais 1*")
	assert.Contains(t, out, "idle → routing → done")
}
