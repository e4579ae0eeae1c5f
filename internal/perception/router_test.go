package perception

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFold(t *testing.T) {
	assert.Equal(t, "critico", Fold("Crítico"))
	assert.Equal(t, "pregoes", Fold("PREGÕES"))
	assert.Equal(t, "situacao geral", Fold("Situação geral"))
	assert.Equal(t, "previsao", Fold("previsão"))
	assert.Equal(t, "", Fold(""))
}

func TestRoute(t *testing.T) {
	r := NewRouter(nil)

	tests := []struct {
		query   string
		intent  Intent
		rule    string
		subject string
	}{
		{"Como está o 12345-678.2024?", SpecificRecordLookup, "reference_code", "12345-678.2024"},
		{"processo atrasado do responsável DIEGO", ResponsibleBreakdown, "responsible_name", "DIEGO"},
		{"o que a karen tem pendente", ResponsibleBreakdown, "responsible_name", "KAREN"},
		{"eficiência da equipe", ResponsibleBreakdown, "responsible_word", ""},
		{"quais estão atrasados?", DelayedOrCritical, "delay", ""},
		{"processos CRÍTICOS", DelayedOrCritical, "delay", ""},
		{"tendências do mês", TrendsAndPatterns, "trend", ""},
		{"que padrões você vê", TrendsAndPatterns, "trend", ""},
		{"previsão de conclusão", PredictiveForecast, "forecast", ""},
		{"e no futuro?", PredictiveForecast, "forecast", ""},
		{"status dos pregões", BiddingStatus, "bidding", ""},
		{"licitações em aberto", BiddingStatus, "bidding", ""},
		{"processos concluídos", CompletedSummary, "completed", ""},
		{"me dê um resumo", GeneralSummary, "summary", ""},
		{"situação", GeneralSummary, "summary", ""},
		{"qual o número do processo?", SpecificRecordLookup, "lookup_word", ""},
		{"bom dia", Unrecognized, "", ""},
		{"", Unrecognized, "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			d := r.Route(tt.query)
			assert.Equal(t, tt.intent, d.Intent, "intent for %q", tt.query)
			assert.Equal(t, tt.rule, d.Rule)
			assert.Equal(t, tt.subject, d.Subject)
		})
	}
}

func TestRoute_Plurals(t *testing.T) {
	r := NewRouter(nil)
	assert.Equal(t, PredictiveForecast, r.Route("Previsões para os próximos 30 dias").Intent)
	assert.Equal(t, PredictiveForecast, r.Route("previsão para o mês").Intent)

	d := r.Route("quais responsáveis são mais eficientes?")
	assert.Equal(t, ResponsibleBreakdown, d.Intent)
	assert.Equal(t, "responsible_word", d.Rule)
	assert.False(t, d.Named())
}

func TestRoute_CodeBeatsEverything(t *testing.T) {
	d := NewRouter(nil).Route("resumo do processo atrasado 1-2.3 do DIEGO")
	assert.Equal(t, SpecificRecordLookup, d.Intent)
	assert.Equal(t, "1-2.3", d.Subject)
}

func TestRoute_Unrecognized(t *testing.T) {
	d := NewRouter(nil).Route("olá")
	assert.Equal(t, Unrecognized, d.Intent)
	assert.True(t, errors.Is(d.Err, ErrUnrecognized))
}

func TestRoute_CustomNames(t *testing.T) {
	r := NewRouter([]string{"Fulano"})

	d := r.Route("carga do fulano")
	assert.Equal(t, ResponsibleBreakdown, d.Intent)
	assert.Equal(t, "FULANO", d.Subject)
	assert.True(t, d.Named())

	d = r.Route("processos do DIEGO")
	assert.Equal(t, SpecificRecordLookup, d.Intent, "DIEGO is not configured; falls through to the lookup word")
}

func TestRules_PrecedenceOrder(t *testing.T) {
	var names []string
	for _, rule := range NewRouter(nil).Rules() {
		names = append(names, rule.Name)
	}
	assert.Equal(t, []string{
		"reference_code", "responsible_name", "responsible_word", "delay", "trend",
		"forecast", "bidding", "completed", "summary", "lookup_word",
	}, names)
}

func TestWithRules_Replaces(t *testing.T) {
	r := NewRouter(nil, WithRules([]Rule{
		{Name: "only", Intent: GeneralSummary, Match: Keywords("oi")},
	}))
	assert.Equal(t, GeneralSummary, r.Route("oi").Intent)
	assert.Equal(t, Unrecognized, r.Route("atrasado").Intent)
	assert.Len(t, r.Rules(), 1)
}

func TestIntentNames(t *testing.T) {
	for _, i := range Intents {
		parsed, err := ParseIntent(i.String())
		require.NoError(t, err)
		assert.Equal(t, i, parsed)
	}
	_, err := ParseIntent("bogus")
	assert.Error(t, err)
	assert.Equal(t, "intent(99)", Intent(99).String())

	b, err := DelayedOrCritical.MarshalText()
	require.NoError(t, err)
	var back Intent
	require.NoError(t, back.UnmarshalText(b))
	assert.Equal(t, DelayedOrCritical, back)
}

func TestThink(t *testing.T) {
	facts := Facts{Active: 7, Completed: 3, Biddings: 2, Delayed: 2, Critical: 1, Types: 4, Responsibles: 5}
	r := NewRouter(nil)

	steps := Think(r.Route("atrasados"), facts)
	require.NotEmpty(t, steps)
	assert.Equal(t, "Analisando processos atrasados e críticos...", steps[0])
	assert.True(t, strings.HasPrefix(steps[1], "1. "))
	assert.Contains(t, strings.Join(steps, "\n"), "3 processos atrasados")
	assert.Contains(t, strings.Join(steps, "\n"), "1 processos críticos")

	custom := facts
	custom.DelayedDays, custom.CriticalDays = 20, 60
	joined := strings.Join(Think(r.Route("atrasados"), custom), "\n")
	assert.Contains(t, joined, "mais de 20 dias: 3 processos atrasados")
	assert.Contains(t, joined, "mais de 60 dias: 1 processos críticos")
	assert.NotContains(t, joined, "mais de 30 dias")

	steps = Think(r.Route("eficiência"), facts)
	assert.Contains(t, strings.Join(steps, "\n"), "5 responsáveis encontrados")

	steps = Think(r.Route("DIEGO"), facts)
	assert.Contains(t, steps[0], "DIEGO")

	steps = Think(r.Route("olá"), facts)
	assert.Contains(t, steps[0], `"olá"`)
	assert.Contains(t, strings.Join(steps, "\n"), "7 processos ativos, 2 pregões, 3 processos concluídos")
}
