package articulation

import (
	"fmt"
	"sort"
	"strings"

	"procintel/internal/aggregate"
	"procintel/internal/types"
)

func (s *Synthesizer) biddings(in Input) Report {
	if len(in.Biddings) == 0 {
		return Report{Title: "Pregões", Body: "🔖 Não há pregões cadastrados no sistema."}
	}

	var authorized, pending, recent []types.BiddingRecord
	for _, b := range in.Biddings {
		if b.IsAuthorized() {
			authorized = append(authorized, b)
		} else {
			pending = append(pending, b)
		}
		if b.UpdatedAt != nil && s.classifier.Since(*b.UpdatedAt) <= s.recentWindow {
			recent = append(recent, b)
		}
	}
	total := len(in.Biddings)

	var sb strings.Builder
	sb.WriteString("🔖 **Pregões**\n\n")
	sb.WriteString(fmt.Sprintf("**Total de Pregões:** %d\n", total))
	sb.WriteString(fmt.Sprintf("**Pregões Autorizados:** %d (%s)\n", len(authorized), Percent(len(authorized), total)))
	sb.WriteString(fmt.Sprintf("**Pregões Pendentes:** %d (%s)\n\n", len(pending), Percent(len(pending), total)))

	writeList := func(items []types.BiddingRecord) {
		for _, b := range items {
			sb.WriteString(fmt.Sprintf("- %s - %s - Elaboração: %s\n", b.SEI, b.Description, orDefault(b.Preparer, "N/A")))
		}
	}
	if len(authorized) > 0 {
		sb.WriteString("✅ **Pregões Autorizados:**\n")
		writeList(authorized)
		sb.WriteString("\n")
	}
	if len(pending) > 0 {
		sb.WriteString("⏳ **Pregões Pendentes:**\n")
		writeList(pending)
		sb.WriteString("\n")
	}
	if len(recent) > 0 {
		sb.WriteString(fmt.Sprintf("🕒 **Atualizados nos Últimos %d Dias:**\n", s.recentWindow))
		for _, b := range recent {
			sb.WriteString(fmt.Sprintf("- %s - %s (%s)\n", b.SEI, b.Description, orDefault(b.Status, "Pendente")))
		}
	}

	return Report{Title: "Pregões", Body: sb.String()}
}

// recentlyCompleted returns completed records that exited within the window,
// latest exit first.
func (s *Synthesizer) recentlyCompleted(completed []types.ProcessRecord) []types.ProcessRecord {
	var out []types.ProcessRecord
	for _, r := range completed {
		if r.ExitDate != nil && s.classifier.Since(*r.ExitDate) <= s.recentWindow {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ExitDate.After(*out[j].ExitDate)
	})
	return out
}

func (s *Synthesizer) averageCompletion(completed []types.ProcessRecord) string {
	if mean, ok := aggregate.MeanCompletionDays(completed, s.classifier); ok {
		return fmt.Sprintf("%d dias", days(mean))
	}
	return "N/A"
}

func (s *Synthesizer) completed(in Input) Report {
	if len(in.Completed) == 0 {
		return Report{Title: "Processos Concluídos", Body: "Não há processos concluídos registrados no sistema."}
	}
	recent := s.recentlyCompleted(in.Completed)

	var sb strings.Builder
	sb.WriteString("✅ **Processos Concluídos**\n\n")
	sb.WriteString(fmt.Sprintf("**Total de Processos Concluídos:** %d\n", len(in.Completed)))
	sb.WriteString(fmt.Sprintf("**Concluídos nos Últimos %d Dias:** %d\n", s.recentWindow, len(recent)))
	sb.WriteString(fmt.Sprintf("**Tempo Médio de Conclusão:** %s\n\n", s.averageCompletion(in.Completed)))

	if len(recent) > 0 {
		sb.WriteString("🆕 **Recentemente Concluídos:**\n")
		for _, r := range firstN(recent, 5) {
			d, _ := s.classifier.CompletionDays(r)
			sb.WriteString(fmt.Sprintf("- %s - %s - %s (%d dias)\n", r.SEI, r.Name, r.Responsible, d))
		}
	}

	return Report{Title: "Processos Concluídos", Body: sb.String()}
}

func (s *Synthesizer) general(in Input) Report {
	t := s.classifier.Thresholds()
	active := len(in.Active)
	late := byAge(s.classifier, in.Active, func(d int) bool { return d > t.Delayed })
	critical := byAge(s.classifier, in.Active, func(d int) bool { return d > t.Critical })
	authorized := 0
	for _, b := range in.Biddings {
		if b.IsAuthorized() {
			authorized++
		}
	}
	recent := s.recentlyCompleted(in.Completed)

	var sb strings.Builder
	sb.WriteString("📊 **Resumo Geral da Situação**\n\n")
	sb.WriteString(fmt.Sprintf("**Processos Ativos:** %d\n", active))
	sb.WriteString(fmt.Sprintf("**Pregões:** %d\n", len(in.Biddings)))
	sb.WriteString(fmt.Sprintf("**Processos Concluídos:** %d\n\n", len(in.Completed)))
	sb.WriteString(fmt.Sprintf("**Processos Atrasados:** %d (%s dos ativos)\n", len(late), Percent(len(late), active)))
	sb.WriteString(fmt.Sprintf("**Processos Críticos:** %d (%s dos ativos)\n", len(critical), Percent(len(critical), active)))
	sb.WriteString(fmt.Sprintf("**Pregões Autorizados:** %d (%s dos pregões)\n\n", authorized, Percent(authorized, len(in.Biddings))))
	sb.WriteString(fmt.Sprintf("**Tempo Médio de Conclusão:** %s\n", s.averageCompletion(in.Completed)))
	sb.WriteString(fmt.Sprintf("**Concluídos nos Últimos %d Dias:** %d\n\n", s.recentWindow, len(recent)))

	top := aggregate.TopByCount(in.Views.ActiveByResponsible, 3)
	if len(top) > 0 {
		sb.WriteString("👥 **Responsáveis com Mais Processos:**\n")
		for _, kc := range top {
			sb.WriteString(fmt.Sprintf("- %s: %d processos\n", kc.Key, kc.Count))
		}
		sb.WriteString("\n")
	}
	if len(critical) > 0 {
		sb.WriteString("⚠️ **Atenção! Processos Críticos Prioritários:**\n")
		writeAgedList(&sb, firstN(critical, 3), true)
		sb.WriteString("\n")
	}

	sb.WriteString("**Insights Identificados:**\n")
	if len(critical) > 0 {
		sb.WriteString(fmt.Sprintf("- Existem %d processos críticos que requerem atenção imediata\n", len(critical)))
	} else {
		sb.WriteString("- Não há processos críticos no momento, indicando boa gestão de prazos\n")
	}
	if len(top) > 0 {
		sb.WriteString(fmt.Sprintf("- %s é o responsável com maior número de processos (%d)\n", top[0].Key, top[0].Count))
	} else {
		sb.WriteString("- A distribuição de processos entre responsáveis está equilibrada\n")
	}
	lateTypes := aggregate.NewCounter()
	for _, a := range late {
		lateTypes.Inc(string(a.rec.Type))
	}
	if worst := aggregate.TopByCount(lateTypes, 1); len(worst) > 0 {
		sb.WriteString(fmt.Sprintf("- Processos do tipo \"%s\" apresentam maior taxa de atraso\n", worst[0].Key))
	} else {
		sb.WriteString("- Não há um tipo de processo com taxa de atraso significativamente maior\n")
	}

	sb.WriteString("\n**Recomendações:**\n")
	if len(critical) > 0 {
		sb.WriteString(fmt.Sprintf("1. Priorizar a resolução dos %d processos mais críticos\n", min(3, len(critical))))
	} else {
		sb.WriteString("1. Manter o sistema atual de priorização que está funcionando bem\n")
	}
	sb.WriteString("2. Implementar revisões periódicas para processos com mais de 25 dias\n")
	if float64(len(late)) > float64(active)*0.2 {
		sb.WriteString("3. Considerar redistribuição de carga de trabalho entre responsáveis\n")
	} else {
		sb.WriteString("3. Continuar com a atual distribuição de processos que está eficiente\n")
	}
	sb.WriteString("4. Estabelecer métricas de desempenho baseadas nos tempos médios de conclusão\n")

	return Report{Title: "Resumo Geral", Body: sb.String()}
}
