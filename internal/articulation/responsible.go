package articulation

import (
	"fmt"
	"strings"

	"procintel/internal/aggregate"
	"procintel/internal/types"
)

// bottleneckRate is the delay rate above which a party is a bottleneck.
const bottleneckRate = 0.3

func assignedTo(name string, records []types.ProcessRecord) []types.ProcessRecord {
	g := aggregate.GroupBy(records, func(r types.ProcessRecord) bool {
		return strings.Contains(strings.ToUpper(r.Responsible), name)
	})
	return g.Get(true)
}

func (s *Synthesizer) responsible(name string, in Input) Report {
	name = strings.ToUpper(name)
	active := assignedTo(name, in.Active)
	completed := assignedTo(name, in.Completed)
	var biddings []types.BiddingRecord
	for _, b := range in.Biddings {
		if b.Involves(name) {
			biddings = append(biddings, b)
		}
	}

	title := "Processos de " + name
	if len(active) == 0 && len(completed) == 0 && len(biddings) == 0 {
		return Report{
			Title: title,
			Body:  fmt.Sprintf("👤 Não encontrei processos ou pregões atribuídos a %s.", name),
		}
	}

	t := s.classifier.Thresholds()
	critical := byAge(s.classifier, active, func(d int) bool { return d > t.Critical })
	delayed := byAge(s.classifier, active, func(d int) bool { return d > t.Delayed && d <= t.Critical })

	avg := "N/A"
	if mean, ok := aggregate.MeanCompletionDays(completed, s.classifier); ok {
		avg = fmt.Sprintf("%d dias", days(mean))
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("👤 **Processos de %s**\n\n", name))
	sb.WriteString(fmt.Sprintf("**Processos Ativos:** %d\n", len(active)))
	sb.WriteString(fmt.Sprintf("**Processos Concluídos:** %d\n", len(completed)))
	sb.WriteString(fmt.Sprintf("**Tempo Médio de Conclusão:** %s\n", avg))
	sb.WriteString(fmt.Sprintf("**Total de Pregões:** %d\n", len(biddings)))
	sb.WriteString(fmt.Sprintf("**Processos Atrasados:** %d\n", len(delayed)+len(critical)))
	sb.WriteString(fmt.Sprintf("**Processos Críticos:** %d\n\n", len(critical)))

	if len(critical) > 0 {
		sb.WriteString("⚠️ **Processos Críticos:**\n")
		writeAgedList(&sb, critical, false)
		sb.WriteString("\n")
	}
	if len(delayed) > 0 {
		sb.WriteString("⏰ **Processos Atrasados:**\n")
		writeAgedList(&sb, delayed, false)
		sb.WriteString("\n")
	}
	if len(biddings) > 0 {
		sb.WriteString("📋 **Pregões:**\n")
		for _, b := range biddings {
			sb.WriteString(fmt.Sprintf("- %s - %s (%s)\n", b.SEI, b.Description, orDefault(b.Status, "Pendente")))
		}
	}

	return Report{Title: title, Body: sb.String()}
}

func (s *Synthesizer) efficiency(in Input) Report {
	table := in.Views.Responsibles

	var sb strings.Builder
	sb.WriteString("👥 **Análise de Eficiência por Responsável**\n\n")

	efficient := table.MostEfficient(3)
	sb.WriteString("**Responsáveis Mais Eficientes (menor tempo médio):**\n")
	if len(efficient) == 0 {
		sb.WriteString("- Ainda não há processos concluídos para comparar\n")
	}
	for _, r := range efficient {
		sb.WriteString(fmt.Sprintf("- %s: %d dias em média (%d processos concluídos)\n", r.Name, days(r.AverageCompletionDays), r.Completed))
	}

	sb.WriteString("\n**Responsáveis com Maior Carga Atual:**\n")
	loaded := table.HighestLoad(3)
	if len(loaded) == 0 {
		sb.WriteString("- Nenhum processo ativo no momento\n")
	}
	for _, r := range loaded {
		sb.WriteString(fmt.Sprintf("- %s: %d processos ativos, %d atrasados\n", r.Name, r.Active, r.DelayedOrCritical()))
	}

	sb.WriteString("\n**Análise de Gargalos:**\n")
	bottlenecks := table.Bottlenecks(bottleneckRate, 2)
	if len(bottlenecks) == 0 {
		sb.WriteString("- Não foram identificados gargalos significativos na distribuição atual\n")
	}
	for _, r := range bottlenecks {
		sb.WriteString(fmt.Sprintf("- %s: %s dos processos ativos estão atrasados ou críticos\n", r.Name, ratioPercent(r.DelayRate())))
	}

	first := "Manter a distribuição atual de processos que está equilibrada"
	if len(bottlenecks) > 0 {
		first = "Redistribuir parte dos processos de " + bottlenecks[0].Name
	}
	model := "responsáveis mais eficientes"
	if len(efficient) > 0 {
		model = efficient[0].Name
	}
	commonType := "mais comum"
	allTypes := aggregate.NewCounter()
	for _, r := range table.All() {
		for _, k := range r.Types.Keys() {
			allTypes.Add(k, r.Types.Get(k))
		}
	}
	if top := aggregate.TopByCount(allTypes, 1); len(top) > 0 {
		commonType = top[0].Key
	}

	sb.WriteString("\n**Recomendações para Otimização:**\n")
	sb.WriteString(fmt.Sprintf("1. %s\n", first))
	sb.WriteString(fmt.Sprintf("2. Aplicar práticas de %s como modelo para a equipe\n", model))
	sb.WriteString(fmt.Sprintf("3. Implementar revisão por pares para processos do tipo \"%s\"\n", commonType))
	sb.WriteString("4. Estabelecer metas de tempo baseadas nas médias dos responsáveis mais eficientes\n")

	return Report{Title: "Eficiência por Responsável", Body: sb.String()}
}
