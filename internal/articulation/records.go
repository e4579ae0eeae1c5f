package articulation

import (
	"errors"
	"fmt"
	"strings"

	"procintel/internal/health"
	"procintel/internal/perception"
	"procintel/internal/retrieval"
	"procintel/internal/types"
)

func (s *Synthesizer) lookup(d perception.Decision, in Input) Report {
	if in.Match != nil && in.LookupErr == nil {
		switch {
		case in.Match.Process != nil:
			return s.processReport(*in.Match.Process)
		case in.Match.Bidding != nil:
			return biddingReport(*in.Match.Bidding)
		}
	}

	code := d.Subject
	var nm *retrieval.NoMatchError
	if errors.As(in.LookupErr, &nm) && nm.Code != "" {
		code = nm.Code
	}
	if code == "" {
		return Report{
			Title: "Processo não informado",
			Body:  "Para consultar um processo específico, informe o número SEI (por exemplo: 12345-678.2024).",
		}
	}
	return Report{
		Title: "Processo não encontrado",
		Body:  fmt.Sprintf("Não encontrei nenhum processo com o SEI %s. Verifique se o número está correto ou tente outra consulta.", code),
	}
}

func (s *Synthesizer) processReport(p types.ProcessRecord) Report {
	state := s.classifier.State(p)
	elapsed := s.classifier.Elapsed(p)

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("📋 **Processo SEI %s**\n\n", p.SEI))
	sb.WriteString(fmt.Sprintf("**Objeto:** %s\n", p.Name))
	sb.WriteString(fmt.Sprintf("**Responsável:** %s\n", p.Responsible))
	sb.WriteString(fmt.Sprintf("**Tipo:** %s\n", p.Type))
	sb.WriteString(fmt.Sprintf("**Modalidade:** %s\n", orDefault(string(p.Modality), "Não especificada")))
	sb.WriteString(fmt.Sprintf("**Data de Chegada:** %s\n", formatDate(p.ArrivalDate)))
	if p.ExitDate != nil {
		sb.WriteString(fmt.Sprintf("**Data de Saída:** %s\n", formatDate(*p.ExitDate)))
	}
	sb.WriteString(fmt.Sprintf("**Dias Decorridos:** %d dias\n", elapsed))
	sb.WriteString(fmt.Sprintf("**Status:** %s %s\n", state.Icon(), state))
	if p.Observations != "" {
		sb.WriteString(fmt.Sprintf("**Observações:** %s\n", p.Observations))
	}
	if p.Authorizer != "" {
		sb.WriteString(fmt.Sprintf("**Autorizado por:** %s\n", p.Authorizer))
	}
	sb.WriteString("\n")
	sb.WriteString(ProcessRecommendation(s.classifier, p))

	return Report{Title: "Processo SEI " + p.SEI, Body: sb.String()}
}

func biddingReport(b types.BiddingRecord) Report {
	status := "⏳ Pendente"
	switch {
	case b.IsAuthorized():
		status = "✅ " + b.Status
	case strings.TrimSpace(b.Status) != "":
		status = "⏳ " + b.Status
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("🔖 **Pregão SEI %s**\n\n", b.SEI))
	sb.WriteString(fmt.Sprintf("**Sequência:** %s\n", b.Seq))
	sb.WriteString(fmt.Sprintf("**Descrição:** %s\n", b.Description))
	sb.WriteString(fmt.Sprintf("**Elaboração:** %s\n", orDefault(b.Preparer, "Não definido")))
	sb.WriteString(fmt.Sprintf("**Revisão:** %s\n", orDefault(b.Reviewer, "Não definido")))
	sb.WriteString(fmt.Sprintf("**Sistema:** %s\n", orDefault(b.SystemOwner, "Não definido")))
	sb.WriteString(fmt.Sprintf("**Status:** %s\n", status))
	if b.Notes != "" {
		sb.WriteString(fmt.Sprintf("**Observações:** %s\n", b.Notes))
	}
	sb.WriteString("\n")
	sb.WriteString(BiddingRecommendation(b))

	return Report{Title: "Pregão SEI " + b.SEI, Body: sb.String()}
}

// ProcessRecommendation returns the single recommendation for a record. Open
// records are judged on elapsed time, completed records on completion time,
// both against the classifier's thresholds.
func ProcessRecommendation(c *health.Classifier, p types.ProcessRecord) string {
	t := c.Thresholds()
	if days, done := c.CompletionDays(p); done {
		switch {
		case days <= t.Fast:
			return fmt.Sprintf("✅ Este processo foi concluído rapidamente, em até %d dias. Excelente eficiência!", t.Fast)
		case days <= t.Delayed:
			return "✅ Este processo foi concluído dentro do prazo normal."
		case days <= t.Critical:
			return "⚠️ Este processo demorou mais que o ideal para ser concluído. Considere revisar o fluxo para identificar possíveis melhorias."
		default:
			return "🔴 Este processo demorou significativamente mais que o esperado para ser concluído. Recomendo uma análise detalhada para identificar gargalos no processo."
		}
	}

	days := c.Elapsed(p)
	switch {
	case days <= t.Fast:
		return "🟢 Este processo está dentro do prazo esperado."
	case days <= t.Delayed:
		return "🟢 Este processo ainda está dentro do prazo, mas está se aproximando do limite. Recomendo acompanhamento."
	case days <= t.Critical:
		return "🟠 ATENÇÃO: Este processo está atrasado. Recomendo priorização para evitar que se torne crítico."
	default:
		return "🔴 URGENTE: Este processo está em estado crítico e requer atenção imediata. Recomendo verificar os motivos do atraso e definir um plano de ação para sua conclusão."
	}
}

// BiddingRecommendation returns the single recommendation for a bidding.
func BiddingRecommendation(b types.BiddingRecord) string {
	switch {
	case b.IsAuthorized():
		return "✅ Este pregão está autorizado. Nenhuma ação adicional é necessária no momento."
	case strings.TrimSpace(b.Preparer) == "":
		return "⚠️ Este pregão não tem um responsável pela elaboração definido. Recomendo designar um responsável o quanto antes."
	case strings.TrimSpace(b.Reviewer) == "":
		return "⚠️ Este pregão não tem um responsável pela revisão definido. Recomendo designar um revisor para garantir a qualidade do processo."
	case strings.TrimSpace(b.SystemOwner) == "":
		return "⚠️ Este pregão não tem um responsável pelo sistema definido. Recomendo designar um responsável para o sistema."
	default:
		return "⏳ Este pregão está em andamento com todos os responsáveis designados. Continue acompanhando seu progresso."
	}
}
