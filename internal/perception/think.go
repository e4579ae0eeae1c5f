package perception

import "fmt"

// Facts are the snapshot counts quoted in the thinking trace.
type Facts struct {
	Active       int
	Completed    int
	Biddings     int
	Delayed      int
	Critical     int
	Types        int
	Responsibles int
	// DelayedDays and CriticalDays are the classifier boundaries. Zero means
	// the 30/45 defaults.
	DelayedDays  int
	CriticalDays int
}

func (f Facts) bounds() (delayed, critical int) {
	delayed, critical = f.DelayedDays, f.CriticalDays
	if delayed <= 0 {
		delayed = 30
	}
	if critical <= 0 {
		critical = 45
	}
	return delayed, critical
}

// Think returns the numbered analysis steps shown before the answer. The
// steps describe what the report stage will compute; they carry counts but no
// results.
func Think(d Decision, f Facts) []string {
	var header string
	var steps []string

	switch d.Intent {
	case DelayedOrCritical:
		header = "Analisando processos atrasados e críticos..."
		delayed, critical := f.bounds()
		steps = []string{
			fmt.Sprintf("Verificando todos os processos ativos: %d processos encontrados", f.Active),
			"Calculando dias decorridos para cada processo...",
			fmt.Sprintf("Identificando processos com mais de %d dias: %d processos atrasados", delayed, f.Delayed+f.Critical),
			fmt.Sprintf("Identificando processos com mais de %d dias: %d processos críticos", critical, f.Critical),
			"Ordenando processos por tempo decorrido (decrescente)",
			"Analisando responsáveis por processos críticos...",
			"Gerando recomendações baseadas nos dados analisados",
		}
	case TrendsAndPatterns:
		header = "Analisando tendências e padrões nos processos..."
		steps = []string{
			fmt.Sprintf("Agrupando processos por tipo: %d tipos diferentes", f.Types),
			"Calculando tempo médio de conclusão por tipo de processo...",
			"Identificando tipos de processo com maior taxa de atraso...",
			"Analisando distribuição de processos por responsável...",
			"Verificando concentração por modalidade...",
			"Gerando insights baseados nos padrões identificados",
		}
	case ResponsibleBreakdown:
		if d.Named() {
			header = fmt.Sprintf("Analisando processos de %s...", d.Subject)
			steps = []string{
				fmt.Sprintf("Filtrando processos ativos atribuídos a %s...", d.Subject),
				"Filtrando processos concluídos e tempo médio de conclusão...",
				"Identificando processos críticos e atrasados...",
				"Verificando pregões em que participa (preparação, revisão, sistema)...",
				"Gerando resumo individual",
			}
			break
		}
		header = "Analisando eficiência por responsável..."
		steps = []string{
			fmt.Sprintf("Identificando todos os responsáveis: %d responsáveis encontrados", f.Responsibles),
			"Contabilizando número de processos por responsável...",
			"Calculando tempo médio de conclusão por responsável...",
			"Identificando taxa de processos atrasados por responsável...",
			"Verificando carga de trabalho atual de cada responsável...",
			"Gerando recomendações para otimização de atribuições",
		}
	case PredictiveForecast:
		header = "Projetando conclusões futuras..."
		steps = []string{
			fmt.Sprintf("Calculando taxa de conclusão: %d concluídos, %d ativos", f.Completed, f.Active),
			"Calculando tempo médio de conclusão histórico...",
			"Estimando conclusões para os próximos 30 dias...",
			"Identificando processos com risco de se tornarem críticos...",
			"Gerando recomendações proativas",
		}
	case BiddingStatus:
		header = "Analisando pregões..."
		steps = []string{
			fmt.Sprintf("Verificando pregões cadastrados: %d encontrados", f.Biddings),
			"Separando pregões autorizados e pendentes...",
			"Verificando atualizações recentes...",
		}
	case SpecificRecordLookup:
		header = "Buscando processo..."
		code := d.Subject
		if code == "" {
			code = "(nenhum número informado)"
		}
		steps = []string{
			fmt.Sprintf("Extraindo número de referência: %s", code),
			fmt.Sprintf("Procurando entre %d processos ativos e %d concluídos...", f.Active, f.Completed),
			fmt.Sprintf("Procurando entre %d pregões...", f.Biddings),
			"Avaliando situação e gerando recomendação",
		}
	default:
		header = fmt.Sprintf("Analisando consulta do usuário: %q", d.Query)
		steps = []string{
			"Identificando palavras-chave na consulta...",
			fmt.Sprintf("Verificando dados disponíveis: %d processos ativos, %d pregões, %d processos concluídos", f.Active, f.Biddings, f.Completed),
			"Calculando métricas gerais do sistema...",
			fmt.Sprintf("Identificando processos críticos: %d encontrados", f.Critical),
			"Analisando distribuição de processos por tipo e modalidade...",
			"Gerando resposta baseada nos dados analisados",
		}
	}

	out := make([]string, 0, len(steps)+1)
	out = append(out, header)
	for i, s := range steps {
		out = append(out, fmt.Sprintf("%d. %s", i+1, s))
	}
	return out
}
