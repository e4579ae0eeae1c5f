package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sheet = `SEQ;Nº SEI;OBJETO;RESPONSÁVEL;TIPO;MODALIDADE;DATA CHEGADA;DATA SAÍDA;OBSERVAÇÕES
1;12345-678.2024;Aquisição de papel;DIEGO;2.COTAÇÃO;LICITAR;01/06/2024;;urgente
2;22222-222.2024;Manutenção predial;KAREN;8.PNCP;ADITIVO;01/04/2024;15/04/2024;
3;33333-333.2024;Material de limpeza;THAYS;PREGÃO AUTORIZADO;;10/05/2024;;
`

func resetFlags() {
	verbose, dbPath, csvPath, useDemo = false, "", "", false
	showThinking, rawOutput, whyFull = false, false, false
	historyLimit = 20
	procID, procSEI, procName, procResponsible = "", "", "", ""
	procType, procModality, procArrival, procNotes, exitDate = "", "", "", "", ""
	cfg = nil
}

// execute runs the CLI with args against a temp config and database.
func execute(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	resetFlags()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	full := append([]string{"--config", filepath.Join(dir, "procintel.yaml"), "--db", filepath.Join(dir, "p.db")}, args...)
	rootCmd.SetArgs(full)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func writeSheet(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "processos.csv")
	require.NoError(t, os.WriteFile(path, []byte(sheet), 0644))
	return path
}

func TestJoinArgs(t *testing.T) {
	assert.Equal(t, "me fale do 1-2.3", joinArgs([]string{"me", "fale", "do", "1-2.3"}))
	assert.Equal(t, "", joinArgs(nil))
}

func TestImportThenAsk(t *testing.T) {
	dir := t.TempDir()
	path := writeSheet(t, dir)

	out, err := execute(t, dir, "import", path)
	require.NoError(t, err)
	assert.Contains(t, out, "1 ativos, 1 concluídos, 1 pregões")

	out, err = execute(t, dir, "ask", "--raw", "me", "fale", "do", "12345-678.2024")
	require.NoError(t, err)
	assert.Contains(t, out, "12345-678.2024")
	assert.Contains(t, out, "Aquisição de papel")

	out, err = execute(t, dir, "history")
	require.NoError(t, err)
	assert.Contains(t, out, "specific_record_lookup")
}

func TestAskFromCSVWithThinking(t *testing.T) {
	dir := t.TempDir()
	path := writeSheet(t, dir)

	out, err := execute(t, dir, "--csv", path, "ask", "--raw", "--think", "pregões")
	require.NoError(t, err)
	assert.Contains(t, out, "Pregões")
	assert.NoFileExists(t, filepath.Join(dir, "p.db"), "--csv does not touch the database")
}

func TestSeedThenSummary(t *testing.T) {
	dir := t.TempDir()
	out, err := execute(t, dir, "seed", "--processes", "5", "--completed", "3", "--biddings", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "Gerados 5 ativos, 3 concluídos, 2 pregões")

	out, err = execute(t, dir, "ask", "--raw", "resumo", "geral")
	require.NoError(t, err)
	assert.Contains(t, out, "Resumo")
}

func TestAskDemo(t *testing.T) {
	out, err := execute(t, t.TempDir(), "--demo", "ask", "--raw", "eficiência dos responsáveis")
	require.NoError(t, err)
	assert.NotEmpty(t, out)
}

func TestWhyShowsWinningRule(t *testing.T) {
	out, err := execute(t, t.TempDir(), "why", "processos", "atrasados")
	require.NoError(t, err)
	assert.Contains(t, out, "delay")
	assert.Contains(t, out, "atrasado")
}

func TestWhyFull(t *testing.T) {
	out, err := execute(t, t.TempDir(), "--demo", "why", "--full", "resumo")
	require.NoError(t, err)
	assert.Contains(t, out, "general_summary")
}

func TestHistoryEmpty(t *testing.T) {
	out, err := execute(t, t.TempDir(), "history")
	require.NoError(t, err)
	assert.Contains(t, out, "Nenhuma pergunta registrada")
}

func TestConfigInitAndShow(t *testing.T) {
	dir := t.TempDir()
	out, err := execute(t, dir, "config", "init")
	require.NoError(t, err)
	assert.Contains(t, out, "procintel.yaml")
	assert.FileExists(t, filepath.Join(dir, "procintel.yaml"))

	out, err = execute(t, dir, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "critical_days: 45")
}

func TestInvalidConfigRejected(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "procintel.yaml"), []byte("engine:\n  fast_days: 50\n"), 0644))
	_, err := execute(t, dir, "config", "show")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid thresholds")
}

func TestAskRequiresQuestion(t *testing.T) {
	_, err := execute(t, t.TempDir(), "ask")
	assert.Error(t, err)
}

func TestBiddingStatusShowsAsRecentlyChanged(t *testing.T) {
	dir := t.TempDir()
	_, err := execute(t, dir, "import", writeSheet(t, dir))
	require.NoError(t, err)

	out, err := execute(t, dir, "ask", "--raw", "status", "dos", "pregões")
	require.NoError(t, err)
	assert.NotContains(t, out, "Atualizados nos Últimos 30 Dias")

	out, err = execute(t, dir, "bidding", "status", "33333-333.2024", "EM", "ANÁLISE")
	require.NoError(t, err)
	assert.Contains(t, out, "Pregão 33333-333.2024: EM ANÁLISE")

	out, err = execute(t, dir, "ask", "--raw", "status", "dos", "pregões")
	require.NoError(t, err)
	assert.Contains(t, out, "Atualizados nos Últimos 30 Dias")
	assert.Contains(t, out, "33333-333.2024 - Material de limpeza (EM ANÁLISE)")

	_, err = execute(t, dir, "bidding", "delete", "33333-333.2024")
	require.NoError(t, err)
	_, err = execute(t, dir, "bidding", "delete", "33333-333.2024")
	assert.Error(t, err)
}

func TestProcessCommands(t *testing.T) {
	dir := t.TempDir()
	_, err := execute(t, dir, "import", writeSheet(t, dir))
	require.NoError(t, err)

	_, err = execute(t, dir, "process", "complete", "12345-678.2024", "--exit", "01/01/2024")
	require.Error(t, err, "exit before arrival")

	out, err := execute(t, dir, "process", "complete", "12345-678.2024", "--exit", "20/06/2024")
	require.NoError(t, err)
	assert.Contains(t, out, "Processo 12345-678.2024 concluído em 20/06/2024")

	out, err = execute(t, dir, "ask", "--raw", "12345-678.2024")
	require.NoError(t, err)
	assert.Contains(t, out, "**Data de Saída:** 20/06/2024")

	out, err = execute(t, dir, "process", "add", "--sei", "44444-444.2024", "--name", "Cadeiras",
		"--responsible", "karen", "--type", "2.COTAÇÃO", "--arrival", "01/05/2024")
	require.NoError(t, err)
	assert.Contains(t, out, "Processo 44444-444.2024 salvo")

	out, err = execute(t, dir, "ask", "--raw", "44444-444.2024")
	require.NoError(t, err)
	assert.Contains(t, out, "**Responsável:** KAREN")

	_, err = execute(t, dir, "process", "delete", "44444-444.2024")
	require.NoError(t, err)
	out, err = execute(t, dir, "ask", "--raw", "44444-444.2024")
	require.NoError(t, err)
	assert.Contains(t, out, "Não encontrei nenhum processo com o SEI 44444-444.2024")
}
