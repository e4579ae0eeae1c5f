package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"procintel/internal/config"
	"procintel/internal/core"
	"procintel/internal/health"
	"procintel/internal/store"
	"procintel/internal/types"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	goleak.VerifyTestMain(m)
}

var now = time.Date(2024, 6, 30, 15, 0, 0, 0, time.UTC)

func snapshot() types.Snapshot {
	exit := now.AddDate(0, 0, -3)
	return types.Snapshot{
		Processes: []types.ProcessRecord{
			{ID: "a", SEI: "12345-678.2024", Name: "Limpeza", Responsible: "DIEGO", Type: types.TypeQuotation, ArrivalDate: now.AddDate(0, 0, -50)},
			{ID: "b", SEI: "2-1.2024", Name: "Papel", Responsible: "KAREN", Type: types.TypeCalculation, ArrivalDate: now.AddDate(0, 0, -5)},
			{ID: "bad", SEI: "3-1.2024", Responsible: "KAREN"},
		},
		Completed: []types.ProcessRecord{
			{ID: "c", SEI: "4-1.2024", Responsible: "DIEGO", Type: types.TypePNCP, ArrivalDate: exit.AddDate(0, 0, -10), ExitDate: &exit},
		},
	}
}

func newServer(t *testing.T, src SnapshotSource, opts ...Option) *Server {
	t.Helper()
	eng := core.NewEngine(core.WithClock(health.FixedClock(now)))
	return New(eng, src, opts...)
}

func do(t *testing.T, h http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestHealthz(t *testing.T) {
	w := do(t, newServer(t, StaticSource{}).Handler(), http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(HeaderRequestID))
}

func TestAskLookup(t *testing.T) {
	h := newServer(t, StaticSource(snapshot())).Handler()
	w := do(t, h, http.MethodPost, "/api/ask", AskRequest{Query: "me fale do 12345-678.2024", Think: true})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp AskResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "specific_record_lookup", resp.Intent)
	assert.Equal(t, "12345-678.2024", resp.Subject)
	assert.Contains(t, resp.Report, "URGENTE")
	assert.NotEmpty(t, resp.Thinking)
	assert.Len(t, resp.Excluded, 1)
	assert.Equal(t, w.Header().Get(HeaderRequestID), resp.RequestID)
}

func TestAskOmitsThinkingByDefault(t *testing.T) {
	h := newServer(t, StaticSource(snapshot())).Handler()
	w := do(t, h, http.MethodPost, "/api/ask", AskRequest{Query: "processos atrasados"})
	require.Equal(t, http.StatusOK, w.Code)

	var resp AskResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "delayed_or_critical", resp.Intent)
	assert.Empty(t, resp.Thinking)
}

func TestAskRejectsEmptyQuery(t *testing.T) {
	h := newServer(t, StaticSource{}).Handler()
	for _, body := range []interface{}{AskRequest{Query: "   "}, map[string]string{}, nil} {
		w := do(t, h, http.MethodPost, "/api/ask", body)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	}
}

func TestRequestIDIsPropagated(t *testing.T) {
	h := newServer(t, StaticSource{}).Handler()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(HeaderRequestID, "abc-123")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get(HeaderRequestID))
}

func TestSummary(t *testing.T) {
	h := newServer(t, StaticSource(snapshot())).Handler()
	w := do(t, h, http.MethodGet, "/api/summary", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp AskResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "general_summary", resp.Intent)
	assert.Equal(t, "Resumo Geral", resp.Title)
}

type failingSource struct{}

func (failingSource) LoadSnapshot(context.Context) (types.Snapshot, error) {
	return types.Snapshot{}, errors.New("disk on fire")
}

func TestSourceFailure(t *testing.T) {
	w := do(t, newServer(t, failingSource{}).Handler(), http.MethodGet, "/api/summary", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.NotContains(t, w.Body.String(), "disk on fire")
}

func TestStoreBackedHistory(t *testing.T) {
	st, err := store.NewLocalStore(filepath.Join(t.TempDir(), "p.db"))
	require.NoError(t, err)
	defer st.Close()
	require.NoError(t, st.SaveSnapshot(context.Background(), snapshot()))

	h := newServer(t, st, WithQueryLog(st)).Handler()
	require.Equal(t, http.StatusOK, do(t, h, http.MethodPost, "/api/ask", AskRequest{Query: "pregões"}).Code)
	require.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/api/summary", nil).Code)

	w := do(t, h, http.MethodGet, "/api/history?limit=5", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Queries []store.QueryLogEntry `json:"queries"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Queries, 2)
	assert.Equal(t, summaryQuery, body.Queries[0].Query)
	assert.Equal(t, "bidding_status", body.Queries[1].Intent)
}

func TestHistoryDisabled(t *testing.T) {
	w := do(t, newServer(t, StaticSource{}).Handler(), http.MethodGet, "/api/history", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRecoveryMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(RequestID(), Recovery())
	r.GET("/boom", func(*gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "request_id")
}

func TestRunShutsDownOnCancel(t *testing.T) {
	s := newServer(t, StaticSource{}, WithConfig(config.ServerConfig{Addr: "127.0.0.1:0", ShutdownTimeout: "1s"}))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func askReport(t *testing.T, h http.Handler, query string) string {
	t.Helper()
	w := do(t, h, http.MethodPost, "/api/ask", AskRequest{Query: query})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp AskResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Report
}

func newRecordServer(t *testing.T) http.Handler {
	t.Helper()
	st, err := store.NewLocalStore(filepath.Join(t.TempDir(), "p.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	st.SetClock(func() time.Time { return now })

	snap := snapshot()
	snap.Biddings = []types.BiddingRecord{{ID: "b1", SEI: "9-9.2024", Description: "Pregão de TI", Preparer: "DIEGO"}}
	require.NoError(t, st.SaveSnapshot(context.Background(), snap))
	return newServer(t, st, WithRecords(st)).Handler()
}

func TestBiddingStatusChangeIsRecent(t *testing.T) {
	h := newRecordServer(t)
	assert.NotContains(t, askReport(t, h, "pregões"), "Atualizados nos Últimos 30 Dias")

	w := do(t, h, http.MethodPut, "/api/biddings/9-9.2024/status", StatusRequest{Status: "EM ANÁLISE"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "EM ANÁLISE")

	report := askReport(t, h, "pregões")
	assert.Contains(t, report, "Atualizados nos Últimos 30 Dias")
	assert.Contains(t, report, "9-9.2024 - Pregão de TI (EM ANÁLISE)")

	w = do(t, h, http.MethodPut, "/api/biddings/1-1.1999/status", StatusRequest{Status: "AUTORIZADO"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	assert.Equal(t, http.StatusNoContent, do(t, h, http.MethodDelete, "/api/biddings/9-9.2024", nil).Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodDelete, "/api/biddings/9-9.2024", nil).Code)
}

func TestCompleteProcess(t *testing.T) {
	h := newRecordServer(t)

	w := do(t, h, http.MethodPost, "/api/processes/12345-678.2024/complete", CompleteRequest{ExitDate: "2024-01-01"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code, "exit before arrival")

	w = do(t, h, http.MethodPost, "/api/processes/12345-678.2024/complete", CompleteRequest{ExitDate: "junho"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, h, http.MethodPost, "/api/processes/12345-678.2024/complete", CompleteRequest{ExitDate: "2024-06-29"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, askReport(t, h, "12345-678.2024"), "**Data de Saída:** 29/06/2024")

	w = do(t, h, http.MethodPost, "/api/processes/0-0.0/complete", CompleteRequest{})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPutAndDeleteProcess(t *testing.T) {
	h := newRecordServer(t)

	body := types.ProcessRecord{Name: "Cadeiras", Responsible: "KAREN", Type: types.TypeQuotation, ArrivalDate: now.AddDate(0, 0, -2)}
	w := do(t, h, http.MethodPut, "/api/processes/77-7.2024", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, askReport(t, h, "como está o 77-7.2024?"), "Cadeiras")

	w = do(t, h, http.MethodPut, "/api/processes/78-7.2024", types.ProcessRecord{Name: "Sem data"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	assert.Equal(t, http.StatusNoContent, do(t, h, http.MethodDelete, "/api/processes/77-7.2024", nil).Code)
	assert.Contains(t, askReport(t, h, "como está o 77-7.2024?"), "Não encontrei nenhum processo")
}

func TestRecordEditingDisabled(t *testing.T) {
	h := newServer(t, StaticSource(snapshot())).Handler()
	w := do(t, h, http.MethodPut, "/api/biddings/9-9.2024/status", StatusRequest{Status: "AUTORIZADO"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}
