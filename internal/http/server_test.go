package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"saldo/internal/core"
	"saldo/internal/loader"
)

type stubSource struct {
	txs []core.Transaction
	err error
}

func (s *stubSource) FetchTransactions(ctx context.Context) ([]core.Transaction, error) {
	return s.txs, s.err
}

type stubWriter struct {
	appended []core.Transaction
	nextID   int64
}

func (w *stubWriter) Append(ctx context.Context, tx core.Transaction) (int64, error) {
	w.appended = append(w.appended, tx)
	w.nextID++
	return w.nextID, nil
}

func sampleTxs() []core.Transaction {
	return []core.Transaction{
		{ID: 1, Amount: core.Money{Cents: 1500}, Category: "Stipendio", Date: "2025-08-01", Type: core.Income},
		{ID: 2, Amount: core.Money{Cents: -200}, Category: "Spesa", Date: "2025-08-02", Type: core.Expense},
		{ID: 3, Amount: core.Money{Cents: -50}, Category: "Trasporti", Date: "2025-08-03", Type: core.Expense},
		{ID: 4, Amount: core.Money{Cents: 2000}, Category: "Consulenza", Date: "2025-08-04", Type: core.Income},
		{ID: 5, Amount: core.Money{Cents: -300}, Category: "Affitto", Date: "2025-08-05", Type: core.Expense},
		{ID: 6, Amount: core.Money{Cents: -75}, Category: "Ristorante", Date: "2025-08-06", Type: core.Expense},
	}
}

func newTestServer(t *testing.T, src *stubSource, writer *stubWriter) (*Server, *loader.Loader) {
	t.Helper()
	ld := loader.New(src, nil, loader.DefaultConfig())
	var s *Server
	if writer != nil {
		s = NewServer(":0", ld, writer)
	} else {
		s = NewServer(":0", ld, nil)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = s.Shutdown(ctx)
	})
	return s, ld
}

func doRequest(s *Server, method, path string, body []byte) *httptest.ResponseRecorder {
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, path, bytes.NewReader(body))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, req)
	return rec
}

func TestTransactionsBeforeFirstLoad(t *testing.T) {
	s, _ := newTestServer(t, &stubSource{txs: sampleTxs()}, nil)

	rec := doRequest(s, http.MethodGet, "/api/transactions", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp transactionsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Phase != "idle" {
		t.Errorf("phase = %s, want idle", resp.Phase)
	}
	if len(resp.Transactions) != 0 {
		t.Errorf("transactions should be absent before first load, got %d", len(resp.Transactions))
	}
}

func TestTransactionsReady(t *testing.T) {
	s, ld := newTestServer(t, &stubSource{txs: sampleTxs()}, nil)
	if err := ld.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}

	rec := doRequest(s, http.MethodGet, "/api/transactions", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp transactionsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Phase != "ready" || resp.Generation != 1 || resp.Count != 6 {
		t.Fatalf("unexpected response: %+v", resp)
	}
	// Order preserved as fetched.
	if resp.Transactions[0].Category != "Stipendio" || resp.Transactions[5].Category != "Ristorante" {
		t.Errorf("record order not preserved: %+v", resp.Transactions)
	}
}

func TestTransactionsFailed(t *testing.T) {
	s, ld := newTestServer(t, &stubSource{err: errors.New("boom")}, nil)
	_ = ld.Load(context.Background())

	rec := doRequest(s, http.MethodGet, "/api/transactions", nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}

	var resp transactionsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Phase != "failed" || resp.Error == "" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestSummaryReady(t *testing.T) {
	s, ld := newTestServer(t, &stubSource{txs: sampleTxs()}, nil)
	if err := ld.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}

	rec := doRequest(s, http.MethodGet, "/api/summary", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp summaryResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.IncomeCents != 3500 || resp.ExpensesCents != 625 || resp.BalanceCents != 2875 {
		t.Fatalf("unexpected totals: %+v", resp)
	}
	if resp.Income != "€35,00" || resp.Expenses != "€6,25" || resp.Balance != "€28,75" {
		t.Errorf("unexpected formatted totals: %+v", resp)
	}

	// Second request is served from the generation-keyed cache and must
	// carry identical totals.
	rec2 := doRequest(s, http.MethodGet, "/api/summary", nil)
	if !bytes.Equal(rec.Body.Bytes(), rec2.Body.Bytes()) {
		t.Error("cached summary differs from computed summary")
	}
}

func TestSummaryWhileLoadingHasNoTotals(t *testing.T) {
	s, _ := newTestServer(t, &stubSource{txs: sampleTxs()}, nil)

	rec := doRequest(s, http.MethodGet, "/api/summary", nil)
	var resp summaryResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Phase != "idle" || resp.IncomeCents != 0 || resp.Income != "" {
		t.Fatalf("unexpected response before settle: %+v", resp)
	}
}

func TestSummaryMethodNotAllowed(t *testing.T) {
	s, _ := newTestServer(t, &stubSource{}, nil)
	rec := doRequest(s, http.MethodPost, "/api/summary", nil)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", rec.Code)
	}
}

func TestRefreshAccepted(t *testing.T) {
	s, ld := newTestServer(t, &stubSource{txs: sampleTxs()}, nil)

	rec := doRequest(s, http.MethodPost, "/api/refresh", nil)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", rec.Code)
	}

	deadline := time.After(2 * time.Second)
	for ld.Phase() != loader.PhaseReady {
		select {
		case <-deadline:
			t.Fatalf("refresh never settled, phase=%s", ld.Phase())
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestAppendTransaction(t *testing.T) {
	writer := &stubWriter{}
	s, _ := newTestServer(t, &stubSource{txs: sampleTxs()}, writer)

	body := []byte(`{"amount":"12,50","category":"Libri","date":"2025-08-20","type":"expense"}`)
	rec := doRequest(s, http.MethodPost, "/api/transactions", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}
	if len(writer.appended) != 1 {
		t.Fatalf("expected 1 appended record, got %d", len(writer.appended))
	}
	if got := writer.appended[0]; got.Amount.Cents != 1250 || got.Category != "Libri" || got.Type != core.Expense {
		t.Fatalf("unexpected appended record: %+v", got)
	}
}

func TestAppendRejectsInvalidPayload(t *testing.T) {
	writer := &stubWriter{}
	s, _ := newTestServer(t, &stubSource{}, writer)

	cases := []struct {
		name string
		body string
		want int
	}{
		{"malformed json", `{"amount":`, http.StatusBadRequest},
		{"bad amount", `{"amount":"abc","category":"x","date":"2025-08-20","type":"expense"}`, http.StatusUnprocessableEntity},
		{"bad type", `{"amount":"1,00","category":"x","date":"2025-08-20","type":"transfer"}`, http.StatusUnprocessableEntity},
		{"missing category", `{"amount":"1,00","category":"","date":"2025-08-20","type":"income"}`, http.StatusUnprocessableEntity},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := doRequest(s, http.MethodPost, "/api/transactions", []byte(tc.body))
			if rec.Code != tc.want {
				t.Errorf("status = %d, want %d", rec.Code, tc.want)
			}
		})
	}
	if len(writer.appended) != 0 {
		t.Errorf("invalid payloads must not reach the writer, got %d", len(writer.appended))
	}
}

func TestAppendWithoutWriter(t *testing.T) {
	s, _ := newTestServer(t, &stubSource{}, nil)
	body := []byte(`{"amount":"1,00","category":"x","date":"2025-08-20","type":"income"}`)
	rec := doRequest(s, http.MethodPost, "/api/transactions", body)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405 for read-only source", rec.Code)
	}
}

func TestReadyz(t *testing.T) {
	s, ld := newTestServer(t, &stubSource{txs: sampleTxs()}, nil)

	rec := doRequest(s, http.MethodGet, "/readyz", nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("readyz before settle: status = %d, want 503", rec.Code)
	}

	if err := ld.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	rec = doRequest(s, http.MethodGet, "/readyz", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("readyz after settle: status = %d, want 200", rec.Code)
	}
}

func TestHealthz(t *testing.T) {
	s, _ := newTestServer(t, &stubSource{}, nil)
	rec := doRequest(s, http.MethodGet, "/healthz", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestFormatEuros(t *testing.T) {
	cases := []struct {
		cents int64
		want  string
	}{
		{0, "€0,00"},
		{2875, "€28,75"},
		{100, "€1,00"},
		{5, "€0,05"},
		{-1250, "-€12,50"},
	}
	for _, tc := range cases {
		if got := formatEuros(tc.cents); got != tc.want {
			t.Errorf("formatEuros(%d) = %s, want %s", tc.cents, got, tc.want)
		}
	}
}
