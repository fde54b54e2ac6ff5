package http

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"saldo/internal/core"
	"saldo/internal/loader"
)

type wireTransaction struct {
	ID          int64  `json:"id"`
	AmountCents int64  `json:"amount_cents"`
	Category    string `json:"category"`
	Date        string `json:"date"`
	Type        string `json:"type"`
}

type transactionsResponse struct {
	Phase        string            `json:"phase"`
	Generation   uint64            `json:"generation"`
	Count        int               `json:"count"`
	Transactions []wireTransaction `json:"transactions"`
	Error        string            `json:"error,omitempty"`
}

type summaryResponse struct {
	Phase         string `json:"phase"`
	Generation    uint64 `json:"generation"`
	IncomeCents   int64  `json:"income_cents"`
	ExpensesCents int64  `json:"expenses_cents"`
	BalanceCents  int64  `json:"balance_cents"`
	Income        string `json:"income"`
	Expenses      string `json:"expenses"`
	Balance       string `json:"balance"`
	Error         string `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode JSON response", "error", err)
	}
}

// handleTransactions serves the collection with its lifecycle phase. The
// phase is always present so clients can poll through Loading; records
// appear only once the collection is Ready.
func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		if r.Method == http.MethodPost {
			s.handleAppendTransaction(w, r)
			return
		}
		w.Header().Set("Allow", "GET, POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	snap := s.loader.Snapshot()
	resp := transactionsResponse{
		Phase:      string(snap.Phase),
		Generation: snap.Generation,
	}

	switch snap.Phase {
	case loader.PhaseFailed:
		resp.Error = snap.Err.Error()
		writeJSON(w, http.StatusServiceUnavailable, resp)
	case loader.PhaseReady:
		resp.Count = len(snap.Transactions)
		resp.Transactions = make([]wireTransaction, len(snap.Transactions))
		for i, tx := range snap.Transactions {
			resp.Transactions[i] = wireTransaction{
				ID:          tx.ID,
				AmountCents: tx.Amount.Cents,
				Category:    tx.Category,
				Date:        tx.Date,
				Type:        string(tx.Type),
			}
		}
		writeJSON(w, http.StatusOK, resp)
	default:
		writeJSON(w, http.StatusOK, resp)
	}
}

// handleSummary serves the derived totals. Ready responses are cached by
// generation; a refresh settles a new generation and misses the cache.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	snap := s.loader.Snapshot()

	switch snap.Phase {
	case loader.PhaseFailed:
		writeJSON(w, http.StatusServiceUnavailable, summaryResponse{
			Phase:      string(snap.Phase),
			Generation: snap.Generation,
			Error:      snap.Err.Error(),
		})
	case loader.PhaseReady:
		key := summaryCacheKey(snap.Generation)
		if resp, found := s.summaryCache.Get(key); found {
			slog.DebugContext(r.Context(), "Summary cache hit", "generation", snap.Generation)
			writeJSON(w, http.StatusOK, resp)
			return
		}

		resp := summaryResponse{
			Phase:         string(snap.Phase),
			Generation:    snap.Generation,
			IncomeCents:   snap.Summary.Income.Cents,
			ExpensesCents: snap.Summary.Expenses.Cents,
			BalanceCents:  snap.Summary.Balance.Cents,
			Income:        formatEuros(snap.Summary.Income.Cents),
			Expenses:      formatEuros(snap.Summary.Expenses.Cents),
			Balance:       formatEuros(snap.Summary.Balance.Cents),
		}
		s.summaryCache.Set(key, resp)
		writeJSON(w, http.StatusOK, resp)
	default:
		writeJSON(w, http.StatusOK, summaryResponse{
			Phase:      string(snap.Phase),
			Generation: snap.Generation,
		})
	}
}

// handleRefresh triggers a reload and returns immediately; the outcome is
// observed through the other endpoints.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	go func() {
		if err := s.loader.Reload(context.Background()); err != nil {
			slog.Error("Manual refresh failed", "error", err)
		}
	}()

	writeJSON(w, http.StatusAccepted, map[string]string{"status": "refresh triggered"})
}

type appendRequest struct {
	Amount   string `json:"amount"`
	Category string `json:"category"`
	Date     string `json:"date"`
	Type     string `json:"type"`
}

// handleAppendTransaction writes one record through the source's writer
// port and triggers a reload so the collection picks it up.
func (s *Server) handleAppendTransaction(w http.ResponseWriter, r *http.Request) {
	if s.writer == nil {
		w.Header().Set("Allow", "GET")
		http.Error(w, "source is read-only", http.StatusMethodNotAllowed)
		return
	}

	var req appendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	cents, err := core.ParseSignedDecimalToCents(strings.TrimSpace(req.Amount))
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": "invalid amount"})
		return
	}

	tx := core.Transaction{
		Amount:   core.Money{Cents: cents},
		Category: sanitizeInput(req.Category),
		Date:     strings.TrimSpace(req.Date),
		Type:     core.TransactionType(strings.TrimSpace(req.Type)),
	}
	if err := tx.Validate(); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
		return
	}

	id, err := s.writer.Append(r.Context(), tx)
	if err != nil {
		slog.ErrorContext(r.Context(), "Transaction append error", "error", err, "category", tx.Category)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to save transaction"})
		return
	}

	go func() {
		if err := s.loader.Reload(context.Background()); err != nil {
			slog.Error("Reload after append failed", "error", err)
		}
	}()

	writeJSON(w, http.StatusCreated, map[string]any{"id": id})
}

// sanitizeInput removes potentially dangerous characters and trims whitespace
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	// Remove control characters except tab, newline, carriage return
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

func summaryCacheKey(generation uint64) string {
	return "gen-" + strconv.FormatUint(generation, 10)
}

func formatEuros(cents int64) string {
	neg := cents < 0
	if neg {
		cents = -cents
	}
	euros := cents / 100
	rem := cents % 100
	s := strconv.FormatInt(euros, 10) + "," + fmt.Sprintf("%02d", rem)
	if neg {
		return "-€" + s
	}
	return "€" + s
}
