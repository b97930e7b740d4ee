package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"trade-grid-lab/internal/domain"
	"trade-grid-lab/internal/journal"
	"trade-grid-lab/internal/reporting"
	"trade-grid-lab/internal/simulation"
	"trade-grid-lab/internal/storage"
)

// ErrorResponse is the JSON body of every error.
type ErrorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"request_id"`
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, `{"error":"json_encoding_failed"}`, http.StatusInternalServerError)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{
		Error:     message,
		Code:      code,
		RequestID: requestID(r),
	})
}

// writeServiceError maps journal and storage errors to HTTP statuses.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := http.StatusInternalServerError, "internal"
	switch {
	case errors.Is(err, journal.ErrInvalidTrade),
		errors.Is(err, journal.ErrInvalidMarket),
		errors.Is(err, storage.ErrInvalidInput):
		status, code = http.StatusBadRequest, "invalid_input"
	case errors.Is(err, journal.ErrUnknownMarket):
		status, code = http.StatusUnprocessableEntity, "unknown_market"
	case errors.Is(err, storage.ErrDuplicateKey):
		status, code = http.StatusConflict, "duplicate"
	case errors.Is(err, storage.ErrNotFound):
		status, code = http.StatusNotFound, "not_found"
	case errors.Is(err, simulation.ErrEntryNotZero):
		code = "precondition_violation"
	}

	if status >= http.StatusInternalServerError {
		s.log.Error().Err(err).Str("request_id", requestID(r)).Msg("request failed")
	}
	writeError(w, r, status, code, err.Error())
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// isJSON reports whether the request body is JSON rather than a form.
func isJSON(r *http.Request) bool {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mt == "application/json"
}

// tradeRequest uses pointers so a missing field is distinguishable from 0.
type tradeRequest struct {
	Name             string `json:"name"`
	Market           string `json:"market"`
	Exit             *int   `json:"exit"`
	StopLoss         *int   `json:"stop_loss"`
	MostAdverse      *int   `json:"most_adverse"`
	UnrealizedProfit *int   `json:"unrealized_profit"`
}

func (t tradeRequest) toInput() (domain.TradeInput, error) {
	required := map[string]*int{
		journal.FieldExit:             t.Exit,
		journal.FieldStopLoss:         t.StopLoss,
		journal.FieldMostAdverse:      t.MostAdverse,
		journal.FieldUnrealizedProfit: t.UnrealizedProfit,
	}
	for _, field := range []string{
		journal.FieldExit, journal.FieldStopLoss, journal.FieldMostAdverse, journal.FieldUnrealizedProfit,
	} {
		if required[field] == nil {
			return domain.TradeInput{}, &journal.ValidationError{Field: field, Reason: "is required"}
		}
	}
	return domain.TradeInput{
		Name:             t.Name,
		Market:           t.Market,
		Exit:             *t.Exit,
		StopLoss:         *t.StopLoss,
		MostAdverse:      *t.MostAdverse,
		UnrealizedProfit: *t.UnrealizedProfit,
	}, nil
}

func decodeTrade(r *http.Request) (domain.TradeInput, error) {
	if isJSON(r) {
		var req tradeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return domain.TradeInput{}, fmt.Errorf("%w: decode body: %v", journal.ErrInvalidTrade, err)
		}
		return req.toInput()
	}

	if err := r.ParseForm(); err != nil {
		return domain.TradeInput{}, fmt.Errorf("%w: parse form: %v", journal.ErrInvalidTrade, err)
	}
	form := make(map[string]string, len(r.PostForm))
	for k := range r.PostForm {
		form[k] = r.PostForm.Get(k)
	}
	return journal.ParseTradeForm(form)
}

func (s *Server) handleRecordTrade(w http.ResponseWriter, r *http.Request) {
	in, err := decodeTrade(r)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	t, err := s.journal.RecordTrade(r.Context(), in)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

func (s *Server) handleListTrades(w http.ResponseWriter, r *http.Request) {
	trades, err := s.journal.ListTrades(r.Context(), strings.TrimSpace(r.URL.Query().Get("market")))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if trades == nil {
		trades = []*domain.TradeRecord{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"count":  len(trades),
		"trades": trades,
	})
}

func (s *Server) handleAddMarket(w http.ResponseWriter, r *http.Request) {
	var name string
	if isJSON(r) {
		var req struct {
			Name string `json:"name"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, r, http.StatusBadRequest, "invalid_input", "decode body: "+err.Error())
			return
		}
		name = req.Name
	} else {
		if err := r.ParseForm(); err != nil {
			writeError(w, r, http.StatusBadRequest, "invalid_input", "parse form: "+err.Error())
			return
		}
		name = r.PostForm.Get("name")
	}

	m, err := s.journal.AddMarket(r.Context(), name)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

func (s *Server) handleListMarkets(w http.ResponseWriter, r *http.Request) {
	markets, err := s.journal.ListMarkets(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if markets == nil {
		markets = []*domain.Market{}
	}
	writeJSON(w, http.StatusOK, markets)
}

// handleAnalyze computes (or serves the cached) run for a market filter.
// The filter comes from ?market= or, when absent, from a JSON or form body.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	market, err := decodeMarketFilter(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid_input", err.Error())
		return
	}

	run, err := s.journal.Analyze(r.Context(), market)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	w.Header().Set("Location", "/analysis/"+run.RunID)
	s.writeRun(w, r, run)
}

func decodeMarketFilter(r *http.Request) (string, error) {
	if m := r.URL.Query().Get("market"); m != "" {
		return strings.TrimSpace(m), nil
	}
	if r.ContentLength == 0 {
		return "", nil
	}
	if isJSON(r) {
		var req struct {
			Market string `json:"market"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return "", fmt.Errorf("decode body: %w", err)
		}
		return strings.TrimSpace(req.Market), nil
	}
	if err := r.ParseForm(); err != nil {
		return "", fmt.Errorf("parse form: %w", err)
	}
	return strings.TrimSpace(r.PostForm.Get("market")), nil
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	run, err := s.journal.GetRun(r.Context(), mux.Vars(r)["runID"])
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeRun(w, r, run)
}

// handleLatestRun returns the most recent persisted run without recomputing.
func (s *Server) handleLatestRun(w http.ResponseWriter, r *http.Request) {
	run, err := s.journal.LatestRun(r.Context(), strings.TrimSpace(r.URL.Query().Get("market")))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeRun(w, r, run)
}

// writeRun renders run as JSON (default), markdown or csv per ?format=.
func (s *Server) writeRun(w http.ResponseWriter, r *http.Request, run *domain.AnalysisRun) {
	switch format := r.URL.Query().Get("format"); format {
	case "", "json":
		writeJSON(w, http.StatusOK, run)
	case "csv":
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(reporting.RenderCSV(run)))
	case "markdown", "md":
		trades, err := s.journal.ListTrades(r.Context(), run.Market)
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(reporting.RenderMarkdown(reporting.NewReport(run, trades, s.now()))))
	default:
		writeError(w, r, http.StatusBadRequest, "invalid_input", "unknown format "+format)
	}
}
