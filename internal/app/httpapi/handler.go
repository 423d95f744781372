// Package httpapi exposes the balance service over HTTP.
package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"github.com/walletworks/balance-service/internal/app/domain/ledger"
	"github.com/walletworks/balance-service/internal/app/metrics"
	balancesvc "github.com/walletworks/balance-service/internal/app/services/balance"
	"github.com/walletworks/balance-service/pkg/logger"
)

// Version is reported by the health endpoint.
const Version = "1.0"

type handler struct {
	balance *balancesvc.Service
	log     *logger.Logger
}

// NewHandler returns the service router.
func NewHandler(balance *balancesvc.Service, log *logger.Logger) http.Handler {
	if log == nil {
		log = logger.NewDefault("httpapi")
	}
	h := &handler{balance: balance, log: log}

	r := mux.NewRouter()
	r.Use(MetricsMiddleware, LoggingMiddleware(log))
	r.HandleFunc("/health", h.health).Methods(http.MethodGet)
	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/balance/{user_id}", h.getBalance).Methods(http.MethodGet)
	r.HandleFunc("/balance/{user_id}/history", h.getHistory).Methods(http.MethodGet)
	r.HandleFunc("/transactions", h.applyTransaction).Methods(http.MethodPost)
	return r
}

func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "OK",
		"message": "service version: " + Version,
	})
}

func (h *handler) getBalance(w http.ResponseWriter, r *http.Request) {
	userID, err := parseUserID(mux.Vars(r)["user_id"])
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	bal, err := h.balance.GetBalance(r.Context(), userID)
	if err != nil {
		h.respondError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "OK",
		"user_id": strconv.FormatInt(userID, 10),
		"balance": bal.Amount,
		"source":  string(bal.Source),
	})
}

func (h *handler) getHistory(w http.ResponseWriter, r *http.Request) {
	userID, err := parseUserID(mux.Vars(r)["user_id"])
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	entries, err := h.balance.History(r.Context(), userID)
	if err != nil {
		h.respondError(w, err)
		return
	}

	type entryPayload struct {
		ID        string `json:"id"`
		Action    string `json:"action"`
		Amount    string `json:"amount"`
		CreatedAt string `json:"created_at"`
	}
	payload := make([]entryPayload, 0, len(entries))
	for _, e := range entries {
		payload = append(payload, entryPayload{
			ID:        e.ID,
			Action:    string(e.Action),
			Amount:    ledger.FormatMinorUnits(e.Amount),
			CreatedAt: e.CreatedAt.Format(time.RFC3339),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"user_id": strconv.FormatInt(userID, 10),
		"entries": payload,
	})
}

func (h *handler) applyTransaction(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		UserID int64           `json:"user_id"`
		Amount decimal.Decimal `json:"amount"`
		Action string          `json:"action"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if payload.UserID < 1 {
		writeError(w, http.StatusBadRequest, fmt.Errorf("user_id must be a positive integer"))
		return
	}
	action := ledger.Action(payload.Action)
	if !action.Valid() {
		writeError(w, http.StatusBadRequest, fmt.Errorf("%w: %q", ledger.ErrUnknownAction, payload.Action))
		return
	}

	receipt, err := h.balance.Apply(r.Context(), payload.UserID, payload.Amount, action)
	if err != nil {
		h.respondError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status":         "OK",
		"balance_before": receipt.BalanceBefore,
		"balance_after":  receipt.BalanceAfter,
	})
}

// respondError maps classified domain errors to statuses. Unclassified
// errors are logged and reported as an opaque internal error.
func (h *handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ledger.ErrAccountNotFound):
		writeError(w, http.StatusNotFound, err)
	case errors.Is(err, ledger.ErrInvalidAmount),
		errors.Is(err, ledger.ErrUnknownAction),
		errors.Is(err, ledger.ErrInsufficientFunds):
		writeError(w, http.StatusBadRequest, err)
	default:
		h.log.WithError(err).Error("request failed")
		writeError(w, http.StatusInternalServerError, errors.New("internal server error"))
	}
}

func parseUserID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("user_id must be a positive integer")
	}
	return id, nil
}

func decodeJSON(body io.Reader, dst interface{}) error {
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
