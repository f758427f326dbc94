package heal

import (
	"encoding/json"
	"errors"
	"net/http"
)

// ConfirmRequest is the JSON body of the confirm endpoint.
type ConfirmRequest struct {
	CheckID string `json:"checkId"`
	Approve bool   `json:"approve"`
}

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// PendingHandler returns an HTTP handler listing unresolved prompts.
func PendingHandler(m *Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.Header().Set("Allow", http.MethodGet)
			writeJSON(w, http.StatusMethodNotAllowed, errorBody{Error: "method not allowed"})
			return
		}
		writeJSON(w, http.StatusOK, m.Pending())
	}
}

// ConfirmHandler returns an HTTP handler that approves or declines a pending
// prompt. It responds 404 when nothing is pending for the check.
func ConfirmHandler(m *Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", http.MethodPost)
			writeJSON(w, http.StatusMethodNotAllowed, errorBody{Error: "method not allowed"})
			return
		}

		var req ConfirmRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request body"})
			return
		}
		if req.CheckID == "" {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: "checkId is required"})
			return
		}

		res, err := m.Confirm(r.Context(), req.CheckID, req.Approve)
		switch {
		case errors.Is(err, ErrNoPending):
			writeJSON(w, http.StatusNotFound, errorBody{Error: err.Error()})
			return
		case err != nil:
			writeJSON(w, http.StatusInternalServerError, errorBody{Error: err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

// RegisterHandlers registers the healing endpoints on mux.
func RegisterHandlers(mux *http.ServeMux, m *Manager) {
	mux.Handle("/heal/pending", PendingHandler(m))
	mux.Handle("/heal/confirm", ConfirmHandler(m))
}
