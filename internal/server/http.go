package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// maxRequestBytes matches the longest line the command log reader accepts.
const maxRequestBytes = 4 << 20

// NewHTTPHandler routes the HTTP API:
//
//	POST /api/exec    {"command": "..."} -> ExecResponse
//	GET  /api/status  -> Status
//
// A nil auth disables token checks.
func NewHTTPHandler(svc *Service, auth *Authenticator) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestSize(maxRequestBytes))
	r.Route("/api", func(r chi.Router) {
		if auth != nil {
			r.Use(auth.Middleware)
		}
		r.Post("/exec", handleExec(svc))
		r.Get("/status", handleStatus(svc))
	})
	return r
}

func handleExec(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ExecRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				http.Error(w, "request body too large", http.StatusRequestEntityTooLarge)
				return
			}
			http.Error(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
			return
		}
		resp, err := svc.Exec(r.Context(), &req)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, resp)
	}
}

func handleStatus(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, svc.Status())
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
