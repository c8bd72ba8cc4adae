// Package server exposes the request router over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"lmsassist/router"
	"lmsassist/service"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// Handler is the request service as seen by the HTTP layer.
type Handler interface {
	Handle(ctx context.Context, e router.Envelope) (router.Reply, error)
	HandleLive(ctx context.Context, e router.Envelope) (router.Reply, error)
}

type api struct {
	svc Handler
	log *zap.Logger
}

// New builds the HTTP handler with recovery, CORS and access logging.
func New(svc Handler, allowedOrigins []string, log *zap.Logger) http.Handler {
	a := &api{svc: svc, log: log}

	r := mux.NewRouter()
	r.HandleFunc("/dispatch", a.dispatch(svc.Handle)).Methods(http.MethodPost)
	r.HandleFunc("/live", a.dispatch(svc.HandleLive)).Methods(http.MethodPost)
	r.HandleFunc("/kinds", kinds).Methods(http.MethodGet)
	r.HandleFunc("/healthz", healthz).Methods(http.MethodGet)

	accessLog := zap.NewStdLog(log.Named("access")).Writer()

	var h http.Handler = r
	h = handlers.CORS(
		handlers.AllowedOrigins(allowedOrigins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type"}),
	)(h)
	h = handlers.CombinedLoggingHandler(accessLog, h)
	h = handlers.RecoveryHandler(handlers.RecoveryLogger(zap.NewStdLog(log)), handlers.PrintRecoveryStack(false))(h)
	return h
}

func (a *api) dispatch(run func(context.Context, router.Envelope) (router.Reply, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var e router.Envelope
		if err := json.NewDecoder(r.Body).Decode(&e); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		if e.Type == "" {
			http.Error(w, "Request type is required", http.StatusBadRequest)
			return
		}

		rep, err := run(r.Context(), e)
		if err != nil {
			a.log.Warn("request failed", zap.String("id", e.ID), zap.String("type", e.Type), zap.Error(err))
			if errors.Is(err, service.ErrNoPage) {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			http.Error(w, "Error handling request", http.StatusBadGateway)
			return
		}

		writeJSON(w, http.StatusOK, rep)
	}
}

func kinds(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, router.Kinds)
}

func healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		http.Error(w, "Error marshaling to JSON", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}
