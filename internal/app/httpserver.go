package app

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/Spok95/curriculum-sync/internal/ctxutil"
	"github.com/Spok95/curriculum-sync/internal/db"
	"github.com/Spok95/curriculum-sync/internal/ingest"
	"github.com/Spok95/curriculum-sync/internal/metrics"
	"github.com/Spok95/curriculum-sync/internal/pronote"
)

// Syncer ручной запуск синхронизации одной интеграции.
type Syncer interface {
	Run(ctx context.Context, sel pronote.Selection, force bool) (*ingest.Result, error)
}

type HTTPServer struct {
	srv *http.Server
}

// Router отдельно от StartHTTP, чтобы гонять через httptest.
func Router(database *sql.DB, syncer Syncer, log *zap.Logger) http.Handler {
	if log == nil {
		log = zap.NewNop()
	}
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 800*time.Millisecond)
		defer cancel()
		if err := db.Ping(ctx, database); err != nil {
			http.Error(w, "db not ok: "+err.Error(), http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("ok"))
	})

	r.Handle("/metrics", metrics.Handler())

	r.Post("/integrations/pronote/{id}/sync", func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil || id <= 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad integration id"})
			return
		}
		ctx := ctxutil.WithRunID(r.Context(), middleware.GetReqID(r.Context()))
		res, err := syncer.Run(ctx, pronote.Selection{IntegrationID: id}, true)
		switch {
		case errors.Is(err, pronote.ErrSelection):
			writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
			return
		case err != nil:
			log.Error("manual sync", zap.Int64("integration_id", id), zap.Error(err))
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		status := http.StatusOK
		if res.Failed() {
			status = http.StatusBadGateway
		}
		writeJSON(w, status, res)
	})
	return r
}

func StartHTTP(ctx context.Context, addr string, handler http.Handler, log *zap.Logger) *HTTPServer {
	srv := &http.Server{Addr: addr, Handler: handler, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		// закрываем аккуратно при Shutdown
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server", zap.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(shCtx)
	}()

	return &HTTPServer{srv: srv}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
