package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/acuityprep/blueprint-cli/internal/audit"
	"github.com/acuityprep/blueprint-cli/internal/pipeline"
	"github.com/acuityprep/blueprint-cli/internal/score"
	"github.com/acuityprep/blueprint-cli/internal/store"
	"github.com/acuityprep/blueprint-cli/internal/taxonomy"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the scoring HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		eng, err := initEngine()
		if err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		r := chi.NewRouter()
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type"},
		}))
		r.Use(rateLimit(rate.Limit(cfg.Server.RateLimitRPS), cfg.Server.RateLimitBurst))

		r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})

		r.Post("/v1/normalize", handleNormalize(eng))
		r.Post("/v1/audit", handleAudit(eng))
		r.Get("/v1/sessions", handleListSessions(st))
		r.Get("/v1/sessions/{id}", handleGetSession(st, eng))
		r.Delete("/v1/sessions/{id}", handleDeleteSession(st))

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: r,
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			srv.Shutdown(ctx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

// rateLimit rejects requests beyond the configured aggregate rate.
func rateLimit(rps rate.Limit, burst int) func(http.Handler) http.Handler {
	limiter := rate.NewLimiter(rps, burst)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if !limiter.Allow() {
				writeJSON(w, http.StatusTooManyRequests, map[string]string{"error": "rate limit exceeded"})
				return
			}
			next.ServeHTTP(w, req)
		})
	}
}

func handleNormalize(eng *engine) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		var in pipeline.Input
		if err := json.NewDecoder(req.Body).Decode(&in); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
			return
		}
		exam, ok := taxonomy.ParseExamType(string(in.Exam))
		if !ok {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unknown exam (want comlex2 or step2)"})
			return
		}
		in.Exam = exam

		out, err := eng.Pipeline.Process(req.Context(), in)
		if err != nil {
			zap.L().Error("normalize request failed", zap.Error(err))
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "processing failed"})
			return
		}
		score.SortRows(out.Rows, score.ParseMode(req.URL.Query().Get("mode")))

		writeJSON(w, http.StatusOK, out)
	}
}

func handleAudit(eng *engine) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		var probes []audit.Probe
		if err := json.NewDecoder(req.Body).Decode(&probes); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
			return
		}
		writeJSON(w, http.StatusOK, audit.Run(eng.Matcher, probes))
	}
}

func handleListSessions(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		sessions, err := st.ListSessions(req.Context(), store.SessionFilter{
			Exam:  req.URL.Query().Get("exam"),
			Limit: 100,
		})
		if err != nil {
			zap.L().Error("list sessions failed", zap.Error(err))
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "list failed"})
			return
		}
		writeJSON(w, http.StatusOK, sessions)
	}
}

func handleGetSession(st store.Store, eng *engine) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		sess, err := st.GetSession(req.Context(), chi.URLParam(req, "id"))
		if err != nil {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "session not found"})
			return
		}
		eng.Pipeline.Rehydrate(&sess.Envelope)
		writeJSON(w, http.StatusOK, sess)
	}
}

func handleDeleteSession(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		id := chi.URLParam(req, "id")
		if err := st.DeleteSession(req.Context(), id); err != nil {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "session not found"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"deleted": id})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
