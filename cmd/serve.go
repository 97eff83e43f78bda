package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/segment-research/internal/input"
	"github.com/sells-group/segment-research/internal/model"
	"github.com/sells-group/segment-research/internal/pipeline"
	"github.com/sells-group/segment-research/internal/store"
)

var servePort int

// runner executes one pipeline run.
type runner interface {
	Run(ctx context.Context, in pipeline.Input) (*model.RunResult, error)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API for submitting and inspecting runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("serve"); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initPipeline(ctx, cfg)
		if err != nil {
			return err
		}
		defer env.Close()

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           buildRouter(ctx, env.Pipeline, env.Store),
			ReadHeaderTimeout: 10 * time.Second,
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx) //nolint:errcheck
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return eris.Wrap(err, "server listen")
		}
		return nil
	},
}

type submitRequest struct {
	URL        string          `json:"url"`
	ProductFit json.RawMessage `json:"product_fit"`
	Landscape  json.RawMessage `json:"landscape,omitempty"`
	// SkipSynthesis stops after niche scoring.
	SkipSynthesis bool `json:"skip_synthesis,omitempty"`
}

// buildRouter wires the HTTP API. Runs execute in the background under
// ctx; st may be nil, in which case run lookups are unavailable.
func buildRouter(ctx context.Context, p runner, st store.Store) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Post("/runs", func(w http.ResponseWriter, req *http.Request) {
		var body submitRequest
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if body.URL == "" {
			writeError(w, http.StatusBadRequest, "url is required")
			return
		}
		if len(body.ProductFit) == 0 {
			writeError(w, http.StatusBadRequest, "product_fit is required")
			return
		}
		pf, err := input.ParseProductFit(body.ProductFit)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		landscape := model.Landscape{}
		if len(body.Landscape) > 0 {
			if landscape, err = input.ParseLandscape(body.Landscape); err != nil {
				writeError(w, http.StatusBadRequest, err.Error())
				return
			}
		}

		in := pipeline.Input{URL: body.URL, ProductFit: pf, Landscape: landscape, SkipSynthesis: body.SkipSynthesis}
		if st != nil {
			run, err := st.CreateRun(req.Context(), body.URL)
			if err != nil {
				zap.L().Error("create run failed", zap.Error(err))
				writeError(w, http.StatusInternalServerError, "could not create run")
				return
			}
			in.RunID = run.ID
		}

		go func() {
			if p == nil {
				return
			}
			if _, err := p.Run(ctx, in); err != nil {
				zap.L().Error("background run failed", zap.String("url", in.URL), zap.Error(err))
			}
		}()

		resp := map[string]string{"status": "accepted", "url": body.URL}
		if in.RunID != "" {
			resp["run_id"] = in.RunID
		}
		writeJSON(w, http.StatusAccepted, resp)
	})

	r.Get("/runs", func(w http.ResponseWriter, req *http.Request) {
		if st == nil {
			writeError(w, http.StatusServiceUnavailable, "no store configured")
			return
		}
		q := req.URL.Query()
		runs, err := st.ListRuns(req.Context(), store.RunFilter{
			Status: model.RunStatus(q.Get("status")),
			URL:    q.Get("url"),
		})
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, runs)
	})

	r.Get("/runs/{id}", func(w http.ResponseWriter, req *http.Request) {
		if st == nil {
			writeError(w, http.StatusServiceUnavailable, "no store configured")
			return
		}
		run, err := st.GetRun(req.Context(), chi.URLParam(req, "id"))
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "run not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, run)
	})

	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
