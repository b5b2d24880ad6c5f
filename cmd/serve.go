package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/examgrid/papers-cli/internal/model"
	"github.com/examgrid/papers-cli/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the stored questions over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()
		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: newServeMux(st),
		}

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

func newServeMux(st store.Store) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})

	mux.HandleFunc("GET /questions", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		filter := store.QuestionFilter{
			Subject:  model.CanonicalLabel(q.Get("subject")),
			Topic:    model.CanonicalLabel(q.Get("topic")),
			Subtopic: model.CanonicalLabel(q.Get("subtopic")),
		}
		if yearStr := q.Get("year"); yearStr != "" {
			year, err := strconv.Atoi(yearStr)
			if err != nil {
				http.Error(w, `{"error":"year must be an integer"}`, http.StatusBadRequest)
				return
			}
			filter.Year = year
		}
		if limitStr := q.Get("limit"); limitStr != "" {
			limit, err := strconv.Atoi(limitStr)
			if err != nil || limit < 0 {
				http.Error(w, `{"error":"limit must be a non-negative integer"}`, http.StatusBadRequest)
				return
			}
			filter.Limit = limit
		}
		if offsetStr := q.Get("offset"); offsetStr != "" {
			offset, err := strconv.Atoi(offsetStr)
			if err != nil || offset < 0 {
				http.Error(w, `{"error":"offset must be a non-negative integer"}`, http.StatusBadRequest)
				return
			}
			filter.Offset = offset
		}

		questions, err := st.ListQuestions(r.Context(), filter)
		if err != nil {
			zap.L().Error("serve: list questions failed", zap.Error(err))
			http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
			return
		}
		if questions == nil {
			questions = []model.Question{}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"count":     len(questions),
			"questions": questions,
		})
	})

	mux.HandleFunc("GET /years", func(w http.ResponseWriter, r *http.Request) {
		years, err := st.ListYears(r.Context())
		if err != nil {
			zap.L().Error("serve: list years failed", zap.Error(err))
			http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
			return
		}
		if years == nil {
			years = []int{}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"years": years})
	})

	return mux
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
