package wildtracklocal

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Router mounts the websocket endpoint and a health check.
func Router(s *Server) chi.Router {
	routes := chi.NewRouter()
	routes.Use(
		withCORS(),
		withLogger(s.Logger),
		middleware.Recoverer,
	)
	routes.Get("/ws", s.ServeWS)
	routes.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("ok"))
	})
	return routes
}

// Serve runs the console server on port until ctx is cancelled.
func Serve(ctx context.Context, s *Server, port int) error {
	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%v", port),
		Handler:           Router(s),
		ReadHeaderTimeout: 10 * time.Second,
	}

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		s.Logger.Info().Int("port", port).Msg("starting websocket server")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("websocket server failed: %w", err)
		}
		return nil
	})
	group.Go(func() error {
		<-ctx.Done()
		s.Logger.Info().Msg("shutting down websocket server")
		s.Close()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})
	return group.Wait()
}

func withCORS() func(next http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "X-Amz-Date", "Authorization", "X-Api-Key", "X-Amz-Security-Token"},
	})
}

func withLogger(logger zerolog.Logger) func(handler http.Handler) http.Handler {
	return func(handler http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ctx := logger.WithContext(req.Context())
			req = req.WithContext(ctx)
			handler.ServeHTTP(w, req)
		})
	}
}
