// Package server assembles the HTTP surface and background runners.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/askdoc/askdoc/internal/profile"
	"github.com/askdoc/askdoc/server/ai"
	"github.com/askdoc/askdoc/server/middleware"
	apiv1 "github.com/askdoc/askdoc/server/router/api/v1"
	"github.com/askdoc/askdoc/server/runner/ingestion"
	"github.com/askdoc/askdoc/store"
)

type Server struct {
	Profile *profile.Profile
	Store   *store.Store

	echoServer      *echo.Echo
	ingestionRunner *ingestion.Runner
}

func NewServer(ctx context.Context, prof *profile.Profile, st *store.Store) (*Server, error) {
	embedder, err := newEmbedder(ctx, prof)
	if err != nil {
		return nil, err
	}

	echoServer := echo.New()
	echoServer.HideBanner = true
	echoServer.HidePort = true
	echoServer.Use(echomw.Recover())
	echoServer.Use(middleware.RequestLogger())

	apiV1Service := apiv1.NewAPIV1Service(prof.JWTSecret, prof, st, embedder)
	apiV1Service.Register(echoServer)

	runner, err := ingestion.NewRunner(st, embedder, prof)
	if err != nil {
		return nil, err
	}

	return &Server{
		Profile:         prof,
		Store:           st,
		echoServer:      echoServer,
		ingestionRunner: runner,
	}, nil
}

// Start launches the ingestion runner and the HTTP listener. It returns when
// both have stopped.
func (s *Server) Start(ctx context.Context) error {
	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		s.ingestionRunner.Run(groupCtx)
		return nil
	})

	group.Go(func() error {
		address := fmt.Sprintf("%s:%d", s.Profile.Addr, s.Profile.Port)
		slog.Info("server started", "address", address, "mode", s.Profile.Mode)
		if err := s.echoServer.Start(address); err != nil && err != http.ErrServerClosed {
			return errors.Wrap(err, "failed to start http server")
		}
		return nil
	})

	return group.Wait()
}

// Shutdown drains in-flight requests and closes the store.
func (s *Server) Shutdown(ctx context.Context) {
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := s.echoServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("failed to shut down http server", "error", err)
	}
	if err := s.Store.Close(); err != nil {
		slog.Error("failed to close store", "error", err)
	}
	slog.Info("server shut down")
}

// newEmbedder picks the embedding backend from the profile. The fake
// embedder is the default so the service runs without any external keys.
func newEmbedder(ctx context.Context, prof *profile.Profile) (ai.Embedder, error) {
	switch prof.EmbeddingProvider {
	case "openai":
		embedder, err := ai.NewOpenAIEmbedder(&ai.Config{
			BaseURL:   prof.OpenAIBaseURL,
			APIKey:    prof.OpenAIAPIKey,
			Model:     prof.EmbeddingModel,
			Dimension: prof.EmbeddingDim,
		})
		if err != nil {
			return nil, err
		}
		if err := embedder.Validate(ctx); err != nil {
			return nil, err
		}
		return embedder, nil
	case "fake", "":
		return ai.NewFakeEmbedder(prof.EmbeddingDim)
	default:
		return nil, errors.Errorf("unknown embedding provider %q", prof.EmbeddingProvider)
	}
}
