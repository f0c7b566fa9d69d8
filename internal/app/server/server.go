// Package server wires storage, auth, and the game session engines into one
// HTTP server. Each registered game engine is served by its own session
// coordinator under /ws/{game}.
package server

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ZXseITz/zx-tbsg/internal/auth"
	"github.com/ZXseITz/zx-tbsg/internal/games"
	"github.com/ZXseITz/zx-tbsg/internal/session"
	"github.com/ZXseITz/zx-tbsg/internal/storage/sqlite"
	"github.com/ZXseITz/zx-tbsg/internal/transport/httpapi"
	"github.com/ZXseITz/zx-tbsg/internal/transport/ws"
)

// Config holds the server's environment configuration.
type Config struct {
	Addr        string        `env:"TBSG_ADDR" envDefault:":8080"`
	DBPath      string        `env:"TBSG_DB_PATH" envDefault:"tbsg.db"`
	TokenSecret string        `env:"TBSG_TOKEN_SECRET"`
	TokenTTL    time.Duration `env:"TBSG_TOKEN_TTL" envDefault:"24h"`
	RequireAuth bool          `env:"TBSG_REQUIRE_AUTH" envDefault:"false"`
}

// Server hosts the auth API and one websocket endpoint per game engine.
type Server struct {
	cfg        Config
	store      *sqlite.Store
	httpServer *http.Server
}

// New opens storage and wires all routes for the registered game engines.
func New(cfg Config, registry *games.Registry) (*Server, error) {
	if registry == nil {
		return nil, fmt.Errorf("game registry is required")
	}

	secret := cfg.TokenSecret
	if secret == "" {
		generated, err := ephemeralSecret()
		if err != nil {
			return nil, err
		}
		secret = generated
		log.Printf("token secret not configured, issued tokens will not survive a restart")
	}

	store, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}

	authService, err := auth.NewService(store, secret, cfg.TokenTTL)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	authHandler, err := httpapi.NewHandler(authService)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	mux := http.NewServeMux()
	authHandler.Register(mux)

	var verify func(token string) error
	if cfg.RequireAuth {
		verify = func(token string) error {
			_, err := authService.Verify(token)
			return err
		}
	}

	for _, name := range registry.Names() {
		engine, _ := registry.Lookup(name)
		wsHandler, err := ws.NewHandler(ws.Config{
			Session:     session.NewCoordinator(engine),
			VerifyToken: verify,
		})
		if err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("wire game %s: %w", name, err)
		}
		mux.Handle("/ws/"+name, wsHandler)
		log.Printf("game registered game=%s route=/ws/%s", name, name)
	}

	return &Server{
		cfg:   cfg,
		store: store,
		httpServer: &http.Server{
			Addr:    cfg.Addr,
			Handler: mux,
		},
	}, nil
}

// Handler returns the server's route multiplexer.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Serve runs the HTTP server until the context ends, then shuts down
// gracefully and closes storage.
func (s *Server) Serve(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Printf("server listening addr=%s", s.cfg.Addr)
		if err := s.httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve http: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http: %w", err)
		}
		return nil
	})

	err := g.Wait()
	if closeErr := s.store.Close(); closeErr != nil && err == nil {
		err = fmt.Errorf("close storage: %w", closeErr)
	}
	return err
}

func ephemeralSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate token secret: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
