package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Kidswaste/Chips-Prod/internal/game"
	"github.com/Kidswaste/Chips-Prod/internal/words"
)

type Server struct {
	port      int
	staticDir string
	cfg       game.Config

	registry          *game.Registry
	connectionManager *ConnectionManager
	rateLimiter       *RateLimiter
}

func NewServer() (*Server, *http.Server) {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})

	port, _ := strconv.Atoi(os.Getenv("PORT"))
	if port == 0 {
		port = 3000
	}
	wordsDir := os.Getenv("WORDS_DIR")
	if wordsDir == "" {
		wordsDir = "./words"
	}
	staticDir := os.Getenv("STATIC_DIR")
	if staticDir == "" {
		staticDir = "./public"
	}

	cfg := game.DefaultConfig()
	bank := words.NewBank(wordsDir)
	connectionManager := NewConnectionManager()

	registry := game.NewRegistry(cfg, bank, connectionManager, log.Logger)
	registry.StartSweeper()

	s := &Server{
		port:              port,
		staticDir:         staticDir,
		cfg:               cfg,
		registry:          registry,
		connectionManager: connectionManager,
		rateLimiter:       NewRateLimiter(20, 40),
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.port),
		Handler:      s.RegisterRoutes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	return s, httpServer
}

// Shutdown tears down every room (cancelling their timers and notifying
// members) and stops the background sweeper.
func (s *Server) Shutdown(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.registry.Close()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
