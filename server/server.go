// Package server assembles the HTTP server around the chat service.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/evelynchat/evelyn/internal/profile"
	"github.com/evelynchat/evelyn/plugin/ai"
	apiv1 "github.com/evelynchat/evelyn/server/router/api/v1"
	"github.com/evelynchat/evelyn/server/service/chat"
	"github.com/evelynchat/evelyn/store"
)

type Server struct {
	Profile *profile.Profile
	Store   *store.Store

	echoServer *echo.Echo
}

// NewServer wires the completion gateway, chat service, and HTTP
// routes.
func NewServer(ctx context.Context, profile *profile.Profile, st *store.Store) (*Server, error) {
	s := &Server{
		Profile: profile,
		Store:   st,
	}

	echoServer := echo.New()
	echoServer.HideBanner = true
	echoServer.HidePort = true
	echoServer.Use(middleware.Recover())
	s.echoServer = echoServer

	llmService, err := ai.NewLLMService(ai.NewLLMConfigFromProfile(profile))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create LLM service")
	}

	chatService := chat.NewService(profile, st, llmService)
	apiv1.NewAPIV1Service(profile, st, chatService).Register(echoServer)

	return s, nil
}

func (s *Server) Start(ctx context.Context) error {
	address := fmt.Sprintf("%s:%d", s.Profile.Addr, s.Profile.Port)
	slog.Info("server started",
		slog.String("address", address),
		slog.String("mode", s.Profile.Mode),
		slog.String("chats_dir", s.Profile.ChatsDir()),
	)
	return s.echoServer.Start(address)
}

func (s *Server) Shutdown(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := s.echoServer.Shutdown(ctx); err != nil {
		slog.Error("failed to shutdown server", slog.String("error", err.Error()))
	}
	if err := s.Store.Close(); err != nil {
		slog.Error("failed to close store", slog.String("error", err.Error()))
	}
	slog.Info("server stopped")
}
