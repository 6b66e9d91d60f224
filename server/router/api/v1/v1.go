// Package v1 exposes the chat service over a small JSON HTTP API.
package v1

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/evelynchat/evelyn/internal/profile"
	evelynmw "github.com/evelynchat/evelyn/server/middleware"
	"github.com/evelynchat/evelyn/server/service/chat"
	"github.com/evelynchat/evelyn/store"
)

type APIV1Service struct {
	Profile     *profile.Profile
	Store       *store.Store
	ChatService *chat.Service
}

func NewAPIV1Service(profile *profile.Profile, store *store.Store, chatService *chat.Service) *APIV1Service {
	return &APIV1Service{
		Profile:     profile,
		Store:       store,
		ChatService: chatService,
	}
}

// Register wires the chat routes onto the given Echo instance. The
// front-end is served from another origin, so every route is CORS
// enabled.
func (s *APIV1Service) Register(echoServer *echo.Echo) {
	group := echoServer.Group("")
	group.Use(middleware.CORS())

	if s.Profile.RateLimitEnabled {
		limiter := evelynmw.NewRateLimiter()
		group.Use(limiter.PerChatMiddleware())
	}

	group.GET("/", s.GetHealth)
	group.GET("/chats", s.ListChats)
	group.POST("/chats", s.CreateChat)
	group.GET("/chats/:id", s.GetChat)
	group.POST("/chats/:id/message", s.SendMessage)
	group.DELETE("/chats/:id", s.DeleteChat)
}
