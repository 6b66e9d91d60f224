package v1

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/evelynchat/evelyn/plugin/ai"
	chaterrors "github.com/evelynchat/evelyn/server/internal/errors"
)

type createChatRequest struct {
	Message string `json:"message"`
}

type createChatResponse struct {
	ChatID     string `json:"chat_id"`
	Title      string `json:"title"`
	AIResponse string `json:"ai_response"`
}

type sendMessageRequest struct {
	Messages []ai.Message `json:"messages"`
}

type sendMessageResponse struct {
	Reply string `json:"reply"`
}

type healthResponse struct {
	Message        string `json:"message"`
	ChatsStored    int    `json:"chats_stored"`
	ChatsDirectory string `json:"chats_directory"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type confirmationResponse struct {
	Message string `json:"message"`
}

// GetHealth reports the service state and transcript store summary.
func (s *APIV1Service) GetHealth(c echo.Context) error {
	stats, err := s.ChatService.GetStats(c.Request().Context())
	if err != nil {
		return s.errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, &healthResponse{
		Message:        "Evelyn backend is running",
		ChatsStored:    stats.ChatsStored,
		ChatsDirectory: stats.ChatsDirectory,
	})
}

// ListChats returns summaries of every stored chat, newest first.
func (s *APIV1Service) ListChats(c echo.Context) error {
	summaries, err := s.ChatService.ListChats(c.Request().Context())
	if err != nil {
		return s.errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"chats": summaries})
}

// GetChat returns one full conversation.
func (s *APIV1Service) GetChat(c echo.Context) error {
	chat, err := s.ChatService.GetChat(c.Request().Context(), c.Param("id"))
	if err != nil {
		return s.errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, chat)
}

// CreateChat starts a new conversation from the first user message.
func (s *APIV1Service) CreateChat(c echo.Context) error {
	req := &createChatRequest{}
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, &errorResponse{Error: "invalid request body"})
	}

	result, err := s.ChatService.CreateChat(c.Request().Context(), req.Message)
	if err != nil {
		return s.errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, &createChatResponse{
		ChatID:     result.ChatID,
		Title:      result.Title,
		AIResponse: result.Reply,
	})
}

// SendMessage appends a turn to an existing conversation.
func (s *APIV1Service) SendMessage(c echo.Context) error {
	req := &sendMessageRequest{}
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, &errorResponse{Error: "invalid request body"})
	}

	reply, err := s.ChatService.SendMessage(c.Request().Context(), c.Param("id"), req.Messages)
	if err != nil {
		return s.errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, &sendMessageResponse{Reply: reply})
}

// DeleteChat removes a conversation permanently.
func (s *APIV1Service) DeleteChat(c echo.Context) error {
	id := c.Param("id")
	if err := s.ChatService.DeleteChat(c.Request().Context(), id); err != nil {
		return s.errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, &confirmationResponse{
		Message: fmt.Sprintf("Chat %s deleted", id),
	})
}

// errorJSON maps a failure kind from the taxonomy onto an HTTP status.
func (s *APIV1Service) errorJSON(c echo.Context, err error) error {
	status := http.StatusInternalServerError
	switch chaterrors.GetCodeFromError(err, chaterrors.ErrCodeStorageFailure) {
	case chaterrors.ErrCodeNotFound:
		status = http.StatusNotFound
	case chaterrors.ErrCodeInvalidArgument:
		status = http.StatusBadRequest
	}
	return c.JSON(status, &errorResponse{Error: err.Error()})
}
