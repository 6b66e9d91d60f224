// Package chat implements the session reconciler: the rules for how a
// conversation's message list is created, appended to, validated
// against a client-supplied history, retitled, and durably stored.
package chat

import (
	"context"
	"log/slog"
	"time"

	"github.com/pkg/errors"

	"github.com/evelynchat/evelyn/internal/ident"
	"github.com/evelynchat/evelyn/internal/profile"
	"github.com/evelynchat/evelyn/plugin/ai"
	chaterrors "github.com/evelynchat/evelyn/server/internal/errors"
	"github.com/evelynchat/evelyn/server/internal/observability"
	"github.com/evelynchat/evelyn/store"
)

// PersonaPreamble is the fixed system message content synthesized as
// messages[0] of every chat. Never removed or reordered.
const PersonaPreamble = "Eres Evelyn, una mujer emocionalmente madura, comprensiva y sabia que acompaña a Mario."

// titleRederiveMax is the stored-message ceiling under which a chat's
// title may still be re-derived. The count is taken after the incoming
// user turn is appended and before the assistant reply is.
const titleRederiveMax = 4

// Service reconciles client-supplied message histories with stored
// transcripts. It holds no cross-request state: every operation reloads
// the chat from the store and writes it back, so the store remains the
// single source of truth. Two concurrent SendMessage calls on the same
// chat id are last-writer-wins; callers wanting stronger guarantees
// must serialize per chat id.
type Service struct {
	profile *profile.Profile
	store   *store.Store
	llm     ai.LLMService
	logger  *slog.Logger
}

// NewService creates a new chat service.
func NewService(profile *profile.Profile, st *store.Store, llm ai.LLMService) *Service {
	return &Service{
		profile: profile,
		store:   st,
		llm:     llm,
		logger:  slog.Default(),
	}
}

// CreateResult is the outcome of creating a chat.
type CreateResult struct {
	ChatID string
	Title  string
	Reply  string
}

// Stats describes the transcript store for the health endpoint.
type Stats struct {
	ChatsStored    int
	ChatsDirectory string
}

// CreateChat starts a new conversation from the first user message. The
// chat is only persisted once the completion gateway has replied; a
// gateway failure leaves no record behind.
func (s *Service) CreateChat(ctx context.Context, userText string) (*CreateResult, error) {
	if userText == "" {
		return nil, chaterrors.InvalidArgument("message must not be empty")
	}

	logger := observability.NewRequestContext(s.logger, "create_chat", "")
	logger.Info("creating chat",
		slog.Int(observability.LogFieldMessageLen, len(userText)),
	)

	now := time.Now().UTC()
	chat := &store.Chat{
		ID:           ident.NewChatID(),
		Title:        DeriveTitle(userText),
		CreatedAt:    now,
		LastActivity: now,
		Messages: []store.ChatMessage{
			{
				ID:        ident.NewMessageID(),
				Role:      store.ChatMessageRoleSystem,
				Content:   PersonaPreamble,
				Timestamp: now,
			},
			{
				ID:        ident.NewMessageID(),
				Role:      store.ChatMessageRoleUser,
				Content:   userText,
				Timestamp: now,
			},
		},
	}

	reply, err := s.llm.Chat(ctx, toGatewayMessages(chat.Messages))
	if err != nil {
		logger.Error("completion gateway failed", err)
		return nil, chaterrors.UpstreamFailure("completion gateway failed", err)
	}

	s.appendMessage(chat, store.ChatMessageRoleAssistant, reply)

	if err := s.store.UpsertChat(ctx, chat); err != nil {
		// The reply was produced but could not be saved; this must
		// surface, never be swallowed.
		logger.Error("failed to persist chat", err)
		return nil, chaterrors.StorageFailure("failed to persist chat", err)
	}

	logger.Info("chat created",
		slog.String(observability.LogFieldChatID, chat.ID),
		slog.Int64(observability.LogFieldDuration, logger.DurationMs()),
	)

	return &CreateResult{
		ChatID: chat.ID,
		Title:  chat.Title,
		Reply:  reply,
	}, nil
}

// SendMessage appends one request/response turn to an existing chat.
// The client-supplied message list is sent upstream verbatim; on
// success the server-side transcript is reconstructed by appending the
// client's trailing user turn (if any) and the assistant reply. A
// gateway failure leaves the stored chat unmodified.
func (s *Service) SendMessage(ctx context.Context, chatID string, clientMessages []ai.Message) (string, error) {
	if len(clientMessages) == 0 {
		return "", chaterrors.InvalidArgument("messages must not be empty")
	}

	logger := observability.NewRequestContext(s.logger, "send_message", chatID)

	chat, err := s.loadChat(ctx, chatID)
	if err != nil {
		return "", err
	}

	if len(clientMessages) != len(chat.Messages) {
		// Non-fatal diagnostic: the client list is authoritative for
		// what goes upstream.
		logger.Warn("client/server message count mismatch",
			slog.String(observability.LogFieldErrorCode, string(chaterrors.ErrCodeValidationMismatch)),
			slog.Int("client_count", len(clientMessages)),
			slog.Int("stored_count", len(chat.Messages)),
		)
	}

	reply, err := s.llm.Chat(ctx, clientMessages)
	if err != nil {
		logger.Error("completion gateway failed", err)
		return "", chaterrors.UpstreamFailure("completion gateway failed", err)
	}

	// The client already advanced its own view, so its trailing user
	// turn is not yet in the stored transcript. Append it before the
	// assistant reply to keep the stored order [.., user, assistant].
	last := clientMessages[len(clientMessages)-1]
	if last.Role == string(store.ChatMessageRoleUser) {
		s.appendMessage(chat, store.ChatMessageRoleUser, last.Content)
	}

	// While the conversation is still short, keep the title in sync
	// with the latest user turn of the client list, then freeze it.
	if len(chat.Messages) <= titleRederiveMax {
		if text, ok := latestUserContent(clientMessages); ok {
			chat.Title = DeriveTitle(text)
		}
	}

	s.appendMessage(chat, store.ChatMessageRoleAssistant, reply)

	if err := s.store.UpsertChat(ctx, chat); err != nil {
		logger.Error("failed to persist chat", err)
		return "", chaterrors.StorageFailure("failed to persist chat", err)
	}

	logger.Info("message appended",
		slog.Int(observability.LogFieldMessageCount, chat.MessageCount()),
		slog.Int64(observability.LogFieldDuration, logger.DurationMs()),
	)

	return reply, nil
}

// GetChat returns the full stored conversation.
func (s *Service) GetChat(ctx context.Context, chatID string) (*store.Chat, error) {
	return s.loadChat(ctx, chatID)
}

// ListChats returns summaries for every readable chat, newest activity
// first.
func (s *Service) ListChats(ctx context.Context) ([]*store.ChatSummary, error) {
	summaries, err := s.store.ListChatSummaries(ctx)
	if err != nil {
		return nil, chaterrors.StorageFailure("failed to list chats", err)
	}
	return summaries, nil
}

// DeleteChat removes a chat record permanently. No tombstone, no
// recovery.
func (s *Service) DeleteChat(ctx context.Context, chatID string) error {
	err := s.store.DeleteChat(ctx, chatID)
	if errors.Is(err, store.ErrChatNotFound) {
		return chaterrors.NotFound(chatID)
	}
	if err != nil {
		return chaterrors.StorageFailure("failed to delete chat", err)
	}
	s.logger.Info("chat deleted", slog.String(observability.LogFieldChatID, chatID))
	return nil
}

// GetStats reports the store state for the health endpoint.
func (s *Service) GetStats(ctx context.Context) (*Stats, error) {
	count, err := s.store.CountChats(ctx)
	if err != nil {
		return nil, chaterrors.StorageFailure("failed to count chats", err)
	}
	return &Stats{
		ChatsStored:    count,
		ChatsDirectory: s.profile.ChatsDir(),
	}, nil
}

// loadChat reads a chat and maps store failures onto the error
// taxonomy.
func (s *Service) loadChat(ctx context.Context, chatID string) (*store.Chat, error) {
	chat, err := s.store.GetChat(ctx, chatID)
	if errors.Is(err, store.ErrChatNotFound) {
		return nil, chaterrors.NotFound(chatID)
	}
	if errors.Is(err, store.ErrCorruptRecord) {
		return nil, chaterrors.CorruptRecord(chatID, err)
	}
	if err != nil {
		return nil, chaterrors.StorageFailure("failed to load chat", err)
	}
	return chat, nil
}

// appendMessage appends a fresh message and advances LastActivity to
// its timestamp.
func (s *Service) appendMessage(chat *store.Chat, role store.ChatMessageRole, content string) {
	now := time.Now().UTC()
	chat.Messages = append(chat.Messages, store.ChatMessage{
		ID:        ident.NewMessageID(),
		Role:      role,
		Content:   content,
		Timestamp: now,
	})
	chat.LastActivity = now
}

// latestUserContent scans a client message list from the end for the
// most recent user turn.
func latestUserContent(messages []ai.Message) (string, bool) {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == string(store.ChatMessageRoleUser) {
			return messages[i].Content, true
		}
	}
	return "", false
}

// toGatewayMessages converts stored messages to the gateway shape.
func toGatewayMessages(messages []store.ChatMessage) []ai.Message {
	out := make([]ai.Message, len(messages))
	for i, m := range messages {
		out[i] = ai.Message{
			Role:    string(m.Role),
			Content: m.Content,
		}
	}
	return out
}
