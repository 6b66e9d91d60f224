package chat

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/evelynchat/evelyn/internal/profile"
	"github.com/evelynchat/evelyn/plugin/ai"
	chaterrors "github.com/evelynchat/evelyn/server/internal/errors"
	"github.com/evelynchat/evelyn/store"
	"github.com/evelynchat/evelyn/store/db/file"
)

// fakeLLM is a completion gateway stub recording what was sent upstream.
type fakeLLM struct {
	reply string
	err   error
	calls [][]ai.Message
}

func (f *fakeLLM) Chat(_ context.Context, messages []ai.Message) (string, error) {
	f.calls = append(f.calls, messages)
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func newTestService(t *testing.T, llm ai.LLMService) (*Service, *store.Store) {
	t.Helper()
	dir := t.TempDir()
	p := &profile.Profile{Mode: "dev", Data: dir}
	driver, err := file.NewDriver(p, p.ChatsDir())
	require.NoError(t, err)
	st := store.New(driver, p)
	return NewService(p, st, llm), st
}

func TestCreateChat(t *testing.T) {
	llm := &fakeLLM{reply: "Hola Mario, cuéntame."}
	svc, st := newTestService(t, llm)
	ctx := context.Background()

	userText := "Hello there, I need advice"
	result, err := svc.CreateChat(ctx, userText)
	require.NoError(t, err)
	require.NotEmpty(t, result.ChatID)
	require.Equal(t, DeriveTitle(userText), result.Title)
	require.Equal(t, "Hola Mario, cuéntame.", result.Reply)

	// The gateway must have been called with exactly [system, user].
	require.Len(t, llm.calls, 1)
	require.Len(t, llm.calls[0], 2)
	require.Equal(t, "system", llm.calls[0][0].Role)
	require.Equal(t, PersonaPreamble, llm.calls[0][0].Content)
	require.Equal(t, "user", llm.calls[0][1].Role)
	require.Equal(t, userText, llm.calls[0][1].Content)

	chat, err := st.GetChat(ctx, result.ChatID)
	require.NoError(t, err)
	require.Len(t, chat.Messages, 3)
	require.Equal(t, store.ChatMessageRoleSystem, chat.Messages[0].Role)
	require.Equal(t, store.ChatMessageRoleUser, chat.Messages[1].Role)
	require.Equal(t, userText, chat.Messages[1].Content)
	require.Equal(t, store.ChatMessageRoleAssistant, chat.Messages[2].Role)
	require.Equal(t, chat.Messages[2].Timestamp, chat.LastActivity)
}

func TestCreateChatUpstreamFailureNothingPersisted(t *testing.T) {
	llm := &fakeLLM{err: errors.New("completion endpoint unreachable")}
	svc, st := newTestService(t, llm)
	ctx := context.Background()

	_, err := svc.CreateChat(ctx, "Hola")
	require.Error(t, err)
	require.True(t, chaterrors.IsCode(err, chaterrors.ErrCodeUpstreamFailure))

	// All-or-nothing: no record may exist without an assistant reply.
	count, err := st.CountChats(ctx)
	require.NoError(t, err)
	require.Zero(t, count)
}

func TestCreateChatEmptyMessage(t *testing.T) {
	llm := &fakeLLM{reply: "hola"}
	svc, _ := newTestService(t, llm)

	_, err := svc.CreateChat(context.Background(), "")
	require.True(t, chaterrors.IsCode(err, chaterrors.ErrCodeInvalidArgument))
	require.Empty(t, llm.calls)
}

func TestSendMessageNotFound(t *testing.T) {
	llm := &fakeLLM{reply: "hola"}
	svc, st := newTestService(t, llm)
	ctx := context.Background()

	_, err := svc.SendMessage(ctx, "chat_missing", []ai.Message{ai.UserMessage("hola")})
	require.True(t, chaterrors.IsCode(err, chaterrors.ErrCodeNotFound))
	require.Empty(t, llm.calls)

	count, err := st.CountChats(ctx)
	require.NoError(t, err)
	require.Zero(t, count)
}

func TestSendMessageAppendsUserTurnAndReply(t *testing.T) {
	llm := &fakeLLM{reply: "first reply"}
	svc, st := newTestService(t, llm)
	ctx := context.Background()

	created, err := svc.CreateChat(ctx, "Hola Evelyn")
	require.NoError(t, err)

	// Client advanced its own view: full history plus the new user turn.
	clientMessages := []ai.Message{
		ai.SystemPrompt(PersonaPreamble),
		ai.UserMessage("Hola Evelyn"),
		ai.AssistantMessage("first reply"),
		ai.UserMessage("Necesito un consejo sobre el trabajo de esta semana"),
	}
	llm.reply = "second reply"

	reply, err := svc.SendMessage(ctx, created.ChatID, clientMessages)
	require.NoError(t, err)
	require.Equal(t, "second reply", reply)

	// The client list goes upstream verbatim.
	require.Equal(t, clientMessages, llm.calls[len(llm.calls)-1])

	chat, err := st.GetChat(ctx, created.ChatID)
	require.NoError(t, err)
	require.Len(t, chat.Messages, 5)
	roles := []store.ChatMessageRole{}
	for _, m := range chat.Messages {
		roles = append(roles, m.Role)
	}
	require.Equal(t, []store.ChatMessageRole{
		store.ChatMessageRoleSystem,
		store.ChatMessageRoleUser,
		store.ChatMessageRoleAssistant,
		store.ChatMessageRoleUser,
		store.ChatMessageRoleAssistant,
	}, roles)

	// Still a short conversation at the time of the check, so the title
	// follows the newest user turn.
	require.Equal(t, DeriveTitle("Necesito un consejo sobre el trabajo de esta semana"), chat.Title)
	require.Equal(t, chat.Messages[4].Timestamp, chat.LastActivity)
}

func TestSendMessageTitleFrozenAfterTwoTurns(t *testing.T) {
	llm := &fakeLLM{reply: "reply"}
	svc, st := newTestService(t, llm)
	ctx := context.Background()

	created, err := svc.CreateChat(ctx, "Primer mensaje")
	require.NoError(t, err)

	history := []ai.Message{
		ai.SystemPrompt(PersonaPreamble),
		ai.UserMessage("Primer mensaje"),
		ai.AssistantMessage("reply"),
	}

	// Second turn: 5 stored messages afterwards, title may still change.
	history = append(history, ai.UserMessage("Segundo mensaje"))
	_, err = svc.SendMessage(ctx, created.ChatID, history)
	require.NoError(t, err)

	// Third turn: stored count is past the ceiling, title is frozen.
	history = append(history, ai.AssistantMessage("reply"), ai.UserMessage("Tercer mensaje con un texto distinto"))
	_, err = svc.SendMessage(ctx, created.ChatID, history)
	require.NoError(t, err)

	chat, err := st.GetChat(ctx, created.ChatID)
	require.NoError(t, err)
	require.Len(t, chat.Messages, 7)
	require.Equal(t, "Segundo mensaje", chat.Title)
}

func TestSendMessageCountMismatchIsNonFatal(t *testing.T) {
	llm := &fakeLLM{reply: "reply"}
	svc, st := newTestService(t, llm)
	ctx := context.Background()

	created, err := svc.CreateChat(ctx, "Hola")
	require.NoError(t, err)

	// Client claims a single-message history; stored has three. The
	// mismatch is logged but the operation continues.
	reply, err := svc.SendMessage(ctx, created.ChatID, []ai.Message{ai.UserMessage("solo uno")})
	require.NoError(t, err)
	require.Equal(t, "reply", reply)

	chat, err := st.GetChat(ctx, created.ChatID)
	require.NoError(t, err)
	require.Len(t, chat.Messages, 5)
}

func TestSendMessageUpstreamFailureLeavesChatUnchanged(t *testing.T) {
	llm := &fakeLLM{reply: "reply"}
	svc, st := newTestService(t, llm)
	ctx := context.Background()

	created, err := svc.CreateChat(ctx, "Hola")
	require.NoError(t, err)
	before, err := st.GetChat(ctx, created.ChatID)
	require.NoError(t, err)

	llm.err = errors.New("boom")
	_, err = svc.SendMessage(ctx, created.ChatID, []ai.Message{
		ai.SystemPrompt(PersonaPreamble),
		ai.UserMessage("Hola"),
		ai.AssistantMessage("reply"),
		ai.UserMessage("otra cosa"),
	})
	require.True(t, chaterrors.IsCode(err, chaterrors.ErrCodeUpstreamFailure))

	after, err := st.GetChat(ctx, created.ChatID)
	require.NoError(t, err)
	require.Equal(t, before, after)
}

func TestSendMessageTrailingAssistantTurnNotAppended(t *testing.T) {
	llm := &fakeLLM{reply: "reply"}
	svc, st := newTestService(t, llm)
	ctx := context.Background()

	created, err := svc.CreateChat(ctx, "Hola")
	require.NoError(t, err)

	// A client list not ending in a user turn appends only the reply.
	_, err = svc.SendMessage(ctx, created.ChatID, []ai.Message{
		ai.SystemPrompt(PersonaPreamble),
		ai.UserMessage("Hola"),
		ai.AssistantMessage("reply"),
	})
	require.NoError(t, err)

	chat, err := st.GetChat(ctx, created.ChatID)
	require.NoError(t, err)
	require.Len(t, chat.Messages, 4)
	require.Equal(t, store.ChatMessageRoleAssistant, chat.Messages[3].Role)
}

func TestDeleteChat(t *testing.T) {
	llm := &fakeLLM{reply: "reply"}
	svc, _ := newTestService(t, llm)
	ctx := context.Background()

	created, err := svc.CreateChat(ctx, "Hola")
	require.NoError(t, err)

	require.NoError(t, svc.DeleteChat(ctx, created.ChatID))

	_, err = svc.GetChat(ctx, created.ChatID)
	require.True(t, chaterrors.IsCode(err, chaterrors.ErrCodeNotFound))

	err = svc.DeleteChat(ctx, created.ChatID)
	require.True(t, chaterrors.IsCode(err, chaterrors.ErrCodeNotFound))
}

func TestGetStats(t *testing.T) {
	llm := &fakeLLM{reply: "reply"}
	svc, _ := newTestService(t, llm)
	ctx := context.Background()

	stats, err := svc.GetStats(ctx)
	require.NoError(t, err)
	require.Zero(t, stats.ChatsStored)
	require.NotEmpty(t, stats.ChatsDirectory)

	_, err = svc.CreateChat(ctx, "Hola")
	require.NoError(t, err)

	stats, err = svc.GetStats(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, stats.ChatsStored)
}
