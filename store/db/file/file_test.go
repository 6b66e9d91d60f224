package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/evelynchat/evelyn/internal/profile"
	"github.com/evelynchat/evelyn/store"
)

func newTestDriver(t *testing.T) (store.Driver, string) {
	t.Helper()
	dir := t.TempDir()
	driver, err := NewDriver(&profile.Profile{Mode: "dev", Data: dir}, dir)
	require.NoError(t, err)
	return driver, dir
}

func testChat(id string, lastActivity time.Time) *store.Chat {
	return &store.Chat{
		ID:           id,
		Title:        "Hola",
		CreatedAt:    lastActivity.Add(-time.Minute),
		LastActivity: lastActivity,
		Messages: []store.ChatMessage{
			{ID: "msg_1", Role: store.ChatMessageRoleSystem, Content: "persona", Timestamp: lastActivity.Add(-time.Minute)},
			{ID: "msg_2", Role: store.ChatMessageRoleUser, Content: "Hola", Timestamp: lastActivity.Add(-time.Minute)},
			{ID: "msg_3", Role: store.ChatMessageRoleAssistant, Content: "Hola, Mario", Timestamp: lastActivity},
		},
	}
}

func TestChatRoundTrip(t *testing.T) {
	driver, _ := newTestDriver(t)
	ctx := context.Background()

	chat := testChat("chat_1700000000000", time.Now().UTC().Truncate(time.Second))
	require.NoError(t, driver.UpsertChat(ctx, chat))

	loaded, err := driver.GetChat(ctx, chat.ID)
	require.NoError(t, err)
	require.Equal(t, chat, loaded)
}

func TestGetChatNotFound(t *testing.T) {
	driver, _ := newTestDriver(t)

	_, err := driver.GetChat(context.Background(), "chat_missing")
	require.ErrorIs(t, err, store.ErrChatNotFound)
}

func TestGetChatCorruptRecord(t *testing.T) {
	driver, dir := newTestDriver(t)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "chat_bad.json"), []byte("{not json"), 0o644))

	_, err := driver.GetChat(context.Background(), "chat_bad")
	require.True(t, errors.Is(err, store.ErrCorruptRecord))
}

func TestDeleteChat(t *testing.T) {
	driver, _ := newTestDriver(t)
	ctx := context.Background()

	chat := testChat("chat_1700000000001", time.Now().UTC())
	require.NoError(t, driver.UpsertChat(ctx, chat))
	require.NoError(t, driver.DeleteChat(ctx, chat.ID))

	_, err := driver.GetChat(ctx, chat.ID)
	require.ErrorIs(t, err, store.ErrChatNotFound)

	require.ErrorIs(t, driver.DeleteChat(ctx, chat.ID), store.ErrChatNotFound)
}

func TestListChatSummaries(t *testing.T) {
	driver, dir := newTestDriver(t)
	ctx := context.Background()

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	oldest := testChat("chat_1", base)
	middle := testChat("chat_2", base.Add(time.Hour))
	newest := testChat("chat_3", base.Add(2*time.Hour))
	for _, c := range []*store.Chat{oldest, newest, middle} {
		require.NoError(t, driver.UpsertChat(ctx, c))
	}

	// A corrupt record must be skipped, not fail the listing.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "chat_corrupt.json"), []byte("garbage"), 0o644))

	summaries, err := driver.ListChatSummaries(ctx)
	require.NoError(t, err)
	require.Len(t, summaries, 3)

	require.Equal(t, []string{"chat_3", "chat_2", "chat_1"}, []string{
		summaries[0].ID, summaries[1].ID, summaries[2].ID,
	})

	// Message count excludes the synthetic system message.
	require.Equal(t, 2, summaries[0].MessageCount)
}

func TestCountChats(t *testing.T) {
	driver, dir := newTestDriver(t)
	ctx := context.Background()

	count, err := driver.CountChats(ctx)
	require.NoError(t, err)
	require.Zero(t, count)

	require.NoError(t, driver.UpsertChat(ctx, testChat("chat_a", time.Now().UTC())))
	require.NoError(t, driver.UpsertChat(ctx, testChat("chat_b", time.Now().UTC())))

	// Leftover temp files from interrupted writes are not records.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "chat_c.json.tmp"), []byte("{}"), 0o644))

	count, err = driver.CountChats(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, count)
}

// TestLastWriterWins documents the accepted overwrite semantics: two
// writers that load the same base state and save divergent appends do
// not merge; the later save replaces the earlier one.
func TestLastWriterWins(t *testing.T) {
	driver, _ := newTestDriver(t)
	ctx := context.Background()

	base := testChat("chat_race", time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	require.NoError(t, driver.UpsertChat(ctx, base))

	first, err := driver.GetChat(ctx, base.ID)
	require.NoError(t, err)
	second, err := driver.GetChat(ctx, base.ID)
	require.NoError(t, err)

	first.Messages = append(first.Messages, store.ChatMessage{
		ID: "msg_a", Role: store.ChatMessageRoleUser, Content: "turn A", Timestamp: time.Now().UTC(),
	})
	second.Messages = append(second.Messages, store.ChatMessage{
		ID: "msg_b", Role: store.ChatMessageRoleUser, Content: "turn B", Timestamp: time.Now().UTC(),
	})

	require.NoError(t, driver.UpsertChat(ctx, first))
	require.NoError(t, driver.UpsertChat(ctx, second))

	final, err := driver.GetChat(ctx, base.ID)
	require.NoError(t, err)
	require.Len(t, final.Messages, 4)
	require.Equal(t, "turn B", final.Messages[3].Content)
}

func TestRecordPathRejectsTraversal(t *testing.T) {
	driver, _ := newTestDriver(t)
	ctx := context.Background()

	_, err := driver.GetChat(ctx, "../escape")
	require.Error(t, err)
	require.NotErrorIs(t, err, store.ErrChatNotFound)
}
