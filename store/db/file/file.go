// Package file implements the store driver on top of a plain directory,
// with one self-describing JSON record per chat.
package file

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/evelynchat/evelyn/internal/profile"
	"github.com/evelynchat/evelyn/store"
)

const recordExt = ".json"

// Driver stores each chat as <dir>/<chat id>.json. Writes go through a
// temp file and rename so a concurrent reader never observes a torn
// record. No state is cached between calls.
type Driver struct {
	profile *profile.Profile
	dir     string
}

// NewDriver opens a file driver rooted at dir, creating it if needed.
func NewDriver(profile *profile.Profile, dir string) (store.Driver, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "unable to create chats directory %s", dir)
	}
	return &Driver{
		profile: profile,
		dir:     dir,
	}, nil
}

func (d *Driver) Close() error {
	return nil
}

// Dir returns the directory holding the chat records.
func (d *Driver) Dir() string {
	return d.dir
}

func (d *Driver) GetChat(ctx context.Context, id string) (*store.Chat, error) {
	path, err := d.recordPath(id)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, store.ErrChatNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read chat record %s", id)
	}

	chat := &store.Chat{}
	if err := json.Unmarshal(data, chat); err != nil {
		return nil, errors.Wrapf(store.ErrCorruptRecord, "chat %s: %v", id, err)
	}
	return chat, nil
}

func (d *Driver) UpsertChat(ctx context.Context, chat *store.Chat) error {
	path, err := d.recordPath(chat.ID)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(chat, "", "  ")
	if err != nil {
		return errors.Wrapf(err, "failed to encode chat %s", chat.ID)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return errors.Wrapf(err, "failed to write chat record %s", chat.ID)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return errors.Wrapf(err, "failed to commit chat record %s", chat.ID)
	}
	return nil
}

func (d *Driver) ListChatSummaries(ctx context.Context) ([]*store.ChatSummary, error) {
	entries, err := os.ReadDir(d.dir)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to scan chats directory %s", d.dir)
	}

	summaries := []*store.ChatSummary{}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), recordExt) {
			continue
		}
		id := strings.TrimSuffix(entry.Name(), recordExt)
		chat, err := d.GetChat(ctx, id)
		if err != nil {
			// Unreadable records are skipped, not propagated; the rest
			// of the listing must survive one bad file.
			slog.Warn("skipping unreadable chat record",
				"chat_id", id,
				"error", err,
			)
			continue
		}
		summaries = append(summaries, &store.ChatSummary{
			ID:           chat.ID,
			Title:        chat.Title,
			CreatedAt:    chat.CreatedAt,
			LastActivity: chat.LastActivity,
			MessageCount: chat.MessageCount(),
		})
	}

	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].LastActivity.After(summaries[j].LastActivity)
	})
	return summaries, nil
}

func (d *Driver) DeleteChat(ctx context.Context, id string) error {
	path, err := d.recordPath(id)
	if err != nil {
		return err
	}

	err = os.Remove(path)
	if os.IsNotExist(err) {
		return store.ErrChatNotFound
	}
	if err != nil {
		return errors.Wrapf(err, "failed to delete chat record %s", id)
	}
	return nil
}

func (d *Driver) CountChats(ctx context.Context) (int, error) {
	entries, err := os.ReadDir(d.dir)
	if err != nil {
		return 0, errors.Wrapf(err, "failed to scan chats directory %s", d.dir)
	}

	count := 0
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), recordExt) {
			count++
		}
	}
	return count, nil
}

// recordPath maps a chat id to its record file, rejecting ids that would
// escape the chats directory.
func (d *Driver) recordPath(id string) (string, error) {
	if id == "" || strings.ContainsAny(id, `/\`) || id != filepath.Base(id) {
		return "", errors.Errorf("invalid chat id %q", id)
	}
	return filepath.Join(d.dir, id+recordExt), nil
}
