package store

import (
	"context"

	"github.com/pkg/errors"
)

// ErrChatNotFound is returned when no record exists for a chat id.
var ErrChatNotFound = errors.New("chat not found")

// ErrCorruptRecord is returned when a record exists but cannot be parsed
// into the Chat shape.
var ErrCorruptRecord = errors.New("chat record is corrupt")

// Driver is an interface for store driver.
// It contains all methods a transcript storage backend should implement.
// The default backend keeps one JSON file per chat; alternative backends
// only need to honor the same contract.
type Driver interface {
	Close() error

	// Chat model related methods.
	GetChat(ctx context.Context, id string) (*Chat, error)
	UpsertChat(ctx context.Context, chat *Chat) error
	ListChatSummaries(ctx context.Context) ([]*ChatSummary, error)
	DeleteChat(ctx context.Context, id string) error
	CountChats(ctx context.Context) (int, error)
}
