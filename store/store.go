package store

import (
	"context"

	"github.com/evelynchat/evelyn/internal/profile"
)

// Store provides access to all persisted chat transcripts.
// It holds no in-process cache: every operation goes straight to the
// driver so the durable record stays the single source of truth across
// concurrent requests.
type Store struct {
	profile *profile.Profile
	driver  Driver
}

// New creates a new instance of Store.
func New(driver Driver, profile *profile.Profile) *Store {
	return &Store{
		driver:  driver,
		profile: profile,
	}
}

func (s *Store) GetDriver() Driver {
	return s.driver
}

func (s *Store) Close() error {
	return s.driver.Close()
}

func (s *Store) GetChat(ctx context.Context, id string) (*Chat, error) {
	return s.driver.GetChat(ctx, id)
}

func (s *Store) UpsertChat(ctx context.Context, chat *Chat) error {
	return s.driver.UpsertChat(ctx, chat)
}

func (s *Store) ListChatSummaries(ctx context.Context) ([]*ChatSummary, error) {
	return s.driver.ListChatSummaries(ctx)
}

func (s *Store) DeleteChat(ctx context.Context, id string) error {
	return s.driver.DeleteChat(ctx, id)
}

func (s *Store) CountChats(ctx context.Context) (int, error) {
	return s.driver.CountChats(ctx)
}
