package scoreboard

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/cbodonnell/cabinet/pkg/log"
	"github.com/cbodonnell/cabinet/pkg/repositories"
)

// DefaultKey is the repository key holding the score table.
const DefaultKey = "scores"

// Store persists the score table as one JSON array. The table is read in
// full on every Load and written in full on every Append.
type Store struct {
	repository repositories.Repository
	key        string
}

func NewStore(repository repositories.Repository, key string) *Store {
	if key == "" {
		key = DefaultKey
	}
	return &Store{
		repository: repository,
		key:        key,
	}
}

// Load returns the persisted entries. A missing or malformed table is an
// empty table, so Load only fails when the repository itself fails.
func (s *Store) Load(ctx context.Context) ([]Entry, error) {
	raw, err := s.repository.Get(ctx, s.key)
	if err != nil {
		if repositories.IsNotFound(err) {
			return []Entry{}, nil
		}
		return nil, fmt.Errorf("failed to read score table: %w", err)
	}

	var entries []Entry
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		log.Warn("Ignoring malformed score table: %v", err)
		return []Entry{}, nil
	}
	if entries == nil {
		// the JSON literal null
		return []Entry{}, nil
	}
	for i := range entries {
		entries[i].Provisional = false
	}
	return entries, nil
}

// Ranked returns the persisted entries in ranked order.
func (s *Store) Ranked(ctx context.Context) ([]Entry, error) {
	entries, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	return Rank(entries), nil
}

// Append adds entry to the table and rewrites it.
func (s *Store) Append(ctx context.Context, entry Entry) error {
	if entry.Provisional {
		return fmt.Errorf("provisional entries are never persisted")
	}
	entries, err := s.Load(ctx)
	if err != nil {
		return err
	}
	entries = append(entries, entry)

	b, err := json.Marshal(Rank(entries))
	if err != nil {
		return fmt.Errorf("failed to marshal score table: %w", err)
	}
	if err := s.repository.Set(ctx, s.key, string(b)); err != nil {
		return fmt.Errorf("failed to write score table: %w", err)
	}
	return nil
}
