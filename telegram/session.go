package telegram

import (
	"context"
	"errors"
	"fmt"

	"github.com/gotd/td/session"
	"github.com/tidwall/buntdb"
)

// sessionStore keeps gotd session blobs in a buntdb file, one key per
// session name, so several named sessions can share the file.
type sessionStore struct {
	db  *buntdb.DB
	key string
}

var _ session.Storage = (*sessionStore)(nil)

func openSessionStore(path, name string) (*sessionStore, error) {
	if path == "" {
		path = ":memory:"
	}
	db, err := buntdb.Open(path)
	if err != nil {
		return nil, err
	}
	return &sessionStore{db: db, key: "session:" + name}, nil
}

func (s *sessionStore) LoadSession(ctx context.Context) ([]byte, error) {
	var data []byte
	err := s.db.View(func(tx *buntdb.Tx) error {
		value, err := tx.Get(s.key)
		if err != nil {
			return err
		}
		data = []byte(value)
		return nil
	})
	if errors.Is(err, buntdb.ErrNotFound) {
		return nil, session.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	return data, nil
}

func (s *sessionStore) StoreSession(ctx context.Context, data []byte) error {
	err := s.db.Update(func(tx *buntdb.Tx) error {
		_, _, err := tx.Set(s.key, string(data), nil)
		return err
	})
	if err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	return nil
}

func (s *sessionStore) Close() error {
	return s.db.Close()
}
