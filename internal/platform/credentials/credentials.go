package credentials

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	apperrors "murmur/internal/platform/errors"
)

// Store resolves the opaque bearer token. An explicit token wins over the file.
type Store struct {
	path     string
	explicit string
}

func NewStore(path, explicit string) *Store {
	return &Store{path: path, explicit: strings.TrimSpace(explicit)}
}

func (s *Store) Token(_ context.Context) (string, error) {
	if s.explicit != "" {
		return s.explicit, nil
	}
	if s.path == "" {
		return "", apperrors.ErrUnauthenticated
	}
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return "", apperrors.ErrUnauthenticated
	}
	if err != nil {
		return "", fmt.Errorf("read token: %w", err)
	}
	token := strings.TrimSpace(string(raw))
	if token == "" {
		return "", apperrors.ErrUnauthenticated
	}
	return token, nil
}

func (s *Store) Save(token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return fmt.Errorf("%w: empty token", apperrors.ErrInvalidInput)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create token dir: %w", err)
	}
	if err := os.WriteFile(s.path, []byte(token+"\n"), 0o600); err != nil {
		return fmt.Errorf("write token: %w", err)
	}
	return nil
}

func (s *Store) Clear() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove token: %w", err)
	}
	return nil
}
