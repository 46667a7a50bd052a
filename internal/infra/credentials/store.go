// Package credentials resolves third-party API tokens stored in the database.
// Environment variables always win; the store is the fallback for deployments
// that rotate keys without restarting processes.
package credentials

import (
	"context"
	"errors"
	"strings"

	"tryon/internal/infra"
	"tryon/internal/sqlinline"
)

const ProviderTryOn = "tryon"

type Store struct {
	sql infra.SQLExecutor
}

func NewStore(sql infra.SQLExecutor) *Store {
	return &Store{sql: sql}
}

// TryOnAPIKey returns the stored try-on API key, or "" when none is configured.
func (s *Store) TryOnAPIKey(ctx context.Context) (string, error) {
	return s.Token(ctx, ProviderTryOn)
}

func (s *Store) Token(ctx context.Context, provider string) (string, error) {
	row := s.sql.QueryRow(ctx, sqlinline.QSelectIntegrationToken, provider)
	var token string
	if err := row.Scan(&token); err != nil {
		if infra.IsNoRows(err) {
			return "", nil
		}
		return "", err
	}
	return strings.TrimSpace(token), nil
}

func (s *Store) SetTryOnAPIKey(ctx context.Context, key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return errors.New("tryon api key is required")
	}
	_, err := s.sql.Exec(ctx, sqlinline.QUpsertIntegrationToken, ProviderTryOn, key)
	return err
}
