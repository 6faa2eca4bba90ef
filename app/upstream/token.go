package upstream

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lysyi3m/cfa-cal/app/kv"
)

var (
	ErrMissingCredentials = errors.New("missing upstream account or password")
	ErrLoginRejected      = errors.New("upstream login rejected")
)

// Credential is a bearer token with its absolute expiry.
type Credential struct {
	Token     string
	ExpiresAt time.Time
}

// Valid reports whether the credential expires strictly after now.
func (c *Credential) Valid(now time.Time) bool {
	return c != nil && c.Token != "" && c.ExpiresAt.After(now)
}

// authRecord is the persisted shape of the auth key.
type authRecord struct {
	AccessToken    string `json:"access_token"`
	TokenExpiresAt int64  `json:"token_expires_at"` // unix ms
}

type LoginClient interface {
	Login(ctx context.Context, account, password string) (*LoginResponse, error)
}

// TokenManager caches the upstream credential in the key/value store.
type TokenManager struct {
	store    kv.Store
	client   LoginClient
	account  string
	password string
	now      func() time.Time
}

func NewTokenManager(store kv.Store, client LoginClient, account, password string) *TokenManager {
	return &TokenManager{
		store:    store,
		client:   client,
		account:  account,
		password: password,
		now:      time.Now,
	}
}

// SetClock replaces the time source.
func (m *TokenManager) SetClock(now func() time.Time) {
	m.now = now
}

// GetValidToken returns the stored credential when it has not expired, or
// nil. It never logs in.
func (m *TokenManager) GetValidToken(ctx context.Context) *Credential {
	var record authRecord
	found, err := kv.GetJSON(ctx, m.store, kv.KeyAuth, &record)
	if err != nil {
		slog.Warn("Failed to read stored credential", "error", err)
		return nil
	}
	if !found {
		return nil
	}

	cred := &Credential{
		Token:     record.AccessToken,
		ExpiresAt: time.UnixMilli(record.TokenExpiresAt),
	}
	if !cred.Valid(m.now()) {
		return nil
	}
	return cred
}

// Authenticate logs in and overwrites the stored credential. On failure the
// stored credential is left as it was.
func (m *TokenManager) Authenticate(ctx context.Context) (*Credential, error) {
	if m.account == "" || m.password == "" {
		return nil, ErrMissingCredentials
	}

	resp, err := m.client.Login(ctx, m.account, m.password)
	if err != nil {
		return nil, fmt.Errorf("login request failed: %w", err)
	}
	if !resp.Successful() {
		return nil, fmt.Errorf("%w: status=%d code=%s msg=%s", ErrLoginRejected, resp.Status, resp.Code, resp.Msg)
	}

	cred := &Credential{
		Token:     resp.Data.Token,
		ExpiresAt: time.Unix(resp.Data.ExpiresTime, 0),
	}
	if !cred.Valid(m.now()) {
		return nil, fmt.Errorf("%w: expiry %d is not in the future", ErrLoginRejected, resp.Data.ExpiresTime)
	}

	record := authRecord{
		AccessToken:    cred.Token,
		TokenExpiresAt: cred.ExpiresAt.UnixMilli(),
	}
	if err := kv.PutJSON(ctx, m.store, kv.KeyAuth, record); err != nil {
		slog.Error("Failed to persist credential", "error", err)
	}

	slog.Info("Authenticated with upstream", "expires_at", cred.ExpiresAt.Format(time.RFC3339))

	return cred, nil
}
