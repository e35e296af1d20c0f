// Package credential keeps API access tokens in the system keyring.
package credential

import (
	"errors"
	"fmt"
	"strings"

	"github.com/99designs/keyring"
)

const serviceName = "todolist"

// ErrNotStored is returned by Token when no token is saved for an endpoint.
var ErrNotStored = errors.New("no token stored")

// Opener opens a keyring. Tests swap it for keyring.NewArrayKeyring.
type Opener func() (keyring.Keyring, error)

// DefaultOpener opens the platform keyring, falling back to an encrypted file.
func DefaultOpener() (keyring.Keyring, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName: serviceName,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		},
		FileDir:                  "~/.config/todolist/credentials",
		FilePasswordFunc:         keyring.FixedStringPrompt("todolist-file-key"),
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return ring, nil
}

// Tokens reads and writes per-endpoint bearer tokens.
type Tokens struct {
	open Opener
}

// NewTokens returns a token store backed by the given opener.
// A nil opener uses DefaultOpener.
func NewTokens(open Opener) *Tokens {
	if open == nil {
		open = DefaultOpener
	}
	return &Tokens{open: open}
}

// Token retrieves the token saved for endpoint.
func (t *Tokens) Token(endpoint string) (string, error) {
	ring, err := t.open()
	if err != nil {
		return "", err
	}

	item, err := ring.Get(tokenKey(endpoint))
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return "", ErrNotStored
	}
	if err != nil {
		return "", fmt.Errorf("getting token for %s: %w", endpoint, err)
	}

	return string(item.Data), nil
}

// SetToken stores the token for endpoint.
func (t *Tokens) SetToken(endpoint, token string) error {
	ring, err := t.open()
	if err != nil {
		return err
	}

	err = ring.Set(keyring.Item{
		Key:         tokenKey(endpoint),
		Data:        []byte(token),
		Label:       "todolist API token",
		Description: endpoint,
	})
	if err != nil {
		return fmt.Errorf("setting token for %s: %w", endpoint, err)
	}

	return nil
}

// DeleteToken forgets the token for endpoint. Deleting a missing token is not an error.
func (t *Tokens) DeleteToken(endpoint string) error {
	ring, err := t.open()
	if err != nil {
		return err
	}

	err = ring.Remove(tokenKey(endpoint))
	if err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
		return fmt.Errorf("deleting token for %s: %w", endpoint, err)
	}

	return nil
}

// Resolve returns explicit when set, otherwise the stored token for
// endpoint, otherwise "". Keyring failures are reported but not fatal.
func (t *Tokens) Resolve(endpoint, explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	token, err := t.Token(endpoint)
	if errors.Is(err, ErrNotStored) {
		return "", nil
	}
	return token, err
}

func tokenKey(endpoint string) string {
	return "token:" + strings.TrimRight(endpoint, "/")
}
