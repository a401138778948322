package auth

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

// Keychain entries live under one service, one entry per portal username
const (
	keychainService = "learnscraper"
	keychainProbe   = "learnscraper-probe"
)

// KeyringStore keeps portal passwords in the operating system keychain
type KeyringStore struct{}

// NewKeyringStore writes and removes a throwaway entry to check that a
// keychain is reachable, and fails when it is not
func NewKeyringStore() (*KeyringStore, error) {
	if err := keyring.Set(keychainService, keychainProbe, "ok"); err != nil {
		return nil, fmt.Errorf("%w: system keychain: %v", ErrStoreUnavailable, err)
	}
	_ = keyring.Delete(keychainService, keychainProbe)
	return &KeyringStore{}, nil
}

func entryName(username string) string {
	return "portal:" + username
}

func (k *KeyringStore) Store(account *Account) error {
	if account == nil || account.Username == "" {
		return ErrInvalidCredentials
	}

	secret, err := json.Marshal(account)
	if err != nil {
		return fmt.Errorf("encoding portal account %s: %w", account.Username, err)
	}
	if err := keyring.Set(keychainService, entryName(account.Username), string(secret)); err != nil {
		return fmt.Errorf("saving portal password for %s to the keychain: %w", account.Username, err)
	}
	return nil
}

func (k *KeyringStore) Retrieve(username string) (*Account, error) {
	if username == "" {
		return nil, ErrInvalidCredentials
	}

	secret, err := keyring.Get(keychainService, entryName(username))
	switch {
	case errors.Is(err, keyring.ErrNotFound):
		return nil, ErrCredentialsNotFound
	case err != nil:
		return nil, fmt.Errorf("reading portal password for %s from the keychain: %w", username, err)
	}

	var account Account
	if err := json.Unmarshal([]byte(secret), &account); err != nil {
		return nil, fmt.Errorf("keychain entry for %s is not a portal account: %w", username, err)
	}
	return &account, nil
}

// List returns nothing: go-keyring cannot enumerate a service's entries, so
// accounts kept only in the keychain are not listed
func (k *KeyringStore) List() ([]*Account, error) {
	return nil, nil
}

func (k *KeyringStore) Delete(username string) error {
	if username == "" {
		return ErrInvalidCredentials
	}

	err := keyring.Delete(keychainService, entryName(username))
	switch {
	case errors.Is(err, keyring.ErrNotFound):
		return ErrCredentialsNotFound
	case err != nil:
		return fmt.Errorf("removing portal password for %s from the keychain: %w", username, err)
	}
	return nil
}

func (k *KeyringStore) Exists(username string) bool {
	_, err := k.Retrieve(username)
	return err == nil
}
