package auth

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

func TestCredentialManager(t *testing.T) {
	manager, mockStore := NewMockManager()

	account := &Account{Username: "j2smith", Password: "hunter2"}
	if err := manager.Store(account); err != nil {
		t.Fatalf("Failed to store account: %v", err)
	}
	assert.False(t, account.LastModified.IsZero(), "Store stamps the modification time")

	retrieved, err := manager.Retrieve("j2smith")
	require.NoError(t, err)
	assert.Equal(t, "hunter2", retrieved.Password)

	password, err := manager.PasswordFor("j2smith")
	require.NoError(t, err)
	assert.Equal(t, "hunter2", password)

	accounts, err := manager.List()
	require.NoError(t, err)
	require.Len(t, accounts, 1)

	sanitized := SanitizeAccount(account)
	assert.Equal(t, "j2smith", sanitized.Username)
	assert.Equal(t, "********", sanitized.Password)

	require.NoError(t, manager.Delete("j2smith"))

	_, err = manager.Retrieve("j2smith")
	assert.ErrorIs(t, err, ErrCredentialsNotFound)
	assert.Equal(t, 0, mockStore.Count())

	err = manager.Delete("j2smith")
	assert.ErrorIs(t, err, ErrCredentialsNotFound)
}

func TestManagerStoreValidation(t *testing.T) {
	manager, _ := NewMockManager()

	assert.Error(t, manager.Store(&Account{Password: "x"}))
	assert.Error(t, manager.Store(&Account{Username: "x"}))

	_, err := manager.PasswordFor("")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestManagerFallsBackToNextStore(t *testing.T) {
	broken := NewMockStore()
	broken.StoreError = errors.New("keychain locked")
	working := NewMockStore()

	manager := NewManagerWithStores(broken, working)
	require.NoError(t, manager.Store(&Account{Username: "j2smith", Password: "hunter2"}))

	assert.Equal(t, 0, broken.Count())
	assert.Equal(t, 1, working.Count())
}

func TestManagerListSortedAndDeduplicated(t *testing.T) {
	first := NewMockStore()
	second := NewMockStore()
	manager := NewManagerWithStores(first, second)

	require.NoError(t, first.Store(&Account{Username: "zed", Password: "1"}))
	require.NoError(t, second.Store(&Account{Username: "amy", Password: "2"}))
	require.NoError(t, second.Store(&Account{Username: "zed", Password: "3"}))

	accounts, err := manager.List()
	require.NoError(t, err)
	require.Len(t, accounts, 2)
	assert.Equal(t, "amy", accounts[0].Username)
	assert.Equal(t, "zed", accounts[1].Username)
}

func TestEncryptedFileStore(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "credentials.enc")
	t.Setenv(EnvPassphrase, "test_passphrase_123")

	store, err := NewEncryptedFileStore(path)
	require.NoError(t, err)

	require.NoError(t, store.Store(&Account{Username: "j2smith", Password: "correct horse battery"}))
	require.NoError(t, store.Store(&Account{Username: "k3jones", Password: "tr0ub4dor"}))

	retrieved, err := store.Retrieve("j2smith")
	require.NoError(t, err)
	assert.Equal(t, "correct horse battery", retrieved.Password)
	assert.True(t, store.Exists("k3jones"))

	fileContent, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.False(t, bytes.Contains(fileContent, []byte("correct horse battery")), "file contains a plaintext password")

	// A different passphrase cannot read the file
	t.Setenv(EnvPassphrase, "another passphrase")
	other, err := NewEncryptedFileStore(path)
	require.NoError(t, err)
	_, err = other.Retrieve("j2smith")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrCredentialsNotFound)

	t.Setenv(EnvPassphrase, "test_passphrase_123")
	require.NoError(t, store.Delete("j2smith"))
	require.NoError(t, store.Delete("k3jones"))
	assert.NoFileExists(t, path, "the store is removed with its last account")

	_, err = store.Retrieve("j2smith")
	assert.ErrorIs(t, err, ErrCredentialsNotFound)
}

func TestEncryptedFileStoreGeneratedPassphrase(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(EnvPassphrase, "")

	store, err := NewEncryptedFileStore(filepath.Join(dir, "credentials.enc"))
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, ".passphrase"))

	require.NoError(t, store.Store(&Account{Username: "j2smith", Password: "hunter2"}))

	reopened, err := NewEncryptedFileStore(filepath.Join(dir, "credentials.enc"))
	require.NoError(t, err)
	account, err := reopened.Retrieve("j2smith")
	require.NoError(t, err)
	assert.Equal(t, "hunter2", account.Password)
}

func TestEnvironmentStore(t *testing.T) {
	store := NewEnvironmentStore()

	t.Setenv(EnvUsername, "")
	t.Setenv(EnvPassword, "")
	_, err := store.Retrieve("j2smith")
	assert.ErrorIs(t, err, ErrCredentialsNotFound)

	t.Setenv(EnvUsername, "j2smith")
	t.Setenv(EnvPassword, "env_pass")

	account, err := store.Retrieve("j2smith")
	require.NoError(t, err)
	assert.Equal(t, "env_pass", account.Password)

	_, err = store.Retrieve("someone_else")
	assert.ErrorIs(t, err, ErrCredentialsNotFound)

	accounts, err := store.List()
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assert.Equal(t, "j2smith", accounts[0].Username)

	assert.ErrorIs(t, store.Store(&Account{}), ErrStoreUnavailable)
	assert.ErrorIs(t, store.Delete("j2smith"), ErrStoreUnavailable)
}

func TestMockStore(t *testing.T) {
	store := NewMockStore()

	accounts, err := store.List()
	require.NoError(t, err)
	assert.Empty(t, accounts)

	require.NoError(t, store.Store(&Account{Username: "mockuser", Password: "pw"}))
	assert.Equal(t, 1, store.Count())
	assert.True(t, store.Exists("mockuser"))

	got, err := store.Retrieve("mockuser")
	require.NoError(t, err)
	assert.Equal(t, "pw", got.Password)

	store.ListError = errors.New("injected error")
	_, err = store.List()
	assert.EqualError(t, err, "injected error")

	store.Reset()
	assert.Equal(t, 0, store.Count())
	accounts, err = store.List()
	require.NoError(t, err)
	assert.Empty(t, accounts)
}

func TestKeyringStore(t *testing.T) {
	keyring.MockInit()

	store, err := NewKeyringStore()
	require.NoError(t, err)

	_, err = store.Retrieve("j2smith")
	assert.ErrorIs(t, err, ErrCredentialsNotFound)

	require.NoError(t, store.Store(&Account{Username: "j2smith", Password: "hunter2"}))
	assert.True(t, store.Exists("j2smith"))

	secret, err := keyring.Get(keychainService, "portal:j2smith")
	require.NoError(t, err)
	assert.Contains(t, secret, "hunter2")

	_, err = keyring.Get(keychainService, keychainProbe)
	assert.ErrorIs(t, err, keyring.ErrNotFound, "the availability check cleans up after itself")

	got, err := store.Retrieve("j2smith")
	require.NoError(t, err)
	assert.Equal(t, "hunter2", got.Password)

	require.NoError(t, keyring.Set(keychainService, "portal:k3jones", "not json"))
	_, err = store.Retrieve("k3jones")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrCredentialsNotFound)

	require.NoError(t, store.Delete("j2smith"))
	assert.ErrorIs(t, store.Delete("j2smith"), ErrCredentialsNotFound)
	assert.ErrorIs(t, store.Store(&Account{}), ErrInvalidCredentials)
}
