package secrets

import (
	"context"
	"errors"
	"os"
	"strings"

	"github.com/zalando/go-keyring"
)

const (
	// KeyringService is the default keyring service name.
	KeyringService = "aniflax"
	// KeyringUser is the account used when a reference names none.
	KeyringUser = "bot-token"
)

// keyringServiceName allows tests to isolate entries with
// ANIFLAX_KEYRING_SERVICE.
func keyringServiceName() string {
	if name := os.Getenv("ANIFLAX_KEYRING_SERVICE"); name != "" {
		return name
	}
	return KeyringService
}

// KeyringResolver resolves keyring://[user] from the OS keychain.
type KeyringResolver struct{}

// Scheme returns "keyring".
func (KeyringResolver) Scheme() string { return "keyring" }

// Resolve reads the keychain entry for the reference's user.
func (KeyringResolver) Resolve(ctx context.Context, reference string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	user := strings.TrimPrefix(reference, "keyring://")
	if user == "" {
		user = KeyringUser
	}
	v, err := keyring.Get(keyringServiceName(), user)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", &NotFoundError{Reference: reference, Backend: "keyring"}
	}
	if err != nil {
		return "", &BackendError{
			Backend:   "keyring",
			Reference: reference,
			Reason:    err.Error(),
			Fix:       "On Linux a Secret Service provider (gnome-keyring, KWallet) must be running.",
		}
	}
	return v, nil
}

// StoreInKeyring saves value under user ("" for KeyringUser) and returns
// the reference that resolves it.
func StoreInKeyring(user, value string) (string, error) {
	if user == "" {
		user = KeyringUser
	}
	if err := keyring.Set(keyringServiceName(), user, value); err != nil {
		return "", &BackendError{Backend: "keyring", Reason: err.Error()}
	}
	return "keyring://" + user, nil
}

// DeleteFromKeyring removes the entry for user. Missing entries are not an
// error.
func DeleteFromKeyring(user string) error {
	if user == "" {
		user = KeyringUser
	}
	err := keyring.Delete(keyringServiceName(), user)
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return &BackendError{Backend: "keyring", Reason: err.Error()}
	}
	return nil
}

func init() {
	Register(KeyringResolver{})
}
