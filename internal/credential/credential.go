package credential

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/99designs/keyring"
)

const serviceName = "newsletter"

// Keys of the stored credentials.
const (
	MailboxPassword = "mailbox-password"
)

// ErrNotFound is returned when neither the keyring nor the environment
// holds the credential.
var ErrNotFound = errors.New("credential not found")

// open is replaced in tests with an in-memory keyring.
var open = openKeyring

// openKeyring returns a configured keyring instance.
func openKeyring() (keyring.Keyring, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName: serviceName,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		},
		FileDir:                  "~/.config/newsletter/credentials",
		FilePasswordFunc:         keyring.FixedStringPrompt("newsletter-file-key"),
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return ring, nil
}

// Get retrieves a credential value by key from the system keyring.
func Get(key string) (string, error) {
	ring, err := open()
	if err != nil {
		return "", err
	}

	item, err := ring.Get(key)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return "", fmt.Errorf("getting credential %q: %w", key, ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("getting credential %q: %w", key, err)
	}

	return string(item.Data), nil
}

// Lookup returns the credential from the environment variable env when it
// is set, otherwise from the keyring.
func Lookup(key, env string) (string, error) {
	if v, ok := os.LookupEnv(env); ok && strings.TrimSpace(v) != "" {
		return v, nil
	}
	return Get(key)
}

// EnvName returns the environment variable consulted for key.
func EnvName(key string) string {
	return "NEWSLETTER_" + strings.ToUpper(strings.ReplaceAll(key, "-", "_"))
}

// Set stores a credential value by key in the system keyring.
func Set(key string, value string) error {
	ring, err := open()
	if err != nil {
		return err
	}

	err = ring.Set(keyring.Item{
		Key:   key,
		Data:  []byte(value),
		Label: serviceName + " " + key,
	})
	if err != nil {
		return fmt.Errorf("setting credential %q: %w", key, err)
	}

	return nil
}

// Delete removes a credential by key from the system keyring.
func Delete(key string) error {
	ring, err := open()
	if err != nil {
		return err
	}

	err = ring.Remove(key)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return fmt.Errorf("deleting credential %q: %w", key, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("deleting credential %q: %w", key, err)
	}

	return nil
}
