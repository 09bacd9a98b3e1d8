// Package keyring stores the Treeship API key.
//
// The key is kept in the system keychain where one is available (macOS
// Keychain, Windows Credential Manager, libsecret/kwallet on Linux). On
// headless machines and in CI the package falls back to a file at
// ~/.treeship/credentials with 0600 permissions; files with looser
// permissions are refused on read, since the key may have been exposed.
package keyring

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/zalando/go-keyring"
)

const (
	// ServiceName is the default keyring service identifier. Override
	// with TREESHIP_KEYRING_SERVICE for test isolation.
	ServiceName = "treeship"
	// AccountName is the keyring account identifier.
	AccountName = "api-key"

	credentialsFile = "credentials"
)

// ErrInsecurePermissions is returned when the credentials file is
// readable by other users.
var ErrInsecurePermissions = errors.New("credentials file has insecure permissions")

func serviceName() string {
	if name := os.Getenv("TREESHIP_KEYRING_SERVICE"); name != "" {
		return name
	}
	return ServiceName
}

func credentialsPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".treeship", credentialsFile)
	}
	return filepath.Join(home, ".treeship", credentialsFile)
}

// Get returns the stored API key, trying the system keychain first and
// the credentials file second.
func Get() (string, error) {
	if key, err := keyring.Get(serviceName(), AccountName); err == nil {
		return key, nil
	}
	return fileGet(credentialsPath())
}

// Set stores the API key, preferring the system keychain. On keychain
// failure (headless, CI) the key is written to the credentials file.
// It returns the name of the backend that accepted the key.
func Set(key string) (string, error) {
	if key == "" {
		return "", errors.New("api key is empty")
	}
	if err := keyring.Set(serviceName(), AccountName, key); err == nil {
		return "system keychain", nil
	}
	path := credentialsPath()
	if err := fileSet(path, key); err != nil {
		return "", err
	}
	return "file (" + path + ")", nil
}

// Delete removes the API key from every backend that has it.
func Delete() error {
	kerr := keyring.Delete(serviceName(), AccountName)
	if errors.Is(kerr, keyring.ErrNotFound) {
		kerr = nil
	}
	ferr := os.Remove(credentialsPath())
	if ferr != nil && os.IsNotExist(ferr) {
		ferr = nil
	}
	if kerr != nil && ferr != nil {
		return fmt.Errorf("deleting api key: %v; %v", kerr, ferr)
	}
	return nil
}

func fileGet(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("reading credentials: %w", err)
	}
	if perm := info.Mode().Perm(); perm&0077 != 0 {
		return "", fmt.Errorf("%w: %s has permissions %04o (expected 0600), chmod 600 it and consider rotating the key",
			ErrInsecurePermissions, path, perm)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading credentials: %w", err)
	}
	// Trailing newlines from manual editing are harmless.
	return strings.TrimSpace(string(data)), nil
}

func fileSet(path, key string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("creating credentials directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(key+"\n"), 0600); err != nil {
		return fmt.Errorf("writing credentials: %w", err)
	}
	return nil
}
