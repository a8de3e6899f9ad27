// Package env loads a .env file and reads the environment variables the
// CLI understands.
package env

import (
	"errors"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

const (
	ConfigPathVar = "GEOLOCATE_CONFIG"
	EditorVar     = "EDITOR"
	DefaultEditor = "nano"

	keyPrefix = "GEOLOCATE_"
	keySuffix = "_KEY"
)

// Load reads .env files into the process environment. Variables that
// are already set win. Missing files are not an error.
func Load(filenames ...string) error {
	if len(filenames) == 0 {
		filenames = []string{".env"}
	}

	for _, name := range filenames {
		if err := godotenv.Load(name); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return err
		}
	}
	return nil
}

// Editor returns the user's preferred editor.
func Editor() string {
	if editor := strings.TrimSpace(os.Getenv(EditorVar)); editor != "" {
		return editor
	}
	return DefaultEditor
}

// ConfigPath returns the config path override, if any.
func ConfigPath() (string, bool) {
	path := strings.TrimSpace(os.Getenv(ConfigPathVar))
	return path, path != ""
}

// KeyVar is the variable that overrides the stored key of a provider,
// e.g. GEOLOCATE_IP2LOCATION_KEY.
func KeyVar(providerName string) string {
	return keyPrefix + strings.ToUpper(providerName) + keySuffix
}

// Key returns the API key override for a provider.
func Key(providerName string) (string, bool) {
	key := strings.TrimSpace(os.Getenv(KeyVar(providerName)))
	return key, key != ""
}
