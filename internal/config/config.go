// Package config loads, validates and saves the file holding the API key
// of each geolocation provider.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/westernwontons/geolocate/internal/env"
	"github.com/westernwontons/geolocate/internal/provider"
)

const (
	appName         = "geolocate"
	defaultFilename = "config.yaml"
)

var (
	ErrMissingToken = errors.New("missing token")
	ErrParse        = errors.New("cannot parse configuration")
	ErrInvalid      = errors.New("invalid configuration")
)

const template = `# API keys of the geolocation providers, keyed by provider name.
# ip2location: your-ip2location-key
# ipgeolocation: your-ipgeolocation-key
`

// MissingTokenError is returned when no API key is configured for a provider.
type MissingTokenError struct {
	Provider provider.Provider
}

func (e *MissingTokenError) Error() string {
	return fmt.Sprintf("no token for %s specified, set it with the 'config' subcommand", e.Provider)
}

func (e *MissingTokenError) Is(target error) bool { return target == ErrMissingToken }

// Store maps a provider name to its API key.
type Store struct {
	Keys map[string]string `validate:"dive,keys,required,printascii,endkeys,required,printascii"`
}

// NewStore returns a store holding a copy of keys.
func NewStore(keys map[string]string) *Store {
	s := &Store{Keys: make(map[string]string, len(keys))}
	for name, key := range keys {
		s.Keys[name] = key
	}
	return s
}

// Token returns the API key of p.
func (s *Store) Token(p provider.Provider) (string, error) {
	if s != nil {
		if key := strings.TrimSpace(s.Keys[p.String()]); key != "" {
			return key, nil
		}
	}
	return "", &MissingTokenError{Provider: p}
}

// Set stores key for the named provider. Only known providers are accepted.
func (s *Store) Set(name, key string) error {
	p, err := provider.Parse(strings.TrimSpace(name))
	if err != nil {
		return err
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return fmt.Errorf("%w: empty key for %s", ErrInvalid, p)
	}
	if s.Keys == nil {
		s.Keys = make(map[string]string)
	}
	s.Keys[p.String()] = key
	return s.Validate()
}

// WithEnv returns a copy of the store where keys given through the
// environment replace the stored ones.
func (s *Store) WithEnv() *Store {
	out := NewStore(s.Keys)
	for _, p := range provider.All {
		if key, ok := env.Key(p.String()); ok {
			out.Keys[p.String()] = key
		}
	}
	return out
}

// Pair is one provider name and its key.
type Pair struct {
	Name string
	Key  string
}

// Pairs returns the stored keys sorted by provider name.
func (s *Store) Pairs() []Pair {
	pairs := make([]Pair, 0, len(s.Keys))
	for name, key := range s.Keys {
		pairs = append(pairs, Pair{Name: name, Key: key})
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].Name < pairs[j].Name })
	return pairs
}

// Validate checks that every name and key is non-empty printable ASCII.
func (s *Store) Validate() error {
	if err := validator.New().Struct(s); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("%w: %s failed on %q", ErrInvalid, verrs[0].Namespace(), verrs[0].Tag())
		}
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return nil
}

// DefaultPath returns $GEOLOCATE_CONFIG or the per-user config location.
func DefaultPath() (string, error) {
	if path, ok := env.ConfigPath(); ok {
		return path, nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("cannot locate user config directory: %w", err)
	}
	return filepath.Join(dir, appName, defaultFilename), nil
}

// Load reads the store at path. A missing file is created from a template
// and an empty store is returned.
func Load(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		if err := create(path); err != nil {
			return nil, err
		}
		return NewStore(nil), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	keys, err := decode(path, data)
	if err != nil {
		return nil, fmt.Errorf("%w %s: %w", ErrParse, path, err)
	}

	store := NewStore(keys)
	if err := store.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return store, nil
}

// Save writes the store to path in the format chosen by its extension.
func Save(path string, s *Store) error {
	if err := s.Validate(); err != nil {
		return err
	}

	var buf bytes.Buffer
	if isTOML(path) {
		if err := toml.NewEncoder(&buf).Encode(s.Keys); err != nil {
			return fmt.Errorf("failed to encode config: %w", err)
		}
	} else {
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(s.Keys); err != nil {
			return fmt.Errorf("failed to encode config: %w", err)
		}
		if err := enc.Close(); err != nil {
			return fmt.Errorf("failed to encode config: %w", err)
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// Ensure creates the file at path from the template if it does not exist.
func Ensure(path string) error {
	_, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return create(path)
	}
	if err != nil {
		return fmt.Errorf("failed to stat config: %w", err)
	}
	return nil
}

func create(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(template), 0o600); err != nil {
		return fmt.Errorf("failed to create config: %w", err)
	}
	return nil
}

func decode(path string, data []byte) (map[string]string, error) {
	keys := map[string]string{}
	if len(bytes.TrimSpace(data)) == 0 {
		return keys, nil
	}

	if isTOML(path) {
		if _, err := toml.Decode(string(data), &keys); err != nil {
			return nil, err
		}
		return keys, nil
	}

	if err := yaml.Unmarshal(data, &keys); err != nil {
		return nil, err
	}
	return keys, nil
}

func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}
