package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/westernwontons/geolocate/internal/config"
	"github.com/westernwontons/geolocate/internal/input"
	"github.com/westernwontons/geolocate/internal/output"
)

func TestMain(m *testing.M) {
	output.DisableColors()
	os.Exit(m.Run())
}

type echo struct {
	IP     string `json:"ip"`
	Key    string `json:"key"`
	APIKey string `json:"apiKey"`
}

type stub struct {
	URL  string
	hits atomic.Int32
}

func newStub(t *testing.T) *stub {
	t.Helper()
	s := &stub{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.hits.Add(1)
		q := r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(echo{IP: q.Get("ip"), Key: q.Get("key"), APIKey: q.Get("apiKey")})
	}))
	t.Cleanup(srv.Close)
	s.URL = srv.URL + "/"
	return s
}

func writeConfig(t *testing.T, keys map[string]string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, config.Save(path, config.NewStore(keys)))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd(&app{})
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), err
}

func decodeEchoes(t *testing.T, out string) []echo {
	t.Helper()
	var got []echo
	require.NoError(t, json.Unmarshal([]byte(out), &got), out)
	return got
}

func TestLookup(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, map[string]string{"ip2location": "k1", "ipgeolocation": "k2"})
	file := filepath.Join(t.TempDir(), "ips.txt")
	require.NoError(t, os.WriteFile(file, []byte("9.9.9.9\n\n  2001:db8::1  \n"), 0o600))

	tests := map[string]struct {
		args   []string
		ips    []string
		key    string
		apiKey string
	}{
		"single address": {
			args: []string{"ip2location", "-a", "1.1.1.1"},
			ips:  []string{"1.1.1.1"},
			key:  "k1",
		},
		"comma separated addresses keep order": {
			args: []string{"ip2location", "--addrs", "8.8.8.8,1.1.1.1,2001:db8::2"},
			ips:  []string{"8.8.8.8", "1.1.1.1", "2001:db8::2"},
			key:  "k1",
		},
		"positional addresses": {
			args: []string{"ip2location", "-a", "1.1.1.1", "8.8.8.8"},
			ips:  []string{"1.1.1.1", "8.8.8.8"},
			key:  "k1",
		},
		"file": {
			args: []string{"ip2location", "-f", file},
			ips:  []string{"9.9.9.9", "2001:db8::1"},
			key:  "k1",
		},
		"ipgeolocation uses apiKey": {
			args:   []string{"ipgeolocation", "-a", "1.1.1.1"},
			ips:    []string{"1.1.1.1"},
			apiKey: "k2",
		},
	}

	for name, tc := range tests {
		tc := tc
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			s := newStub(t)
			args := append([]string{"--config", path, "--endpoint", s.URL}, tc.args...)
			out, err := run(t, args...)
			require.NoError(t, err)

			got := decodeEchoes(t, out)
			require.Len(t, got, len(tc.ips))
			for i, ip := range tc.ips {
				assert.Equal(t, ip, got[i].IP)
				assert.Equal(t, tc.key, got[i].Key)
				assert.Equal(t, tc.apiKey, got[i].APIKey)
			}
			assert.Equal(t, int32(len(tc.ips)), s.hits.Load())
		})
	}
}

func TestLookupErrorsBeforeNetwork(t *testing.T) {
	t.Parallel()

	keyed := writeConfig(t, map[string]string{"ip2location": "k1"})
	broken := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(broken, []byte("ip2location: [oops"), 0o600))
	badFile := filepath.Join(t.TempDir(), "ips.txt")
	require.NoError(t, os.WriteFile(badFile, []byte("1.1.1.1\nnope\n"), 0o600))

	tests := map[string]struct {
		config string
		args   []string
		target error
		msg    string
	}{
		"missing token": {
			config: filepath.Join(t.TempDir(), "fresh", "config.yaml"),
			args:   []string{"ip2location", "-a", "1.1.1.1"},
			target: config.ErrMissingToken,
			msg:    "no token for ip2location specified, set it with the 'config' subcommand",
		},
		"missing token for other provider": {
			config: keyed,
			args:   []string{"ipgeolocation", "-a", "1.1.1.1"},
			target: config.ErrMissingToken,
		},
		"both inputs": {
			config: keyed,
			args:   []string{"ip2location", "-a", "1.1.1.1", "-f", badFile},
			target: input.ErrMutuallyExclusive,
			msg:    "file and addresses arguments are mutually exclusive",
		},
		"no input": {
			config: keyed,
			args:   []string{"ip2location"},
			target: input.ErrNoInput,
			msg:    "either file or addresses must be provided, but not both",
		},
		"bad line in file": {
			config: keyed,
			args:   []string{"ip2location", "-f", badFile},
			msg:    `invalid address at line 2: "nope"`,
		},
		"bad file reported before missing token": {
			config: filepath.Join(t.TempDir(), "unkeyed", "config.yaml"),
			args:   []string{"ip2location", "-f", badFile},
			msg:    `invalid address at line 2: "nope"`,
		},
		"bad address flag": {
			config: keyed,
			args:   []string{"ip2location", "-a", "999.1.1.1"},
			msg:    `invalid address "999.1.1.1"`,
		},
		"empty file": {
			config: keyed,
			args:   []string{"ip2location", "-f", writeFile(t, "\n\n")},
			target: input.ErrNoAddressProvided,
		},
		"unparsable config": {
			config: broken,
			args:   []string{"ip2location", "-a", "1.1.1.1"},
			target: config.ErrParse,
		},
	}

	for name, tc := range tests {
		tc := tc
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			s := newStub(t)
			args := append([]string{"--config", tc.config, "--endpoint", s.URL}, tc.args...)
			out, err := run(t, args...)
			require.Error(t, err)
			if tc.target != nil {
				assert.ErrorIs(t, err, tc.target)
			}
			if tc.msg != "" {
				assert.EqualError(t, err, tc.msg)
			}
			assert.Empty(t, out)
			assert.Zero(t, s.hits.Load(), "no request may be sent")
		})
	}
}

func TestLookupUnparsableConfigHint(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("ip2location: [oops"), 0o600))

	_, err := run(t, "--config", path, "ip2location", "-a", "1.1.1.1")
	require.ErrorIs(t, err, config.ErrParse)
	assert.Contains(t, err.Error(), "geolocate config --edit")
}

func TestLookupReport(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, map[string]string{"ipgeolocation": "k2"})
	s := newStub(t)
	dir := filepath.Join(t.TempDir(), "reports")

	out, err := run(t, "--config", path, "--endpoint", s.URL, "ipgeolocation", "-a", "1.1.1.1,8.8.8.8", "--report", dir)
	require.NoError(t, err)
	require.Len(t, decodeEchoes(t, out), 2)

	matches, err := filepath.Glob(filepath.Join(dir, "ipgeolocation-*.json"))
	require.NoError(t, err)
	require.Len(t, matches, 1)

	data, err := os.ReadFile(matches[0])
	require.NoError(t, err)
	var saved struct {
		Provider  string   `json:"provider"`
		Addresses []string `json:"addresses"`
		Results   []echo   `json:"results"`
	}
	require.NoError(t, json.Unmarshal(data, &saved))
	assert.Equal(t, "ipgeolocation", saved.Provider)
	assert.Equal(t, []string{"1.1.1.1", "8.8.8.8"}, saved.Addresses)
	require.Len(t, saved.Results, 2)
	assert.Equal(t, "8.8.8.8", saved.Results[1].IP)
}

func TestLookupEnvKeyOverride(t *testing.T) {
	t.Setenv("GEOLOCATE_IP2LOCATION_KEY", "from-env")

	path := writeConfig(t, map[string]string{"ip2location": "from-file"})
	s := newStub(t)

	out, err := run(t, "--config", path, "--endpoint", s.URL, "ip2location", "-a", "1.1.1.1")
	require.NoError(t, err)
	got := decodeEchoes(t, out)
	require.Len(t, got, 1)
	assert.Equal(t, "from-env", got[0].Key)
}

func TestConfig(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		args   []string
		target error
	}{
		"show and edit": {
			args:   []string{"config", "--show", "--edit"},
			target: ErrShowEditExclusive,
		},
		"neither show nor edit": {
			args:   []string{"config"},
			target: ErrShowEditMissing,
		},
		"bad assignment": {
			args:   []string{"config", "--set", "ip2location"},
			target: ErrBadAssignment,
		},
		"unknown provider": {
			args: []string{"config", "--set", "ipinfo=abc"},
		},
	}

	for name, tc := range tests {
		tc := tc
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			path := filepath.Join(t.TempDir(), "config.yaml")
			_, err := run(t, append([]string{"--config", path}, tc.args...)...)
			require.Error(t, err)
			if tc.target != nil {
				assert.ErrorIs(t, err, tc.target)
			}
		})
	}
}

func TestConfigShowMessages(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.yaml")

	_, err := run(t, "--config", path, "config", "-s", "-e")
	assert.EqualError(t, err, "arguments --edit and --show are mutually exclusive")

	_, err = run(t, "--config", path, "config")
	assert.EqualError(t, err, "either --edit or --show has to be provided")
}

func TestConfigSetAndShow(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "geolocate", "config.yaml")

	out, err := run(t, "--config", path, "config", "--set", "ip2location=abc", "--set", "IpGeolocation=def")
	require.NoError(t, err)
	assert.Contains(t, out, "Configuration saved to "+path)

	store, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"ip2location": "abc", "ipgeolocation": "def"}, store.Keys)

	out, err = run(t, "--config", path, "config", "--show")
	require.NoError(t, err)
	assert.Contains(t, out, "Configuration file: "+path)
	assert.Contains(t, out, "ip2location")
	assert.Contains(t, out, "abc")
	assert.Contains(t, out, "ipgeolocation")
	assert.Contains(t, out, "def")
}

func TestConfigShowEmpty(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.yaml")

	out, err := run(t, "--config", path, "config", "-s")
	require.NoError(t, err)
	assert.Contains(t, out, "No API keys configured.")
	assert.FileExists(t, path)
}

func TestConfigPrintPath(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.yaml")

	out, err := run(t, "--config", path, "config", "--print-path")
	require.NoError(t, err)
	assert.Equal(t, path+"\n", out)
}

func TestConfigEdit(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("editor stub is a shell script")
	}

	dir := t.TempDir()
	script := filepath.Join(dir, "fake-editor")
	require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\nprintf 'ip2location: edited\\n' > \"$1\"\n"), 0o700))
	t.Setenv("EDITOR", script)

	path := filepath.Join(dir, "config.yaml")
	_, err := run(t, "--config", path, "config", "--edit")
	require.NoError(t, err)

	store, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"ip2location": "edited"}, store.Keys)
}

func TestConfigEditRejectsBrokenResult(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("editor stub is a shell script")
	}

	dir := t.TempDir()
	script := filepath.Join(dir, "fake-editor")
	require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\nprintf 'ip2location: [\\n' > \"$1\"\n"), 0o700))
	t.Setenv("EDITOR", script)

	_, err := run(t, "--config", filepath.Join(dir, "config.yaml"), "config", "-e")
	require.ErrorIs(t, err, config.ErrParse)
}

func TestCompletions(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"bash":       "geolocate.bash",
		"zsh":        "_geolocate",
		"fish":       "geolocate.fish",
		"powershell": "_geolocate.ps1",
	}

	for shellName, filename := range tests {
		shellName, filename := shellName, filename
		t.Run(shellName, func(t *testing.T) {
			t.Parallel()

			dir := filepath.Join(t.TempDir(), "completions")
			out, err := run(t, "completions", shellName, dir)
			require.NoError(t, err)

			path := filepath.Join(dir, filename)
			assert.Equal(t, "Generated shell completions to: "+path+"\n", out)
			data, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.Contains(t, string(data), "geolocate")
		})
	}
}

func TestCompletionsRejectsExtraArgs(t *testing.T) {
	t.Parallel()

	_, err := run(t, "completions", "bash", t.TempDir(), "extra")
	assert.Error(t, err)
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ips.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}
