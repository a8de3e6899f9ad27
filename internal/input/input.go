// Package input decides which input mode a lookup command is running in
// and turns it into the list of addresses to look up.
package input

import (
	"errors"
	"fmt"
	"net/netip"
	"os"
	"strings"
)

var (
	ErrMutuallyExclusive = errors.New("file and addresses arguments are mutually exclusive")
	ErrNoInput           = errors.New("either file or addresses must be provided, but not both")
	ErrNoAddressProvided = errors.New("must provide at least one IP address")
	ErrFileRead          = errors.New("cannot read address file")
)

// Mode is the single input source selected for a command.
type Mode int

const (
	ModeAddresses Mode = iota + 1
	ModeFile
)

func (m Mode) String() string {
	switch m {
	case ModeAddresses:
		return "addresses"
	case ModeFile:
		return "file"
	default:
		return "unknown"
	}
}

// Options is the raw input of a lookup command. AddressesSet records that
// the addresses flag was given at all, so an empty list is still present.
type Options struct {
	Addresses    []netip.Addr
	AddressesSet bool
	File         string
}

func (s Options) hasAddresses() bool {
	return s.AddressesSet || len(s.Addresses) > 0
}

// InvalidAddressError reports text that is not an IP address. Line is
// 1-indexed for file input and 0 for command line values.
type InvalidAddressError struct {
	Line int
	Text string
	Err  error
}

func (e *InvalidAddressError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("invalid address at line %d: %q", e.Line, e.Text)
	}
	return fmt.Sprintf("invalid address %q", e.Text)
}

func (e *InvalidAddressError) Unwrap() error { return e.Err }

// Validate returns the mode selected by opts. Exactly one of the
// addresses or the file must be present.
func Validate(opts Options) (Mode, error) {
	hasFile := opts.File != ""

	switch {
	case opts.hasAddresses() && !hasFile:
		return ModeAddresses, nil
	case hasFile && !opts.hasAddresses():
		return ModeFile, nil
	case hasFile:
		return 0, ErrMutuallyExclusive
	default:
		return 0, ErrNoInput
	}
}

// Resolve produces the addresses to look up for an already validated mode.
func Resolve(mode Mode, opts Options) ([]netip.Addr, error) {
	switch mode {
	case ModeAddresses:
		if len(opts.Addresses) == 0 {
			return nil, ErrNoAddressProvided
		}
		addrs := make([]netip.Addr, len(opts.Addresses))
		for i, addr := range opts.Addresses {
			addrs[i] = addr.WithZone("")
		}
		return addrs, nil
	case ModeFile:
		return ReadAddressFile(opts.File)
	default:
		return nil, fmt.Errorf("unsupported input mode %d", int(mode))
	}
}

// ReadAddressFile reads one address per line from path.
func ReadAddressFile(path string) ([]netip.Addr, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFileRead, err)
	}
	return ParseLines(string(data))
}

// ParseLines parses newline separated addresses. Blank lines are skipped
// but still counted. Every line is checked, and the error names the first
// invalid line; nothing is returned unless all lines are valid.
func ParseLines(content string) ([]netip.Addr, error) {
	var (
		addrs    []netip.Addr
		firstErr error
	)

	for i, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		addr, err := netip.ParseAddr(line)
		if err != nil {
			if firstErr == nil {
				firstErr = &InvalidAddressError{Line: i + 1, Text: line, Err: err}
			}
			continue
		}
		addrs = append(addrs, addr.WithZone(""))
	}

	if firstErr != nil {
		return nil, firstErr
	}
	if len(addrs) == 0 {
		return nil, ErrNoAddressProvided
	}
	return addrs, nil
}

// ParseAddresses parses command line values. A single value may carry
// several addresses separated by spaces.
func ParseAddresses(values []string) ([]netip.Addr, error) {
	var addrs []netip.Addr
	for _, value := range values {
		for _, field := range strings.Fields(value) {
			addr, err := netip.ParseAddr(field)
			if err != nil {
				return nil, &InvalidAddressError{Text: field, Err: err}
			}
			addrs = append(addrs, addr)
		}
	}
	return addrs, nil
}
