// Package roster maintains the address-to-friendly-name table backed by a
// flat text file. The file uses one `ADDRESS = NAME` entry per line, with
// `#` comments and blank lines ignored. The table is reloaded when the
// file's modification time changes, so edits made by another process are
// picked up without a restart.
package roster

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// DefaultFile is the roster file used when no path is given.
const DefaultFile = "device_mappings.txt"

var fileHeader = []string{
	"# Device mappings: ADDRESS = Friendly Name",
	"# Lines starting with # are comments.",
	"",
}

// ErrInvalidAddress indicates a MAC address that is not six colon-delimited
// hex octets.
var ErrInvalidAddress = errors.New("invalid device address")

// Entry is a single roster row.
type Entry struct {
	Address string
	Name    string
}

// Store owns the in-memory identifier table and its backing file.
// All methods are safe for concurrent use.
type Store struct {
	mu      sync.RWMutex
	entries *orderedmap.OrderedMap[string, string]
	path    string
	modTime time.Time
	logger  *logrus.Logger
}

// NewEmpty creates a store with no entries over path. The file is picked
// up by MaybeReload once it becomes readable.
func NewEmpty(path string, logger *logrus.Logger) *Store {
	if logger == nil {
		logger = logrus.New()
	}
	return &Store{
		entries: orderedmap.New[string, string](),
		path:    path,
		logger:  logger,
	}
}

// Load parses the roster file at path. A missing file yields an empty
// store; malformed lines are skipped with a warning.
func Load(path string, logger *logrus.Logger) (*Store, error) {
	s := NewEmpty(path, logger)

	entries, modTime, err := s.parseFile()
	if err != nil {
		if os.IsNotExist(err) {
			s.logger.WithField("path", path).Info("Mapping file does not exist yet, starting with empty roster")
			return s, nil
		}
		return nil, fmt.Errorf("failed to load mapping file %q: %w", path, err)
	}

	s.entries = entries
	s.modTime = modTime
	return s, nil
}

// parseFile reads and parses the backing file, returning the table and the
// file's modification time.
func (s *Store) parseFile() (*orderedmap.OrderedMap[string, string], time.Time, error) {
	fi, err := os.Stat(s.path)
	if err != nil {
		return nil, time.Time{}, err
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, time.Time{}, err
	}

	entries := orderedmap.New[string, string]()
	for i, raw := range strings.Split(string(data), "\n") {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		identifier, name, ok := strings.Cut(line, "=")
		if !ok {
			s.logger.WithFields(logrus.Fields{
				"path": s.path,
				"line": i + 1,
			}).Warnf("Ignoring malformed mapping line: %s", line)
			continue
		}

		key := strings.ToUpper(strings.TrimSpace(identifier))
		if key == "" {
			s.logger.WithFields(logrus.Fields{
				"path": s.path,
				"line": i + 1,
			}).Warnf("Ignoring mapping line with empty identifier: %s", line)
			continue
		}

		// Last write wins for duplicate identifiers.
		entries.Set(key, strings.TrimSpace(name))
	}

	return entries, fi.ModTime(), nil
}

// MaybeReload re-parses the backing file if its modification time is newer
// than the last observed one. The in-memory table is replaced wholesale, so
// concurrent readers see either the old or the new table, never a mix.
// Reports whether a reload happened.
func (s *Store) MaybeReload() (bool, error) {
	s.mu.RLock()
	path, lastMod := s.path, s.modTime
	s.mu.RUnlock()

	fi, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to stat mapping file %q: %w", path, err)
	}
	if !fi.ModTime().After(lastMod) {
		return false, nil
	}

	entries, modTime, err := s.parseFile()
	if err != nil {
		return false, fmt.Errorf("failed to reload mapping file %q: %w", path, err)
	}

	s.mu.Lock()
	s.entries = entries
	s.modTime = modTime
	s.mu.Unlock()

	s.logger.WithFields(logrus.Fields{
		"path":    path,
		"entries": entries.Len(),
	}).Info("Device mappings reloaded")
	return true, nil
}

// Lookup returns the friendly name for an identifier. Matching is
// case-insensitive; identifiers are stored uppercase.
func (s *Store) Lookup(identifier string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.entries.Get(strings.ToUpper(strings.TrimSpace(identifier)))
}

// Upsert adds or replaces the mapping for address and persists it. The file
// is rewritten in place preserving comments, blank lines, and unrelated
// entries, using a temp-file-then-rename so a concurrent reader never
// observes a half-written file. The in-memory table is updated only after
// the file write succeeds.
func (s *Store) Upsert(address, name string) error {
	addr, err := NormalizeAddress(address)
	if err != nil {
		return err
	}
	name = strings.TrimSpace(name)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.rewriteFile(addr, name); err != nil {
		return err
	}

	s.entries.Set(addr, name)
	if fi, err := os.Stat(s.path); err == nil {
		s.modTime = fi.ModTime()
	}
	return nil
}

// rewriteFile produces the new file content for an upsert and atomically
// replaces the backing file. Caller holds s.mu.
func (s *Store) rewriteFile(addr, name string) error {
	var lines []string

	data, err := os.ReadFile(s.path)
	switch {
	case err == nil:
		lines = upsertLines(strings.Split(string(data), "\n"), addr, name)
	case os.IsNotExist(err):
		lines = append(append([]string{}, fileHeader...), addr+" = "+name, "")
	default:
		return fmt.Errorf("failed to read mapping file %q: %w", s.path, err)
	}

	return atomicWriteFile(s.path, []byte(strings.Join(lines, "\n")))
}

// upsertLines replaces the line holding addr, or appends a new entry,
// keeping everything else byte-for-byte.
func upsertLines(lines []string, addr, name string) []string {
	out := make([]string, 0, len(lines)+2)
	updated := false

	for _, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			out = append(out, raw)
			continue
		}
		identifier, _, ok := strings.Cut(line, "=")
		if !ok || strings.ToUpper(strings.TrimSpace(identifier)) != addr {
			out = append(out, raw)
			continue
		}
		out = append(out, addr+" = "+name)
		updated = true
	}

	if !updated {
		// Trim trailing blank lines so the new entry lands right after the
		// last one, then restore a final newline.
		for len(out) > 0 && strings.TrimSpace(out[len(out)-1]) == "" {
			out = out[:len(out)-1]
		}
		out = append(out, addr+" = "+name, "")
	}
	return out
}

// atomicWriteFile writes data to a temp file in the target directory and
// renames it over path.
func atomicWriteFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file in %q: %w", dir, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write %q: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close %q: %w", tmpName, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to chmod %q: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace %q: %w", path, err)
	}
	return nil
}

// Entries returns a snapshot of the roster in file order.
func (s *Store) Entries() []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := make([]Entry, 0, s.entries.Len())
	for pair := s.entries.Oldest(); pair != nil; pair = pair.Next() {
		entries = append(entries, Entry{Address: pair.Key, Name: pair.Value})
	}
	return entries
}

// Len returns the number of entries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.entries.Len()
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

// NormalizeAddress validates a MAC address and returns its canonical form:
// six colon-delimited hex octets, uppercase.
func NormalizeAddress(address string) (string, error) {
	parts := strings.Split(strings.TrimSpace(address), ":")
	if len(parts) != 6 {
		return "", fmt.Errorf("%w: %q (want six colon-delimited hex octets)", ErrInvalidAddress, address)
	}
	for _, octet := range parts {
		if len(octet) != 2 || !isHex(octet[0]) || !isHex(octet[1]) {
			return "", fmt.Errorf("%w: %q (want six colon-delimited hex octets)", ErrInvalidAddress, address)
		}
	}
	return strings.ToUpper(strings.TrimSpace(address)), nil
}

func isHex(c byte) bool {
	switch {
	case c >= '0' && c <= '9', c >= 'a' && c <= 'f', c >= 'A' && c <= 'F':
		return true
	}
	return false
}
