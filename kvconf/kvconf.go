// Package kvconf reads and writes the robot's flat key=value settings file.
// Comments and blank lines survive a load/save round trip.
package kvconf

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	log "github.com/sirupsen/logrus"
	"xwkbot/boterrors"
)

type line struct {
	key   string
	value string
	raw   string
	pair  bool
}

type Store struct {
	mu    sync.RWMutex
	path  string
	lines []line
}

func New(path string) *Store {
	return &Store{path: path}
}

// Load reads path. A missing file yields an empty store that Save will create.
func Load(path string) (*Store, error) {
	s := New(path)
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		log.WithField("path", path).Print("No config file found, starting empty")
		return s, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()
	if err := s.Parse(f); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) Parse(r io.Reader) error {
	var lines []line
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		text := strings.TrimSpace(scanner.Text())
		switch {
		case text == "" || strings.HasPrefix(text, "#"):
			lines = append(lines, line{raw: text})
		case strings.Contains(text, "="):
			key, value, _ := strings.Cut(text, "=")
			lines = append(lines, line{
				key:   strings.TrimSpace(key),
				value: strings.TrimSpace(value),
				pair:  true,
			})
		default:
			log.WithField("line", text).Warn("Ignoring malformed config line")
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	s.lines = lines
	s.mu.Unlock()
	return nil
}

func (s *Store) Path() string {
	return s.path
}

func (s *Store) Get(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, l := range s.lines {
		if l.pair && l.key == key {
			return l.value, true
		}
	}
	return "", false
}

func (s *Store) GetString(key string, def string) string {
	if value, ok := s.Get(key); ok {
		return value
	}
	return def
}

// GetInt returns def when the key is missing or not an integer.
func (s *Store) GetInt(key string, def int) int {
	value, ok := s.Get(key)
	if !ok {
		return def
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return n
}

// Value returns the stored value as an int when it parses as one, else as a string.
func (s *Store) Value(key string, def any) any {
	value, ok := s.Get(key)
	if !ok {
		return def
	}
	if n, err := strconv.Atoi(value); err == nil {
		return n
	}
	return value
}

func (s *Store) Set(key string, value any) {
	text := fmt.Sprint(value)
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.lines {
		if s.lines[i].pair && s.lines[i].key == key {
			s.lines[i].value = text
			return
		}
	}
	s.lines = append(s.lines, line{key: key, value: text, pair: true})
}

func (s *Store) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var keys []string
	for _, l := range s.lines {
		if l.pair {
			keys = append(keys, l.key)
		}
	}
	return keys
}

func (s *Store) Bytes() []byte {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var buf bytes.Buffer
	for i, l := range s.lines {
		if i > 0 {
			buf.WriteByte('\n')
		}
		if l.pair {
			buf.WriteString(l.key + "=" + l.value)
		} else {
			buf.WriteString(l.raw)
		}
	}
	return buf.Bytes()
}

// Save replaces the file atomically.
func (s *Store) Save() error {
	data := s.Bytes()
	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*")
	if err != nil {
		return boterrors.PersistenceError{Path: s.path, Err: err}
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return boterrors.PersistenceError{Path: s.path, Err: err}
	}
	if err := tmp.Close(); err != nil {
		return boterrors.PersistenceError{Path: s.path, Err: err}
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return boterrors.PersistenceError{Path: s.path, Err: err}
	}
	return nil
}
