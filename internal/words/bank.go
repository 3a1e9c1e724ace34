package words

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
)

// Set is an immutable collection of normalized words. It preserves the file
// order of the source list (the bot walks it in that order) alongside a
// membership index. Safe for concurrent reads; never mutated after Load.
type Set struct {
	list  []string
	index map[string]struct{}
}

func newSet(list []string) *Set {
	s := &Set{list: list, index: make(map[string]struct{}, len(list))}
	for _, w := range list {
		s.index[w] = struct{}{}
	}
	return s
}

// Has reports whether the normalized word is in the set.
func (s *Set) Has(word string) bool {
	if s == nil {
		return false
	}
	_, ok := s.index[word]
	return ok
}

// Len returns the number of words in the set.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.list)
}

// Words returns the words in their source-file order. Callers must not
// modify the returned slice.
func (s *Set) Words() []string {
	if s == nil {
		return nil
	}
	return s.list
}

// Bank loads per-theme word lists from a directory and caches them by theme.
// The cached Set for a theme is shared read-only across every room running
// that theme.
type Bank struct {
	dir   string
	mu    sync.RWMutex
	cache map[string]*Set
}

func NewBank(dir string) *Bank {
	return &Bank{dir: dir, cache: make(map[string]*Set)}
}

// Load returns the validation set for a theme, reading and caching
// <dir>/<slug>.txt on first reference. A missing or unreadable file is not
// fatal: it logs a warning and caches an empty set, which disables
// bank-based rejection for that theme.
func (b *Bank) Load(theme string) *Set {
	key := slug(theme)

	b.mu.RLock()
	set, ok := b.cache[key]
	b.mu.RUnlock()
	if ok {
		return set
	}

	set = b.readFile(key)

	b.mu.Lock()
	// Another goroutine may have loaded it in the meantime; keep the first.
	if existing, ok := b.cache[key]; ok {
		set = existing
	} else {
		b.cache[key] = set
	}
	b.mu.Unlock()

	return set
}

func (b *Bank) readFile(key string) *Set {
	path := filepath.Join(b.dir, key+".txt")
	file, err := os.Open(path)
	if err != nil {
		log.Warn().Str("theme", key).Str("path", path).Err(err).
			Msg("Word bank file missing, theme runs without word validation")
		return newSet(nil)
	}
	defer file.Close()

	var list []string
	seen := make(map[string]struct{})
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		word := Normalize(scanner.Text())
		if word == "" {
			continue
		}
		if _, dup := seen[word]; dup {
			continue
		}
		seen[word] = struct{}{}
		list = append(list, word)
	}
	if err := scanner.Err(); err != nil {
		log.Warn().Str("path", path).Err(err).Msg("Word bank file read error")
	}

	log.Info().Str("theme", key).Int("words", len(list)).Msg("Word bank loaded")
	return newSet(list)
}

// slug maps a theme name to its file name: normalized, spaces collapsed to
// dashes.
func slug(theme string) string {
	return strings.ReplaceAll(Normalize(theme), " ", "-")
}
