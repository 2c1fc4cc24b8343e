package gazetteer

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/scrypster/coref/internal/storage"
)

// Static is an in-memory storage.LexiconStore. It backs the "memory"
// gazetteer backend and tests.
type Static struct {
	mu      sync.RWMutex
	entries map[string][]storage.Entry
	count   int
}

var _ storage.LexiconStore = (*Static)(nil)

// NewStatic returns a store holding entries. Invalid entries are an error.
func NewStatic(entries ...storage.Entry) (*Static, error) {
	s := &Static{entries: make(map[string][]storage.Entry)}
	if _, err := s.Import(context.Background(), entries); err != nil {
		return nil, err
	}
	return s, nil
}

// Lookup returns the best entry for text.
func (s *Static) Lookup(_ context.Context, text string) (*storage.Entry, error) {
	s.mu.RLock()
	var found []storage.Entry
	for _, c := range storage.Candidates(text) {
		found = append(found, s.entries[c]...)
	}
	s.mu.RUnlock()

	best, ok := storage.Best(text, found)
	if !ok {
		return nil, storage.ErrNotFound
	}
	return best, nil
}

// Import upserts entries.
func (s *Static) Import(_ context.Context, entries []storage.Entry) (int, error) {
	prepared, err := storage.PrepareEntries(entries)
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range prepared {
		list := s.entries[e.Term]
		replaced := false
		for i := range list {
			if list[i].Match == e.Match {
				list[i] = e
				replaced = true
				break
			}
		}
		if !replaced {
			s.entries[e.Term] = append(list, e)
			s.count++
		}
	}
	return len(prepared), nil
}

// Count returns the number of stored entries.
func (s *Static) Count(context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.count, nil
}

// Close is a no-op.
func (s *Static) Close() error { return nil }

// entryFile is the import file layout. A bare list of entries is accepted too.
type entryFile struct {
	Entries []storage.Entry `yaml:"entries"`
}

// ReadEntries decodes gazetteer entries from YAML or JSON, either as a list
// or as a mapping with an "entries" key.
func ReadEntries(r io.Reader) ([]storage.Entry, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("gazetteer: failed to read entries: %w", err)
	}

	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, fmt.Errorf("gazetteer: failed to parse entries: %w", err)
	}
	if len(node.Content) == 0 {
		return nil, nil
	}

	root := node.Content[0]
	if root.Kind == yaml.SequenceNode {
		var list []storage.Entry
		if err := root.Decode(&list); err != nil {
			return nil, fmt.Errorf("gazetteer: failed to decode entries: %w", err)
		}
		return list, nil
	}
	var f entryFile
	if err := root.Decode(&f); err != nil {
		return nil, fmt.Errorf("gazetteer: failed to decode entries: %w", err)
	}
	return f.Entries, nil
}

// ReadEntriesFile is ReadEntries on the named file.
func ReadEntriesFile(path string) ([]storage.Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("gazetteer: %w", err)
	}
	defer f.Close()
	return ReadEntries(f)
}
