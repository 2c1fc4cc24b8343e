package storage

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/scrypster/coref/pkg/types"
)

var (
	// ErrNotFound indicates that no lexicon entry matches.
	ErrNotFound = errors.New("lexicon entry not found")

	// ErrInvalidInput indicates that the input parameters are invalid.
	ErrInvalidInput = errors.New("invalid input")
)

// MatchKind says how an entry's term is compared with looked-up text.
type MatchKind string

const (
	// MatchExact matches the whole text.
	MatchExact MatchKind = "exact"
	// MatchSuffix matches the trailing words of the text ("corporation").
	MatchSuffix MatchKind = "suffix"
	// MatchPrefix matches the leading words of the text ("king").
	MatchPrefix MatchKind = "prefix"
)

// Entry is one gazetteer record.
type Entry struct {
	Term         string             `json:"term" yaml:"term"`
	Match        MatchKind          `json:"match,omitempty" yaml:"match,omitempty"`
	Gender       types.Gender       `json:"gender,omitempty" yaml:"gender,omitempty"`
	Multiplicity types.Multiplicity `json:"multiplicity,omitempty" yaml:"multiplicity,omitempty"`
}

// Normalize fills defaults and canonicalises Term: an empty Match is exact,
// empty attributes are unknown.
func (e *Entry) Normalize() {
	e.Term = NormalizeTerm(e.Term)
	if e.Match == "" {
		e.Match = MatchExact
	}
	if e.Gender == "" {
		e.Gender = types.GenderUnknown
	}
	if e.Multiplicity == "" {
		e.Multiplicity = types.MultiplicityUnknown
	}
}

// Validate checks a normalized entry.
func (e *Entry) Validate() error {
	if e.Term == "" {
		return fmt.Errorf("%w: term is required", ErrInvalidInput)
	}
	switch e.Match {
	case MatchExact, MatchSuffix, MatchPrefix:
	default:
		return fmt.Errorf("%w: term %q has unknown match kind %q", ErrInvalidInput, e.Term, e.Match)
	}
	if !types.IsValidGender(e.Gender) {
		return fmt.Errorf("%w: term %q has invalid gender %q", ErrInvalidInput, e.Term, e.Gender)
	}
	if !types.IsValidMultiplicity(e.Multiplicity) {
		return fmt.Errorf("%w: term %q has invalid multiplicity %q", ErrInvalidInput, e.Term, e.Multiplicity)
	}
	if e.Gender == types.GenderUnknown && e.Multiplicity == types.MultiplicityUnknown {
		return fmt.Errorf("%w: term %q carries no attributes", ErrInvalidInput, e.Term)
	}
	return nil
}

// PrepareEntries normalizes and validates entries in place, collapsing
// duplicates of the same (term, match) so the last one wins.
func PrepareEntries(entries []Entry) ([]Entry, error) {
	index := make(map[[2]string]int, len(entries))
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		e.Normalize()
		if err := e.Validate(); err != nil {
			return nil, err
		}
		key := [2]string{e.Term, string(e.Match)}
		if i, ok := index[key]; ok {
			out[i] = e
			continue
		}
		index[key] = len(out)
		out = append(out, e)
	}
	return out, nil
}

// NormalizeTerm folds case, composes Unicode and collapses whitespace.
func NormalizeTerm(s string) string {
	s = cases.Fold().String(norm.NFC.String(s))
	return strings.Join(strings.Fields(s), " ")
}

// Candidates returns every term that could match text: the whole text and
// each of its proper word prefixes and suffixes. Backends fetch entries for
// these terms and hand them to Best.
func Candidates(text string) []string {
	full := NormalizeTerm(text)
	if full == "" {
		return nil
	}
	words := strings.Fields(full)
	seen := map[string]bool{full: true}
	out := []string{full}
	for k := 1; k < len(words); k++ {
		for _, c := range []string{strings.Join(words[k:], " "), strings.Join(words[:k], " ")} {
			if !seen[c] {
				seen[c] = true
				out = append(out, c)
			}
		}
	}
	return out
}

// Best picks the entry that answers text from a set of candidates: the
// exact entry, else the longest suffix entry, else the longest prefix entry.
func Best(text string, entries []Entry) (*Entry, bool) {
	full := NormalizeTerm(text)
	if full == "" {
		return nil, false
	}
	var exact, suffix, prefix *Entry
	for i := range entries {
		e := &entries[i]
		switch e.Match {
		case MatchExact:
			if e.Term == full {
				exact = e
			}
		case MatchSuffix:
			if (e.Term == full || strings.HasSuffix(full, " "+e.Term)) && longer(e, suffix) {
				suffix = e
			}
		case MatchPrefix:
			if (e.Term == full || strings.HasPrefix(full, e.Term+" ")) && longer(e, prefix) {
				prefix = e
			}
		}
	}
	for _, e := range []*Entry{exact, suffix, prefix} {
		if e != nil {
			found := *e
			return &found, true
		}
	}
	return nil, false
}

func longer(e, than *Entry) bool {
	return than == nil || len(e.Term) > len(than.Term)
}
