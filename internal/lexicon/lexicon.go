// Package lexicon holds the closed lookup tables used by attribute
// enhancement and matching: pronoun attributes, honorific titles, stop
// words, spatial modifiers, excluded head words and class animacy.
//
// A Lexicon is immutable once built and safe to share between goroutines
// and documents. The default tables are embedded; LoadFile overlays a YAML
// file on top of them.
package lexicon

import (
	_ "embed"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/scrypster/coref/pkg/types"
)

//go:embed lexicon.yaml
var defaultYAML []byte

// PronounAttributes are the fixed attributes of one pronoun form.
type PronounAttributes struct {
	Person       types.Person       `yaml:"person"`
	Gender       types.Gender       `yaml:"gender"`
	Multiplicity types.Multiplicity `yaml:"multiplicity"`
	Animacy      types.Animacy      `yaml:"animacy"`
}

// file is the on-disk YAML layout.
type file struct {
	PronounTags      []string                              `yaml:"pronoun_tags"`
	Pronouns         map[string]PronounAttributes          `yaml:"pronouns"`
	Honorifics       map[string][]string                   `yaml:"honorifics"`
	ClassAnimacy     map[types.SemanticClass]types.Animacy `yaml:"class_animacy"`
	HeadExclusions   []string                              `yaml:"head_exclusions"`
	SpatialModifiers []string                              `yaml:"spatial_modifiers"`
	StopWords        []string                              `yaml:"stop_words"`
}

// Lexicon is a set of immutable lookup tables.
type Lexicon struct {
	pronounTags      map[string]bool
	pronouns         map[string]PronounAttributes
	honorifics       map[string]types.Gender
	classAnimacy     map[types.SemanticClass]types.Animacy
	headExclusions   map[string]bool
	spatialModifiers map[string]bool
	stopWords        map[string]bool
}

var (
	defaultOnce sync.Once
	defaultLex  *Lexicon
	defaultErr  error
)

// Default returns the embedded lexicon. It panics if the embedded YAML is
// broken, which can only happen through a bad build.
func Default() *Lexicon {
	defaultOnce.Do(func() {
		var f file
		if err := yaml.Unmarshal(defaultYAML, &f); err != nil {
			defaultErr = err
			return
		}
		defaultLex, defaultErr = build(f)
	})
	if defaultErr != nil {
		panic(fmt.Sprintf("lexicon: embedded tables are invalid: %v", defaultErr))
	}
	return defaultLex
}

// Load reads YAML tables from r and overlays every non-empty section on the
// embedded defaults.
func Load(r io.Reader) (*Lexicon, error) {
	var over file
	if err := yaml.NewDecoder(r).Decode(&over); err != nil && err != io.EOF {
		return nil, fmt.Errorf("lexicon: failed to decode tables: %w", err)
	}

	var base file
	if err := yaml.Unmarshal(defaultYAML, &base); err != nil {
		return nil, fmt.Errorf("lexicon: failed to decode embedded tables: %w", err)
	}
	if len(over.PronounTags) > 0 {
		base.PronounTags = over.PronounTags
	}
	for k, v := range over.Pronouns {
		base.Pronouns[k] = v
	}
	if len(over.Honorifics) > 0 {
		base.Honorifics = over.Honorifics
	}
	for k, v := range over.ClassAnimacy {
		base.ClassAnimacy[k] = v
	}
	if len(over.HeadExclusions) > 0 {
		base.HeadExclusions = over.HeadExclusions
	}
	if len(over.SpatialModifiers) > 0 {
		base.SpatialModifiers = over.SpatialModifiers
	}
	if len(over.StopWords) > 0 {
		base.StopWords = over.StopWords
	}
	return build(base)
}

// LoadFile is Load on the named file.
func LoadFile(path string) (*Lexicon, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("lexicon: %w", err)
	}
	defer f.Close()
	return Load(f)
}

func build(f file) (*Lexicon, error) {
	lx := &Lexicon{
		pronounTags:      toSet(f.PronounTags, false),
		pronouns:         make(map[string]PronounAttributes, len(f.Pronouns)),
		honorifics:       make(map[string]types.Gender),
		classAnimacy:     make(map[types.SemanticClass]types.Animacy, len(f.ClassAnimacy)),
		headExclusions:   toSet(f.HeadExclusions, true),
		spatialModifiers: toSet(f.SpatialModifiers, true),
		stopWords:        toSet(f.StopWords, true),
	}
	for word, attrs := range f.Pronouns {
		if !types.IsValidPerson(attrs.Person) || !types.IsValidGender(attrs.Gender) ||
			!types.IsValidMultiplicity(attrs.Multiplicity) || !types.IsValidAnimacy(attrs.Animacy) {
			return nil, fmt.Errorf("lexicon: pronoun %q has invalid attributes %+v", word, attrs)
		}
		lx.pronouns[strings.ToLower(word)] = attrs
	}
	for gender, titles := range f.Honorifics {
		g := types.ParseGender(gender)
		if g == types.GenderUnknown {
			return nil, fmt.Errorf("lexicon: unknown honorific gender %q", gender)
		}
		for _, t := range titles {
			lx.honorifics[strings.ToLower(t)] = g
		}
	}
	for class, animacy := range f.ClassAnimacy {
		if !types.IsValidSemanticClass(class) || !types.IsValidAnimacy(animacy) {
			return nil, fmt.Errorf("lexicon: invalid class animacy %s=%s", class, animacy)
		}
		lx.classAnimacy[class] = animacy
	}
	return lx, nil
}

func toSet(words []string, lower bool) map[string]bool {
	set := make(map[string]bool, len(words))
	for _, w := range words {
		if lower {
			w = strings.ToLower(w)
		}
		set[w] = true
	}
	return set
}

// IsPronounTag reports whether a part-of-speech tag marks a personal,
// possessive or relative pronoun.
func (lx *Lexicon) IsPronounTag(pos string) bool { return lx.pronounTags[pos] }

// Pronoun returns the attributes of a pronoun form, matched case-insensitively.
func (lx *Lexicon) Pronoun(word string) (PronounAttributes, bool) {
	a, ok := lx.pronouns[strings.ToLower(word)]
	return a, ok
}

// Honorific returns the gender implied by a title such as "Mr" or "Mrs.".
func (lx *Lexicon) Honorific(word string) types.Gender {
	w := strings.TrimSuffix(strings.ToLower(word), ".")
	if g, ok := lx.honorifics[w]; ok {
		return g
	}
	return types.GenderUnknown
}

// ClassAnimacy returns the animacy of an entity class. A class without its
// own entry inherits from its nearest ancestor that has one.
func (lx *Lexicon) ClassAnimacy(class types.SemanticClass) types.Animacy {
	for cur := class; ; {
		if a, ok := lx.classAnimacy[cur]; ok {
			return a
		}
		p, ok := cur.Parent()
		if !ok {
			return types.AnimacyUnknown
		}
		cur = p
	}
}

// IsHeadExcluded reports whether a head word is too generic to match on.
func (lx *Lexicon) IsHeadExcluded(word string) bool { return lx.headExclusions[strings.ToLower(word)] }

// IsSpatialModifier reports whether a word is a spatial modifier ("north", "upper").
func (lx *Lexicon) IsSpatialModifier(word string) bool {
	return lx.spatialModifiers[strings.ToLower(word)]
}

// IsStopWord reports whether a word carries no content for word-inclusion tests.
func (lx *Lexicon) IsStopWord(word string) bool { return lx.stopWords[strings.ToLower(word)] }
