package types

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// RootLabel is the dependency label of the edge attaching a sentence root.
const RootLabel = "ROOT"

// Document is a single text together with the annotations produced by the
// upstream tokenizer, tagger, parser and entity recogniser. The resolver
// reads every field and writes only the Reference fields.
type Document struct {
	ID           string       `json:"id" yaml:"id"`
	Text         string       `json:"text" yaml:"text"`
	Sentences    []Sentence   `json:"sentences" yaml:"sentences" validate:"dive"`
	Tokens       []Token      `json:"tokens" yaml:"tokens" validate:"dive"`
	Dependencies []Dependency `json:"dependencies,omitempty" yaml:"dependencies,omitempty" validate:"dive"`
	Chunks       []Chunk      `json:"chunks,omitempty" yaml:"chunks,omitempty" validate:"dive"`
	Entities     []Entity     `json:"entities,omitempty" yaml:"entities,omitempty" validate:"dive"`
}

// Sentence is a sentence boundary as character offsets into Document.Text.
type Sentence struct {
	Begin int `json:"begin" yaml:"begin" validate:"gte=0"`
	End   int `json:"end" yaml:"end" validate:"gtefield=Begin"`
}

// Token is a word token with its part-of-speech tag.
type Token struct {
	Begin     int    `json:"begin" yaml:"begin" validate:"gte=0"`
	End       int    `json:"end" yaml:"end" validate:"gtefield=Begin"`
	POS       string `json:"pos" yaml:"pos"`
	Lemma     string `json:"lemma,omitempty" yaml:"lemma,omitempty"`
	Reference string `json:"reference,omitempty" yaml:"reference,omitempty"`
}

// Dependency is a labelled edge between two tokens, identified by their
// index in Document.Tokens. Root edges carry Governor -1 or Label "ROOT".
type Dependency struct {
	Governor  int    `json:"governor" yaml:"governor" validate:"gte=-1"`
	Dependent int    `json:"dependent" yaml:"dependent" validate:"gte=0"`
	Label     string `json:"label" yaml:"label"`
}

// Chunk is one node of the phrase-chunk tree. Parent is the index of the
// enclosing chunk in Document.Chunks, or -1 for a root.
type Chunk struct {
	Begin     int    `json:"begin" yaml:"begin" validate:"gte=0"`
	End       int    `json:"end" yaml:"end" validate:"gtefield=Begin"`
	Type      string `json:"type" yaml:"type" validate:"required"`
	Parent    int    `json:"parent" yaml:"parent" validate:"gte=-1"`
	Reference string `json:"reference,omitempty" yaml:"reference,omitempty"`
}

// Entity is a typed span produced by entity recognition.
type Entity struct {
	Begin     int           `json:"begin" yaml:"begin" validate:"gte=0"`
	End       int           `json:"end" yaml:"end" validate:"gtefield=Begin"`
	Class     SemanticClass `json:"class" yaml:"class" validate:"required,semclass"`
	Text      string        `json:"text,omitempty" yaml:"text,omitempty"`
	Reference string        `json:"reference,omitempty" yaml:"reference,omitempty"`
}

// ErrInvalidDocument wraps every validation failure reported by Validate.
var ErrInvalidDocument = errors.New("invalid document")

var documentValidate *validator.Validate

func init() {
	documentValidate = validator.New()
	_ = documentValidate.RegisterValidation("semclass", func(fl validator.FieldLevel) bool {
		return IsValidSemanticClass(SemanticClass(fl.Field().String()))
	})
}

// Covered returns the text between begin and end, clamped to the document.
func (d *Document) Covered(begin, end int) string {
	if begin < 0 {
		begin = 0
	}
	if end > len(d.Text) {
		end = len(d.Text)
	}
	if begin >= end {
		return ""
	}
	return d.Text[begin:end]
}

// TokenText returns the covered text of token i.
func (d *Document) TokenText(i int) string {
	if i < 0 || i >= len(d.Tokens) {
		return ""
	}
	return d.Covered(d.Tokens[i].Begin, d.Tokens[i].End)
}

// EntityText returns the entity's own text, falling back to the covered text.
func (d *Document) EntityText(i int) string {
	e := d.Entities[i]
	if e.Text != "" {
		return e.Text
	}
	return d.Covered(e.Begin, e.End)
}

// Validate checks struct constraints and cross-references between annotations.
// Offsets must lie inside Text and every index must point at an existing
// token or chunk.
func (d *Document) Validate() error {
	if err := documentValidate.Struct(d); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}

	n := len(d.Text)
	check := func(kind string, i, begin, end int) error {
		if end > n {
			return fmt.Errorf("%w: %s %d ends at %d beyond text length %d", ErrInvalidDocument, kind, i, end, n)
		}
		return nil
	}
	for i, s := range d.Sentences {
		if err := check("sentence", i, s.Begin, s.End); err != nil {
			return err
		}
	}
	for i, t := range d.Tokens {
		if err := check("token", i, t.Begin, t.End); err != nil {
			return err
		}
	}
	for i, e := range d.Entities {
		if err := check("entity", i, e.Begin, e.End); err != nil {
			return err
		}
	}
	for i, c := range d.Chunks {
		if err := check("chunk", i, c.Begin, c.End); err != nil {
			return err
		}
		if c.Parent >= len(d.Chunks) || c.Parent == i {
			return fmt.Errorf("%w: chunk %d has invalid parent %d", ErrInvalidDocument, i, c.Parent)
		}
	}
	for i, dep := range d.Dependencies {
		if dep.Dependent >= len(d.Tokens) || dep.Governor >= len(d.Tokens) {
			return fmt.Errorf("%w: dependency %d references a missing token", ErrInvalidDocument, i)
		}
	}
	return nil
}
