package syntax

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/scrypster/coref/pkg/types"
)

// noSpaceBefore lists tags whose word attaches to the previous token.
var noSpaceBefore = map[string]bool{
	",":   true,
	".":   true,
	":":   true,
	"POS": true,
	"''":  true,
}

// ParseBracketed reads one or more Penn-style bracketed trees, e.g.
//
//	(S (NP (DT The) (NN dog)) (VP (VBD barked)) (. .))
//
// and returns a document with text, tokens, phrase chunks and one sentence
// per top-level tree. Preterminals become tokens; every other labelled node
// becomes a chunk. An unlabelled outer wrapper "( (S ...) )" is accepted.
func ParseBracketed(s string) (*types.Document, error) {
	p := &bracketParser{items: lexBrackets(s)}
	doc := &types.Document{}
	for p.pos < len(p.items) {
		first := len(doc.Tokens)
		if err := p.parseNode(doc, NoParent); err != nil {
			return nil, err
		}
		if len(doc.Tokens) > first {
			doc.Sentences = append(doc.Sentences, types.Sentence{
				Begin: doc.Tokens[first].Begin,
				End:   doc.Tokens[len(doc.Tokens)-1].End,
			})
		}
	}
	return doc, nil
}

type bracketParser struct {
	items []string
	pos   int
}

func lexBrackets(s string) []string {
	var items []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() > 0 {
			items = append(items, cur.String())
			cur.Reset()
		}
	}
	for _, r := range s {
		switch {
		case r == '(' || r == ')':
			flush()
			items = append(items, string(r))
		case unicode.IsSpace(r):
			flush()
		default:
			cur.WriteRune(r)
		}
	}
	flush()
	return items
}

func (p *bracketParser) next() (string, error) {
	if p.pos >= len(p.items) {
		return "", fmt.Errorf("%w: unexpected end of bracketed tree", ErrMalformed)
	}
	it := p.items[p.pos]
	p.pos++
	return it, nil
}

func (p *bracketParser) peek() string {
	if p.pos >= len(p.items) {
		return ""
	}
	return p.items[p.pos]
}

// parseNode consumes "(LABEL child...)" and appends tokens and chunks to doc.
func (p *bracketParser) parseNode(doc *types.Document, parent int) error {
	open, err := p.next()
	if err != nil {
		return err
	}
	if open != "(" {
		return fmt.Errorf("%w: expected '(' at item %d, got %q", ErrMalformed, p.pos-1, open)
	}

	label := ""
	if tok := p.peek(); tok != "(" && tok != ")" {
		label, _ = p.next()
	}

	// Preterminal: (TAG word)
	if label != "" && p.peek() != "(" && p.peek() != ")" {
		word, _ := p.next()
		if closeTok, err := p.next(); err != nil || closeTok != ")" {
			return fmt.Errorf("%w: preterminal %s %q not closed", ErrMalformed, label, word)
		}
		appendToken(doc, label, word)
		return nil
	}

	self := parent
	if label != "" {
		self = len(doc.Chunks)
		doc.Chunks = append(doc.Chunks, types.Chunk{Type: label, Parent: parent})
	}
	first := len(doc.Tokens)
	for p.peek() == "(" {
		if err := p.parseNode(doc, self); err != nil {
			return err
		}
	}
	if closeTok, err := p.next(); err != nil || closeTok != ")" {
		return fmt.Errorf("%w: node %q not closed", ErrMalformed, label)
	}
	if label != "" {
		if len(doc.Tokens) == first {
			return fmt.Errorf("%w: node %q has no words", ErrMalformed, label)
		}
		doc.Chunks[self].Begin = doc.Tokens[first].Begin
		doc.Chunks[self].End = doc.Tokens[len(doc.Tokens)-1].End
	}
	return nil
}

func appendToken(doc *types.Document, pos, word string) {
	if len(doc.Tokens) > 0 && !noSpaceBefore[pos] {
		doc.Text += " "
	}
	begin := len(doc.Text)
	doc.Text += word
	doc.Tokens = append(doc.Tokens, types.Token{Begin: begin, End: len(doc.Text), POS: pos})
}
