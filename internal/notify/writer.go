// Package notify resolves documents dropped into a watched directory and
// writes the resolved output next to them.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/scrypster/coref/internal/docio"
	"github.com/scrypster/coref/pkg/types"
)

// Resolver is the part of the engine the file writer needs.
type Resolver interface {
	Resolve(ctx context.Context, doc *types.Document) (*types.Result, error)
}

// Event describes one processed file.
type Event struct {
	Path   string
	Output string
	Result *types.Result
	Err    error
}

// FileWriter resolves a document file and writes <file>.coref.json beside it.
type FileWriter struct {
	resolver Resolver
	logger   *slog.Logger

	// KeepInput leaves the source file in place after a successful write.
	KeepInput bool

	// OnEvent, when set, is called after every processed file.
	OnEvent func(Event)
}

// NewFileWriter creates a writer around resolver.
func NewFileWriter(resolver Resolver, logger *slog.Logger) *FileWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileWriter{resolver: resolver, logger: logger, KeepInput: true}
}

// Process resolves the document at path. The output holds the result and
// the annotated document.
func (w *FileWriter) Process(ctx context.Context, path string) error {
	evt := Event{Path: path, Output: docio.OutputPath(path)}
	evt.Err = w.process(ctx, &evt)
	if evt.Err != nil {
		w.logger.Warn("document not resolved", "path", path, "error", evt.Err)
	} else {
		w.logger.Info("document resolved", "path", path, "output", evt.Output,
			"chains", len(evt.Result.Chains), "mentions", evt.Result.MentionCount)
	}
	if w.OnEvent != nil {
		w.OnEvent(evt)
	}
	return evt.Err
}

func (w *FileWriter) process(ctx context.Context, evt *Event) error {
	doc, err := docio.LoadFile(evt.Path)
	if err != nil {
		return err
	}
	res, err := w.resolver.Resolve(ctx, doc)
	if err != nil {
		return fmt.Errorf("notify: resolve %s: %w", evt.Path, err)
	}
	evt.Result = res
	if err := docio.WriteFile(evt.Output, docio.Resolved{Result: res, Document: doc}); err != nil {
		return err
	}
	if !w.KeepInput {
		if err := os.Remove(evt.Path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("notify: remove %s: %w", evt.Path, err)
		}
	}
	return nil
}
