// Package lang provides a language registry mapping file extensions to
// tree-sitter languages.
package lang

import (
	"context"
	"fmt"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
)

// Language holds tree-sitter configuration for a supported language.
type Language struct {
	Name       string
	Extensions []string
	lang       *sitter.Language

	// Prefix is prepended to a fragment so it parses as a standalone program.
	Prefix string
	// Suffix terminates a fragment as a statement.
	Suffix string
}

// GetLanguage returns the tree-sitter Language pointer.
func (l *Language) GetLanguage() *sitter.Language {
	return l.lang
}

// NewParser creates a fresh tree-sitter parser for this language.
// Each goroutine must use its own parser (not thread-safe).
func (l *Language) NewParser() *sitter.Parser {
	p := sitter.NewParser()
	p.SetLanguage(l.lang)
	return p
}

// Languages maps language names to their configuration.
// Populated by init() functions in per-language files.
var Languages = map[string]*Language{}

// extensionMap is built lazily after all init() functions have run.
var extensionMap map[string]string
var extensionOnce sync.Once

func getExtensionMap() map[string]string {
	extensionOnce.Do(func() {
		extensionMap = make(map[string]string)
		for _, l := range Languages {
			for _, ext := range l.Extensions {
				extensionMap[ext] = l.Name
			}
		}
	})
	return extensionMap
}

// ForExtension returns the language name for a file extension, or "" if unsupported.
func ForExtension(ext string) string {
	return getExtensionMap()[ext]
}

// NodeText returns the source text of a tree-sitter node.
func NodeText(node *sitter.Node, source []byte) string {
	return string(source[node.StartByte():node.EndByte()])
}

// Handle is a parser created on first use and reused afterwards.
// Parse calls are serialized.
type Handle struct {
	lang   *Language
	once   sync.Once
	mu     sync.Mutex
	parser *sitter.Parser
}

// NewHandle returns a lazily initialized parser handle for l.
func NewHandle(l *Language) *Handle {
	return &Handle{lang: l}
}

// Language returns the handle's language.
func (h *Handle) Language() *Language {
	return h.lang
}

// Parse parses a complete source file. The returned tree must be closed by
// the caller.
func (h *Handle) Parse(ctx context.Context, source []byte) (*sitter.Tree, error) {
	h.once.Do(func() {
		h.parser = h.lang.NewParser()
	})

	h.mu.Lock()
	defer h.mu.Unlock()
	tree, err := h.parser.ParseCtx(ctx, nil, source)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", h.lang.Name, err)
	}
	return tree, nil
}

// ParseFragment parses Prefix+fragment+Suffix. The returned tree must be
// closed by the caller; the returned source is what node offsets index into.
func (h *Handle) ParseFragment(ctx context.Context, fragment string) (*sitter.Tree, []byte, error) {
	source := []byte(h.lang.Prefix + fragment + h.lang.Suffix)
	tree, err := h.Parse(ctx, source)
	if err != nil {
		return nil, nil, err
	}
	return tree, source, nil
}
