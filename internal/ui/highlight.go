package ui

import (
	"path/filepath"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/go-enry/go-enry/v2"

	"github.com/dshills/astview/internal/renderer/core"
)

// Highlighter colors source text with a chroma lexer. Tokenizing happens
// only when the text changes.
type Highlighter struct {
	style  *chroma.Style
	forced string
	lexer  chroma.Lexer
	plain  bool

	text   string
	valid  bool
	styles [][]core.Style
}

// NewHighlighter creates a highlighter using the named chroma style. A
// non-empty syntax forces that lexer for every file.
func NewHighlighter(theme, syntax string) *Highlighter {
	h := &Highlighter{style: styles.Get(theme), forced: syntax}
	h.Detect("", "")
	return h
}

// Detect picks the lexer for the file at path with the given content:
// the forced syntax, then the language go-enry classifies, then chroma's own
// filename match. Text nobody recognizes is shown plain.
func (h *Highlighter) Detect(path, content string) {
	h.lexer = nil
	if h.forced != "" {
		h.lexer = lexers.Get(h.forced)
	}
	if h.lexer == nil && path != "" {
		name := filepath.Base(path)
		if lang := enry.GetLanguage(name, []byte(content)); lang != "" {
			h.lexer = lexers.Get(lang)
		}
		if h.lexer == nil {
			h.lexer = lexers.Match(name)
		}
	}
	h.plain = h.lexer == nil
	if h.plain {
		h.lexer = lexers.Fallback
	}
	h.lexer = chroma.Coalesce(h.lexer)
	h.valid = false
}

// Plain reports whether no language was recognized.
func (h *Highlighter) Plain() bool { return h.plain }

// Language returns the name of the lexer in use.
func (h *Highlighter) Language() string {
	if cfg := h.lexer.Config(); cfg != nil {
		return cfg.Name
	}
	return ""
}

// Styles returns one style per rune for every line of text, on top of base.
func (h *Highlighter) Styles(text string, base core.Style) [][]core.Style {
	if h.valid && text == h.text {
		return h.styles
	}
	h.text, h.valid = text, true
	h.styles = h.tokenize(text, base)
	return h.styles
}

func (h *Highlighter) tokenize(text string, base core.Style) [][]core.Style {
	lines := strings.Split(text, "\n")
	out := make([][]core.Style, len(lines))
	for i, l := range lines {
		out[i] = make([]core.Style, 0, len(l))
	}

	tokens, err := chroma.Tokenise(h.lexer, nil, text)
	if err != nil {
		for i, l := range lines {
			for range l {
				out[i] = append(out[i], base)
			}
		}
		return out
	}

	line := 0
	for _, tok := range tokens {
		if tok.Type == chroma.EOFType {
			break
		}
		style := tokenStyle(h.style.Get(tok.Type), base)
		for _, r := range tok.Value {
			if r == '\n' {
				line++
				continue
			}
			if line < len(out) {
				out[line] = append(out[line], style)
			}
		}
	}
	// Lexers may drop trailing text; pad so every rune has a style.
	for i, l := range lines {
		for n := len([]rune(l)); len(out[i]) < n; {
			out[i] = append(out[i], base)
		}
	}
	return out
}

func tokenStyle(e chroma.StyleEntry, base core.Style) core.Style {
	s := base
	if e.Colour.IsSet() {
		s = s.WithForeground(core.ColorFromRGB(e.Colour.Red(), e.Colour.Green(), e.Colour.Blue()))
	}
	if e.Bold == chroma.Yes {
		s = s.Bold()
	}
	if e.Italic == chroma.Yes {
		s = s.Italic()
	}
	if e.Underline == chroma.Yes {
		s = s.Underline()
	}
	return s
}
