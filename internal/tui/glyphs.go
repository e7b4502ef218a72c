package tui

import (
	"os"
	"strings"
	"sync"

	"complyview/internal/table"
)

// Some terminals/fonts render the Unicode arrows poorly; an ASCII set is
// available via config or COMPLYVIEW_TUI_GLYPHS=ascii.

type glyphSet int

const (
	glyphSetUnicode glyphSet = iota
	glyphSetASCII
)

var (
	glyphsMu      sync.RWMutex
	currentGlyphs = glyphSetUnicode
)

func applyGlyphPreference(configured string) {
	v := configured
	if env := strings.TrimSpace(os.Getenv("COMPLYVIEW_TUI_GLYPHS")); env != "" {
		v = env
	}
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", "unicode", "utf8":
		setGlyphs(glyphSetUnicode)
	case "ascii":
		setGlyphs(glyphSetASCII)
	}
}

func setGlyphs(gs glyphSet) {
	glyphsMu.Lock()
	currentGlyphs = gs
	glyphsMu.Unlock()
}

func glyphs() glyphSet {
	glyphsMu.RLock()
	gs := currentGlyphs
	glyphsMu.RUnlock()
	return gs
}

func glyphSort(d table.Direction) string {
	ascii := glyphs() == glyphSetASCII
	switch {
	case d == table.Descending && ascii:
		return "v"
	case d == table.Descending:
		return "▼"
	case ascii:
		return "^"
	default:
		return "▲"
	}
}

func glyphEllipsis() string {
	if glyphs() == glyphSetASCII {
		return "~"
	}
	return "…"
}

func glyphCursor() string {
	if glyphs() == glyphSetASCII {
		return ">"
	}
	return "›"
}
