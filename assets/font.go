package assets

import (
	"bytes"
	"fmt"
	"slices"

	"github.com/go-text/typesetting/font"
	"golang.org/x/text/unicode/norm"
)

// Font is a parsed font face with cached advances for a prewarm charset.
type Font struct {
	Name string
	Face *font.Face

	// Upem is the face's units per em.
	Upem uint16

	// Advances maps prewarmed runes to their horizontal advance in font units.
	Advances map[rune]float32

	// Missing lists prewarm runes the face has no glyph for.
	Missing []rune
}

// Advance returns the horizontal advance of r in font units.
// Runes outside the prewarm charset are looked up in the face.
func (f *Font) Advance(r rune) (float32, bool) {
	if a, ok := f.Advances[r]; ok {
		return a, true
	}
	gid, ok := f.Face.NominalGlyph(r)
	if !ok {
		return 0, false
	}
	return f.Face.HorizontalAdvance(gid), true
}

// ParseFont parses a TrueType/OpenType font and prewarms the advances of
// charset after NFC normalization.
func ParseFont(name string, data []byte, charset string) (*Font, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: font %q", ErrEmptySource, name)
	}
	face, err := font.ParseTTF(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: font %q: %w", ErrDecode, name, err)
	}

	f := &Font{
		Name:     name,
		Face:     face,
		Upem:     face.Upem(),
		Advances: make(map[rune]float32),
	}
	for _, r := range norm.NFC.String(charset) {
		if _, seen := f.Advances[r]; seen {
			continue
		}
		gid, ok := face.NominalGlyph(r)
		if !ok {
			if !slices.Contains(f.Missing, r) {
				f.Missing = append(f.Missing, r)
			}
			continue
		}
		f.Advances[r] = face.HorizontalAdvance(gid)
	}
	return f, nil
}
