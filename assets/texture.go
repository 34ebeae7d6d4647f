package assets

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder

	_ "golang.org/x/image/bmp" // register BMP decoder
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff" // register TIFF decoder
	_ "golang.org/x/image/webp" // register WebP decoder
)

// Texture is a decoded image with its mipmap chain.
type Texture struct {
	Name string

	// Format is the name of the source encoding ("png", "webp", ...).
	Format string

	// Levels holds the mipmap chain; Levels[0] is the full-size image.
	Levels []*image.RGBA
}

// Width returns the width of the base level.
func (t *Texture) Width() int { return t.Levels[0].Rect.Dx() }

// Height returns the height of the base level.
func (t *Texture) Height() int { return t.Levels[0].Rect.Dy() }

// DecodeTexture decodes an encoded image into RGBA.
// Supported encodings are PNG, JPEG, GIF, BMP, TIFF and WebP.
func DecodeTexture(data []byte) (*image.RGBA, string, error) {
	if len(data) == 0 {
		return nil, "", ErrEmptySource
	}
	src, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("%w: %w", ErrDecode, err)
	}
	if rgba, ok := src.(*image.RGBA); ok && rgba.Rect.Min == (image.Point{}) {
		return rgba, format, nil
	}

	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Copy(dst, image.Point{}, src, b, draw.Src, nil)
	return dst, format, nil
}

// MipLevelCount returns the length of a full mipmap chain for a w x h image.
func MipLevelCount(w, h int) int {
	n := 1
	for size := max(w, h); size > 1; size /= 2 {
		n++
	}
	return n
}

// GenerateMips builds a mipmap chain starting at base. levels <= 0 (or a
// value beyond the full chain) produces the full chain down to 1x1.
func GenerateMips(base *image.RGBA, levels int) []*image.RGBA {
	full := MipLevelCount(base.Rect.Dx(), base.Rect.Dy())
	if levels <= 0 || levels > full {
		levels = full
	}

	chain := make([]*image.RGBA, 0, levels)
	chain = append(chain, base)
	for len(chain) < levels {
		prev := chain[len(chain)-1]
		w := max(prev.Rect.Dx()/2, 1)
		h := max(prev.Rect.Dy()/2, 1)
		next := image.NewRGBA(image.Rect(0, 0, w, h))
		draw.BiLinear.Scale(next, next.Rect, prev, prev.Rect, draw.Src, nil)
		chain = append(chain, next)
	}
	return chain
}
