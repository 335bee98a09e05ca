// Package fonts measures label text for layout and names the font used to
// draw it.
//
// The Go Regular face ships with golang.org/x/image, so measurements work
// without any font installed on the system. Renderers reference the same
// family through [FontFamily] so drawn labels match the measured widths.
package fonts

import (
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// FontFamily is the CSS font-family name of the measured face.
const FontFamily = "Go"

// FallbackFontFamily lists fallbacks for viewers without the Go fonts.
const FallbackFontFamily = `'Go', 'Helvetica Neue', Arial, sans-serif`

var (
	regular     *opentype.Font
	regularErr  error
	regularOnce sync.Once
)

func parsed() (*opentype.Font, error) {
	regularOnce.Do(func() {
		regular, regularErr = opentype.Parse(goregular.TTF)
	})
	return regular, regularErr
}

// Measurer reports label widths from real glyph advances. Faces are created
// once per size. A Measurer is safe for concurrent use.
type Measurer struct {
	mu    sync.Mutex
	faces map[float64]font.Face
}

// NewMeasurer returns a measurer for the Go Regular face.
func NewMeasurer() (*Measurer, error) {
	if _, err := parsed(); err != nil {
		return nil, err
	}
	return &Measurer{faces: map[float64]font.Face{}}, nil
}

// Width returns the advance width of text at size points, at 72 DPI so one
// point is one drawing unit.
func (m *Measurer) Width(text string, size float64) float64 {
	if text == "" || size <= 0 {
		return 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	face, err := m.face(size)
	if err != nil {
		return 0
	}
	return toFloat(font.MeasureString(face, text))
}

func (m *Measurer) face(size float64) (font.Face, error) {
	if f, ok := m.faces[size]; ok {
		return f, nil
	}
	fnt, err := parsed()
	if err != nil {
		return nil, err
	}
	f, err := opentype.NewFace(fnt, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingNone,
	})
	if err != nil {
		return nil, err
	}
	m.faces[size] = f
	return f, nil
}

func toFloat(x fixed.Int26_6) float64 {
	return float64(x) / 64
}
