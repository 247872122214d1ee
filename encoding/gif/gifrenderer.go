package gif

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/gif"
	"io"
	"math"

	"github.com/golang/freetype/truetype"
	gated "github.com/gorgonia/ggnn/gatednet"
	"github.com/pkg/errors"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/math/fixed"
	"gorgonia.org/tensor/native"
)

var regular *truetype.Font

const (
	dpi             = 144.0
	fontsize        = 12.0
	lineheight      = 1.2
	dummyLongString = `x000  P(-1) 0.000  P(+1) 0.000`

	stepDelay    = 50
	readoutDelay = 300
)

func init() {
	var err error
	if regular, err = truetype.Parse(gomono.TTF); err != nil {
		panic(err)
	}
}

// globPalette is 256 shades of gray. Hidden state values in [-1, 1] map onto it linearly.
var globPalette = func() color.Palette {
	p := make(color.Palette, 256)
	for i := range p {
		p[i] = color.Gray{uint8(i)}
	}
	return p
}()

// Encoder renders the trace of a GGNN forward pass: one frame per propagation step showing the hidden
// states as a heat map (a row per node, a column per state dimension), then a frame with the readout.
type Encoder struct {
	H, W int
	font.Drawer

	out *gif.GIF
	io.Writer
	face font.Face

	maxH, maxW  int // maxHeight and maxWidth
	padH, padW  int // padding so everything don't start at the topleft
	cell        int // side of a heat map cell
	initialized bool
}

// NewGifEncoder with height and width
func NewGifEncoder(h, w int) *Encoder {
	return &Encoder{
		H:    -1,
		W:    -1,
		maxH: h,
		maxW: w,
		padH: 10,
		padW: 10,
		cell: 16,

		Drawer: font.Drawer{
			Src: image.Black,
		},
		out: &gif.GIF{LoopCount: -1},
	}
}

// Encode a trace
func (enc *Encoder) Encode(name string, t *gated.Trace) error {
	if t == nil || len(t.Steps) == 0 || t.Output == nil {
		return errors.New("nothing to encode")
	}
	nodes, stateDim := t.Output.Shape()[0], t.Steps[0].Hidden.Shape()[1]
	dy := int(math.Ceil(fontsize * lineheight * dpi / 72))

	if !enc.initialized {
		// lazy init of the drawer
		enc.face = truetype.NewFace(regular, &truetype.Options{
			Size:    fontsize,
			DPI:     dpi,
			Hinting: font.HintingFull,
		})
		enc.Drawer.Face = enc.face

		textW := maxInt(font.MeasureString(enc.Face, name).Ceil(), font.MeasureString(enc.Face, dummyLongString).Ceil())
		w := maxInt(textW, stateDim*enc.cell) + 2*enc.padW
		h := maxInt(2*dy+nodes*enc.cell, (nodes+2)*dy) + 2*enc.padH

		w = minInt(w, enc.maxW)
		h = minInt(h, enc.maxH)
		if w == enc.maxW {
			enc.padW = 0
		}
		if h == enc.maxH {
			enc.padH = 0
		}
		enc.H = h
		enc.W = w
		enc.initialized = true
	}

	for s, st := range t.Steps {
		hidden, err := native.MatrixF32(st.Hidden)
		if err != nil {
			return errors.WithStack(err)
		}
		im, y := enc.frame([]string{name, fmt.Sprintf("Step %d/%d", s+1, len(t.Steps))}, dy)
		for i, row := range hidden {
			for d, v := range row {
				r := image.Rect(enc.padW+d*enc.cell, y+i*enc.cell, enc.padW+(d+1)*enc.cell, y+(i+1)*enc.cell)
				draw.Draw(im, r, &image.Uniform{shade(v)}, image.ZP, draw.Src)
			}
		}
		enc.out.Image = append(enc.out.Image, im)
		enc.out.Delay = append(enc.out.Delay, stepDelay)
	}

	readout, err := native.MatrixF32(t.Output)
	if err != nil {
		return errors.WithStack(err)
	}
	lines := []string{name, "Readout"}
	for i, r := range readout {
		lines = append(lines, fmt.Sprintf("x%-3d  P(-1) %.3f  P(+1) %.3f", i, r[0], r[1]))
	}
	im, _ := enc.frame(lines, dy)
	enc.out.Image = append(enc.out.Image, im)
	enc.out.Delay = append(enc.out.Delay, readoutDelay)
	return nil
}

// frame creates a blank frame with the given lines of text. It returns the first free y.
func (enc *Encoder) frame(lines []string, dy int) (*image.Paletted, int) {
	im := image.NewPaletted(image.Rect(0, 0, enc.W, enc.H), globPalette)
	draw.Draw(im, im.Bounds(), image.White, image.ZP, draw.Src)
	enc.Dst = im
	y := enc.padH + dy
	for _, s := range lines {
		enc.Dot = fixed.P(enc.padW, y)
		enc.DrawString(s)
		y += dy
	}
	return im, y - dy/2
}

// Flush writes the gif into the writer
func (enc *Encoder) Flush() error { return gif.EncodeAll(enc.Writer, enc.out) }

// Frames returns the number of frames encoded so far.
func (enc *Encoder) Frames() int { return len(enc.out.Image) }

func shade(v float32) color.Gray {
	switch {
	case v <= -1:
		return color.Gray{0}
	case v >= 1:
		return color.Gray{255}
	}
	return color.Gray{uint8((v + 1) / 2 * 255)}
}
