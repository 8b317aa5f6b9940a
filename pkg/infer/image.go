package infer

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
)

// BytesPerPixel is the packed RGB stride of Image.Pix.
const BytesPerPixel = 3

// Image is a row-major RGB pixel buffer. len(Pix) is always Width*Height*3.
type Image struct {
	Width  uint32
	Height uint32
	Pix    []byte
}

// NewImage returns a black image of the given size.
func NewImage(width, height uint32) Image {
	return Image{
		Width:  width,
		Height: height,
		Pix:    make([]byte, expectedLen(width, height)),
	}
}

// ImageFromRaw takes ownership of data as the pixel buffer of a
// width x height image.
func ImageFromRaw(width, height uint32, data []byte) (Image, error) {
	if want := expectedLen(width, height); uint64(len(data)) != want {
		return Image{}, fmt.Errorf("%w: %dx%d needs %d bytes, got %d",
			ErrMalformedImage, width, height, want, len(data))
	}
	if data == nil {
		data = []byte{}
	}
	return Image{Width: width, Height: height, Pix: data}, nil
}

func expectedLen(width, height uint32) uint64 {
	return uint64(width) * uint64(height) * BytesPerPixel
}

func (m Image) offset(x, y uint32) int {
	return int((uint64(y)*uint64(m.Width) + uint64(x)) * BytesPerPixel)
}

// At returns the RGB triple at (x, y). It panics when out of bounds, like
// slice indexing.
func (m Image) At(x, y uint32) (r, g, b uint8) {
	i := m.offset(x, y)
	return m.Pix[i], m.Pix[i+1], m.Pix[i+2]
}

func (m Image) Set(x, y uint32, r, g, b uint8) {
	i := m.offset(x, y)
	m.Pix[i], m.Pix[i+1], m.Pix[i+2] = r, g, b
}

func (m Image) Equal(o Image) bool {
	return m.Width == o.Width && m.Height == o.Height && bytes.Equal(m.Pix, o.Pix)
}

// ImageFromStd converts any decoded image into a packed RGB buffer. Alpha is
// dropped.
func ImageFromStd(src image.Image) Image {
	b := src.Bounds()
	out := NewImage(uint32(b.Dx()), uint32(b.Dy()))
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.RGBAModel.Convert(src.At(x, y)).(color.RGBA)
			out.Set(uint32(x-b.Min.X), uint32(y-b.Min.Y), c.R, c.G, c.B)
		}
	}
	return out
}

// ToStd copies the buffer into an opaque *image.RGBA.
func (m Image) ToStd() *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, int(m.Width), int(m.Height)))
	for y := uint32(0); y < m.Height; y++ {
		for x := uint32(0); x < m.Width; x++ {
			r, g, b := m.At(x, y)
			dst.SetRGBA(int(x), int(y), color.RGBA{R: r, G: g, B: b, A: 0xff})
		}
	}
	return dst
}
