package image

import (
	"image"
	"image/color"
	"io"
	"io/ioutil"

	"github.com/bodgit/pie"
	"github.com/bodgit/pie/palette"
)

type decoder struct {
	e pie.EncodedImage
}

func (d *decoder) decode(r io.Reader) error {
	b, err := ioutil.ReadAll(r)
	if err != nil {
		return err
	}
	return d.e.UnmarshalBinary(b)
}

// Decode reads a PIE image with an embedded palette from r and returns it as
// an image.Image.
func Decode(r io.Reader) (image.Image, error) {
	return DecodeWithPalette(r, nil)
}

// DecodeWithPalette reads a PIE image from r, using p if the image does not
// embed its own palette.
func DecodeWithPalette(r io.Reader, p *palette.Palette) (image.Image, error) {
	var d decoder
	if err := d.decode(r); err != nil {
		return nil, err
	}

	m, err := d.e.Decode(p)
	if err != nil {
		return nil, err
	}
	return NRGBA(m), nil
}

// DecodeConfig returns the color model and dimensions of a PIE image without
// expanding the pixels. The color model is the embedded palette if there is
// one.
func DecodeConfig(r io.Reader) (image.Config, error) {
	var d decoder
	if err := d.decode(r); err != nil {
		return image.Config{}, err
	}

	var model color.Model = color.NRGBAModel
	if d.e.Palette != nil {
		model = ColorPalette(d.e.Palette)
	}

	return image.Config{
		ColorModel: model,
		Width:      int(d.e.Width),
		Height:     int(d.e.Height),
	}, nil
}
