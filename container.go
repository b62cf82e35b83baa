package pie

import (
	"fmt"
	"io"
	"io/ioutil"
	"os"

	"github.com/bodgit/pie/palette"
	"github.com/bodgit/pie/rle"
)

// Header returns the header that MarshalBinary writes for e.
func (e *EncodedImage) Header() (Header, error) {
	if len(e.Runs) > MaxRuns {
		return Header{}, fmt.Errorf("%w: %d runs, the maximum is %d", ErrTooManyRuns, len(e.Runs), MaxRuns)
	}

	h := Header{
		Version: Version,
		Width:   e.Width,
		Height:  e.Height,
		Flags:   e.Flags & flagReserved,
		Runs:    uint16(len(e.Runs)),
	}
	if e.Format == RGBA {
		h.Flags |= FlagAlpha
	}
	if e.Palette != nil {
		h.Flags |= FlagPalette
	}
	return h, nil
}

// MarshalBinary encodes e into the PIE file layout.
func (e *EncodedImage) MarshalBinary() ([]byte, error) {
	h, err := e.Header()
	if err != nil {
		return nil, err
	}
	if e.Palette != nil && e.Palette.Format() != e.Format {
		return nil, fmt.Errorf("%w: %s palette for %s image", ErrPaletteFormat, e.Palette.Format(), e.Format)
	}

	size := HeaderSize + len(e.Runs)*2
	if e.Palette != nil {
		size += e.Palette.Len() * e.Format.Stride()
	}

	b := make([]byte, 0, size)
	b = h.appendTo(b)
	b = rle.AppendPairs(b, e.Runs)
	if e.Palette != nil {
		b = append(b, e.Palette.Bytes()...)
	}

	return b, nil
}

// UnmarshalBinary decodes a PIE file into e. The runs and any embedded palette
// are validated when e is decoded, not here, apart from the palette needing to
// be a whole number of unique colors.
func (e *EncodedImage) UnmarshalBinary(b []byte) error {
	h, err := ParseHeader(b)
	if err != nil {
		return err
	}

	body := b[HeaderSize:]
	end := int(h.Runs) * 2
	if len(body) < end {
		return fmt.Errorf("%w: %d bytes of run data, expected %d", ErrMalformedHeader, len(body), end)
	}

	runs, err := rle.ParsePairs(body[:end])
	if err != nil {
		return err
	}

	var p *palette.Palette
	rest := body[end:]
	switch {
	case h.Embedded():
		if p, err = palette.New(h.Format(), rest); err != nil {
			return fmt.Errorf("%w: embedded palette: %v", ErrMalformedHeader, err)
		}
	case len(rest) > 0:
		return fmt.Errorf("%w: %d trailing bytes", ErrMalformedHeader, len(rest))
	}

	*e = EncodedImage{
		Width:   h.Width,
		Height:  h.Height,
		Format:  h.Format(),
		Runs:    runs,
		Palette: p,
		Flags:   h.Flags & flagReserved,
	}

	return nil
}

// Write encodes pix and writes the PIE file to w. Nothing is written if the
// pixels can't be encoded.
func Write(w io.Writer, width, height uint16, pix []byte, embed bool, p *palette.Palette) error {
	e, err := Encode(width, height, pix, embed, p)
	if err != nil {
		return err
	}

	b, err := e.MarshalBinary()
	if err != nil {
		return err
	}

	_, err = w.Write(b)
	return err
}

// Read reads a whole PIE file from r and decodes it.
func Read(r io.Reader, p *palette.Palette) (*DecodedImage, error) {
	b, err := ioutil.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return Decode(b, p)
}

// WriteFile is like Write but writes to the named file. The file is not
// created unless the pixels can be encoded.
func WriteFile(file string, width, height uint16, pix []byte, embed bool, p *palette.Palette) error {
	e, err := Encode(width, height, pix, embed, p)
	if err != nil {
		return err
	}

	b, err := e.MarshalBinary()
	if err != nil {
		return err
	}

	return ioutil.WriteFile(file, b, 0666)
}

// ReadFile is like Read but reads from the named file.
func ReadFile(file string, p *palette.Palette) (*DecodedImage, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return Read(f, p)
}
