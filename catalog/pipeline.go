package catalog

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/bodgit/pie"
	pieimage "github.com/bodgit/pie/image"
)

const defaultWorkers = 4

var sourceExts = map[string]struct{}{
	".bmp":  {},
	".gif":  {},
	".jpeg": {},
	".jpg":  {},
	".png":  {},
}

// ConvertOptions controls a directory conversion.
type ConvertOptions struct {
	// Palette is the name of a stored palette to encode against
	Palette string
	// External leaves the palette out of each file
	External bool
	// Quantize reduces images with too many colors, see image.Options
	Quantize int
	// Workers is the number of images converted at once
	Workers int
	// Overwrite replaces any existing .pie files
	Overwrite bool
}

func target(file string) string {
	return strings.TrimSuffix(file, filepath.Ext(file)) + ".pie"
}

// skippable errors are logged and the file is left alone
func skippable(err error) bool {
	return errors.Is(err, image.ErrFormat) ||
		errors.Is(err, pie.ErrTooManyColors) ||
		errors.Is(err, pie.ErrColorNotInPalette) ||
		errors.Is(err, pie.ErrPaletteFormat) ||
		errors.Is(err, pie.ErrWrongPixelCount)
}

func (c *Catalog) findImages(ctx context.Context, base string, overwrite bool) (<-chan string, <-chan error) {
	out := make(chan string)
	errc := make(chan error, 1)
	go func() {
		defer close(out)
		defer close(errc)
		errc <- filepath.Walk(base, func(file string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}

			// Ignore any hidden files or directories
			if info.Name()[0] == '.' && file != base {
				if info.Mode().IsDir() {
					return filepath.SkipDir
				}
				return nil
			}

			if !info.Mode().IsRegular() {
				return nil
			}

			if _, ok := sourceExts[strings.ToLower(filepath.Ext(file))]; !ok {
				return nil
			}

			if !overwrite {
				if _, err := os.Stat(target(file)); err == nil {
					c.logger.Printf("Skipping \"%s\", already converted\n", file)
					return nil
				}
			}

			select {
			case out <- file:
			case <-ctx.Done():
				return errors.New("walk cancelled")
			}

			return nil
		})
	}()
	return out, errc
}

func convertFile(file string, o *pieimage.Options) error {
	m, err := decodeFile(file, nil)
	if err != nil {
		return err
	}

	b := new(bytes.Buffer)
	if err := pieimage.Encode(b, m, o); err != nil {
		return err
	}

	return ioutil.WriteFile(target(file), b.Bytes(), 0666)
}

func (c *Catalog) convertWorker(ctx context.Context, in <-chan string, o *pieimage.Options) <-chan error {
	errc := make(chan error, 1)
	go func() {
		defer close(errc)
		for file := range in {
			select {
			case <-ctx.Done():
				return
			default:
			}

			if err := convertFile(file, o); err != nil {
				if skippable(err) {
					c.logger.Printf("Skipping \"%s\": %v\n", file, err)
					continue
				}
				errc <- err
				return
			}
			c.logger.Printf("Converted \"%s\"\n", file)
		}
	}()
	return errc
}

func waitForPipeline(errs ...<-chan error) error {
	errc := mergeErrors(errs...)
	for err := range errc {
		if err != nil {
			return err
		}
	}
	return nil
}

func mergeErrors(cs ...<-chan error) <-chan error {
	var wg sync.WaitGroup
	out := make(chan error, len(cs))
	wg.Add(len(cs))
	for _, c := range cs {
		go func(c <-chan error) {
			for n := range c {
				out <- n
			}
			wg.Done()
		}(c)
	}
	go func() {
		wg.Wait()
		close(out)
	}()
	return out
}

// Convert walks path and writes a .pie file next to every image it finds.
// Images that can't be represented, such as ones with too many colors, are
// logged and skipped.
func (c *Catalog) Convert(path string, opts ConvertOptions) error {
	dir, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	o := &pieimage.Options{
		External: opts.External,
		Quantize: opts.Quantize,
	}
	if opts.Palette != "" {
		if o.Palette, err = c.Palette(opts.Palette); err != nil {
			return err
		}
		if o.Palette == nil {
			return fmt.Errorf("%w: %q", errUnknownPalette, opts.Palette)
		}
	} else if opts.External {
		return errors.New("catalog: an external palette needs a palette name")
	}

	workers := opts.Workers
	if workers < 1 {
		workers = defaultWorkers
	}

	ctx, cancelFunc := context.WithCancel(context.Background())
	defer cancelFunc()

	var errcList []<-chan error

	files, errc := c.findImages(ctx, dir, opts.Overwrite)
	errcList = append(errcList, errc)

	for i := 0; i < workers; i++ {
		errcList = append(errcList, c.convertWorker(ctx, files, o))
	}

	return waitForPipeline(errcList...)
}
