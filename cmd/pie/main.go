package main

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"io/ioutil"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/bodgit/pie"
	"github.com/bodgit/pie/catalog"
	pieimage "github.com/bodgit/pie/image"
	"github.com/bodgit/pie/palette"
	"github.com/urfave/cli/v2"
	"golang.org/x/image/bmp"
)

const defaultDB = "pie.db"

func init() {
	cli.VersionFlag = &cli.BoolFlag{
		Name:    "version",
		Aliases: []string{"V"},
		Usage:   "print the version",
	}
}

func newLogger(c *cli.Context) *log.Logger {
	logger := log.New(ioutil.Discard, "", 0)
	if c.Bool("verbose") {
		logger.SetOutput(os.Stderr)
	}
	return logger
}

func openCatalog(c *cli.Context) (*catalog.Catalog, error) {
	db, err := catalog.NewDB(c.String("db"))
	if err != nil {
		return nil, err
	}
	return catalog.New(db, newLogger(c)), nil
}

// lookupPalette returns the palette named by the --palette flag, or nil if the
// flag isn't set
func lookupPalette(c *cli.Context) (*palette.Palette, error) {
	name := c.String("palette")
	if name == "" {
		return nil, nil
	}

	db, err := catalog.NewDB(c.String("db"))
	if err != nil {
		return nil, err
	}
	defer db.Close()

	p, err := db.Palette(name)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("no such palette \"%s\"", name)
	}
	return p, nil
}

func readImage(file string) (image.Image, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	m, _, err := image.Decode(f)
	return m, err
}

func writeImage(file string, m image.Image) error {
	b := new(bytes.Buffer)

	var err error
	switch strings.ToLower(filepath.Ext(file)) {
	case ".bmp":
		err = bmp.Encode(b, m)
	default:
		err = png.Encode(b, m)
	}
	if err != nil {
		return err
	}

	return ioutil.WriteFile(file, b.Bytes(), 0666)
}

func requireArgs(c *cli.Context, n int) {
	if c.NArg() < n {
		cli.ShowCommandHelpAndExit(c, c.Command.Name, 1)
	}
}

func encode(c *cli.Context) error {
	requireArgs(c, 2)

	p, err := lookupPalette(c)
	if err != nil {
		return cli.Exit(err, 1)
	}

	m, err := readImage(c.Args().Get(0))
	if err != nil {
		return cli.Exit(err, 1)
	}
	m = pieimage.Scale(m, c.Uint("scale"))

	b := new(bytes.Buffer)
	if err := pieimage.Encode(b, m, &pieimage.Options{
		Palette:  p,
		External: c.Bool("external"),
		Quantize: c.Int("quantize"),
	}); err != nil {
		return cli.Exit(err, 1)
	}

	if err := ioutil.WriteFile(c.Args().Get(1), b.Bytes(), 0666); err != nil {
		return cli.Exit(err, 1)
	}

	newLogger(c).Printf("Wrote %d bytes to \"%s\"\n", b.Len(), c.Args().Get(1))

	return nil
}

func decode(c *cli.Context) error {
	requireArgs(c, 2)

	p, err := lookupPalette(c)
	if err != nil {
		return cli.Exit(err, 1)
	}

	d, err := pie.ReadFile(c.Args().Get(0), p)
	if err != nil {
		return cli.Exit(err, 1)
	}

	if err := writeImage(c.Args().Get(1), pieimage.NRGBA(d)); err != nil {
		return cli.Exit(err, 1)
	}

	return nil
}

func info(c *cli.Context) error {
	requireArgs(c, 1)

	b, err := ioutil.ReadFile(c.Args().First())
	if err != nil {
		return cli.Exit(err, 1)
	}

	var e pie.EncodedImage
	if err := e.UnmarshalBinary(b); err != nil {
		return cli.Exit(err, 1)
	}

	fmt.Fprintf(c.App.Writer, "Size:    %dx%d\n", e.Width, e.Height)
	fmt.Fprintf(c.App.Writer, "Format:  %s\n", e.Format)
	fmt.Fprintf(c.App.Writer, "Runs:    %d\n", len(e.Runs))
	if e.Palette != nil {
		fmt.Fprintf(c.App.Writer, "Palette: %d colors, embedded\n", e.Palette.Len())
	} else {
		fmt.Fprintf(c.App.Writer, "Palette: external\n")
	}
	fmt.Fprintf(c.App.Writer, "Bytes:   %d\n", len(b))

	return nil
}

func main() {
	app := cli.NewApp()

	app.Name = "pie"
	app.Usage = "PIE pixel art image utility"
	app.Version = "1.0.0"

	cwd, err := os.Getwd()
	if err != nil {
		log.Fatal(err)
	}

	paletteFlag := &cli.StringFlag{
		Name:    "palette",
		Aliases: []string{"p"},
		Usage:   "use the named palette from the database",
	}
	externalFlag := &cli.BoolFlag{
		Name:  "external",
		Usage: "leave the palette out of the encoded image",
	}
	quantizeFlag := &cli.IntFlag{
		Name:  "quantize",
		Usage: "reduce images with too many colors to `N` colors",
	}

	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "db",
			EnvVars: []string{"PIE_DB"},
			Value:   filepath.Join(cwd, defaultDB),
			Usage:   "path to database",
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "increase verbosity",
		},
	}

	app.Commands = []*cli.Command{
		{
			Name:      "encode",
			Usage:     "Encode an image as PIE",
			ArgsUsage: "IMAGE FILE",
			Flags: []cli.Flag{
				paletteFlag,
				externalFlag,
				quantizeFlag,
				&cli.UintFlag{
					Name:  "scale",
					Usage: "enlarge the image by `N` first",
				},
			},
			Action: encode,
		},
		{
			Name:      "decode",
			Usage:     "Decode a PIE image to PNG or BMP",
			ArgsUsage: "FILE IMAGE",
			Flags: []cli.Flag{
				paletteFlag,
			},
			Action: decode,
		},
		{
			Name:      "info",
			Usage:     "Show the header of a PIE image",
			ArgsUsage: "FILE",
			Action:    info,
		},
		{
			Name:  "palette",
			Usage: "Manage shared palettes",
			Subcommands: []*cli.Command{
				{
					Name:      "add",
					Usage:     "Add a palette built from the colors of an image",
					ArgsUsage: "NAME IMAGE",
					Action: func(c *cli.Context) error {
						requireArgs(c, 2)

						m, err := openCatalog(c)
						if err != nil {
							return cli.Exit(err, 1)
						}
						defer m.Close()

						if _, err := m.ImportPalette(c.Args().Get(0), c.Args().Get(1)); err != nil {
							return cli.Exit(err, 1)
						}

						return nil
					},
				},
				{
					Name:  "list",
					Usage: "List palettes",
					Action: func(c *cli.Context) error {
						m, err := openCatalog(c)
						if err != nil {
							return cli.Exit(err, 1)
						}
						defer m.Close()

						names, err := m.Palettes()
						if err != nil {
							return cli.Exit(err, 1)
						}
						for _, name := range names {
							p, err := m.Palette(name)
							if err != nil {
								return cli.Exit(err, 1)
							}
							fmt.Fprintf(c.App.Writer, "%s\t%s\t%d\n", name, p.Format(), p.Len())
						}

						return nil
					},
				},
				{
					Name:      "rm",
					Usage:     "Remove a palette",
					ArgsUsage: "NAME",
					Action: func(c *cli.Context) error {
						requireArgs(c, 1)

						m, err := openCatalog(c)
						if err != nil {
							return cli.Exit(err, 1)
						}
						defer m.Close()

						if err := m.DeletePalette(c.Args().First()); err != nil {
							return cli.Exit(err, 1)
						}

						return nil
					},
				},
			},
		},
		{
			Name:      "import",
			Usage:     "Store an image in the database",
			ArgsUsage: "NAME IMAGE",
			Flags: []cli.Flag{
				paletteFlag,
			},
			Action: func(c *cli.Context) error {
				requireArgs(c, 2)

				m, err := openCatalog(c)
				if err != nil {
					return cli.Exit(err, 1)
				}
				defer m.Close()

				if _, err := m.ImportImage(c.Args().Get(0), c.Args().Get(1), c.String("palette")); err != nil {
					return cli.Exit(err, 1)
				}

				return nil
			},
		},
		{
			Name:      "export",
			Usage:     "Write a stored image to PNG or BMP",
			ArgsUsage: "NAME IMAGE",
			Action: func(c *cli.Context) error {
				requireArgs(c, 2)

				m, err := openCatalog(c)
				if err != nil {
					return cli.Exit(err, 1)
				}
				defer m.Close()

				d, err := m.Image(c.Args().Get(0))
				if err != nil {
					return cli.Exit(err, 1)
				}
				if d == nil {
					return cli.Exit(fmt.Sprintf("no such image \"%s\"", c.Args().Get(0)), 1)
				}

				if err := writeImage(c.Args().Get(1), pieimage.NRGBA(d)); err != nil {
					return cli.Exit(err, 1)
				}

				return nil
			},
		},
		{
			Name:      "convert",
			Usage:     "Convert every image under a directory to PIE",
			ArgsUsage: "DIRECTORY",
			Flags: []cli.Flag{
				paletteFlag,
				externalFlag,
				quantizeFlag,
				&cli.IntFlag{
					Name:  "workers",
					Value: 4,
					Usage: "convert `N` images at once",
				},
				&cli.BoolFlag{
					Name:  "overwrite",
					Usage: "replace existing .pie files",
				},
			},
			Action: func(c *cli.Context) error {
				requireArgs(c, 1)

				m, err := openCatalog(c)
				if err != nil {
					return cli.Exit(err, 1)
				}
				defer m.Close()

				if err := m.Convert(c.Args().First(), catalog.ConvertOptions{
					Palette:   c.String("palette"),
					External:  c.Bool("external"),
					Quantize:  c.Int("quantize"),
					Workers:   c.Int("workers"),
					Overwrite: c.Bool("overwrite"),
				}); err != nil {
					return cli.Exit(err, 1)
				}

				return nil
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
