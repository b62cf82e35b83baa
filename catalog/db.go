package catalog

import (
	"bytes"
	"crypto/sha1"
	"database/sql"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // GIF sources
	_ "image/jpeg" // JPEG sources
	_ "image/png"  // PNG sources
	"io"
	"io/ioutil"
	"os"

	"github.com/bodgit/pie"
	pieimage "github.com/bodgit/pie/image"
	"github.com/bodgit/pie/palette"
	_ "github.com/mattn/go-sqlite3" // database driver
	_ "golang.org/x/image/bmp"      // BMP sources
)

var (
	errPaletteExists  = errors.New("catalog: palette already exists")
	errUnknownPalette = errors.New("catalog: unknown palette")
)

// DB stores named palettes and PIE images in an SQLite database. Images may
// refer to a stored palette instead of embedding their own.
type DB struct {
	db *sql.DB
}

// NewDB opens or creates the database in file.
func NewDB(file string) (*DB, error) {
	db, err := sql.Open("sqlite3", fmt.Sprintf("%s?_foreign_keys=on", file))
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)

	if _, err = db.Exec("CREATE TABLE IF NOT EXISTS palette (id INTEGER PRIMARY KEY NOT NULL, name TEXT NOT NULL UNIQUE, data BLOB NOT NULL)"); err != nil {
		db.Close()
		return nil, err
	}

	if _, err = db.Exec("CREATE TABLE IF NOT EXISTS image (id INTEGER PRIMARY KEY NOT NULL, name TEXT NOT NULL UNIQUE, sha1 TEXT NOT NULL UNIQUE, palette_id INTEGER, data BLOB NOT NULL, FOREIGN KEY(palette_id) REFERENCES palette(id))"); err != nil {
		db.Close()
		return nil, err
	}

	return &DB{
		db: db,
	}, nil
}

// Close closes the database.
func (db *DB) Close() error {
	return db.db.Close()
}

func (db *DB) paletteID(name string) (int64, *palette.Palette, error) {
	var id int64
	var data []byte
	switch err := db.db.QueryRow("SELECT id, data FROM palette WHERE name = ?", name).Scan(&id, &data); err {
	case sql.ErrNoRows:
		return 0, nil, nil
	case nil:
		p := new(palette.Palette)
		if err := p.UnmarshalBinary(data); err != nil {
			return 0, nil, err
		}
		return id, p, nil
	default:
		return 0, nil, err
	}
}

// AddPalette stores p under name, which must not already be in use.
func (db *DB) AddPalette(name string, p *palette.Palette) (int64, error) {
	id, _, err := db.paletteID(name)
	if err != nil {
		return 0, err
	}
	if id != 0 {
		return 0, fmt.Errorf("%w: %q", errPaletteExists, name)
	}

	data, err := p.MarshalBinary()
	if err != nil {
		return 0, err
	}

	result, err := db.db.Exec("INSERT INTO palette (name, data) VALUES (?, ?)", name, data)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// Palette returns the named palette, or nil if there isn't one.
func (db *DB) Palette(name string) (*palette.Palette, error) {
	_, p, err := db.paletteID(name)
	return p, err
}

func (db *DB) names(query string) ([]string, error) {
	rows, err := db.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// Palettes returns the names of all stored palettes.
func (db *DB) Palettes() ([]string, error) {
	return db.names("SELECT name FROM palette ORDER BY name")
}

// DeletePalette removes the named palette. It fails if any stored image still
// uses it.
func (db *DB) DeletePalette(name string) error {
	result, err := db.db.Exec("DELETE FROM palette WHERE name = ?", name)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %q", errUnknownPalette, name)
	}
	return nil
}

func decodeFile(file string, w io.Writer) (image.Image, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := io.Reader(f)
	if w != nil {
		r = io.TeeReader(f, w)
	}

	m, _, err := image.Decode(r)
	if err != nil {
		return nil, err
	}

	// Make sure w sees the whole file, not just what the decoder read
	if w != nil {
		if _, err := io.Copy(ioutil.Discard, r); err != nil {
			return nil, err
		}
	}

	return m, nil
}

// ImportPalette builds a palette from the colors in an image file, in the
// order they first appear, and stores it under name.
func (db *DB) ImportPalette(name, file string) (int64, error) {
	m, err := decodeFile(file, nil)
	if err != nil {
		return 0, err
	}

	_, _, f, pix, err := pieimage.Flatten(m)
	if err != nil {
		return 0, err
	}

	p, err := palette.Build(f, pix)
	if err != nil {
		return 0, err
	}

	return db.AddPalette(name, p)
}

// ImportImage encodes an image file and stores it under name. If paletteName
// is not empty the image is encoded against that stored palette, which is
// left out of the encoded data. Importing the same file contents twice
// returns the existing image.
func (db *DB) ImportImage(name, file, paletteName string) (int64, error) {
	h := sha1.New()
	m, err := decodeFile(file, h)
	if err != nil {
		return 0, err
	}
	sha := fmt.Sprintf("%X", h.Sum(nil))

	var id int64
	switch err := db.db.QueryRow("SELECT id FROM image WHERE sha1 = ?", sha).Scan(&id); err {
	case sql.ErrNoRows:
	case nil:
		return id, nil
	default:
		return 0, err
	}

	var paletteID sql.NullInt64
	o := new(pieimage.Options)
	if paletteName != "" {
		pid, p, err := db.paletteID(paletteName)
		if err != nil {
			return 0, err
		}
		if p == nil {
			return 0, fmt.Errorf("%w: %q", errUnknownPalette, paletteName)
		}
		paletteID.Int64, paletteID.Valid = pid, true
		o.Palette, o.External = p, true
	}

	b := new(bytes.Buffer)
	if err := pieimage.Encode(b, m, o); err != nil {
		return 0, err
	}

	result, err := db.db.Exec("INSERT INTO image (name, sha1, palette_id, data) VALUES (?, ?, ?, ?)", name, sha, paletteID, b.Bytes())
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// Image returns the named image decoded with its stored palette, or nil if
// there isn't one.
func (db *DB) Image(name string) (*pie.DecodedImage, error) {
	var data, paletteData []byte
	switch err := db.db.QueryRow("SELECT i.data, p.data FROM image AS i LEFT JOIN palette AS p ON i.palette_id = p.id WHERE i.name = ?", name).Scan(&data, &paletteData); err {
	case sql.ErrNoRows:
		return nil, nil
	case nil:
		var p *palette.Palette
		if paletteData != nil {
			p = new(palette.Palette)
			if err := p.UnmarshalBinary(paletteData); err != nil {
				return nil, err
			}
		}
		return pie.Decode(data, p)
	default:
		return nil, err
	}
}

// RawImage returns the stored PIE data for the named image, or nil if there
// isn't one.
func (db *DB) RawImage(name string) ([]byte, error) {
	var data []byte
	switch err := db.db.QueryRow("SELECT data FROM image WHERE name = ?", name).Scan(&data); err {
	case sql.ErrNoRows:
		return nil, nil
	case nil:
		return data, nil
	default:
		return nil, err
	}
}

// Images returns the names of all stored images.
func (db *DB) Images() ([]string, error) {
	return db.names("SELECT name FROM image ORDER BY name")
}
