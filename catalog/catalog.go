/*
Package catalog keeps a library of shared palettes and PIE images and converts
whole directory trees of images to PIE.
*/
package catalog

import "log"

type Catalog struct {
	*DB
	logger *log.Logger
}

func New(db *DB, logger *log.Logger) *Catalog {
	return &Catalog{
		DB:     db,
		logger: logger,
	}
}
