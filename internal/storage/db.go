// Package storage provides the local record store for Pilltick: medicines,
// dose logs, and push subscription records, kept in an embedded Badger
// database. One process owns the store at a time; while the daemon runs it
// holds the lock, and other pilltick processes go through its control
// socket instead.
package storage

import (
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	badger "github.com/dgraph-io/badger/v4"
)

const (
	// AppName is the application name used for data directories.
	AppName = "pilltick"
)

// DB is the pilltick record store.
type DB struct {
	db *badger.DB
}

// Options configures the store.
type Options struct {
	// Path is the store directory. Empty string uses in-memory mode.
	Path string
	// InMemory forces in-memory mode regardless of Path. Tests use this.
	InMemory bool
}

// DefaultPath returns the default store path under the XDG data home.
func DefaultPath() string {
	return filepath.Join(xdg.DataHome, AppName, "db")
}

// Open opens or creates the store at the given path.
func Open(opts Options) (*DB, error) {
	var badgerOpts badger.Options

	if opts.InMemory || opts.Path == "" {
		badgerOpts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(opts.Path, 0755); err != nil {
			return nil, err
		}
		badgerOpts = badger.DefaultOptions(opts.Path)
	}

	// Badger's own INFO chatter would drown the daemon log.
	badgerOpts = badgerOpts.WithLoggingLevel(badger.ERROR)

	db, err := badger.Open(badgerOpts)
	if err != nil {
		return nil, err
	}

	return &DB{db: db}, nil
}

// Close closes the store and releases the process lock.
func (d *DB) Close() error {
	return d.db.Close()
}

// RunGC runs one round of Badger value-log garbage collection. Used by the
// daemon's housekeeping job; a no-rewrite result is not an error.
func (d *DB) RunGC() error {
	err := d.db.RunValueLogGC(0.5)
	if err == badger.ErrNoRewrite {
		return nil
	}
	return err
}

// Size returns the on-disk size of the LSM tree and the value log in bytes.
// The daemon reports it in the end-of-day summary.
func (d *DB) Size() (lsm, vlog int64) {
	return d.db.Size()
}

// Badger returns the underlying Badger database for advanced operations.
func (d *DB) Badger() *badger.DB {
	return d.db
}
