// Package runtime provides application runtime context for Pilltick.
package runtime

import (
	"os"

	"github.com/hojoonlee/pilltick/internal/output"
	"github.com/hojoonlee/pilltick/internal/storage"
)

// DefaultUserID is used when no user is configured.
const DefaultUserID = "default"

// Context holds the application runtime context.
type Context struct {
	DB        *storage.DB
	Formatter *output.Formatter
	UserID    string

	// Repositories
	MedicineRepo     *storage.MedicineRepo
	DoseLogRepo      *storage.DoseLogRepo
	SubscriptionRepo *storage.SubscriptionRepo

	// Debug mode
	Debug bool
}

// Options configures the runtime context.
type Options struct {
	DBPath    string
	InMemory  bool
	Format    output.Format
	ColorMode output.ColorMode
	UserID    string
	Debug     bool
}

// DefaultOptions returns default runtime options.
func DefaultOptions() Options {
	return Options{
		DBPath:    storage.DefaultPath(),
		InMemory:  false,
		Format:    output.FormatCLI,
		ColorMode: output.ColorAuto,
		UserID:    DefaultUserID,
		Debug:     false,
	}
}

// New creates a new runtime context.
func New(opts Options) (*Context, error) {
	if envPath := os.Getenv("PILLTICK_DATABASE"); envPath != "" {
		if envPath == ":memory:" {
			opts.InMemory = true
		} else {
			opts.DBPath = envPath
		}
	}
	if envUser := os.Getenv("PILLTICK_USER"); envUser != "" && opts.UserID == DefaultUserID {
		opts.UserID = envUser
	}

	db, err := storage.Open(storage.Options{
		Path:     opts.DBPath,
		InMemory: opts.InMemory,
	})
	if err != nil {
		return nil, err
	}

	formatter := output.NewFormatter()
	formatter.Format = opts.Format
	formatter.ColorMode = opts.ColorMode

	return &Context{
		DB:               db,
		Formatter:        formatter,
		UserID:           opts.UserID,
		MedicineRepo:     storage.NewMedicineRepo(db),
		DoseLogRepo:      storage.NewDoseLogRepo(db),
		SubscriptionRepo: storage.NewSubscriptionRepo(db),
		Debug:            opts.Debug,
	}, nil
}

// Close closes the runtime context.
func (c *Context) Close() error {
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}

// CLIFormatter returns a CLI formatter.
func (c *Context) CLIFormatter() *output.CLIFormatter {
	return output.NewCLIFormatter(c.Formatter)
}

// IsJSON returns true if output format is JSON.
func (c *Context) IsJSON() bool {
	return c.Formatter.Format == output.FormatJSON
}

// Debugf prints debug output if debug mode is enabled.
func (c *Context) Debugf(format string, args ...interface{}) {
	if c.Debug {
		c.Formatter.Printf("[DEBUG] "+format+"\n", args...)
	}
}
