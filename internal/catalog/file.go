package catalog

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"backlog/internal/fileutil"
)

// File reads a catalog from InputPath and writes the enriched result to
// OutputPath. When both paths are the same and Backup is set, the original
// input is copied to "<input>.bak" before it is replaced.
type File struct {
	InputPath  string
	OutputPath string
	Backup     bool
}

// DefaultOutputPath derives "<name>_enriched<ext>" next to input.
func DefaultOutputPath(input string) string {
	ext := filepath.Ext(input)
	base := strings.TrimSuffix(input, ext)
	if ext == "" {
		ext = ".csv"
	}
	return base + "_enriched" + ext
}

// Load reads the input catalog.
func (f File) Load(ctx context.Context) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return ReadFile(f.InputPath)
}

// Save writes records to the output path.
func (f File) Save(ctx context.Context, records []Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	output := f.target()
	if f.Backup && sameFile(output, f.InputPath) {
		if err := f.backupInput(); err != nil {
			return err
		}
	}
	return WriteFile(output, records)
}

func (f File) target() string {
	if strings.TrimSpace(f.OutputPath) != "" {
		return f.OutputPath
	}
	return DefaultOutputPath(f.InputPath)
}

func (f File) backupInput() error {
	if _, err := os.Stat(f.InputPath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("stat input for backup: %w", err)
	}
	if err := fileutil.CopyFileVerified(f.InputPath, f.InputPath+".bak"); err != nil {
		return fmt.Errorf("backup input: %w", err)
	}
	return nil
}

func sameFile(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}
	return absA == absB
}
