// Package export writes reconciliation results to Parquet files for
// downstream analysis. Each run produces reconciled.parquet and, when there
// are leftovers, unmatched.parquet.
package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/parquet-go/parquet-go"

	"tissrecon/internal/model"
)

const (
	ReconciledFile = "reconciled.parquet"
	UnmatchedFile  = "unmatched.parquet"
)

// WriteFile writes rows to a single Parquet file, creating parent
// directories as needed. An empty slice still produces a valid file with
// the full schema.
func WriteFile(path string, rows []*model.ResultRow) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create export dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create parquet file: %w", err)
	}

	w := parquet.NewGenericWriter[model.ResultRow](f)
	// GenericWriter wants values, not pointers; write in modest batches.
	buf := make([]model.ResultRow, 0, 512)
	flush := func() error {
		if len(buf) == 0 {
			return nil
		}
		if _, err := w.Write(buf); err != nil {
			return fmt.Errorf("write parquet rows: %w", err)
		}
		buf = buf[:0]
		return nil
	}
	for _, r := range rows {
		buf = append(buf, *r)
		if len(buf) == cap(buf) {
			if err := flush(); err != nil {
				f.Close()
				return err
			}
		}
	}
	if err := flush(); err != nil {
		f.Close()
		return err
	}
	if err := w.Close(); err != nil {
		f.Close()
		return fmt.Errorf("close parquet writer: %w", err)
	}
	return f.Close()
}

// WriteRun writes the reconciled and unmatched row sets under dir and
// returns the paths written. The unmatched file is only produced when there
// are unmatched rows.
func WriteRun(dir string, reconciled, unmatched []*model.ResultRow) ([]string, error) {
	reconPath := filepath.Join(dir, ReconciledFile)
	if err := WriteFile(reconPath, reconciled); err != nil {
		return nil, err
	}
	paths := []string{reconPath}

	if len(unmatched) > 0 {
		unmatchedPath := filepath.Join(dir, UnmatchedFile)
		if err := WriteFile(unmatchedPath, unmatched); err != nil {
			return paths, err
		}
		paths = append(paths, unmatchedPath)
	}
	return paths, nil
}

// ReadFile reads a full result Parquet file back into memory. Handy for
// inspecting a past run; database loads go through COPY instead.
func ReadFile(path string) ([]model.ResultRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open parquet file: %w", err)
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat parquet file: %w", err)
	}
	pf, err := parquet.OpenFile(f, stat.Size())
	if err != nil {
		return nil, fmt.Errorf("open parquet: %w", err)
	}

	r := parquet.NewGenericReader[model.ResultRow](pf)
	defer r.Close()

	var all []model.ResultRow
	buf := make([]model.ResultRow, 256)
	for {
		n, readErr := r.Read(buf)
		all = append(all, buf[:n]...)
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return nil, fmt.Errorf("read parquet rows: %w", readErr)
		}
	}
	return all, nil
}
