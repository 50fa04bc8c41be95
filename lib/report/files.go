package report

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"spidervision-report/lib/crawlstatus"
)

// WriteFile renders the report in `format` to its dated file under `dir`
// and returns the path written.
func (r Report) WriteFile(dir string, format Format) (string, error) {
	var render func(io.Writer) error
	switch format {
	case FormatCSV:
		render = r.WriteCSV
	case FormatHTML:
		render = r.WriteHTML
	default:
		return "", fmt.Errorf("unknown report format %q", format)
	}
	path := filepath.Join(dir, FileName(r.Date, format))
	err := writeFile(path, render)
	if err != nil {
		return "", err
	}
	slog.Info("wrote report", "path", path, "rows", len(r.Rows))
	return path, nil
}

func writeFile(path string, render func(io.Writer) error) error {
	err := os.MkdirAll(filepath.Dir(path), 0755)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	err = render(f)
	if err != nil {
		f.Close()
		return fmt.Errorf("render %s: %w", path, err)
	}
	return f.Close()
}

// WriteRecordsFile exports raw records to `path` in `format`.
func WriteRecordsFile(path string, format Format, date time.Time, records []crawlstatus.Record) error {
	switch format {
	case FormatCSV:
		return writeFile(path, func(w io.Writer) error { return WriteRecordsCSV(w, records) })
	case FormatHTML:
		return writeFile(path, func(w io.Writer) error { return WriteRecordsHTML(w, date, records) })
	}
	return fmt.Errorf("unknown export format %q", format)
}
