package manifest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"nosferatu/internal/logger"
	"nosferatu/internal/models"
)

// ErrManifestFormat marks manifests whose structure is unusable: missing
// header, missing image-path column, or unreadable file.
var ErrManifestFormat = errors.New("invalid manifest format")

// pathColumn is the required header naming the image file column.
const pathColumn = "image_path"

// EntryError describes one rejected manifest row. Rejected rows are
// reported, not silently dropped, and do not abort the parse.
type EntryError struct {
	Row  int
	Path string
	Err  error
}

func (e *EntryError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("manifest row %d: %v", e.Row, e.Err)
	}
	return fmt.Sprintf("manifest row %d (%s): %v", e.Row, e.Path, e.Err)
}

func (e *EntryError) Unwrap() error { return e.Err }

// Reader parses CSV image-set manifests.
type Reader struct {
	log logger.Logger
}

func NewReader(log logger.Logger) *Reader {
	if log == nil {
		log = logger.Nop{}
	}
	return &Reader{log: log}
}

// Parse reads the manifest at path and returns the schedulable records in
// CSV order plus the per-row errors for rejected rows. The error return is
// reserved for structural failures of the whole file.
func (r *Reader) Parse(path string) ([]models.ManifestRecord, []EntryError, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: open %s: %v", ErrManifestFormat, path, err)
	}
	defer f.Close()

	cr := csv.NewReader(f)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("%w: missing header row in %s", ErrManifestFormat, path)
	}

	pathIdx := -1
	for i, col := range header {
		if strings.EqualFold(strings.TrimSpace(col), pathColumn) {
			pathIdx = i
			break
		}
	}
	if pathIdx < 0 {
		return nil, nil, fmt.Errorf("%w: required column %q not found in %s", ErrManifestFormat, pathColumn, path)
	}

	var (
		records   []models.ManifestRecord
		entryErrs []EntryError
		row       int
	)

	for {
		row++
		fields, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			entryErrs = append(entryErrs, EntryError{Row: row, Err: err})
			continue
		}
		if len(fields) <= pathIdx {
			entryErrs = append(entryErrs, EntryError{Row: row, Err: fmt.Errorf("missing %s field", pathColumn)})
			continue
		}

		imagePath := strings.TrimSpace(fields[pathIdx])
		if imagePath == "" {
			entryErrs = append(entryErrs, EntryError{Row: row, Err: fmt.Errorf("empty %s field", pathColumn)})
			continue
		}

		if err := checkReadable(imagePath); err != nil {
			entryErrs = append(entryErrs, EntryError{Row: row, Path: imagePath, Err: err})
			continue
		}

		records = append(records, models.ManifestRecord{
			Index:    row,
			Path:     imagePath,
			Metadata: rowMetadata(header, fields, pathIdx),
		})
	}

	r.log.Info("manifest", "manifest parsed", map[string]interface{}{
		"path":     path,
		"records":  len(records),
		"rejected": len(entryErrs),
	})

	return records, entryErrs, nil
}

func checkReadable(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", path)
	}
	return nil
}

// rowMetadata copies the non-path columns into a per-record map. Columns
// without a value in this row are omitted.
func rowMetadata(header, fields []string, pathIdx int) map[string]string {
	if len(header) <= 1 {
		return nil
	}
	meta := make(map[string]string)
	for i, col := range header {
		if i == pathIdx || i >= len(fields) {
			continue
		}
		value := strings.TrimSpace(fields[i])
		if value == "" {
			continue
		}
		meta[strings.TrimSpace(col)] = value
	}
	if len(meta) == 0 {
		return nil
	}
	return meta
}
