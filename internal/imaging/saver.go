package imaging

import (
	"fmt"
	"path/filepath"
	"strings"

	"gocv.io/x/gocv"

	"nosferatu/internal/logger"
	"nosferatu/internal/models"
)

// savableExtensions matches the save dialog of the original tool.
var savableExtensions = map[string]struct{}{
	".png":  {},
	".jpg":  {},
	".jpeg": {},
	".bmp":  {},
	".tif":  {},
	".tiff": {},
}

// Saver encodes ImageData to disk. The output format is chosen by the
// target path's extension.
type Saver struct {
	log logger.Logger
}

func NewSaver(log logger.Logger) *Saver {
	if log == nil {
		log = logger.Nop{}
	}
	return &Saver{log: log}
}

func (s *Saver) Save(path string, imageData *models.ImageData) error {
	if imageData == nil || imageData.Mat.Closed() || imageData.Mat.Empty() {
		return fmt.Errorf("%w: no image data to save", ErrUnsupportedFormat)
	}

	ext := strings.ToLower(filepath.Ext(path))
	if _, ok := savableExtensions[ext]; !ok {
		return fmt.Errorf("%w: extension %q", ErrUnsupportedFormat, ext)
	}

	if ok := gocv.IMWrite(path, imageData.Mat); !ok {
		return fmt.Errorf("failed to write image to %s", path)
	}

	s.log.Info("saver", "image saved", map[string]interface{}{
		"path":   path,
		"width":  imageData.Width,
		"height": imageData.Height,
	})

	return nil
}
