package imaging

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"

	"gocv.io/x/gocv"

	"nosferatu/internal/logger"
	"nosferatu/internal/models"
)

// loadableExtensions is the closed set of input formats. The microscopy
// sources are TIFF; the rest cover previously exported results.
var loadableExtensions = map[string]string{
	".tif":  "tiff",
	".tiff": "tiff",
	".png":  "png",
	".jpg":  "jpeg",
	".jpeg": "jpeg",
	".bmp":  "bmp",
}

// Loader decodes image files into ImageData. Each image is decoded twice:
// with the standard library for the displayable image.Image and with OpenCV
// for the Mat the filter path operates on.
type Loader struct {
	log logger.Logger
}

func NewLoader(log logger.Logger) *Loader {
	if log == nil {
		log = logger.Nop{}
	}
	return &Loader{log: log}
}

func (l *Loader) Load(path string) (*models.ImageData, error) {
	ext := strings.ToLower(filepath.Ext(path))
	format, ok := loadableExtensions[ext]
	if !ok {
		return nil, fmt.Errorf("%w: extension %q is not supported", ErrUnreadableImage, ext)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrUnreadableImage, path, err)
	}

	img, stdFormat, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", ErrUnreadableImage, path, err)
	}

	mat, err := gocv.IMDecode(data, gocv.IMReadColor)
	if err != nil {
		return nil, fmt.Errorf("%w: opencv decode %s: %v", ErrUnreadableImage, path, err)
	}
	if mat.Empty() {
		mat.Close()
		return nil, fmt.Errorf("%w: opencv decode %s: empty matrix", ErrUnreadableImage, path)
	}

	if stdFormat != "" {
		format = stdFormat
	}

	bounds := img.Bounds()
	imageData := &models.ImageData{
		Image:    img,
		Mat:      mat,
		Width:    bounds.Dx(),
		Height:   bounds.Dy(),
		Channels: mat.Channels(),
		Format:   format,
		Path:     path,
		LoadTime: time.Now(),
	}

	l.log.Debug("loader", "image loaded", map[string]interface{}{
		"path":     path,
		"width":    imageData.Width,
		"height":   imageData.Height,
		"channels": imageData.Channels,
		"format":   format,
	})

	return imageData, nil
}
