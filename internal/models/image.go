package models

import (
	"image"
	"time"

	"gocv.io/x/gocv"
)

// ImageData bundles the two representations the pipeline works with: a
// standard library image for display/encoding and an OpenCV Mat for the
// algorithmic path. Dimensions are fixed at load time.
//
// Ownership: the Mat belongs to whoever holds the ImageData. Filters never
// mutate an input Mat; they allocate a new one.
type ImageData struct {
	Image    image.Image
	Mat      gocv.Mat
	Width    int
	Height   int
	Channels int
	Format   string
	Path     string
	LoadTime time.Time
}

// Close releases the underlying Mat. Safe to call on a zero value.
func (d *ImageData) Close() {
	if d == nil {
		return
	}
	if !d.Mat.Closed() {
		d.Mat.Close()
	}
}
