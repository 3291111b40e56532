package imaging

import "errors"

var (
	// ErrUnreadableImage marks files that cannot be decoded or whose
	// format is outside the accepted extension set.
	ErrUnreadableImage = errors.New("unreadable image")

	// ErrUnsupportedFormat marks save targets with an extension the
	// encoder does not handle.
	ErrUnsupportedFormat = errors.New("unsupported image format")
)
