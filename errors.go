package markerbuilder

import "errors"

var (
	// ErrSourceImageUnreadable is returned when the reference image is missing or cannot be decoded.
	ErrSourceImageUnreadable = errors.New("markerbuilder: source image unreadable")
	// ErrOutputDirectoryUnwritable is returned when a marker file cannot be created or overwritten.
	ErrOutputDirectoryUnwritable = errors.New("markerbuilder: output directory unwritable")
	// ErrMarkerUnreadable is returned when a marker file set cannot be parsed back.
	ErrMarkerUnreadable = errors.New("markerbuilder: marker unreadable")

	ErrInvalidOptions = errors.New("markerbuilder: invalid options")
	ErrUnknownPreset  = errors.New("markerbuilder: unknown preset")
	ErrInvalidBuffer  = errors.New("markerbuilder: invalid pixel buffer")
)
