package domain

import "errors"

var (
	// ErrArtifactNotFound is returned when no artifact is stored at a path
	ErrArtifactNotFound = errors.New("artifact not found")

	// ErrSourceNotFound is returned when neither a native cache file nor the original exists
	ErrSourceNotFound = errors.New("source image not found")

	// ErrInvalidImage is returned when an image cannot be addressed
	ErrInvalidImage = errors.New("invalid image")
)
