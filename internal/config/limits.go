package config

const (
	// TitleMax is the maximum length, in characters, of a note title.
	// Longer extracted titles are truncated.
	TitleMax = 400

	// MaxFileSize is the largest file the ingestion dispatcher will read.
	// Larger files are skipped with a notice.
	MaxFileSize = 10 * 1024 * 1024

	// MaxSVGDimension is the largest declared width an inline SVG keeps.
	// Wider graphics are rescaled to the note width.
	MaxSVGDimension = 600

	// MaxImageDimension is the default longest side of a raster image after
	// ingestion. Overridden by MAX_IMAGE_DIMENSION.
	MaxImageDimension = 1920

	// NormalizeIterationsPerNode and NormalizeIterationsBase bound the
	// normalization loop. A tree that has not settled by then is logged and
	// left as is.
	NormalizeIterationsPerNode = 16
	NormalizeIterationsBase    = 100

	// MaxSearchWords caps the distinct search words stored per note.
	MaxSearchWords = 1000
)
