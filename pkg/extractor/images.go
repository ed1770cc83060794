package extractor

import (
	"bytes"
	"fmt"
	"image"

	// Decoders for the image encodings found inside OOXML media parts.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/dtnitsch/llm-doc-parser/models"
)

// decodeImage reads the image header to determine resolution and
// encoding without decoding the full raster.
func decodeImage(data []byte, page int) (models.Image, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return models.Image{}, fmt.Errorf("undecodable image: %w", err)
	}
	return models.Image{
		Data:   data,
		Width:  cfg.Width,
		Height: cfg.Height,
		Format: format,
		Page:   page,
	}, nil
}
