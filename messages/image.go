package messages

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"
)

// Provider image limits, advertised to the host so it can downscale before
// attaching images to a conversation.
const (
	MaxImageWidth  = 4096
	MaxImageHeight = 4096
	MaxImagePixels = 16777216
)

// ImageDimensions returns the maximum supported image width, height and total
// pixel count.
func ImageDimensions() (width, height, pixels int) {
	return MaxImageWidth, MaxImageHeight, MaxImagePixels
}

// FormatImage encodes an image as a PNG base64 data URL content part, the
// shape OpenAI expects for inline images.
func FormatImage(img image.Image) (ImageContentPart, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return ImageContentPart{}, fmt.Errorf("failed to encode image: %w", err)
	}
	encoded := base64.StdEncoding.EncodeToString(buf.Bytes())
	return ImageContentPart{
		URL: fmt.Sprintf("data:image/png;base64,%s", encoded),
	}, nil
}
