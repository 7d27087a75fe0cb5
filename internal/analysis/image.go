package analysis

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// ErrNotImage is returned when uploaded bytes are not a supported raster image.
var ErrNotImage = errors.New("file is not an image")

// supportedImageTypes are the raster formats forwarded to Phase Two.
var supportedImageTypes = map[string]struct{}{
	"image/jpeg": {},
	"image/png":  {},
	"image/gif":  {},
	"image/webp": {},
	"image/bmp":  {},
}

// IsSupportedImage reports whether a detected MIME type may be sent for analysis.
func IsSupportedImage(mimeType string) bool {
	_, ok := supportedImageTypes[mimeType]
	return ok
}

// EncodeDataURL returns data as a base64 data URL, the same shape a browser
// FileReader produces. The MIME type is sniffed from the content.
func EncodeDataURL(data []byte) (string, error) {
	if len(data) == 0 {
		return "", ErrEmptyImage
	}
	mt := mimetype.Detect(data)
	if !IsSupportedImage(mt.String()) {
		return "", fmt.Errorf("%w: detected %s", ErrNotImage, mt.String())
	}
	return "data:" + mt.String() + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}

// DecodeDataURL splits a base64 data URL into its MIME type and raw bytes.
func DecodeDataURL(s string) (string, []byte, error) {
	rest, ok := strings.CutPrefix(s, "data:")
	if !ok {
		return "", nil, errors.New("not a data URL")
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, errors.New("data URL has no payload")
	}
	mediaType, isBase64 := strings.CutSuffix(meta, ";base64")
	if !isBase64 {
		return "", nil, errors.New("data URL is not base64 encoded")
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("decoding data URL payload: %w", err)
	}
	return mediaType, data, nil
}

// ResizeImage resizes an image to fit within maxSize (width or height) while keeping aspect ratio.
// The result is always JPEG encoded.
func ResizeImage(data []byte, maxSize int) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	// Check if resizing is needed.
	if width <= maxSize && height <= maxSize {
		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 85}); err != nil {
			return nil, fmt.Errorf("failed to encode image: %w", err)
		}
		return buf.Bytes(), nil
	}

	var newWidth, newHeight int
	if width > height {
		newWidth = maxSize
		newHeight = max(1, int(float64(height)*float64(maxSize)/float64(width)))
	} else {
		newHeight = maxSize
		newWidth = max(1, int(float64(width)*float64(maxSize)/float64(height)))
	}

	resized := image.NewRGBA(image.Rect(0, 0, newWidth, newHeight))
	draw.CatmullRom.Scale(resized, resized.Bounds(), img, bounds, draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, resized, &jpeg.Options{Quality: 85}); err != nil {
		return nil, fmt.Errorf("failed to encode resized image: %w", err)
	}

	return buf.Bytes(), nil
}

// PrepareUpload turns raw image bytes into the data URL sent to Phase Two,
// downscaling first when maxSize is positive.
func PrepareUpload(data []byte, maxSize int) (string, error) {
	if maxSize > 0 {
		if _, err := EncodeDataURL(data); err != nil {
			return "", err
		}
		resized, err := ResizeImage(data, maxSize)
		if err != nil {
			return "", err
		}
		data = resized
	}
	return EncodeDataURL(data)
}
