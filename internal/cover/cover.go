package cover

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"strings"

	"github.com/nfnt/resize"
	"go.uber.org/zap"
)

const (
	DefaultMaxBytes     = 5 * 1024 * 1024
	DefaultMaxDimension = 800

	jpegQuality = 80
)

var (
	ErrTooLarge          = errors.New("image is larger than the allowed size")
	ErrUnsupportedFormat = errors.New("unsupported image format")
)

// Encoder turns image files into data URIs suitable for Book.CoverImage
type Encoder struct {
	MaxBytes     int64
	MaxDimension int
	logger       *zap.Logger
}

// NewEncoder creates an encoder; non-positive limits use the defaults
func NewEncoder(maxBytes int64, maxDimension int, logger *zap.Logger) *Encoder {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	if maxDimension <= 0 {
		maxDimension = DefaultMaxDimension
	}
	return &Encoder{
		MaxBytes:     maxBytes,
		MaxDimension: maxDimension,
		logger:       logger,
	}
}

// EncodeFile reads and encodes the image at path
func (e *Encoder) EncodeFile(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("failed to stat cover image: %w", err)
	}
	if info.Size() > e.MaxBytes {
		return "", fmt.Errorf("%s (%d bytes): %w", path, info.Size(), ErrTooLarge)
	}

	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open cover image: %w", err)
	}
	defer f.Close()

	return e.Encode(f)
}

// Encode reads an image and returns it as a data URI. Images that fit in
// MaxDimension x MaxDimension keep their bytes; bigger ones are scaled down
// keeping the aspect ratio. GIFs are re-encoded as PNG when scaled.
func (e *Encoder) Encode(r io.Reader) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, e.MaxBytes+1))
	if err != nil {
		return "", fmt.Errorf("failed to read cover image: %w", err)
	}
	if int64(len(data)) > e.MaxBytes {
		return "", ErrTooLarge
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}

	bounds := img.Bounds()
	if bounds.Dx() <= e.MaxDimension && bounds.Dy() <= e.MaxDimension {
		return dataURI("image/"+format, data), nil
	}

	side := uint(e.MaxDimension)
	scaled := resize.Thumbnail(side, side, img, resize.Lanczos3)

	var buf bytes.Buffer
	mime := "image/png"
	if format == "jpeg" {
		mime = "image/jpeg"
		err = jpeg.Encode(&buf, scaled, &jpeg.Options{Quality: jpegQuality})
	} else {
		err = png.Encode(&buf, scaled)
	}
	if err != nil {
		return "", fmt.Errorf("failed to encode resized cover: %w", err)
	}

	e.logger.Debug("Cover image resized",
		zap.String("format", format),
		zap.Int("width", bounds.Dx()),
		zap.Int("height", bounds.Dy()),
		zap.Int("resized_width", scaled.Bounds().Dx()),
		zap.Int("resized_height", scaled.Bounds().Dy()),
	)
	return dataURI(mime, buf.Bytes()), nil
}

func dataURI(mime string, data []byte) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// Decode splits a data URI produced by Encode into its mime type and bytes
func Decode(uri string) (mime string, data []byte, err error) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return "", nil, errors.New("not a data URI")
	}
	mime, payload, ok := strings.Cut(rest, ";base64,")
	if !ok {
		return "", nil, errors.New("data URI is not base64 encoded")
	}
	data, err = base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("failed to decode data URI: %w", err)
	}
	return mime, data, nil
}
