package media

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"path"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/kolesa-team/go-webp/encoder"
	"github.com/kolesa-team/go-webp/webp"
	_ "golang.org/x/image/webp"
)

// ErrUnsupportedFormat is returned for mime types outside the JPEG/PNG/WebP
// allow-list. Requests are expected to be rejected before reaching the
// transcoder, so seeing this deeper in the pipeline indicates a caller bug.
var ErrUnsupportedFormat = errors.New("unsupported image format")

const (
	MimeJPEG = "image/jpeg"
	MimePNG  = "image/png"
	MimeWebP = "image/webp"
)

var mimeExtensions = map[string]string{
	MimeJPEG: ".jpg",
	MimePNG:  ".png",
	MimeWebP: ".webp",
}

var extensionMimes = map[string]string{
	".jpg":  MimeJPEG,
	".jpeg": MimeJPEG,
	".png":  MimePNG,
	".webp": MimeWebP,
}

// IsAllowedMime reports whether the declared mime type is on the allow-list.
func IsAllowedMime(mimeType string) bool {
	_, ok := mimeExtensions[mimeType]
	return ok
}

// ExtensionForMime returns the canonical file extension for an allowed mime
// type ("" for anything else).
func ExtensionForMime(mimeType string) string {
	return mimeExtensions[mimeType]
}

// MimeForFilename infers the mime type from a filename's extension ("" when
// the extension is not an allowed image type).
func MimeForFilename(filename string) string {
	return extensionMimes[strings.ToLower(path.Ext(filename))]
}

// Decode decodes an allow-listed image buffer. Corrupt or unsupported bytes
// are a hard failure: retrying an undecodable buffer cannot succeed.
func Decode(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, nil
}

// DecodeDimensions reads intrinsic width/height without decoding pixel data.
func DecodeDimensions(data []byte) (int, int, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, fmt.Errorf("failed to decode image config: %w", err)
	}
	return cfg.Width, cfg.Height, nil
}

// Rendition is one transcoded output buffer plus its actual dimensions.
type Rendition struct {
	Data   []byte
	Width  int
	Height int
}

// Transcode resizes src per the rule and re-encodes it in the same format
// as the input mime type. A nil, nil return means the rule declined the
// tier (bounding-box on a source already inside the box); it is not an
// error and the tier is simply omitted from the set.
func Transcode(src image.Image, mimeType string, rule SizeRule) (*Rendition, error) {
	bounds := src.Bounds()
	w, h, ok := rule.TargetSize(bounds.Dx(), bounds.Dy())
	if !ok {
		return nil, nil
	}

	out := src
	if w != bounds.Dx() || h != bounds.Dy() {
		out = imaging.Resize(src, w, h, imaging.Lanczos)
	}

	data, err := encode(out, mimeType, rule.Quality)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s tier: %w", rule.Tier, err)
	}

	return &Rendition{Data: data, Width: w, Height: h}, nil
}

// encode re-encodes in the source format. Quality applies to the lossy
// encoders; PNG defines its own behavior and ignores it.
func encode(img image.Image, mimeType string, quality int) ([]byte, error) {
	var buf bytes.Buffer

	switch mimeType {
	case MimeJPEG:
		if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
			return nil, err
		}
	case MimePNG:
		if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
			return nil, err
		}
	case MimeWebP:
		opts, err := encoder.NewLossyEncoderOptions(encoder.PresetDefault, float32(quality))
		if err != nil {
			return nil, fmt.Errorf("failed to build webp encoder options: %w", err)
		}
		if err := webp.Encode(&buf, img, opts); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, mimeType)
	}

	return buf.Bytes(), nil
}
