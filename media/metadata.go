package media

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/rwcarlsen/goexif/exif"
)

// CaptureInfo holds the optional EXIF facts recorded alongside a media
// record. Everything is nullable; non-photographic assets carry none of it.
type CaptureInfo struct {
	TakenAt     *int64  `json:"taken_at,omitempty"`
	CameraMake  *string `json:"camera_make,omitempty"`
	CameraModel *string `json:"camera_model,omitempty"`
}

// ReadCaptureInfo extracts capture metadata from an image buffer.
// Best-effort: images without EXIF (PNG, WebP, stripped JPEG) yield an
// empty struct.
func ReadCaptureInfo(data []byte) CaptureInfo {
	var info CaptureInfo

	exifData, err := exif.Decode(bytes.NewReader(data))
	if err != nil || exifData == nil {
		return info
	}

	if t, err := exifData.DateTime(); err == nil {
		unix := t.Unix()
		info.TakenAt = &unix
	}
	info.CameraMake = getExifString(exifData, exif.Make)
	info.CameraModel = getExifString(exifData, exif.Model)

	return info
}

// getExifString safely reads a string tag, trimming null terminators
func getExifString(exifData *exif.Exif, tagName exif.FieldName) *string {
	tag, err := exifData.Get(tagName)
	if err != nil || tag == nil {
		return nil
	}
	val := strings.TrimRight(strings.Trim(tag.String(), `"`), "\x00")
	val = strings.TrimSpace(val)
	if val == "" {
		return nil
	}
	return &val
}

// ProbeDimensions re-derives pixel dimensions from stored original bytes
// without re-encoding. The image header is tried first; for JPEGs whose
// header defeats DecodeConfig the EXIF pixel dimension tags are a fallback.
func ProbeDimensions(data []byte) (int, int, error) {
	w, h, err := DecodeDimensions(data)
	if err == nil && w > 0 && h > 0 {
		return w, h, nil
	}

	exifData, exifErr := exif.Decode(bytes.NewReader(data))
	if exifErr == nil && exifData != nil {
		ew := getExifInt(exifData, exif.PixelXDimension)
		eh := getExifInt(exifData, exif.PixelYDimension)
		if ew != nil && eh != nil && *ew > 0 && *eh > 0 {
			return *ew, *eh, nil
		}
	}

	if err == nil {
		err = fmt.Errorf("image reported non-positive dimensions")
	}
	return 0, 0, fmt.Errorf("failed to probe dimensions: %w", err)
}

// getExifInt safely reads an integer tag
func getExifInt(exifData *exif.Exif, tagName exif.FieldName) *int {
	tag, err := exifData.Get(tagName)
	if err != nil || tag == nil {
		return nil
	}
	val, err := tag.Int(0)
	if err != nil {
		return nil
	}
	return &val
}
