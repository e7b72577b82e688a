package records

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"

	"golang.org/x/image/draw"
)

const (
	// MaxPictureBytes is the largest accepted profile picture upload.
	MaxPictureBytes = 5 * 1024 * 1024
	// MaxPicturePixels bounds width*height of an upload. Compressed size says
	// little about decoded size, so this is checked before decoding.
	MaxPicturePixels = 40_000_000
	// ThumbnailSize bounds the longer side of a stored profile picture.
	ThumbnailSize = 200

	thumbnailQuality = 70
)

// ErrPictureTooLarge is returned for uploads above MaxPictureBytes or MaxPicturePixels.
var ErrPictureTooLarge = errors.New("picture too large")

// Thumbnail decodes a JPEG, PNG or GIF image from r, scales it so neither
// side exceeds ThumbnailSize, and returns it as a JPEG data URL suitable for
// Patient.ProfilePicture.
func Thumbnail(r io.Reader) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxPictureBytes+1))
	if err != nil {
		return "", fmt.Errorf("failed to read picture: %w", err)
	}
	if len(data) > MaxPictureBytes {
		return "", fmt.Errorf("%w: more than %d bytes", ErrPictureTooLarge, MaxPictureBytes)
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to decode picture: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > MaxPicturePixels {
		return "", fmt.Errorf("%w: %dx%d pixels", ErrPictureTooLarge, cfg.Width, cfg.Height)
	}
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to decode picture: %w", err)
	}

	dst := scaleToFit(src, ThumbnailSize)
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: thumbnailQuality}); err != nil {
		return "", fmt.Errorf("failed to encode thumbnail: %w", err)
	}
	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// scaleToFit returns src scaled down with Catmull-Rom resampling, preserving
// aspect ratio, so that its longer side is at most limit.
func scaleToFit(src image.Image, limit int) image.Image {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= limit && h <= limit {
		return src
	}
	dw, dh := limit, limit
	if w > h {
		dh = max(h*limit/w, 1)
	} else {
		dw = max(w*limit/h, 1)
	}
	dst := image.NewRGBA(image.Rect(0, 0, dw, dh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)
	return dst
}
