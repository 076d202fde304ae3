// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package imaging inspects uploaded cover images. It reads only the image
// header, so probing a large file does not decode its pixels.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder

	_ "golang.org/x/image/webp" // register WebP decoder
)

// MaxDimension is the largest width or height accepted for a cover image.
const MaxDimension = 10000

var (
	// ErrUnsupported is returned for data that is not a decodable image.
	ErrUnsupported = errors.New("imaging: unsupported image")
	// ErrTooLarge is returned for images exceeding MaxDimension.
	ErrTooLarge = errors.New("imaging: image dimensions too large")
)

// Info describes a probed image.
type Info struct {
	Format string // "jpeg", "png", "gif" or "webp"
	Width  int
	Height int
}

// Probe reads the dimensions and format of an encoded image.
func Probe(data []byte) (Info, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Info{}, fmt.Errorf("%w: %v", ErrUnsupported, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return Info{}, ErrUnsupported
	}
	if cfg.Width > MaxDimension || cfg.Height > MaxDimension {
		return Info{}, fmt.Errorf("%w: %dx%d", ErrTooLarge, cfg.Width, cfg.Height)
	}
	return Info{Format: format, Width: cfg.Width, Height: cfg.Height}, nil
}
