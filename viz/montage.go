// Copyright 2026 The BayesMoons Authors. SPDX-License-Identifier: Apache-2.0

package viz

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
)

// Montage loads the given image files, resizes them to a common height and
// pastes them onto a white canvas, columns across, saving the result to
// outPath. Used to combine the predictive surfaces into one figure.
func Montage(paths []string, columns int, outPath string) error {
	if len(paths) == 0 {
		return errors.New("montage needs at least one image")
	}
	if columns <= 0 || columns > len(paths) {
		columns = len(paths)
	}

	panels := make([]image.Image, len(paths))
	height := 0
	for i, path := range paths {
		img, err := imaging.Open(path)
		if err != nil {
			return errors.Wrapf(err, "opening montage panel %q", path)
		}
		if h := img.Bounds().Dy(); height == 0 || h < height {
			height = h
		}
		panels[i] = img
	}

	cellWidth := 0
	for i, img := range panels {
		if img.Bounds().Dy() != height {
			// Zero width keeps the aspect ratio.
			img = imaging.Resize(img, 0, height, imaging.Lanczos)
			panels[i] = img
		}
		if w := img.Bounds().Dx(); w > cellWidth {
			cellWidth = w
		}
	}

	rows := (len(panels) + columns - 1) / columns
	canvas := imaging.New(columns*cellWidth, rows*height, color.White)
	for i, img := range panels {
		x := (i%columns)*cellWidth + (cellWidth-img.Bounds().Dx())/2
		y := (i / columns) * height
		canvas = imaging.Paste(canvas, img, image.Pt(x, y))
	}

	if err := imaging.Save(canvas, outPath); err != nil {
		return errors.Wrapf(err, "saving montage to %q", outPath)
	}
	return nil
}
