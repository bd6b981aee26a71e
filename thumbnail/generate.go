// Copyright 2026 RetailNext, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package thumbnail

import (
	"bytes"
	"context"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"

	"github.com/retailnext/imghostuploader/paranoid"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

const jpegQuality = 85

// NewGenerator returns a Generator that decodes the image, scales it to fit
// a maxEdge bounding box preserving aspect ratio, and encodes JPEG.
func NewGenerator(maxEdge int) Generator {
	return func(ctx context.Context, file paranoid.File) (*Thumbnail, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		osFile, err := file.Open()
		if err != nil {
			return nil, &GenerationError{Path: file.Name(), Err: err}
		}
		defer func() {
			if closeErr := osFile.Close(); closeErr != nil {
				panic(closeErr)
			}
		}()

		src, _, err := image.Decode(osFile)
		if err != nil {
			return nil, &GenerationError{Path: file.Name(), Err: err}
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		bounds := src.Bounds()
		width, height := fitBox(bounds.Dx(), bounds.Dy(), maxEdge)
		dst := image.NewRGBA(image.Rect(0, 0, width, height))
		draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, bounds, draw.Src, nil)

		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: jpegQuality}); err != nil {
			return nil, &GenerationError{Path: file.Name(), Err: err}
		}
		return &Thumbnail{
			Data:   buf.Bytes(),
			Width:  width,
			Height: height,
		}, nil
	}
}

func fitBox(width, height, maxEdge int) (int, int) {
	if width <= maxEdge && height <= maxEdge {
		return width, height
	}
	if width >= height {
		scaled := height * maxEdge / width
		if scaled < 1 {
			scaled = 1
		}
		return maxEdge, scaled
	}
	scaled := width * maxEdge / height
	if scaled < 1 {
		scaled = 1
	}
	return scaled, maxEdge
}
