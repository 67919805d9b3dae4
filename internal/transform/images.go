package transform

import (
	"bytes"
	"context"
	"image"
	"image/jpeg"
	"image/png"
	"path"
	"strings"

	"github.com/vango-dev/sitepipe/internal/errors"
	"github.com/vango-dev/sitepipe/internal/pipeline"
)

// ImageOptions configures image optimization.
type ImageOptions struct {
	// Level is the PNG optimization level, 0-7. Zero leaves PNGs untouched.
	Level int

	// Quality is the JPEG quality, 1-100. Zero leaves JPEGs untouched.
	Quality int
}

// Images returns a stage re-encoding PNG and JPEG files. A file keeps its
// original bytes when the re-encoded version would not be smaller, so
// running the stage twice never grows an image.
func Images(opts ImageOptions) pipeline.Stage {
	return pipeline.Each(func(_ context.Context, f *pipeline.File) (*pipeline.File, error) {
		var (
			out []byte
			err error
		)
		switch strings.ToLower(path.Ext(f.Path)) {
		case ".png":
			if opts.Level <= 0 {
				return f, nil
			}
			out, err = optimizePNG(f.Contents, opts.Level)
		case ".jpg", ".jpeg":
			if opts.Quality <= 0 {
				return f, nil
			}
			out, err = optimizeJPEG(f.Contents, opts.Quality)
		default:
			return f, nil
		}
		if err != nil {
			return nil, errors.New("E305").WithDetail(f.Source).Wrap(err)
		}
		if len(out) < len(f.Contents) {
			f.Contents = out
		}
		return f, nil
	})
}

func optimizePNG(data []byte, level int) ([]byte, error) {
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	enc := png.Encoder{CompressionLevel: png.BestSpeed}
	if level >= 3 {
		enc.CompressionLevel = png.BestCompression
	}
	var buf bytes.Buffer
	if err := enc.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func optimizeJPEG(data []byte, quality int) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
