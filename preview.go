package nonstop

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"io"

	"github.com/golang/freetype/truetype"
	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/math/fixed"
)

const captionSize = 10.0

var errEmptyViewBox = errors.New("cannot size preview: icon has no viewBox or size")

// CheckRender reads a serialized document the way the oksvg renderer does,
// returning the error it fails with, if any.
func CheckRender(stream io.Reader) error {
	_, err := oksvg.ReadIconStream(stream, oksvg.IgnoreErrorMode)
	return err
}

// CheckDocument is CheckRender for a document in memory.
func CheckDocument(d *Document) error {
	var buf bytes.Buffer
	if _, err := d.WriteTo(&buf); err != nil {
		return err
	}
	return CheckRender(&buf)
}

// RenderPreview rasterizes a serialized document onto a white w by h image.
// A zero w or h is taken from the icon's viewBox. A non empty caption is
// written along the bottom edge.
func RenderPreview(stream io.Reader, w, h int, caption string) (*image.RGBA, error) {
	icon, err := oksvg.ReadIconStream(stream, oksvg.IgnoreErrorMode)
	if err != nil {
		return nil, fmt.Errorf("reading icon: %w", err)
	}
	if w == 0 || h == 0 {
		w, h = int(icon.ViewBox.W), int(icon.ViewBox.H)
	}
	if w <= 0 || h <= 0 {
		return nil, errEmptyViewBox
	}
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)

	icon.SetTarget(0, 0, float64(w), float64(h))
	scannerGV := rasterx.NewScannerGV(w, h, img, img.Bounds())
	raster := rasterx.NewDasher(w, h, scannerGV)
	icon.Draw(raster, 1.0)

	if caption != "" {
		if err := drawCaption(img, caption); err != nil {
			return nil, err
		}
	}
	return img, nil
}

func drawCaption(img *image.RGBA, caption string) error {
	ff, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return err
	}
	ttf := truetype.NewFace(ff, &truetype.Options{Size: captionSize})
	defer ttf.Close()

	b := img.Bounds()
	d := &font.Drawer{
		Dst:  img,
		Src:  image.Black,
		Face: ttf,
		Dot:  fixed.P(b.Min.X+2, b.Max.Y-ttf.Metrics().Descent.Ceil()-1),
	}
	d.DrawString(caption)
	return nil
}
