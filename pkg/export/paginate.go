package export

import (
	"fmt"
	"image"
	"image/draw"
)

// Band is one horizontal slice of the rasterized dashboard,
// corresponding to one output page.
type Band struct {
	Image  image.Image
	Offset int
	Height int
}

// Paginate slices the bitmap into bands of at most bandHeight pixel
// rows. The final band holds whatever remains, so the band heights sum
// to exactly the bitmap height: no row is duplicated or dropped.
func Paginate(img image.Image, bandHeight int) ([]Band, error) {
	if bandHeight <= 0 {
		return nil, fmt.Errorf("export: band height must be positive, got %d", bandHeight)
	}
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	if width == 0 || height == 0 {
		return nil, fmt.Errorf("export: empty bitmap %dx%d", width, height)
	}

	pages := (height + bandHeight - 1) / bandHeight
	bands := make([]Band, 0, pages)
	for offset := 0; offset < height; offset += bandHeight {
		h := bandHeight
		if remaining := height - offset; remaining < h {
			h = remaining
		}
		slice := image.NewRGBA(image.Rect(0, 0, width, h))
		src := image.Pt(bounds.Min.X, bounds.Min.Y+offset)
		draw.Draw(slice, slice.Bounds(), img, src, draw.Src)
		bands = append(bands, Band{Image: slice, Offset: offset, Height: h})
	}
	return bands, nil
}
