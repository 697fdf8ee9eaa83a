package export

import (
	"image"
	"image/color"
	"testing"
)

// stripes paints each pixel row with a color derived from its y
// coordinate so slices can be traced back to their source rows.
func stripes(width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		c := color.RGBA{R: uint8(y % 256), G: uint8((y / 256) % 256), B: 0, A: 255}
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func TestPaginateBandHeightsSumToBitmapHeight(t *testing.T) {
	cases := []struct {
		height, band, pages int
	}{
		{1000, 300, 4},
		{900, 300, 3},
		{299, 300, 1},
		{300, 300, 1},
		{301, 300, 2},
		{1, 300, 1},
	}
	for _, tc := range cases {
		bands, err := Paginate(stripes(40, tc.height), tc.band)
		if err != nil {
			t.Fatalf("height %d: %v", tc.height, err)
		}
		if len(bands) != tc.pages {
			t.Fatalf("height %d band %d: pages = %d, want %d", tc.height, tc.band, len(bands), tc.pages)
		}
		total := 0
		for _, b := range bands {
			total += b.Height
		}
		if total != tc.height {
			t.Fatalf("height %d: band heights sum to %d", tc.height, total)
		}
		last := bands[len(bands)-1]
		wantLast := tc.height - (tc.pages-1)*tc.band
		if last.Height != wantLast {
			t.Fatalf("height %d: final band height = %d, want %d", tc.height, last.Height, wantLast)
		}
	}
}

func TestPaginateNoRowDuplicatedOrDropped(t *testing.T) {
	src := stripes(8, 750)
	bands, err := Paginate(src, 200)
	if err != nil {
		t.Fatal(err)
	}
	y := 0
	for bi, band := range bands {
		if band.Offset != y {
			t.Fatalf("band %d offset = %d, want %d", bi, band.Offset, y)
		}
		for row := 0; row < band.Height; row++ {
			want := src.At(0, y)
			got := band.Image.At(0, row)
			if want != got {
				t.Fatalf("band %d row %d: pixel mismatch (source y=%d)", bi, row, y)
			}
			y++
		}
	}
	if y != 750 {
		t.Fatalf("reconstructed height = %d", y)
	}
}

func TestPaginateRejectsBadInput(t *testing.T) {
	if _, err := Paginate(stripes(10, 10), 0); err == nil {
		t.Fatalf("zero band height accepted")
	}
	if _, err := Paginate(image.NewRGBA(image.Rect(0, 0, 0, 0)), 100); err == nil {
		t.Fatalf("empty bitmap accepted")
	}
}
