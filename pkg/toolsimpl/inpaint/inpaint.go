// Package inpaint implements the inpaint tool, the usual next step after
// erase in an image-repair pipeline. Imported only by pkg/toolrunner.
package inpaint

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
)

//pathtool:name=inpaint input=input_path output=return
// softens flat-colored regions left by erase by box-blurring the whole
// image (5x5 average); it does not locate the erased region. A real
// inpainting model would replace this approximation; the
// ImageFile-in/ImageFile-out contract stays fixed.
func Inpaint(input_path string) (map[string]any, error) {
	f, err := os.Open(input_path)
	if err != nil {
		return nil, fmt.Errorf("inpaint: opening %s: %w", input_path, err)
	}
	defer f.Close()

	src, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("inpaint: decoding %s: %w", input_path, err)
	}

	out := boxBlur(src, 2)

	var buf bytes.Buffer
	if err := png.Encode(&buf, out); err != nil {
		return nil, fmt.Errorf("inpaint: encoding result: %w", err)
	}

	outPath := input_path + ".inpainted.png"
	if err := os.WriteFile(outPath, buf.Bytes(), 0o644); err != nil {
		return nil, fmt.Errorf("inpaint: writing %s: %w", outPath, err)
	}

	return map[string]any{
		"return": outPath,
	}, nil
}

func boxBlur(src image.Image, radius int) *image.RGBA {
	bounds := src.Bounds()
	out := image.NewRGBA(bounds)

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			var rs, gs, bs, as, n uint32
			for dy := -radius; dy <= radius; dy++ {
				for dx := -radius; dx <= radius; dx++ {
					px, py := x+dx, y+dy
					if px < bounds.Min.X || px >= bounds.Max.X || py < bounds.Min.Y || py >= bounds.Max.Y {
						continue
					}
					r, g, b, a := src.At(px, py).RGBA()
					rs += r
					gs += g
					bs += b
					as += a
					n++
				}
			}
			if n == 0 {
				n = 1
			}
			out.Set(x, y, color.RGBA64{
				R: uint16(rs / n),
				G: uint16(gs / n),
				B: uint16(bs / n),
				A: uint16(as / n),
			})
		}
	}
	return out
}
