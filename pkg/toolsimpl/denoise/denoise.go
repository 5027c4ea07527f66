// Package denoise implements the denoise tool. Imported only by
// pkg/toolrunner.
package denoise

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
)

//pathtool:name=denoise input=input_path output=return requires=strength:Text
// applies a 3x3 median filter to suppress speckle noise. strength
// selects the number of passes ("low"=1, "high"=3, anything else=2).
func Denoise(input_path string, strength string) (map[string]any, error) {
	if strength == "" {
		strength = "medium"
	}

	f, err := os.Open(input_path)
	if err != nil {
		return nil, fmt.Errorf("denoise: opening %s: %w", input_path, err)
	}
	defer f.Close()

	src, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("denoise: decoding %s: %w", input_path, err)
	}

	passes := passesFor(strength)
	var out image.Image = src
	for i := 0; i < passes; i++ {
		out = medianFilter(out)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, out); err != nil {
		return nil, fmt.Errorf("denoise: encoding result: %w", err)
	}

	outPath := input_path + ".denoised.png"
	if err := os.WriteFile(outPath, buf.Bytes(), 0o644); err != nil {
		return nil, fmt.Errorf("denoise: writing %s: %w", outPath, err)
	}

	return map[string]any{
		"return": outPath,
	}, nil
}

func passesFor(strength string) int {
	switch strength {
	case "low":
		return 1
	case "high":
		return 3
	default:
		return 2
	}
}

func medianFilter(src image.Image) *image.RGBA {
	bounds := src.Bounds()
	out := image.NewRGBA(bounds)

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			var rs, gs, bs, as [9]uint32
			n := 0
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					px, py := x+dx, y+dy
					if px < bounds.Min.X || px >= bounds.Max.X || py < bounds.Min.Y || py >= bounds.Max.Y {
						px, py = x, y
					}
					r, g, b, a := src.At(px, py).RGBA()
					rs[n], gs[n], bs[n], as[n] = r, g, b, a
					n++
				}
			}
			sortUint32(rs[:n])
			sortUint32(gs[:n])
			sortUint32(bs[:n])
			sortUint32(as[:n])
			mid := n / 2
			out.Set(x, y, color.RGBA64{
				R: uint16(rs[mid]),
				G: uint16(gs[mid]),
				B: uint16(bs[mid]),
				A: uint16(as[mid]),
			})
		}
	}
	return out
}

func sortUint32(s []uint32) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j-1] > s[j]; j-- {
			s[j-1], s[j] = s[j], s[j-1]
		}
	}
}
