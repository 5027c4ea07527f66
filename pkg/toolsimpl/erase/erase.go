// Package erase implements the erase tool. It is imported only by
// pkg/toolrunner, the isolated child process entrypoint.
package erase

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"
)

//pathtool:name=erase input=input_path output=return requires=region:Text
// erases a rectangular region from an image, writing a flat fill in its
// place. region is a "x,y,w,h" literal; a real implementation would take
// a mask instead of a rectangle, but the ImageFile-in/ImageFile-out
// contract stays fixed.
func Erase(input_path string, region string) (map[string]any, error) {
	f, err := os.Open(input_path)
	if err != nil {
		return nil, fmt.Errorf("erase: opening %s: %w", input_path, err)
	}
	defer f.Close()

	src, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("erase: decoding %s: %w", input_path, err)
	}

	rect := parseRegion(region, src.Bounds())

	out := image.NewRGBA(src.Bounds())
	draw.Draw(out, out.Bounds(), src, src.Bounds().Min, draw.Src)
	draw.Draw(out, rect, &image.Uniform{C: color.White}, image.Point{}, draw.Src)

	var buf bytes.Buffer
	if err := png.Encode(&buf, out); err != nil {
		return nil, fmt.Errorf("erase: encoding result: %w", err)
	}

	outPath := input_path + ".erased.png"
	if err := os.WriteFile(outPath, buf.Bytes(), 0o644); err != nil {
		return nil, fmt.Errorf("erase: writing %s: %w", outPath, err)
	}

	return map[string]any{
		"return": outPath,
	}, nil
}

func parseRegion(region string, bounds image.Rectangle) image.Rectangle {
	var x, y, w, h int
	if _, err := fmt.Sscanf(region, "%d,%d,%d,%d", &x, &y, &w, &h); err != nil {
		return bounds
	}
	r := image.Rect(x, y, x+w, y+h)
	return r.Intersect(bounds)
}
