package game

import (
	"image"
	"image/color"
	"strconv"
	"strings"

	"github.com/fogleman/gg"
)

// CanvasImage is a raw RGBA pixel snapshot of the drawing surface,
// suitable for catching a fresh viewer up via a single image event.
type CanvasImage struct {
	Data   []byte `json:"data"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// canvas is the room's raster surface. It is mutated only through draw
// events, applied strictly in submission order, which keeps replay
// deterministic.
type canvas struct {
	ctx    *gg.Context
	width  int
	height int
}

func newCanvas(width, height int) *canvas {
	c := &canvas{ctx: gg.NewContext(width, height), width: width, height: height}
	c.apply(DrawEvent{Type: DrawFill, Color: "white"})
	return c
}

func (c *canvas) apply(event DrawEvent) {
	switch event.Type {
	case DrawLine:
		c.ctx.SetColor(parseColor(event.Color))
		c.ctx.SetLineWidth(event.Width)
		c.ctx.SetLineCap(gg.LineCapRound)
		c.ctx.DrawLine(event.X1, event.Y1, event.X2, event.Y2)
		c.ctx.Stroke()
	case DrawPath:
		if len(event.Nodes) == 0 {
			return
		}
		c.ctx.SetColor(parseColor(event.Color))
		c.ctx.SetLineWidth(event.Width)
		c.ctx.SetLineCap(gg.LineCapRound)
		c.ctx.MoveTo(event.Nodes[0].X, event.Nodes[0].Y)
		for _, node := range event.Nodes[1:] {
			c.ctx.LineTo(node.X, node.Y)
		}
		c.ctx.Stroke()
	case DrawFill:
		c.ctx.SetColor(parseColor(event.Color))
		c.ctx.Clear()
	case DrawImage:
		width, height := int(event.Width), int(event.Height)
		if width <= 0 || height <= 0 || len(event.Data) < width*height*4 {
			return
		}
		img := &image.RGBA{
			Pix:    event.Data[:width*height*4],
			Stride: width * 4,
			Rect:   image.Rect(0, 0, width, height),
		}
		c.ctx.DrawImage(img, int(event.X), int(event.Y))
	}
}

func (c *canvas) imageData() CanvasImage {
	snapshot := CanvasImage{Width: c.width, Height: c.height}
	if rgba, ok := c.ctx.Image().(*image.RGBA); ok {
		snapshot.Data = append([]byte(nil), rgba.Pix...)
	}
	return snapshot
}

var namedColors = map[string]color.RGBA{
	"white":  {R: 0xff, G: 0xff, B: 0xff, A: 0xff},
	"black":  {A: 0xff},
	"red":    {R: 0xff, A: 0xff},
	"green":  {G: 0x80, A: 0xff},
	"blue":   {B: 0xff, A: 0xff},
	"yellow": {R: 0xff, G: 0xff, A: 0xff},
}

// parseColor understands #rgb, #rrggbb and a small set of named colors.
// Anything else renders black.
func parseColor(s string) color.Color {
	s = strings.ToLower(strings.TrimSpace(s))
	if c, ok := namedColors[s]; ok {
		return c
	}
	if hex, ok := strings.CutPrefix(s, "#"); ok {
		if len(hex) == 3 {
			hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
		}
		if len(hex) == 6 {
			if v, err := strconv.ParseUint(hex, 16, 32); err == nil {
				return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}
			}
		}
	}
	return namedColors["black"]
}
