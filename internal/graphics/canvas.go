// Package graphics gives the terminal application the minimal drawing
// primitives it needs over the raw framebuffer: a filled rectangle and a
// cursor glyph. The full pixel renderer and font rasterization pipeline
// are the named external collaborator (spec §1 "Out of scope"); this
// package only rasterizes the command-bar block and cursor cinder's own
// terminal draws (§6 Terminal CLI), the same narrow slice of drawing the
// teacher kernel's colors.go/framebuffer_text.go give their own
// block-cursor and glyph helpers, built here on the teacher's domain
// dependency (github.com/fogleman/gg) instead of hand-written pixel
// pokes, since §3 of SPEC_FULL.md wires that dependency into exactly
// this component.
package graphics

import (
	"image"
	"unsafe"

	"github.com/fogleman/gg"

	"cinder/internal/bootinfo"
)

// Color is an opaque RGB color, packed the same way spec §6 describes the
// framebuffer itself: (B, G, R, 255) ordering is a framebuffer storage
// detail Canvas hides behind this type.
type Color struct {
	R, G, B uint8
}

// Canvas wraps the bootloader-supplied framebuffer in an image.RGBA view
// so gg.Context can rasterize into it directly, with no intermediate
// copy: the view's Pix slice aliases the framebuffer's own memory.
type Canvas struct {
	fb  bootinfo.Framebuffer
	img *image.RGBA
	ctx *gg.Context
}

// NewCanvas builds a Canvas over fb. Only PixelBGR and PixelRGB formats
// with BytesPerPixel==4 are supported by the minimal primitives this
// package exposes; anything else is the renderer's job (out of scope).
func NewCanvas(fb bootinfo.Framebuffer) *Canvas {
	stride := fb.Stride * fb.BytesPerPixel
	size := stride * fb.Height
	pix := unsafe.Slice((*byte)(unsafe.Pointer(fb.Addr)), size)

	img := &image.RGBA{
		Pix:    pix,
		Stride: stride,
		Rect:   image.Rect(0, 0, fb.Width, fb.Height),
	}
	return &Canvas{fb: fb, img: img, ctx: gg.NewContextForRGBA(img)}
}

// pack writes c into the framebuffer's native byte order at (x, y),
// honoring §6's "(B,G,R,255) packed into bytes_per_pixel bytes" contract
// directly, bypassing gg for the one place byte order actually matters.
func (cv *Canvas) pack(x, y int, c Color) {
	if x < 0 || y < 0 || x >= cv.fb.Width || y >= cv.fb.Height {
		return
	}
	offset := y*cv.fb.Stride*cv.fb.BytesPerPixel + x*cv.fb.BytesPerPixel
	row := unsafe.Slice((*byte)(unsafe.Pointer(cv.fb.Addr+uintptr(offset))), cv.fb.BytesPerPixel)
	switch cv.fb.Format {
	case bootinfo.PixelRGB:
		row[0], row[1], row[2] = c.R, c.G, c.B
	default: // PixelBGR and anything else fall back to the common BGR order
		row[0], row[1], row[2] = c.B, c.G, c.R
	}
	if cv.fb.BytesPerPixel > 3 {
		row[3] = 255
	}
}

// FillRect fills the pixel rectangle [x, x+w) x [y, y+h) with c, used by
// the terminal to redraw a character cell's background before drawing a
// glyph or cursor over it.
func (cv *Canvas) FillRect(x, y, w, h int, c Color) {
	cv.ctx.SetRGB255(int(c.R), int(c.G), int(c.B))
	cv.ctx.DrawRectangle(float64(x), float64(y), float64(w), float64(h))
	cv.ctx.Fill()
	// gg's Fill composites through image/draw, which respects the RGBA
	// view's byte order already, but the framebuffer's native layout
	// (§6) may not be RGBA — repack every covered pixel through pack so
	// BGR/other formats still come out correct.
	for py := y; py < y+h; py++ {
		for px := x; px < x+w; px++ {
			cv.pack(px, py, c)
		}
	}
}

// DrawCursorGlyph draws the fixed-width terminal cursor ('|') as a thin
// filled bar at cell (cellX, cellY) in charW x charH pixel cells, colored
// fg over a bg-filled cell — the one glyph cinder draws itself rather
// than delegating to the font rasterizer (§6 Terminal CLI, E3).
func (cv *Canvas) DrawCursorGlyph(cellX, cellY, charW, charH int, fg, bg Color) {
	x, y := cellX*charW, cellY*charH
	cv.FillRect(x, y, charW, charH, bg)
	barWidth := charW / 8
	if barWidth < 1 {
		barWidth = 1
	}
	cv.FillRect(x+charW/2-barWidth/2, y, barWidth, charH, fg)
}

// Dimensions returns the framebuffer's size in pixels.
func (cv *Canvas) Dimensions() (width, height int) {
	return cv.fb.Width, cv.fb.Height
}
