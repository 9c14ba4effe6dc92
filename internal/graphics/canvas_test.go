package graphics

import (
	"testing"
	"unsafe"

	"cinder/internal/bootinfo"
)

func testFramebuffer(t *testing.T, width, height int, format bootinfo.PixelFormat) (bootinfo.Framebuffer, []byte) {
	t.Helper()
	buf := make([]byte, width*height*4)
	fb := bootinfo.Framebuffer{
		Addr:          uintptr(unsafe.Pointer(&buf[0])),
		Width:         width,
		Height:        height,
		Stride:        width,
		BytesPerPixel: 4,
		Format:        format,
	}
	t.Cleanup(func() { _ = buf })
	return fb, buf
}

func TestFillRectPacksBGROrder(t *testing.T) {
	fb, buf := testFramebuffer(t, 4, 4, bootinfo.PixelBGR)
	cv := NewCanvas(fb)
	cv.FillRect(1, 1, 2, 2, Color{R: 10, G: 20, B: 30})

	offset := 1*fb.Stride*fb.BytesPerPixel + 1*fb.BytesPerPixel
	if buf[offset] != 30 || buf[offset+1] != 20 || buf[offset+2] != 10 {
		t.Fatalf("pixel at (1,1) = %v, want BGR order [30 20 10 ...]", buf[offset:offset+4])
	}
}

func TestFillRectPacksRGBOrder(t *testing.T) {
	fb, buf := testFramebuffer(t, 4, 4, bootinfo.PixelRGB)
	cv := NewCanvas(fb)
	cv.FillRect(0, 0, 1, 1, Color{R: 10, G: 20, B: 30})

	if buf[0] != 10 || buf[1] != 20 || buf[2] != 30 {
		t.Fatalf("pixel at (0,0) = %v, want RGB order [10 20 30 ...]", buf[0:4])
	}
}

func TestFillRectOutOfBoundsIsNoop(t *testing.T) {
	fb, buf := testFramebuffer(t, 2, 2, bootinfo.PixelBGR)
	cv := NewCanvas(fb)
	cv.FillRect(10, 10, 4, 4, Color{R: 255, G: 255, B: 255})

	for i, b := range buf {
		if b != 0 {
			t.Fatalf("buf[%d] = %d, want 0 (out-of-bounds fill touched the buffer)", i, b)
		}
	}
}

func TestDrawCursorGlyphFillsCell(t *testing.T) {
	fb, buf := testFramebuffer(t, 16, 16, bootinfo.PixelBGR)
	cv := NewCanvas(fb)
	cv.DrawCursorGlyph(0, 0, 8, 16, Color{R: 1, G: 2, B: 3}, Color{R: 9, G: 9, B: 9})
	// The 8x16 cell is filled with bg, and the 1-pixel bar at x = 4 is fg
	// (BGR byte order).
	if buf[0] != 9 || buf[1] != 9 || buf[2] != 9 {
		t.Fatalf("pixel at (0,0) = %v, want background [9 9 9 ...]", buf[0:4])
	}
	bar := 4 * fb.BytesPerPixel
	if buf[bar] != 3 || buf[bar+1] != 2 || buf[bar+2] != 1 {
		t.Fatalf("pixel at (4,0) = %v, want cursor bar [3 2 1 ...]", buf[bar:bar+4])
	}
	if w, h := cv.Dimensions(); w != 16 || h != 16 {
		t.Fatalf("Dimensions() = (%d, %d), want (16, 16)", w, h)
	}
}
