// Package compositor owns the fixed-resolution drawing surface the export
// session renders slides onto. Slides are blitted aspect-fill (cover,
// center-cropped) so the master never shows letterboxing.
package compositor

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"

	xdraw "golang.org/x/image/draw"
)

// Master resolution of the drawing surface. 1920x1080 is the broadcast
// default; callers may size the canvas differently for portrait output.
const (
	MasterWidth  = 1920
	MasterHeight = 1080
)

// Bitmap is one decoded slide image, exclusively owned by an export session.
// The scaled frame is cached after the first draw, so redrawing the same
// slide on every render tick costs a single memcpy check.
type Bitmap struct {
	src      image.Image
	scaled   *image.RGBA
	released bool
}

// Decode parses encoded image bytes (PNG or JPEG) into a Bitmap.
func Decode(data []byte) (*Bitmap, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode slide image: %w", err)
	}
	return NewBitmap(img), nil
}

// NewBitmap wraps an already decoded image.
func NewBitmap(img image.Image) *Bitmap {
	return &Bitmap{src: img}
}

// Release frees the pixel data. Safe to call more than once; drawing a
// released bitmap is an error.
func (b *Bitmap) Release() {
	b.src = nil
	b.scaled = nil
	b.released = true
}

// Released reports whether the bitmap has been freed.
func (b *Bitmap) Released() bool { return b.released }

// scaledTo returns the bitmap scaled aspect-fill to the target rectangle,
// computing and caching it on first use.
func (b *Bitmap) scaledTo(target image.Rectangle) *image.RGBA {
	if b.scaled != nil && b.scaled.Bounds() == target {
		return b.scaled
	}

	srcBounds := b.src.Bounds()
	srcW, srcH := srcBounds.Dx(), srcBounds.Dy()
	dstW, dstH := target.Dx(), target.Dy()

	// Center-crop the source to the target aspect ratio, then scale the
	// crop to fill the target exactly.
	crop := srcBounds
	if srcW*dstH > dstW*srcH {
		cropW := srcH * dstW / dstH
		x0 := srcBounds.Min.X + (srcW-cropW)/2
		crop = image.Rect(x0, srcBounds.Min.Y, x0+cropW, srcBounds.Max.Y)
	} else if srcW*dstH < dstW*srcH {
		cropH := srcW * dstH / dstW
		y0 := srcBounds.Min.Y + (srcH-cropH)/2
		crop = image.Rect(srcBounds.Min.X, y0, srcBounds.Max.X, y0+cropH)
	}

	dst := image.NewRGBA(target)
	xdraw.ApproxBiLinear.Scale(dst, target, b.src, crop, xdraw.Src, nil)
	b.scaled = dst
	return dst
}

// Canvas is the drawing surface. It is driven by a single render loop and
// is not safe for concurrent use.
type Canvas struct {
	frame *image.RGBA
	last  *Bitmap
}

// NewCanvas creates a canvas at the given resolution, defaulting to the
// master resolution for non-positive dimensions.
func NewCanvas(width, height int) *Canvas {
	if width <= 0 || height <= 0 {
		width, height = MasterWidth, MasterHeight
	}
	return &Canvas{frame: image.NewRGBA(image.Rect(0, 0, width, height))}
}

// Draw blits the bitmap aspect-fill onto the surface. Drawing the bitmap
// that is already on the surface is a no-op, so render ticks that outpace
// slide changes stay cheap.
func (c *Canvas) Draw(b *Bitmap) error {
	if b == nil {
		return fmt.Errorf("draw: nil bitmap")
	}
	if b.Released() {
		return fmt.Errorf("draw: bitmap already released")
	}
	if c.last == b {
		return nil
	}
	scaled := b.scaledTo(c.frame.Bounds())
	copy(c.frame.Pix, scaled.Pix)
	c.last = b
	return nil
}

// Frame exposes the surface pixels for capture. The returned image is the
// live backing store, valid until the next Draw.
func (c *Canvas) Frame() *image.RGBA { return c.frame }

// Width and Height report the fixed surface dimensions.
func (c *Canvas) Width() int  { return c.frame.Bounds().Dx() }
func (c *Canvas) Height() int { return c.frame.Bounds().Dy() }
