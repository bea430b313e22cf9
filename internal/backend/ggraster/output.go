package ggraster

import (
	"fmt"
	"image"
	"io"

	"github.com/disintegration/imaging"
)

// SavePNG writes the last completed frame to path. The format follows the
// file extension, so ".jpg" and ".bmp" work too.
func (c *Context) SavePNG(path string) error {
	img, err := c.Image()
	if err != nil {
		return err
	}
	if err := imaging.Save(img, path); err != nil {
		return fmt.Errorf("gg: save %s: %w", path, err)
	}
	return nil
}

func encodePNG(w io.Writer, img image.Image) error {
	if err := imaging.Encode(w, img, imaging.PNG); err != nil {
		return fmt.Errorf("gg: encode png: %w", err)
	}
	return nil
}
