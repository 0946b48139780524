// Package render draws images in the terminal, one coloured cell per pixel.
package render

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/term"
	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

const (
	fallbackWidth  = 80
	fallbackHeight = 24
)

type Renderer struct {
	out   io.Writer
	style *lipgloss.Renderer
	size  func() (width, height int)
}

func New(out io.Writer) *Renderer {
	return &Renderer{
		out:   out,
		style: lipgloss.NewRenderer(out),
		size:  terminalSize(out),
	}
}

// Render decodes data and prints it scaled down to fit the terminal, one
// row short of its height. Images are never scaled up.
func (r *Renderer) Render(data []byte) error {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("decode image: %w", err)
	}

	cols, rows := r.size()
	w, h := fit(src.Bounds().Dx(), src.Bounds().Dy(), cols, max(rows-1, 1))
	if w == 0 || h == 0 {
		return nil
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.Black), image.Point{}, draw.Src)
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)

	var b strings.Builder
	for y := range h {
		for x := range w {
			c, _ := colorful.MakeColor(dst.RGBAAt(x, y))
			b.WriteString(r.style.NewStyle().Background(lipgloss.Color(c.Hex())).Render(" "))
		}
		b.WriteByte('\n')
	}
	_, err = io.WriteString(r.out, b.String())
	return err
}

// fit scales w×h down to fit inside maxW×maxH keeping the aspect ratio.
func fit(w, h, maxW, maxH int) (int, int) {
	if w <= 0 || h <= 0 || maxW <= 0 || maxH <= 0 {
		return 0, 0
	}
	if w <= maxW && h <= maxH {
		return w, h
	}
	if w*maxH > h*maxW {
		return maxW, max(h*maxW/w, 1)
	}
	return max(w*maxH/h, 1), maxH
}

func terminalSize(out io.Writer) func() (int, int) {
	return func() (int, int) {
		f, ok := out.(*os.File)
		if !ok {
			return fallbackWidth, fallbackHeight
		}
		w, h, err := term.GetSize(f.Fd())
		if err != nil || w <= 0 || h <= 0 {
			return fallbackWidth, fallbackHeight
		}
		return w, h
	}
}
