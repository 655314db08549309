package thumbnail

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
)

// RenderDPI corresponds to a 1.5 scale over the 72 DPI PDF user space.
const RenderDPI = 108

// Rasterizer renders the first page of a PDF document.
type Rasterizer interface {
	FirstPage(ctx context.Context, pdf []byte) (image.Image, error)
}

// Pdftoppm 调用 poppler 的 pdftoppm 渲染首页，每次调用使用独立的临时目录。
type Pdftoppm struct {
	Path string
	DPI  int
}

// NewPdftoppm returns a rasterizer using the binary at path.
func NewPdftoppm(path string) *Pdftoppm {
	if path == "" {
		path = "pdftoppm"
	}
	return &Pdftoppm{Path: path, DPI: RenderDPI}
}

// Available reports whether the binary can be found.
func (p *Pdftoppm) Available() error {
	if _, err := exec.LookPath(p.Path); err != nil {
		return fmt.Errorf("missing required binary %q in PATH: %w", p.Path, err)
	}
	return nil
}

func (p *Pdftoppm) FirstPage(ctx context.Context, pdf []byte) (image.Image, error) {
	workDir, err := os.MkdirTemp("", "tribuna-thumb-*")
	if err != nil {
		return nil, fmt.Errorf("create work dir: %w", err)
	}
	defer os.RemoveAll(workDir)

	input := filepath.Join(workDir, "input.pdf")
	if err := os.WriteFile(input, pdf, 0o600); err != nil {
		return nil, fmt.Errorf("write pdf: %w", err)
	}

	dpi := p.DPI
	if dpi <= 0 {
		dpi = RenderDPI
	}
	prefix := filepath.Join(workDir, "cover")
	args := []string{"-r", strconv.Itoa(dpi), "-png", "-f", "1", "-l", "1", "-singlefile", input, prefix}

	cmd := exec.CommandContext(ctx, p.Path, args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("pdftoppm failed: %w; out=%s", err, string(out))
	}

	rendered, err := os.ReadFile(prefix + ".png")
	if err != nil {
		return nil, fmt.Errorf("no image produced by pdftoppm: %w", err)
	}
	img, err := png.Decode(bytes.NewReader(rendered))
	if err != nil {
		return nil, fmt.Errorf("decode rendered page: %w", err)
	}
	return img, nil
}
