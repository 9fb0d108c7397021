package cli

import (
	"bytes"
	"context"
	"image/color"
	"io"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"

	"github.com/piwi3910/StampPaper/internal/config"
	"github.com/piwi3910/StampPaper/internal/model"
)

// newTestCLI returns a CLI whose config file lives in a temp dir and lays
// out on a 100x100 px sheet without margins.
func newTestCLI(t *testing.T) *CLI {
	t.Helper()
	dir := t.TempDir()

	c := New(io.Discard, LogInfo)
	c.ConfigPath = filepath.Join(dir, "config.toml")

	cfg := model.DefaultAppConfig()
	cfg.Layout.PaperWidth = 100
	cfg.Layout.PaperHeight = 100
	cfg.Layout.PixelsPerMM = 1
	cfg.Layout.MarginX = 0
	cfg.Layout.MarginY = 0
	cfg.Layout.OutputDir = filepath.Join(dir, "out")
	cfg.InboxDir = filepath.Join(dir, "inbox")
	if err := config.SaveAppConfig(c.ConfigPath, cfg); err != nil {
		t.Fatalf("SaveAppConfig: %v", err)
	}
	c.Config = cfg

	t.Cleanup(func() { model.CustomPaperProfiles = nil })
	return c
}

// execute runs the root command with args and returns what it printed.
func execute(t *testing.T, c *CLI, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := c.RootCommand()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func writeImage(t *testing.T, path string, w, h int) {
	t.Helper()
	img := imaging.New(w, h, color.NRGBA{R: 200, G: 40, B: 40, A: 255})
	if err := imaging.Save(img, path); err != nil {
		t.Fatalf("imaging.Save(%s): %v", path, err)
	}
}

// writeSquares writes n square images named s0.png, s1.png, ... into dir.
func writeSquares(t *testing.T, dir string, n, size int) {
	t.Helper()
	for i := 0; i < n; i++ {
		writeImage(t, filepath.Join(dir, "s"+string(rune('0'+i))+".png"), size, size)
	}
}
