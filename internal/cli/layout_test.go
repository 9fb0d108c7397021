package cli

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/piwi3910/StampPaper/internal/ledger"
	"github.com/piwi3910/StampPaper/internal/store"
)

func TestImagePaths(t *testing.T) {
	dir := t.TempDir()
	writeImage(t, filepath.Join(dir, "b.png"), 4, 4)
	writeImage(t, filepath.Join(dir, "a.jpg"), 4, 4)
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.Mkdir(filepath.Join(dir, "sub.png"), 0755); err != nil {
		t.Fatal(err)
	}
	explicit := filepath.Join(t.TempDir(), "c.gif")
	writeImage(t, explicit, 4, 4)

	paths, err := imagePaths([]string{dir, explicit})
	if err != nil {
		t.Fatal(err)
	}
	want := []string{filepath.Join(dir, "a.jpg"), filepath.Join(dir, "b.png"), explicit}
	if strings.Join(paths, "|") != strings.Join(want, "|") {
		t.Errorf("imagePaths = %v, want %v", paths, want)
	}

	if _, err := imagePaths([]string{filepath.Join(dir, "missing")}); err == nil {
		t.Error("expected error for missing path")
	}
}

func TestStampID(t *testing.T) {
	if got := stampID("/scans/SG 1234.front.jpg"); got != "SG 1234.front" {
		t.Errorf("stampID = %q", got)
	}
}

func TestLoadListExpandsCopies(t *testing.T) {
	dir := t.TempDir()
	writeImage(t, filepath.Join(dir, "a.png"), 10, 20)
	writeImage(t, filepath.Join(dir, "b.png"), 10, 20)
	list := filepath.Join(dir, "stamps.csv")
	if err := os.WriteFile(list, []byte("File,ID,Copies\na.png,SG1,3\nb.png,,\n"), 0644); err != nil {
		t.Fatal(err)
	}

	stamps, err := loadList(list, newTestCLI(t).Logger)
	if err != nil {
		t.Fatal(err)
	}
	var ids []string
	for _, st := range stamps {
		ids = append(ids, st.ID)
	}
	if got := strings.Join(ids, ","); got != "SG1,SG1-2,SG1-3,b" {
		t.Errorf("ids = %s", got)
	}
	if stamps[0].Width() != 10 || stamps[0].Height() != 20 {
		t.Errorf("unexpected size %dx%d", stamps[0].Width(), stamps[0].Height())
	}
}

func TestLoadListErrors(t *testing.T) {
	dir := t.TempDir()
	logger := newTestCLI(t).Logger

	bad := filepath.Join(dir, "bad.csv")
	if err := os.WriteFile(bad, []byte("File,Copies\na.png,zero\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := loadList(bad, logger); err == nil || !strings.Contains(err.Error(), "Invalid copies") {
		t.Errorf("expected invalid copies error, got %v", err)
	}

	missing := filepath.Join(dir, "missing.csv")
	if err := os.WriteFile(missing, []byte("File\nnothere.png\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := loadList(missing, logger); err == nil {
		t.Error("expected error for missing image")
	}
}

func TestGatherStampsNeedsInput(t *testing.T) {
	if _, err := gatherStamps(nil, "", newTestCLI(t).Logger); err == nil {
		t.Error("expected error without stamps")
	}
}

func TestGatherStampsKeepsIDsUnique(t *testing.T) {
	dir := t.TempDir()
	for _, sub := range []string{"a", "b"} {
		if err := os.Mkdir(filepath.Join(dir, sub), 0755); err != nil {
			t.Fatal(err)
		}
		writeImage(t, filepath.Join(dir, sub, "001.png"), 4, 4)
	}
	writeImage(t, filepath.Join(dir, "SG1.png"), 4, 4)
	list := filepath.Join(dir, "stamps.csv")
	if err := os.WriteFile(list, []byte("File,ID,Copies\nSG1.png,SG1,2\n"), 0644); err != nil {
		t.Fatal(err)
	}

	args := []string{filepath.Join(dir, "a", "001.png"), filepath.Join(dir, "b", "001.png"), filepath.Join(dir, "SG1.png")}
	stamps, err := gatherStamps(args, list, newTestCLI(t).Logger)
	if err != nil {
		t.Fatal(err)
	}
	var ids []string
	for _, st := range stamps {
		ids = append(ids, st.ID)
	}
	if got := strings.Join(ids, ","); got != "SG1,SG1-2,001,001-2,SG1-3" {
		t.Errorf("ids = %s", got)
	}
}

func TestLayoutWritesSheetsAndExports(t *testing.T) {
	c := newTestCLI(t)
	in := t.TempDir()
	writeSquares(t, in, 5, 50)
	dir := t.TempDir()
	led := filepath.Join(dir, "ledger.db")
	pdf := filepath.Join(dir, "sheets.pdf")
	manifest := filepath.Join(dir, "sheets.xlsx")
	labels := filepath.Join(dir, "labels.pdf")

	out, err := execute(t, c, "layout", in,
		"--ledger", led, "--pdf", pdf, "--manifest", manifest, "--labels", labels)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "Wrote 2 sheets with 5 stamps") {
		t.Errorf("unexpected output %q", out)
	}

	outDir := c.Config.Layout.OutputDir
	for _, name := range []string{store.SheetName(0), store.SheetName(1)} {
		if _, err := os.Stat(filepath.Join(outDir, name)); err != nil {
			t.Errorf("expected %s: %v", name, err)
		}
	}
	for _, f := range []string{pdf, manifest, labels} {
		if _, err := os.Stat(f); err != nil {
			t.Errorf("expected export %s: %v", f, err)
		}
	}

	l, err := ledger.Open(led)
	if err != nil {
		t.Fatal(err)
	}
	defer l.Close()
	entries, err := l.List(context.Background(), 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 ledger entries, got %d", len(entries))
	}
	loc, err := l.Locate(context.Background(), "s4")
	if err != nil {
		t.Fatal(err)
	}
	if loc.Sheet.Stamps != 1 {
		t.Errorf("expected s4 alone on the flushed sheet, got %d stamps", loc.Sheet.Stamps)
	}
}

func TestLayoutNoFlushKeepsPartialSheet(t *testing.T) {
	c := newTestCLI(t)
	in := t.TempDir()
	writeSquares(t, in, 5, 50)

	out, err := execute(t, c, "layout", in, "--no-flush")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "Wrote 1 sheets with 4 stamps") {
		t.Errorf("unexpected output %q", out)
	}
	if _, err := os.Stat(filepath.Join(c.Config.Layout.OutputDir, store.SheetName(1))); !os.IsNotExist(err) {
		t.Error("expected no second sheet")
	}
}

func TestLayoutReportsOversizedStamps(t *testing.T) {
	c := newTestCLI(t)
	in := t.TempDir()
	writeImage(t, filepath.Join(in, "big.png"), 150, 40)
	writeImage(t, filepath.Join(in, "small.png"), 30, 30)

	out, err := execute(t, c, "layout", in)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "1 stamps too large") || !strings.Contains(out, "big") {
		t.Errorf("expected big to be reported, got %q", out)
	}
	if !strings.Contains(out, "Wrote 1 sheets with 1 stamps") {
		t.Errorf("expected the small stamp on one sheet, got %q", out)
	}
}

func TestLayoutBinPackWritesPictures(t *testing.T) {
	c := newTestCLI(t)
	in := t.TempDir()
	writeSquares(t, in, 3, 50)

	if _, err := execute(t, c, "layout", in, "--strategy", "binpack"); err != nil {
		t.Fatal(err)
	}
	pic := filepath.Join(store.CollectionDir(c.Config.Layout.OutputDir, 0), store.PictureName(0))
	if _, err := os.Stat(pic); err != nil {
		t.Errorf("expected %s: %v", pic, err)
	}
}

func TestCompareReportsEveryStrategy(t *testing.T) {
	c := newTestCLI(t)
	in := t.TempDir()
	writeSquares(t, in, 5, 50)

	out, err := execute(t, c, "compare", in)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"5 stamps", "flow", "binpack", "(best)"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in %q", want, out)
		}
	}
	if _, err := os.Stat(c.Config.Layout.OutputDir); !os.IsNotExist(err) {
		t.Error("compare must not write sheets")
	}
}
