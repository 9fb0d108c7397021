package export

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piwi3910/StampPaper/internal/model"
)

func TestExportPDF_CreatesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sheets.pdf")

	require.NoError(t, ExportPDF(path, buildTestReport(dir)))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, len(data) > 500, "PDF file seems too small: %d bytes", len(data))
	assert.Equal(t, "%PDF", string(data[:4]))
}

func TestExportPDF_EmptyReport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.pdf")

	err := ExportPDF(path, Report{Settings: model.DefaultSettings()})
	assert.Error(t, err)
	assert.NoFileExists(t, path)
}

func TestExportPDF_WithRejectedStamps(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rejected.pdf")

	report := buildTestReport(dir)
	report.Rejected = []string{"deadbeef", "cafebabe"}

	require.NoError(t, ExportPDF(path, report))
	assert.FileExists(t, path)
}

func TestExportPDF_SkipsPlacementsWithoutImage(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "noimage.pdf")

	report := buildTestReport(dir)
	report.Sheets[0].Placements[0].Image = nil

	require.NoError(t, ExportPDF(path, report))
	assert.FileExists(t, path)
}

func TestExportPDF_ManySheetsPaginateSummary(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "many.pdf")

	report := buildTestReport(dir)
	for len(report.Sheets) < 45 {
		report.Sheets = append(report.Sheets, report.Sheets[1])
	}
	require.NoError(t, ExportPDF(path, report))
	assert.FileExists(t, path)
}

func TestExportPDF_InvalidBackground(t *testing.T) {
	dir := t.TempDir()
	report := buildTestReport(dir)
	report.Settings.Background = "purple-ish"

	assert.Error(t, ExportPDF(filepath.Join(dir, "bad.pdf"), report))
}

func TestReportStats(t *testing.T) {
	report := buildTestReport(t.TempDir())

	assert.Equal(t, 4, report.StampCount())
	// Sheet 1: (4800+3200+5000)/60000, sheet 2: 10000/60000
	assert.InDelta(t, (13000.0/60000.0*100+10000.0/60000.0*100)/2, report.AverageFill(), 0.001)
	assert.Zero(t, Report{}.AverageFill())
}
