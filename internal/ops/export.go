package ops

import (
	"bufio"
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/goliatone/go-slug"

	"github.com/hpungsan/skim/internal/errors"
	"github.com/hpungsan/skim/internal/markdown"
)

// ExportExt is the extension of every exported document.
const ExportExt = ".md"

// ExportInput contains parameters for the Export operation.
type ExportInput struct {
	Folder   string // output folder; must already exist
	FileName string // without extension; derived from Text when empty
	Text     string
}

// ExportOutput contains the result of the Export operation.
type ExportOutput struct {
	Path       string `json:"path"`
	Lines      int    `json:"lines"`
	ExportedAt int64  `json:"exported_at"`
}

// Export writes input.Text as Folder/FileName.md, streaming each line through
// the markdown formatter. An existing file with the same name is replaced.
// The document is written to a temp file and renamed into place, so a failed
// export leaves neither a partial document nor a clobbered previous one.
func Export(ctx context.Context, input ExportInput) (*ExportOutput, error) {
	now := time.Now()

	folder := strings.TrimSpace(input.Folder)
	if folder == "" {
		return nil, errors.NewInvalidRequest("output folder is required")
	}

	name := input.FileName
	if strings.TrimSpace(name) == "" {
		name = FileNameFromText(input.Text, now)
	}
	name = strings.TrimSuffix(SanitizeForFilename(name), ExportExt)

	exportPath, err := filepath.Abs(filepath.Join(folder, name+ExportExt))
	if err != nil {
		return nil, errors.NewExportIOFailure(name+ExportExt, err)
	}

	if info, err := os.Stat(filepath.Dir(exportPath)); err != nil || !info.IsDir() {
		return nil, errors.NewExportIOFailure(exportPath, fmt.Errorf("output folder does not exist: %s", folder))
	}

	randBytes := make([]byte, 8)
	if _, err := rand.Read(randBytes); err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to generate temp file name: %w", err))
	}
	tempPath := exportPath + "." + hex.EncodeToString(randBytes) + ".tmp"
	file, err := openFileNoFollow(tempPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return nil, errors.NewExportIOFailure(exportPath, err)
	}

	// The handle is closed and the temp file removed on every failure path.
	success := false
	defer func() {
		if file != nil {
			file.Close()
		}
		if !success {
			os.Remove(tempPath)
		}
	}()

	buf := bufio.NewWriter(file)
	w := markdown.NewWriter(buf)
	for _, line := range markdown.SplitLines(input.Text) {
		if err := ctx.Err(); err != nil {
			return nil, errors.NewExportIOFailure(exportPath, err)
		}
		if err := w.WriteLine(line); err != nil {
			return nil, errors.NewExportIOFailure(exportPath, err)
		}
	}

	if err := buf.Flush(); err != nil {
		return nil, errors.NewExportIOFailure(exportPath, err)
	}
	if err := file.Sync(); err != nil {
		return nil, errors.NewExportIOFailure(exportPath, err)
	}

	// Close before rename (required on Windows; fine elsewhere).
	if err := file.Close(); err != nil {
		return nil, errors.NewExportIOFailure(exportPath, fmt.Errorf("failed to close export file: %w", err))
	}
	file = nil

	// os.Rename would replace the link itself, but refuse rather than surprise.
	if info, err := os.Lstat(exportPath); err == nil && info.Mode()&os.ModeSymlink != 0 {
		return nil, errors.NewExportIOFailure(exportPath, fmt.Errorf("export path is a symlink"))
	}

	if err := os.Rename(tempPath, exportPath); err != nil {
		return nil, errors.NewExportIOFailure(exportPath, fmt.Errorf("failed to finalize export: %w", err))
	}

	success = true
	return &ExportOutput{
		Path:       exportPath,
		Lines:      w.Lines(),
		ExportedAt: now.Unix(),
	}, nil
}

// FileNameFromText derives a document name from the first "# " heading of
// text, slugified. Without a usable heading it returns
// draft-skim-<year>-<month>-<day>-<hour>-<minute>-<second>.
func FileNameFromText(text string, now time.Time) string {
	for _, line := range markdown.SplitLines(text) {
		title, ok := strings.CutPrefix(line, "# ")
		if !ok {
			continue
		}
		if name, err := slug.Normalize(title); err == nil && name != "" {
			return name
		}
		break
	}
	return fmt.Sprintf("draft-skim-%d-%d-%d-%d-%d-%d",
		now.Year(), int(now.Month()), now.Day(), now.Hour(), now.Minute(), now.Second())
}
