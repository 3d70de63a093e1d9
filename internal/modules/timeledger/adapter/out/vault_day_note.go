package out

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"studypact/internal/modules/timeledger/domain"
	ledgerout "studypact/internal/modules/timeledger/port/out"
	"studypact/internal/platform/markdown"
)

var totalsBlock = markdown.Block{
	Start: "<!-- studypact:totals:start -->",
	End:   "<!-- studypact:totals:end -->",
}

// VaultDayNoteWriter keeps a generated totals block inside daily/<day>.md,
// leaving anything the user wrote around it untouched.
type VaultDayNoteWriter struct {
	homePath string
}

func NewVaultDayNoteWriter(homePath string) ledgerout.DayNoteWriter {
	return &VaultDayNoteWriter{homePath: homePath}
}

func (w *VaultDayNoteWriter) WriteDay(_ context.Context, userID, day string, buckets []domain.Bucket) error {
	dir := filepath.Join(w.homePath, "daily")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create daily dir: %w", err)
	}
	path := filepath.Join(dir, day+".md")

	meta := map[string]any{"schema_version": domain.SchemaVersion, "day": day, "user": userID}
	body := fmt.Sprintf("# Study log %s\n", day)
	existing, err := os.ReadFile(path)
	switch {
	case err == nil:
		parsedMeta, parsedBody, splitErr := markdown.SplitFrontmatter(string(existing))
		if splitErr != nil {
			return splitErr
		}
		for k, v := range parsedMeta {
			if _, managed := meta[k]; !managed {
				meta[k] = v
			}
		}
		body = parsedBody
	case !os.IsNotExist(err):
		return fmt.Errorf("read day note: %w", err)
	}

	meta["total_seconds"] = domain.Total(buckets)
	body = totalsBlock.Upsert(body, renderTotals(buckets))
	rendered, err := markdown.RenderFrontmatter(meta, body)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(rendered), 0o644); err != nil {
		return fmt.Errorf("write day note: %w", err)
	}
	return nil
}

func renderTotals(buckets []domain.Bucket) string {
	if len(buckets) == 0 {
		return "_no study time recorded_"
	}
	lines := make([]string, 0, len(buckets)+3)
	lines = append(lines, "| Subject | Time |", "|---|---|")
	for _, b := range buckets {
		lines = append(lines, fmt.Sprintf("| %s | %s |", b.Subject, time.Duration(b.Seconds)*time.Second))
	}
	lines = append(lines, fmt.Sprintf("| **Total** | %s |", time.Duration(domain.Total(buckets))*time.Second))
	return strings.Join(lines, "\n")
}
