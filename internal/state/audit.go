package state

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/henemm/weather-email-autobot/internal/domain"
)

// Audit appends one human-readable line per dynamic decision to an audit
// file under the state root, so suppressed triggers stay traceable even
// though they never update the segment record.
type Audit struct {
	path   string
	logger *slog.Logger
}

func NewAudit(root string, logger *slog.Logger) *Audit {
	return &Audit{path: filepath.Join(root, "audit.log"), logger: logger}
}

// Log records one decision. An unwritable audit file is logged and
// swallowed: auditing must never block a report.
func (a *Audit) Log(now time.Time, invocationID, segmentID string, dec Decision) {
	params := ChangedLabels(dec.Changed)

	verdict := "suppress"
	if dec.Send {
		verdict = "send"
	}

	line := fmt.Sprintf("%s inv=%s segment=%s decision=%s reason=%s params=%s\n",
		now.UTC().Format(time.RFC3339),
		invocationID,
		fileName(segmentID),
		verdict,
		dec.Reason,
		strings.Join(params, ","),
	)

	if err := a.append(line); err != nil {
		a.logger.Error("failed to write audit entry", "error", err, "entry", strings.TrimSpace(line))
	}
}

func (a *Audit) append(line string) error {
	if err := os.MkdirAll(filepath.Dir(a.path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(a.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.WriteString(line); err != nil {
		return err
	}
	return nil
}

// ChangedLabels renders the changed-parameter list for structured logs.
func ChangedLabels(ids []domain.ParameterID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = string(id)
	}
	return out
}
