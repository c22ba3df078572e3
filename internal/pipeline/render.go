package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ppiankov/checkmate/internal/model"
	"github.com/ppiankov/checkmate/internal/score"
)

// RenderJSON writes the dataset as indented JSON
func RenderJSON(w io.Writer, results []model.VerificationResult) error {
	if results == nil {
		results = []model.VerificationResult{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(results); err != nil {
		return fmt.Errorf("encode results: %w", err)
	}
	return nil
}

// WriteJSON writes the dataset to path, creating parent directories
func WriteJSON(path string, results []model.VerificationResult) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	if err := RenderJSON(f, results); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// RenderSummary prints a short terminal report of the dataset
func RenderSummary(w io.Writer, results []model.VerificationResult) {
	s := score.Summarize(results)

	_, _ = fmt.Fprintf(w, "Claims: %d verified, %d unverifiable (%d entries)\n", s.Verified, s.Unverifiable, s.Results)

	for _, m := range []model.Method{model.MethodClaimDatabase, model.MethodFactCheckRegistry, model.MethodWebSearchReview} {
		if n := s.ByMethod[m]; n > 0 {
			_, _ = fmt.Fprintf(w, "  %-20s %d\n", m, n)
		}
	}

	if len(s.Ratings) > 0 {
		parts := make([]string, len(s.Ratings))
		for i, rc := range s.Ratings {
			parts[i] = fmt.Sprintf("%s (%d)", rc.Rating, rc.Count)
		}
		_, _ = fmt.Fprintf(w, "Ratings: %s\n", strings.Join(parts, ", "))
	}

	for _, r := range results {
		if r.Claim.Text == "" {
			continue
		}
		verdict := "unverified"
		if r.Verified() && len(r.Evidence[0].Review) > 0 {
			verdict = model.OrNone(r.Evidence[0].Review[0].Rating)
		}
		_, _ = fmt.Fprintf(w, "- %s → %s\n", r.Claim.Text, verdict)
	}
}
