package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"

	"github.com/ppiankov/checkmate/internal/store"
)

// ImportClaims seeds w from a JSON array of records. Records without an id
// get a random one; records without claim text are skipped. Embeddings
// missing from the file are computed lazily on first match.
func ImportClaims(ctx context.Context, w store.Writer, r io.Reader) (int, error) {
	var records []store.Record
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return 0, fmt.Errorf("decode claims: %w", err)
	}

	imported := 0
	for _, rec := range records {
		rec.Claim = strings.TrimSpace(rec.Claim)
		if rec.Claim == "" {
			continue
		}
		if rec.ID == "" {
			rec.ID = uuid.NewString()
		}
		if err := w.Put(ctx, rec); err != nil {
			return imported, fmt.Errorf("put claim %s: %w", rec.ID, err)
		}
		imported++
	}
	return imported, nil
}
