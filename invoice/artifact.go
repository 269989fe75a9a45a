package invoice

import (
	"context"
	"io"
	"time"
)

// ArtifactMeta describes a stored output file.
type ArtifactMeta struct {
	ContentType string    `json:"content_type,omitempty"`
	Filename    string    `json:"filename,omitempty"`
	Size        int64     `json:"size,omitempty"`
	CreatedAt   time.Time `json:"created_at,omitempty"`
}

// ArtifactRef points at a stored output file.
type ArtifactRef struct {
	Key  string       `json:"key"`
	Meta ArtifactMeta `json:"meta"`
}

// ArtifactStore persists generated outputs (export files, rendered PDFs).
type ArtifactStore interface {
	Put(ctx context.Context, key string, r io.Reader, meta ArtifactMeta) (ArtifactRef, error)
	Open(ctx context.Context, key string) (io.ReadCloser, ArtifactMeta, error)
	Delete(ctx context.Context, key string) error
}

// RunArtifactLister enumerates the artifacts grouped under one run. Stores
// that key artifacts by run implement this alongside ArtifactStore.
type RunArtifactLister interface {
	ListRun(ctx context.Context, runID string) ([]ArtifactRef, error)
}

// ContentTypeForFormat maps an export format to its artifact content type.
func ContentTypeForFormat(format Format) string {
	if format == FormatLedgerTagged {
		return "text/tab-separated-values; charset=utf-8"
	}
	return "text/csv; charset=utf-8"
}
