package storefs

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/goliatone/go-invoice/invoice"
)

// Store provides filesystem-backed storage for generated invoice outputs:
// export files and rendered PDFs, each with a JSON metadata sidecar.
type Store struct {
	Root string
	Now  func() time.Time
}

// NewStore creates a filesystem-backed artifact store.
func NewStore(root string) *Store {
	return &Store{Root: root, Now: time.Now}
}

var (
	_ invoice.ArtifactStore     = (*Store)(nil)
	_ invoice.RunArtifactLister = (*Store)(nil)
)

// ExportKey builds the storage key for an export run artifact.
func ExportKey(runID string, format invoice.Format) string {
	ext := "csv"
	if format == invoice.FormatLedgerTagged {
		ext = "txt"
	}
	return fmt.Sprintf("runs/%s/export-%s.%s", runID, format, ext)
}

// PDFKey builds the storage key for a rendered invoice PDF.
func PDFKey(runID, invoiceNumber string) string {
	return fmt.Sprintf("runs/%s/%s.pdf", runID, invoiceNumber)
}

// Put stores an artifact on disk, writing through a temp file so readers
// never observe a partial artifact.
func (s *Store) Put(ctx context.Context, key string, r io.Reader, meta invoice.ArtifactMeta) (invoice.ArtifactRef, error) {
	_ = ctx
	if s == nil {
		return invoice.ArtifactRef{}, invoice.NewError(invoice.KindInternal, "store is nil", nil)
	}
	if s.Root == "" {
		return invoice.ArtifactRef{}, invoice.NewError(invoice.KindValidation, "store root is required", nil)
	}
	if key == "" {
		return invoice.ArtifactRef{}, invoice.NewError(invoice.KindValidation, "artifact key is required", nil)
	}

	pathOnDisk, err := s.resolvePath(key)
	if err != nil {
		return invoice.ArtifactRef{}, err
	}

	dir := filepath.Dir(pathOnDisk)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return invoice.ArtifactRef{}, err
	}

	tmp, err := os.CreateTemp(dir, ".artifact-*")
	if err != nil {
		return invoice.ArtifactRef{}, err
	}
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
	}()

	size, err := io.Copy(tmp, r)
	if err != nil {
		return invoice.ArtifactRef{}, err
	}
	if err := tmp.Sync(); err != nil {
		return invoice.ArtifactRef{}, err
	}
	if err := tmp.Close(); err != nil {
		return invoice.ArtifactRef{}, err
	}

	if err := os.Rename(tmp.Name(), pathOnDisk); err != nil {
		return invoice.ArtifactRef{}, err
	}

	meta.Size = size
	if meta.CreatedAt.IsZero() {
		meta.CreatedAt = s.now()
	}
	if meta.ContentType == "" {
		meta.ContentType = mime.TypeByExtension(filepath.Ext(pathOnDisk))
	}
	if meta.Filename == "" {
		meta.Filename = path.Base(key)
	}

	if err := s.writeMeta(pathOnDisk, meta); err != nil {
		return invoice.ArtifactRef{}, err
	}

	return invoice.ArtifactRef{Key: key, Meta: meta}, nil
}

// Open reads an artifact from disk.
func (s *Store) Open(ctx context.Context, key string) (io.ReadCloser, invoice.ArtifactMeta, error) {
	_ = ctx
	if s == nil {
		return nil, invoice.ArtifactMeta{}, invoice.NewError(invoice.KindInternal, "store is nil", nil)
	}
	if s.Root == "" {
		return nil, invoice.ArtifactMeta{}, invoice.NewError(invoice.KindValidation, "store root is required", nil)
	}
	if key == "" {
		return nil, invoice.ArtifactMeta{}, invoice.NewError(invoice.KindValidation, "artifact key is required", nil)
	}

	pathOnDisk, err := s.resolvePath(key)
	if err != nil {
		return nil, invoice.ArtifactMeta{}, err
	}

	file, err := os.Open(pathOnDisk)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, invoice.ArtifactMeta{}, invoice.NewError(invoice.KindNotFound, fmt.Sprintf("artifact %q not found", key), err)
		}
		return nil, invoice.ArtifactMeta{}, err
	}

	meta := s.readMeta(pathOnDisk)
	if meta.ContentType == "" {
		meta.ContentType = mime.TypeByExtension(filepath.Ext(pathOnDisk))
	}
	if meta.Size == 0 {
		if info, err := file.Stat(); err == nil {
			meta.Size = info.Size()
			if meta.CreatedAt.IsZero() {
				meta.CreatedAt = info.ModTime()
			}
		}
	}

	return file, meta, nil
}

// Delete removes an artifact and its metadata sidecar. Deleting a missing
// artifact is not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	_ = ctx
	if s == nil {
		return invoice.NewError(invoice.KindInternal, "store is nil", nil)
	}
	if s.Root == "" {
		return invoice.NewError(invoice.KindValidation, "store root is required", nil)
	}
	if key == "" {
		return invoice.NewError(invoice.KindValidation, "artifact key is required", nil)
	}

	pathOnDisk, err := s.resolvePath(key)
	if err != nil {
		return err
	}
	_ = os.Remove(pathOnDisk)
	_ = os.Remove(metaPath(pathOnDisk))
	return nil
}

// ListRun returns the artifacts stored under one run. A run with no
// artifacts yields an empty list, not an error. os.ReadDir already sorts
// entries by name, so keys come back in stable order.
func (s *Store) ListRun(ctx context.Context, runID string) ([]invoice.ArtifactRef, error) {
	_ = ctx
	if s == nil {
		return nil, invoice.NewError(invoice.KindInternal, "store is nil", nil)
	}
	if s.Root == "" {
		return nil, invoice.NewError(invoice.KindValidation, "store root is required", nil)
	}
	if strings.TrimSpace(runID) == "" {
		return nil, invoice.NewError(invoice.KindValidation, "run id is required", nil)
	}

	dirOnDisk, err := s.resolvePath(path.Join("runs", runID))
	if err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(dirOnDisk)
	if err != nil {
		if os.IsNotExist(err) {
			return []invoice.ArtifactRef{}, nil
		}
		return nil, err
	}

	refs := []invoice.ArtifactRef{}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") || strings.HasSuffix(name, ".meta.json") {
			continue
		}

		pathOnDisk := filepath.Join(dirOnDisk, name)
		meta := s.readMeta(pathOnDisk)
		if meta.ContentType == "" {
			meta.ContentType = mime.TypeByExtension(filepath.Ext(pathOnDisk))
		}
		if meta.Filename == "" {
			meta.Filename = name
		}
		if meta.Size == 0 {
			if info, err := entry.Info(); err == nil {
				meta.Size = info.Size()
				if meta.CreatedAt.IsZero() {
					meta.CreatedAt = info.ModTime()
				}
			}
		}

		refs = append(refs, invoice.ArtifactRef{
			Key:  path.Join("runs", runID, name),
			Meta: meta,
		})
	}
	return refs, nil
}

func (s *Store) resolvePath(key string) (string, error) {
	for _, seg := range strings.Split(key, "/") {
		if seg == ".." {
			return "", invoice.NewError(invoice.KindValidation, "artifact key escapes root", nil)
		}
	}
	clean := path.Clean("/" + key)
	rel := strings.TrimPrefix(clean, "/")
	if rel == "" || rel == "." {
		return "", invoice.NewError(invoice.KindValidation, "invalid artifact key", nil)
	}

	root, err := filepath.Abs(s.Root)
	if err != nil {
		return "", err
	}
	target := filepath.Join(root, filepath.FromSlash(rel))
	if !strings.HasPrefix(target, root+string(os.PathSeparator)) && target != root {
		return "", invoice.NewError(invoice.KindValidation, "artifact key escapes root", nil)
	}
	return target, nil
}

func (s *Store) writeMeta(pathOnDisk string, meta invoice.ArtifactMeta) error {
	payload, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	dir := filepath.Dir(pathOnDisk)
	tmp, err := os.CreateTemp(dir, ".meta-*")
	if err != nil {
		return err
	}
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
	}()
	if _, err := tmp.Write(payload); err != nil {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), metaPath(pathOnDisk))
}

func (s *Store) readMeta(pathOnDisk string) invoice.ArtifactMeta {
	data, err := os.ReadFile(metaPath(pathOnDisk))
	if err != nil {
		return invoice.ArtifactMeta{}
	}
	var meta invoice.ArtifactMeta
	if err := json.Unmarshal(data, &meta); err != nil {
		return invoice.ArtifactMeta{}
	}
	return meta
}

func (s *Store) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

func metaPath(pathOnDisk string) string {
	return pathOnDisk + ".meta.json"
}
