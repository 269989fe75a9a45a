package document

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/goliatone/go-invoice/invoice"
)

// Store resolves document templates by name.
type Store interface {
	Resolve(ctx context.Context, name string) (Document, error)
}

// FSStore reads JSON-encoded templates from a root directory.
type FSStore struct {
	Root string
}

// NewFSStore creates a filesystem-backed template store.
func NewFSStore(root string) *FSStore {
	return &FSStore{Root: root}
}

// Resolve reads the named template from disk.
func (s *FSStore) Resolve(ctx context.Context, name string) (Document, error) {
	_ = ctx
	if s == nil || s.Root == "" {
		return Document{}, invoice.NewError(invoice.KindValidation, "template store root is required", nil)
	}

	pathOnDisk, err := s.resolvePath(name)
	if err != nil {
		return Document{}, err
	}

	data, err := os.ReadFile(pathOnDisk)
	if err != nil {
		if os.IsNotExist(err) {
			return Document{}, invoice.NewError(invoice.KindNotFound,
				fmt.Sprintf("template %q not found", name), err)
		}
		return Document{}, err
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return Document{}, invoice.NewError(invoice.KindData,
			fmt.Sprintf("template %q is not a valid document", name), err)
	}
	if doc.Name == "" {
		doc.Name = name
	}
	return doc, nil
}

// Put writes a template to disk via a temp file and rename.
func (s *FSStore) Put(ctx context.Context, name string, doc Document) error {
	_ = ctx
	if s == nil || s.Root == "" {
		return invoice.NewError(invoice.KindValidation, "template store root is required", nil)
	}

	pathOnDisk, err := s.resolvePath(name)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(pathOnDisk), 0o755); err != nil {
		return err
	}

	payload, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(pathOnDisk), ".template-*")
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
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), pathOnDisk)
}

// Seed writes the default template when the store is empty.
func (s *FSStore) Seed(ctx context.Context) error {
	_, err := s.Resolve(ctx, DefaultTemplateName)
	if err == nil {
		return nil
	}
	if invoice.KindFromError(err) != invoice.KindNotFound {
		return err
	}
	return s.Put(ctx, DefaultTemplateName, DefaultTemplate())
}

func (s *FSStore) resolvePath(name string) (string, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return "", invoice.NewError(invoice.KindValidation, "template name is required", nil)
	}
	for _, seg := range strings.Split(trimmed, "/") {
		if seg == ".." {
			return "", invoice.NewError(invoice.KindValidation, "template name escapes root", nil)
		}
	}
	if !strings.HasSuffix(trimmed, ".json") {
		trimmed += ".json"
	}

	clean := path.Clean("/" + trimmed)
	rel := strings.TrimPrefix(clean, "/")
	if rel == "" || rel == "." {
		return "", invoice.NewError(invoice.KindValidation, "invalid template name", nil)
	}

	root, err := filepath.Abs(s.Root)
	if err != nil {
		return "", err
	}
	target := filepath.Join(root, filepath.FromSlash(rel))
	if !strings.HasPrefix(target, root+string(os.PathSeparator)) {
		return "", invoice.NewError(invoice.KindValidation, "template name escapes root", nil)
	}
	return target, nil
}

// MemoryStore stores templates in memory (test/dev only).
type MemoryStore struct {
	mu        sync.RWMutex
	templates map[string]Document
}

// NewMemoryStore creates an in-memory template store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{templates: make(map[string]Document)}
}

// Put stores a template.
func (s *MemoryStore) Put(name string, doc Document) {
	s.mu.Lock()
	s.templates[name] = doc.Clone()
	s.mu.Unlock()
}

// Resolve returns a copy of the named template.
func (s *MemoryStore) Resolve(ctx context.Context, name string) (Document, error) {
	_ = ctx
	s.mu.RLock()
	doc, ok := s.templates[name]
	s.mu.RUnlock()
	if !ok {
		return Document{}, invoice.NewError(invoice.KindNotFound,
			fmt.Sprintf("template %q not found", name), nil)
	}
	return doc.Clone(), nil
}
