package billing

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ManuelReschke/NetPortal/internal/pkg/shortener"
	"github.com/ManuelReschke/NetPortal/views/invoice"
)

// InvoiceStore persists rendered invoices.
type InvoiceStore interface {
	// Save renders data and returns the generated file name.
	Save(ctx context.Context, kind Kind, data invoice.Data) (string, error)
	// Path returns the local path of a saved invoice.
	Path(kind Kind, file string) string
}

// FileInvoiceStore writes invoices to <dir>/<kind>/<random4><unix>.html.
type FileInvoiceStore struct {
	dir string
	now func() time.Time
}

func NewFileInvoiceStore(dir string) *FileInvoiceStore {
	return &FileInvoiceStore{dir: dir, now: time.Now}
}

func (s *FileInvoiceStore) Path(kind Kind, file string) string {
	return filepath.Join(s.dir, string(kind), filepath.Base(file))
}

func (s *FileInvoiceStore) Save(ctx context.Context, kind Kind, data invoice.Data) (string, error) {
	ref, err := shortener.Reference(s.now())
	if err != nil {
		return "", err
	}
	file := ref + ".html"
	path := s.Path(kind, file)

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("create invoice dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		return "", fmt.Errorf("create invoice file: %w", err)
	}

	if err := invoice.Document(data).Render(ctx, f); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("render invoice: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	return file, nil
}
