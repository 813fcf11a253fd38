// Package upload validates user-selected spreadsheet files before they are
// sent to the analysis backend. Validation is limited to the filename
// extension and the byte size; file contents are parsed server-side only.
package upload

import (
	"errors"
	"fmt"
	"strings"
	"sync"
)

const (
	// Extension accepted for uploads. The backend rejects everything else too.
	Extension = ".xlsx"

	// MaxFileSize is the upload size limit (100 MiB).
	MaxFileSize = 100 * 1024 * 1024
)

var (
	ErrBadExtension = errors.New("仅支持 .xlsx 格式文件")
	ErrTooLarge     = errors.New("文件大小超过100MB限制")
)

type UploadedFile struct {
	Name    string
	Size    int64
	Content []byte
	Info    FileInfo
}

// Validate checks the constraints enforced client-side: extension and size.
func Validate(name string, size int64) error {
	if !strings.HasSuffix(strings.ToLower(name), Extension) {
		return ErrBadExtension
	}
	if size > MaxFileSize {
		return ErrTooLarge
	}
	return nil
}

// Controller holds at most one pending file. A newly selected file replaces
// the previous one; Reset clears it.
type Controller struct {
	mu      sync.Mutex
	pending *UploadedFile
}

func NewController() *Controller {
	return &Controller{}
}

// Select validates and records a file as the pending upload.
func (c *Controller) Select(name string, content []byte) (*UploadedFile, error) {
	if err := Validate(name, int64(len(content))); err != nil {
		return nil, err
	}
	f := &UploadedFile{
		Name:    name,
		Size:    int64(len(content)),
		Content: content,
		Info:    ParseFilename(name),
	}
	c.mu.Lock()
	c.pending = f
	c.mu.Unlock()
	return f, nil
}

// Pending returns the current pending file, or nil.
func (c *Controller) Pending() *UploadedFile {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending
}

// Reset discards the pending file.
func (c *Controller) Reset() {
	c.mu.Lock()
	c.pending = nil
	c.mu.Unlock()
}

// FormatSize renders a byte count in MiB with two decimals, the way the
// upload panel displays it.
func FormatSize(bytes int64) string {
	return fmt.Sprintf("%.2f MB", float64(bytes)/(1024*1024))
}
