// Package storage keeps document attachments on local disk. Stored names
// are sanitized and timestamp-suffixed; the relative path recorded in
// document metadata is what every other layer passes back in.
package storage

import (
	"encoding/base64"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/toshahriar/documenter/internal/model"
	"github.com/toshahriar/documenter/internal/utils"
)

// Store writes and reads attachment files under Dir.
type Store struct {
	Dir string
}

func New(dir string) *Store { return &Store{Dir: dir} }

// Save writes the uploaded file under a sanitized, timestamp-suffixed name
// and returns the attachment descriptor persisted into document metadata.
func (s *Store) Save(fh *multipart.FileHeader) (*model.Attachment, error) {
	src, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	ext := filepath.Ext(fh.Filename)
	base := utils.SanitizeFileName(strings.TrimSuffix(filepath.Base(fh.Filename), ext))
	name := fmt.Sprintf("%s-%d%s", base, time.Now().UnixMilli(), ext)

	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir uploads: %w", err)
	}
	dst, err := os.Create(filepath.Join(s.Dir, name))
	if err != nil {
		return nil, fmt.Errorf("create file: %w", err)
	}
	defer dst.Close()

	size, err := io.Copy(dst, src)
	if err != nil {
		return nil, fmt.Errorf("write file: %w", err)
	}

	return &model.Attachment{
		FileName: name,
		FilePath: filepath.ToSlash(filepath.Join(filepath.Base(s.Dir), name)),
		FileSize: strconv.FormatInt(size, 10),
		FileExt:  strings.TrimPrefix(ext, "."),
	}, nil
}

// Base64 reads a stored attachment and returns its base64 encoding, the
// form the signing provider expects document parts in.
func (s *Store) Base64(relPath string) (string, error) {
	p, err := s.resolve(relPath)
	if err != nil {
		return "", err
	}
	b, err := os.ReadFile(p)
	if err != nil {
		return "", fmt.Errorf("read attachment: %w", err)
	}
	return base64.StdEncoding.EncodeToString(b), nil
}

// Delete removes a stored attachment. Best-effort: errors are swallowed so
// a missing file never blocks a document delete.
func (s *Store) Delete(relPath string) {
	p, err := s.resolve(relPath)
	if err != nil {
		return
	}
	_ = os.Remove(p)
}

// resolve maps the stored relative path back into Dir and rejects anything
// escaping it.
func (s *Store) resolve(relPath string) (string, error) {
	name := filepath.Base(filepath.Clean(relPath))
	if name == "." || name == string(filepath.Separator) {
		return "", fmt.Errorf("invalid attachment path %q", relPath)
	}
	return filepath.Join(s.Dir, name), nil
}
