package storage

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// allowedExtensions are the photo file extensions accepted for upload.
var allowedExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9_.-]`)

// PhotoStore saves employee photos under a single local directory and
// references them by bare filename. Same-name uploads overwrite each
// other; last writer wins.
type PhotoStore struct {
	dir string
}

// NewPhotoStore creates the upload directory if needed and returns a
// store rooted there.
func NewPhotoStore(dir string) (*PhotoStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory %s: %w", dir, err)
	}
	return &PhotoStore{dir: dir}, nil
}

// Dir returns the directory photos are stored under.
func (s *PhotoStore) Dir() string {
	return s.dir
}

// AllowedExtension reports whether the filename carries an accepted
// photo extension.
func AllowedExtension(filename string) bool {
	return allowedExtensions[strings.ToLower(filepath.Ext(filename))]
}

// SanitizeFilename reduces an uploaded filename to a safe bare name:
// any path component is stripped, unsafe characters become underscores,
// and leading dots and dashes are removed.
func SanitizeFilename(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = unsafeChars.ReplaceAllString(name, "_")
	name = strings.TrimLeft(name, ".-")
	return name
}

// Save writes the uploaded file into the store and returns the filename
// it was stored under. When sanitizing leaves nothing usable a random
// name keeps the original extension.
func (s *PhotoStore) Save(file *multipart.FileHeader) (string, error) {
	name := SanitizeFilename(file.Filename)
	if name == "" || !AllowedExtension(name) {
		name = uuid.New().String() + strings.ToLower(filepath.Ext(file.Filename))
	}

	src, err := file.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer src.Close()

	dst, err := os.Create(filepath.Join(s.dir, name))
	if err != nil {
		return "", fmt.Errorf("failed to create photo file %s: %w", name, err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", fmt.Errorf("failed to write photo file %s: %w", name, err)
	}
	return name, nil
}

// Remove deletes a stored photo. A missing file is not an error: the
// filesystem and database are not updated transactionally, so orphans
// can exist.
func (s *PhotoStore) Remove(filename string) error {
	if filename == "" {
		return nil
	}
	path := filepath.Join(s.dir, SanitizeFilename(filename))
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove photo %s: %w", filename, err)
	}
	return nil
}
