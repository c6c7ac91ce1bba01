// Package upload stores multipart file uploads on disk.  Each upload slot
// (service image, document binary, document thumbnail) carries its own
// extension allow-list and size ceiling; a file violating either is rejected
// before any caller touches the database.
package upload

import (
	"errors"
	"io"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/davidokumbo/cyberdocs/pkg/logger"
)

// ErrUnsupportedType rejects a file whose extension is not on the slot's
// allow-list.  Handlers translate it into HTTP 415.
var ErrUnsupportedType = errors.New("unsupported file type")

// ErrTooLarge rejects a file exceeding the slot's size ceiling.  Handlers
// translate it into HTTP 413.
var ErrTooLarge = errors.New("file too large")

// Slot describes one upload destination.
type Slot struct {
	Dir      string          // subdirectory under the uploads root
	MaxBytes int64           // size ceiling
	Exts     map[string]bool // lower-case extensions without the dot
}

func extSet(exts ...string) map[string]bool {
	m := make(map[string]bool, len(exts))
	for _, e := range exts {
		m[e] = true
	}
	return m
}

// The three slots the application accepts.  Limits mirror what the catalog
// needs: images stay small, document binaries get headroom.
var (
	ServiceImage = Slot{Dir: "images", MaxBytes: 5 << 20,
		Exts: extSet("jpeg", "jpg", "png", "gif", "webp")}
	DocumentFile = Slot{Dir: "documents", MaxBytes: 20 << 20,
		Exts: extSet("pdf", "doc", "docx", "txt", "rtf", "odt", "ods", "odp",
			"xlsx", "xls", "csv", "pptx", "ppt")}
	Thumbnail = Slot{Dir: "thumbnails", MaxBytes: 5 << 20,
		Exts: extSet("jpeg", "jpg", "png", "gif", "webp")}
)

// Store writes uploads beneath a single root directory and serves their
// public paths under /uploads.
type Store struct {
	Root string
}

// NewStore creates the root and each slot directory up front so handlers
// never race on directory creation.
func NewStore(root string) (*Store, error) {
	for _, dir := range []string{"", ServiceImage.Dir, DocumentFile.Dir, Thumbnail.Dir} {
		if err := os.MkdirAll(filepath.Join(root, dir), 0o755); err != nil {
			return nil, err
		}
	}
	return &Store{Root: root}, nil
}

// Validate checks a file header against the slot without writing anything.
func (s *Store) Validate(fh *multipart.FileHeader, slot Slot) error {
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(fh.Filename), "."))
	if !slot.Exts[ext] {
		return ErrUnsupportedType
	}
	if fh.Size > slot.MaxBytes {
		return ErrTooLarge
	}
	return nil
}

// Save validates and streams the upload to disk, returning the public path
// ("/uploads/<dir>/<name>") to persist on the owning record.
func (s *Store) Save(fh *multipart.FileHeader, slot Slot) (string, error) {
	if err := s.Validate(fh, slot); err != nil {
		return "", err
	}
	src, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	name := uniqueName(fh.Filename)
	dst, err := os.Create(filepath.Join(s.Root, slot.Dir, name))
	if err != nil {
		return "", err
	}
	defer dst.Close()

	// LimitReader guards against a lying Content-Length in the part header.
	n, err := io.Copy(dst, io.LimitReader(src, slot.MaxBytes+1))
	if err != nil {
		_ = os.Remove(dst.Name())
		return "", err
	}
	if n > slot.MaxBytes {
		_ = os.Remove(dst.Name())
		return "", ErrTooLarge
	}
	return "/uploads/" + slot.Dir + "/" + name, nil
}

// Remove deletes a previously saved file by its public path.  A missing file
// is logged and swallowed; the database reference is already gone or about
// to be, and a dangling file is preferable to a failed request.
func (s *Store) Remove(publicPath string) {
	rel, ok := strings.CutPrefix(publicPath, "/uploads/")
	if !ok || rel == "" {
		return
	}
	if err := os.Remove(filepath.Join(s.Root, filepath.FromSlash(rel))); err != nil && !os.IsNotExist(err) {
		lg := logger.Get()
		lg.Warn().Str("path", publicPath).Err(err).Msg("could not remove uploaded file")
	}
}

// FilePath resolves a public path back to its location on disk.
func (s *Store) FilePath(publicPath string) (string, bool) {
	rel, ok := strings.CutPrefix(publicPath, "/uploads/")
	if !ok || rel == "" {
		return "", false
	}
	// Resolve and re-check so "../" segments cannot escape the root.
	full := filepath.Join(s.Root, filepath.FromSlash(rel))
	cleanRoot := filepath.Clean(s.Root) + string(filepath.Separator)
	if !strings.HasPrefix(full, cleanRoot) {
		return "", false
	}
	return full, true
}

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// uniqueName keeps the (sanitized) original file name for operator
// friendliness but prefixes a random component so uploads never collide.
func uniqueName(original string) string {
	base := unsafeChars.ReplaceAllString(path.Base(original), "-")
	base = strings.Trim(base, "-.")
	if base == "" {
		base = "file"
	}
	return uuid.NewString()[:8] + "-" + base
}
