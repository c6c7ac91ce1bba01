package upload

import (
	"bytes"
	"errors"
	"mime/multipart"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// fileHeader builds a real multipart.FileHeader by round-tripping a form
// through the stdlib parser.
func fileHeader(t *testing.T, name string, content []byte) *multipart.FileHeader {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fw, err := w.CreateFormFile("file", name)
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	if _, err := fw.Write(content); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	req := httptest.NewRequest("POST", "/", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	if err := req.ParseMultipartForm(32 << 20); err != nil {
		t.Fatalf("ParseMultipartForm: %v", err)
	}
	return req.MultipartForm.File["file"][0]
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return s
}

func TestValidateRejectsUnsupportedExtension(t *testing.T) {
	s := newTestStore(t)
	fh := fileHeader(t, "malware.exe", []byte("MZ"))
	if err := s.Validate(fh, DocumentFile); !errors.Is(err, ErrUnsupportedType) {
		t.Errorf("err = %v, want ErrUnsupportedType", err)
	}
	fh = fileHeader(t, "report.pdf", []byte("%PDF"))
	if err := s.Validate(fh, ServiceImage); !errors.Is(err, ErrUnsupportedType) {
		t.Errorf("pdf in image slot: err = %v, want ErrUnsupportedType", err)
	}
}

func TestValidateRejectsOversize(t *testing.T) {
	s := newTestStore(t)
	fh := fileHeader(t, "big.png", bytes.Repeat([]byte("x"), 100))
	fh.Size = ServiceImage.MaxBytes + 1
	if err := s.Validate(fh, ServiceImage); !errors.Is(err, ErrTooLarge) {
		t.Errorf("err = %v, want ErrTooLarge", err)
	}
}

func TestSaveAndResolve(t *testing.T) {
	s := newTestStore(t)
	fh := fileHeader(t, "notes.txt", []byte("document body"))

	pub, err := s.Save(fh, DocumentFile)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !strings.HasPrefix(pub, "/uploads/documents/") {
		t.Errorf("public path = %q", pub)
	}
	if !strings.HasSuffix(pub, "-notes.txt") {
		t.Errorf("original name missing from %q", pub)
	}

	full, ok := s.FilePath(pub)
	if !ok {
		t.Fatalf("FilePath(%q) not resolved", pub)
	}
	bs, err := os.ReadFile(full)
	if err != nil {
		t.Fatalf("read saved file: %v", err)
	}
	if string(bs) != "document body" {
		t.Errorf("saved content = %q", bs)
	}
}

func TestSaveUniqueNames(t *testing.T) {
	s := newTestStore(t)
	a, err := s.Save(fileHeader(t, "same.txt", []byte("a")), DocumentFile)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	b, err := s.Save(fileHeader(t, "same.txt", []byte("b")), DocumentFile)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if a == b {
		t.Errorf("two uploads share the path %q", a)
	}
}

func TestRemoveDeletesFile(t *testing.T) {
	s := newTestStore(t)
	pub, err := s.Save(fileHeader(t, "gone.txt", []byte("x")), DocumentFile)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	full, _ := s.FilePath(pub)
	s.Remove(pub)
	if _, err := os.Stat(full); !os.IsNotExist(err) {
		t.Errorf("file still present after Remove: %v", err)
	}
	// A second Remove of the same path must be silent.
	s.Remove(pub)
}

func TestFilePathBlocksEscape(t *testing.T) {
	s := newTestStore(t)
	secret := filepath.Join(filepath.Dir(s.Root), "secret.txt")
	if err := os.WriteFile(secret, []byte("nope"), 0o600); err != nil {
		t.Fatalf("plant file: %v", err)
	}
	for _, p := range []string{
		"/uploads/../secret.txt",
		"/uploads/documents/../../secret.txt",
		"/etc/passwd",
		"/uploads/",
	} {
		if full, ok := s.FilePath(p); ok {
			t.Errorf("FilePath(%q) resolved to %q, want rejection", p, full)
		}
	}
}
