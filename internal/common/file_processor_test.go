package common

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"resumatch/internal/errors"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

// minimalPDF builds a one-page PDF whose page shows each line with Tj.
func minimalPDF(lines ...string) []byte {
	var content bytes.Buffer
	content.WriteString("BT\n/F1 12 Tf\n72 720 Td\n")
	for _, line := range lines {
		fmt.Fprintf(&content, "(%s) Tj\n0 -14 Td\n", line)
	}
	content.WriteString("ET")

	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 4 0 R >> >> /Contents 5 0 R >>",
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>",
		fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", content.Len(), content.String()),
	}

	var doc bytes.Buffer
	doc.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = doc.Len()
		fmt.Fprintf(&doc, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}
	xref := doc.Len()
	fmt.Fprintf(&doc, "xref\n0 %d\n0000000000 65535 f \n", len(objects)+1)
	for _, off := range offsets {
		fmt.Fprintf(&doc, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&doc, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return doc.Bytes()
}

func TestReadFilePDF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "resume.pdf")
	if err := os.WriteFile(path, minimalPDF("Experienced Python developer"), 0600); err != nil {
		t.Fatal(err)
	}

	text, err := NewFileProcessor(nil, 0).ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.Contains(text, "Experienced Python developer") {
		t.Errorf("text = %q, want the page text", text)
	}
	for _, syntax := range []string{"obj", "Tj", "/Type", "%PDF"} {
		if strings.Contains(text, syntax) {
			t.Errorf("text %q leaks PDF syntax %q", text, syntax)
		}
	}
}

func TestExtractHTMLText(t *testing.T) {
	html := `<html><head><title>Job</title><style>p{color:red}</style></head>
<body><nav>Home | Jobs</nav>
<h1>Senior Go Engineer</h1>
<ul><li>Kubernetes</li><li>PostgreSQL</li></ul>
<p>Build   distributed systems.<script>track()</script></p>
<footer>Copyright</footer></body></html>`

	got, err := ExtractHTMLText(strings.NewReader(html))
	if err != nil {
		t.Fatalf("ExtractHTMLText: %v", err)
	}
	want := "Senior Go Engineer\nKubernetes\nPostgreSQL\nBuild distributed systems."
	if got != want {
		t.Errorf("ExtractHTMLText = %q, want %q", got, want)
	}
}

func TestReadDocuments(t *testing.T) {
	dir := t.TempDir()
	resume := writeFile(t, dir, "resume.txt", "Go developer")
	posting := writeFile(t, dir, "job.html", "<p>Backend engineer</p><p>Kafka</p>")

	contents, err := NewFileProcessor(nil, 1024).ReadDocuments(resume, posting)
	if err != nil {
		t.Fatalf("ReadDocuments: %v", err)
	}
	if contents[0] != "Go developer" || contents[1] != "Backend engineer\nKafka" {
		t.Errorf("contents = %q", contents)
	}
}

func TestReadDocumentsErrors(t *testing.T) {
	dir := t.TempDir()
	large := writeFile(t, dir, "large.txt", strings.Repeat("x", 2048))
	fakePDF := writeFile(t, dir, "resume.pdf", "Python developer, not really a PDF")
	truncatedPDF := writeFile(t, dir, "cut.pdf", "%PDF-1.4\n1 0 obj\n<< /Type /Catalog")
	binary := writeFile(t, dir, "resume.docx", "PK\x03\x04\x00\x00binary")

	tests := []struct {
		name     string
		filename string
		code     string
		typ      errors.ErrorType
	}{
		{"missing file", filepath.Join(dir, "missing.txt"), errors.ErrCodeFileNotFound, errors.ErrorTypeIO},
		{"directory", dir, "INVALID_INPUT_FILE", errors.ErrorTypeIO},
		{"too large", large, "FILE_TOO_LARGE", errors.ErrorTypeValidation},
		{"not a PDF", fakePDF, errors.ErrCodeFileNotReadable, errors.ErrorTypeIO},
		{"truncated PDF", truncatedPDF, errors.ErrCodeFileNotReadable, errors.ErrorTypeIO},
		{"unknown binary", binary, errors.ErrCodeFileNotReadable, errors.ErrorTypeIO},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewFileProcessor(nil, 1024).ReadDocuments(tt.filename)
			appErr, ok := errors.As(err)
			if !ok {
				t.Fatalf("expected AppError, got %v", err)
			}
			if appErr.Code != tt.code || appErr.Type != tt.typ {
				t.Errorf("got %s/%s, want %s/%s", appErr.Type, appErr.Code, tt.typ, tt.code)
			}
		})
	}
}

func TestWriteFileCreatesDirectory(t *testing.T) {
	target := filepath.Join(t.TempDir(), "out", "report.md")
	if err := NewFileProcessor(nil, 0).WriteFile(target, "# Report\n"); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	data, err := os.ReadFile(target)
	if err != nil || string(data) != "# Report\n" {
		t.Errorf("content = %q, %v", data, err)
	}
}

func TestReadFileNotFound(t *testing.T) {
	_, err := NewFileProcessor(nil, 0).ReadFile(filepath.Join(t.TempDir(), "nope.txt"))
	appErr, ok := errors.As(err)
	if !ok || appErr.Code != errors.ErrCodeFileNotFound {
		t.Fatalf("expected FILE_NOT_FOUND, got %v", err)
	}
}
