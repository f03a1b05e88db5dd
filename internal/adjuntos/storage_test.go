package adjuntos

import (
	"strings"
	"testing"
)

func TestBuildObjectPath(t *testing.T) {
	got := BuildObjectPath("ini_1", "informe final.PDF")
	if !strings.HasPrefix(got, "ini_1/") {
		t.Fatalf("expected path under the initiative, got %q", got)
	}
	if !strings.HasSuffix(got, ".pdf") {
		t.Fatalf("expected lowercased extension, got %q", got)
	}
}

func TestBuildObjectPathNoExtension(t *testing.T) {
	got := BuildObjectPath("ini_2", "notas")
	if !strings.HasSuffix(got, ".bin") {
		t.Fatalf("expected .bin fallback for files without extension, got %q", got)
	}
}
