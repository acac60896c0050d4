package testsupport

import (
	"os"
	"path/filepath"
	"testing"
)

// WriteFile writes content to path, creating parent directories.
func WriteFile(t testing.TB, path, content string) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// SampleDocument is a small caption document used across package tests.
const SampleDocument = `WEBVTT

1
00:00:00.000 --> 00:00:02.000
Hi

2
00:00:02.000 --> 00:00:05.000 align:start
there <i>friend</i>

00:00:05.000 --> 00:00:08.500
How are
you today?
`

// WriteSampleDocument writes SampleDocument under the config base dir and
// returns its path.
func WriteSampleDocument(t testing.TB, dir string) string {
	t.Helper()

	path := filepath.Join(dir, "captions.vtt")
	WriteFile(t, path, SampleDocument)
	return path
}
