package testsupport

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadFixture(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fixture.txt")
	content := []byte("fixture content")
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}

	got := LoadFixture(t, path)
	if string(got) != string(content) {
		t.Errorf("LoadFixture() = %q, want %q", got, content)
	}
}

func TestLoadFixtureJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fixture.json")
	if err := os.WriteFile(path, []byte(`{"name":"triple","count":3}`), 0o644); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}

	var dest struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}
	LoadFixtureJSON(t, path, &dest)
	if dest.Name != "triple" || dest.Count != 3 {
		t.Errorf("LoadFixtureJSON() = %+v", dest)
	}
}

func TestWriteGolden_CreatesDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "golden", "out.txt")
	WriteGolden(t, path, []byte("expected"))

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("golden file not written: %v", err)
	}
	if string(data) != "expected" {
		t.Errorf("golden content = %q", data)
	}
}

func TestCompareWithGolden(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.golden")

	// First comparison creates the golden file.
	CompareWithGolden(t, path, []byte("canonical output"))
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("golden file not created on first run: %v", err)
	}

	// Matching output passes against the recorded golden.
	CompareWithGolden(t, path, []byte("canonical output"))
}

func TestFixturePath(t *testing.T) {
	if got := FixturePath("scenarios.json"); got != filepath.Join("testdata", "scenarios.json") {
		t.Errorf("FixturePath() = %q", got)
	}
	if got := GoldenPath("out.json"); got != filepath.Join("testdata", "golden", "out.json") {
		t.Errorf("GoldenPath() = %q", got)
	}
}
