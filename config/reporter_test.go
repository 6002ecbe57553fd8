package config

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

func TestReport_NilIsNoop(t *testing.T) {
	var r *Report
	r.Store("a", "/nonexistent")
	r.StoreData("b", []byte("data"))
	if r.Name() != "" {
		t.Errorf("Name() = %q, want empty", r.Name())
	}
	if err := r.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

func TestReport_Archive(t *testing.T) {
	dir := t.TempDir()

	conf := ReporterConfig{Destination: filepath.Join(dir, "report.zip")}
	r, err := conf.Prepare()
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}

	stored := filepath.Join(dir, "note.md")
	if err := os.WriteFile(stored, []byte("# Title"), 0644); err != nil {
		t.Fatal(err)
	}
	r.Store("source/note.md", stored)
	r.Store("missing.log", filepath.Join(dir, "missing.log"))
	r.StoreData("artifact.html", []byte("<p>one</p>"))
	r.StoreData("artifact.html", []byte("<p>two</p>"))

	if err := r.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	zr, err := zip.OpenReader(conf.Destination)
	if err != nil {
		t.Fatalf("unable to open report: %v", err)
	}
	defer zr.Close()

	names := make(map[string]string)
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("unable to open %s: %v", f.Name, err)
		}
		data, _ := io.ReadAll(rc)
		rc.Close()
		names[f.Name] = string(data)
	}

	if _, ok := names["MANIFEST"]; !ok {
		t.Error("MANIFEST is missing")
	}
	if names["source/note.md"] != "# Title" {
		t.Errorf("stored file content = %q", names["source/note.md"])
	}
	if _, ok := names["missing.log"]; ok {
		t.Error("absent file should be skipped")
	}
	if names["artifact.html"] != "<p>one</p>" || names["artifact-2.html"] != "<p>two</p>" {
		t.Errorf("versioned data entries: %q, %q", names["artifact.html"], names["artifact-2.html"])
	}
	manifest := names["MANIFEST"]
	if !strings.Contains(manifest, "source/note.md\t7\t") || !strings.Contains(manifest, "artifact-2.html\t10\t(memory)") {
		t.Errorf("unexpected manifest:\n%s", manifest)
	}
}

func TestReport_Concurrent(t *testing.T) {
	conf := ReporterConfig{Destination: filepath.Join(t.TempDir(), "report.zip")}
	r, err := conf.Prepare()
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.StoreData("export/styles.css", []byte("p {}"))
		}()
	}
	wg.Wait()
	if err := r.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	zr, err := zip.OpenReader(conf.Destination)
	if err != nil {
		t.Fatal(err)
	}
	defer zr.Close()
	// manifest plus every version
	if len(zr.File) != 9 {
		t.Errorf("archive has %d entries, want 9", len(zr.File))
	}
}
