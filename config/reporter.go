package config

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"richcopy/misc"
)

type ReporterConfig struct {
	Destination string `yaml:"destination" sanitize:"path_clean,assure_dir_exists_for_file" validate:"required,filepath"`
}

// Prepare creates initialized empty reporter.
func (conf *ReporterConfig) Prepare() (*Report, error) {
	f, err := os.Create(conf.Destination)
	if err != nil {
		if f, err = os.CreateTemp("", misc.GetAppName()+"-report.*.zip"); err != nil {
			return nil, fmt.Errorf("unable to create report: %w", err)
		}
	}
	return &Report{entries: make(map[string]entry), versions: make(map[string]int), file: f}, nil
}

// entry is either a file on disk read when report is finalized or data kept
// in memory.
type entry struct {
	original string
	actual   string
	stamp    time.Time
	data     []byte
}

func (e entry) size() int {
	if e.data != nil {
		return len(e.data)
	}
	if info, err := os.Stat(e.actual); err == nil && info.Mode().IsRegular() {
		return int(info.Size())
	}
	return -1
}

// Report accumulates everything necessary to troubleshoot a run: processed
// configuration, settings, logs and intermediate results of every export
// (source, aggregated styles, inlined tree, final artifact). Nil report is
// valid and ignores everything. Safe for concurrent use.
type Report struct {
	mu       sync.Mutex
	entries  map[string]entry
	versions map[string]int
	file     *os.File
}

// Close finalizes debug report.
func (r *Report) Close() error {
	if r == nil || r.file == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	err := r.finalize()
	if cerr := r.file.Close(); err == nil {
		err = cerr
	}
	return err
}

// Name returns name of underlying file.
func (r *Report) Name() string {
	if r == nil || r.file == nil {
		return ""
	}
	if n, err := filepath.Abs(r.file.Name()); err == nil {
		return n
	}
	return r.file.Name()
}

// Store remembers path of a file to be put in the archive under name. File
// is read when report is finalized, so it may still change until then.
func (r *Report) Store(name, file string) {
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if old, exists := r.entries[name]; exists && old.original != file {
		panic(fmt.Sprintf("Attempt to overwrite file in the report for [%s]: was %s, now %s", name, old.original, file))
	}
	e := entry{original: file, actual: file}
	if p, err := filepath.Abs(file); err == nil {
		e.actual = p
	}
	r.entries[name] = e
}

// StoreData keeps copy of data to be put in the archive under name. Storing
// the same name again adds new version: "artifact.html", "artifact-2.html"
// and so on.
func (r *Report) StoreData(name string, data []byte) {
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	r.versions[name]++
	if v := r.versions[name]; v > 1 {
		ext := path.Ext(name)
		name = fmt.Sprintf("%s-%d%s", name[:len(name)-len(ext)], v, ext)
	}
	r.entries[name] = entry{data: bytes.Clone(data), stamp: time.Now()}
}

func (r *Report) finalize() error {
	arc := zip.NewWriter(r.file)

	names := r.sortedNames()
	if err := saveFile(arc, "MANIFEST", time.Now(), r.manifest(names)); err != nil {
		return err
	}

	// in the same order as in manifest
	for _, name := range names {
		if err := r.save(arc, name, r.entries[name]); err != nil {
			return err
		}
	}
	return arc.Close()
}

func (r *Report) save(arc *zip.Writer, name string, e entry) error {
	if e.data != nil {
		return saveFile(arc, name, e.stamp, bytes.NewReader(e.data))
	}
	// absent files and anything which is not a regular file are skipped
	info, err := os.Stat(e.actual)
	if err != nil || !info.Mode().IsRegular() {
		return nil
	}
	f, err := os.Open(e.actual)
	if err != nil {
		return err
	}
	defer f.Close()
	return saveFile(arc, name, info.ModTime(), f)
}

func (r *Report) sortedNames() []string {
	names := make([]string, 0, len(r.entries))
	for k := range r.entries {
		names = append(names, k)
	}
	slices.Sort(names)
	return names
}

func (r *Report) manifest(names []string) *bytes.Buffer {
	now := time.Now()
	buf := new(bytes.Buffer)
	for _, name := range names {
		e := r.entries[name]
		stamp := e.stamp
		if stamp.IsZero() {
			stamp = now
		}
		source := "(memory)"
		if e.data == nil {
			source = e.original + " : " + e.actual
		}
		fmt.Fprintf(buf, "%s\t%s\t%d\t%s\n", stamp.UTC().Format(time.UnixDate), name, e.size(), source)
	}
	return buf
}

func saveFile(dst *zip.Writer, name string, t time.Time, src io.Reader) error {
	w, err := dst.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Deflate, Modified: t})
	if err != nil {
		return err
	}
	_, err = io.Copy(w, src)
	return err
}
