package export

import (
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gridpoint/meter-export/internal/core"
)

// FileStore persists gzip-compressed artifacts on the local filesystem under
// deterministic names. Writers stream through a temp file and rename on
// commit, so a crashed export never leaves a partial artifact at the final
// path.
type FileStore struct {
	dir string
}

var _ core.ArtifactStore = (*FileStore)(nil)

// NewFileStore creates the store, ensuring the directory exists.
func NewFileStore(dir string) (*FileStore, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("artifact directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create artifact directory %s: %w", dir, err)
	}
	return &FileStore{dir: dir}, nil
}

// ArtifactName derives the deterministic artifact file name from the export
// parameters. Repeated exports of the same parameters map to the same name,
// distinguishable by inspection; no content-addressing is implied.
func (s *FileStore) ArtifactName(spec core.ArtifactSpec) string {
	const dateFormat = "20060102"
	return fmt.Sprintf("meter_%s_%s_%s.%s.gz",
		spec.MeterID,
		spec.Start.UTC().Format(dateFormat),
		spec.End.UTC().Format(dateFormat),
		spec.Format.Ext(),
	)
}

// Create opens a streaming, compressing writer for the named artifact.
func (s *FileStore) Create(name string) (core.ArtifactWriter, error) {
	finalPath := filepath.Join(s.dir, name)
	tmpPath := finalPath + ".tmp"

	f, err := os.Create(tmpPath)
	if err != nil {
		return nil, fmt.Errorf("create artifact temp file: %w", err)
	}

	return &artifactWriter{
		file:      f,
		gz:        gzip.NewWriter(f),
		tmpPath:   tmpPath,
		finalPath: finalPath,
	}, nil
}

// Open returns the raw gzip byte stream and its size.
func (s *FileStore) Open(name string) (io.ReadCloser, int64, error) {
	path := filepath.Join(s.dir, name)
	info, err := os.Stat(path)
	if err != nil {
		return nil, 0, fmt.Errorf("stat artifact %s: %w", name, err)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("open artifact %s: %w", name, err)
	}
	return f, info.Size(), nil
}

// OpenDecompressed returns the artifact content decompressed on the fly.
func (s *FileStore) OpenDecompressed(name string) (io.ReadCloser, error) {
	f, err := os.Open(filepath.Join(s.dir, name))
	if err != nil {
		return nil, fmt.Errorf("open artifact %s: %w", name, err)
	}
	gz, err := gzip.NewReader(f)
	if err != nil {
		closeErr := f.Close()
		return nil, errors.Join(fmt.Errorf("decompress artifact %s: %w", name, err), closeErr)
	}
	return &decompressedReader{gz: gz, file: f}, nil
}

// Exists reports whether the named artifact is present on storage.
func (s *FileStore) Exists(name string) bool {
	_, err := os.Stat(filepath.Join(s.dir, name))
	return err == nil
}

// artifactWriter streams through gzip into a temp file and renames into
// place on Commit.
type artifactWriter struct {
	file      *os.File
	gz        *gzip.Writer
	tmpPath   string
	finalPath string
	done      bool
}

func (w *artifactWriter) Write(p []byte) (int, error) {
	return w.gz.Write(p)
}

// Commit flushes, renames the temp file into place, and returns the
// compressed artifact size.
func (w *artifactWriter) Commit() (int64, error) {
	if w.done {
		return 0, errors.New("artifact writer already finished")
	}
	w.done = true

	if err := w.gz.Close(); err != nil {
		w.cleanup()
		return 0, fmt.Errorf("close gzip stream: %w", err)
	}
	if err := w.file.Close(); err != nil {
		w.cleanup()
		return 0, fmt.Errorf("close artifact file: %w", err)
	}
	if err := os.Rename(w.tmpPath, w.finalPath); err != nil {
		w.cleanup()
		return 0, fmt.Errorf("commit artifact: %w", err)
	}

	info, err := os.Stat(w.finalPath)
	if err != nil {
		return 0, fmt.Errorf("stat committed artifact: %w", err)
	}
	return info.Size(), nil
}

// Abort discards any partial output. No-op after Commit.
func (w *artifactWriter) Abort() error {
	if w.done {
		return nil
	}
	w.done = true

	err := errors.Join(w.gz.Close(), w.file.Close())
	w.cleanup()
	return err
}

func (w *artifactWriter) cleanup() {
	// Best effort: the temp file may already be gone.
	_ = os.Remove(w.tmpPath)
}

type decompressedReader struct {
	gz   *gzip.Reader
	file *os.File
}

func (r *decompressedReader) Read(p []byte) (int, error) {
	return r.gz.Read(p)
}

func (r *decompressedReader) Close() error {
	return errors.Join(r.gz.Close(), r.file.Close())
}
