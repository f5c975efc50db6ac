// Package fsutil abstracts the filesystem so instrument files, config and
// converted outputs can live in memory during tests.
package fsutil

import (
	"bytes"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// FileSystem is the set of file operations the converter performs.
// OSFileSystem is the production implementation.
type FileSystem interface {
	// Open opens an instrument or parameter file for reading.
	Open(name string) (fs.File, error)
	// Create creates or truncates an output file.
	Create(name string) (io.WriteCloser, error)
	// ReadFile returns the whole contents of name.
	ReadFile(name string) ([]byte, error)
	// WriteFile replaces name with data.
	WriteFile(name string, data []byte, perm os.FileMode) error
	// Stat describes name without opening it.
	Stat(name string) (fs.FileInfo, error)
	// MkdirAll creates an output directory and its parents.
	MkdirAll(path string, perm os.FileMode) error
}

// OSFileSystem implements FileSystem on the host filesystem.
type OSFileSystem struct{}

func (OSFileSystem) Open(name string) (fs.File, error)          { return os.Open(name) }
func (OSFileSystem) Create(name string) (io.WriteCloser, error) { return os.Create(name) }
func (OSFileSystem) ReadFile(name string) ([]byte, error)       { return os.ReadFile(name) }
func (OSFileSystem) Stat(name string) (fs.FileInfo, error)      { return os.Stat(name) }

func (OSFileSystem) WriteFile(name string, data []byte, perm os.FileMode) error {
	return os.WriteFile(name, data, perm)
}

func (OSFileSystem) MkdirAll(path string, perm os.FileMode) error {
	return os.MkdirAll(path, perm)
}

// MemoryFileSystem keeps files in a map keyed by cleaned path. It is safe
// for concurrent use, so converter worker pools can share one in tests.
type MemoryFileSystem struct {
	mu      sync.RWMutex
	entries map[string]*entry
}

// entry is a stored file or directory. File contents are never mutated in
// place; writers swap in a fresh slice.
type entry struct {
	data []byte
	mode os.FileMode
}

func (e *entry) info(name string) fs.FileInfo {
	return entryInfo{name: filepath.Base(name), size: int64(len(e.data)), mode: e.mode}
}

// NewMemoryFileSystem returns an empty in-memory filesystem.
func NewMemoryFileSystem() *MemoryFileSystem {
	return &MemoryFileSystem{entries: make(map[string]*entry)}
}

func (m *MemoryFileSystem) lookup(op, name string) (string, *entry, error) {
	name = filepath.Clean(name)
	m.mu.RLock()
	e, ok := m.entries[name]
	m.mu.RUnlock()
	if !ok {
		return name, nil, &fs.PathError{Op: op, Path: name, Err: fs.ErrNotExist}
	}
	return name, e, nil
}

func (m *MemoryFileSystem) store(name string, data []byte, perm os.FileMode) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[filepath.Clean(name)] = &entry{data: data, mode: perm.Perm()}
}

// Open returns a reader over a snapshot of the file's contents.
func (m *MemoryFileSystem) Open(name string) (fs.File, error) {
	name, e, err := m.lookup("open", name)
	if err != nil {
		return nil, err
	}
	if e.mode.IsDir() {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrInvalid}
	}
	return &openFile{Reader: bytes.NewReader(e.data), info: e.info(name)}, nil
}

// Create truncates name immediately; written bytes land on Close.
func (m *MemoryFileSystem) Create(name string) (io.WriteCloser, error) {
	m.store(name, nil, 0644)
	return &pendingFile{fs: m, name: name}, nil
}

// ReadFile returns a copy of the file's contents.
func (m *MemoryFileSystem) ReadFile(name string) ([]byte, error) {
	f, err := m.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

// WriteFile stores a copy of data.
func (m *MemoryFileSystem) WriteFile(name string, data []byte, perm os.FileMode) error {
	m.store(name, bytes.Clone(data), perm)
	return nil
}

// Stat describes a stored file or directory.
func (m *MemoryFileSystem) Stat(name string) (fs.FileInfo, error) {
	name, e, err := m.lookup("stat", name)
	if err != nil {
		return nil, err
	}
	return e.info(name), nil
}

// MkdirAll records path and each of its parents as directories.
func (m *MemoryFileSystem) MkdirAll(path string, perm os.FileMode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for p := filepath.Clean(path); ; p = filepath.Dir(p) {
		if _, ok := m.entries[p]; !ok {
			m.entries[p] = &entry{mode: fs.ModeDir | perm.Perm()}
		}
		if parent := filepath.Dir(p); parent == p {
			return nil
		}
	}
}

type openFile struct {
	*bytes.Reader
	info fs.FileInfo
}

func (f *openFile) Stat() (fs.FileInfo, error) { return f.info, nil }
func (f *openFile) Close() error               { return nil }

type pendingFile struct {
	fs   *MemoryFileSystem
	name string
	buf  bytes.Buffer
}

func (f *pendingFile) Write(p []byte) (int, error) { return f.buf.Write(p) }

func (f *pendingFile) Close() error {
	f.fs.store(f.name, bytes.Clone(f.buf.Bytes()), 0644)
	return nil
}

type entryInfo struct {
	name string
	size int64
	mode os.FileMode
}

func (i entryInfo) Name() string       { return i.name }
func (i entryInfo) Size() int64        { return i.size }
func (i entryInfo) Mode() os.FileMode  { return i.mode }
func (i entryInfo) ModTime() time.Time { return time.Time{} }
func (i entryInfo) IsDir() bool        { return i.mode.IsDir() }
func (i entryInfo) Sys() any           { return nil }
