package ingest

import (
	"bytes"
	"compress/bzip2"
	"compress/gzip"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/banshee-data/ctdconvert/internal/fsutil"
	"github.com/banshee-data/ctdconvert/internal/header"
)

var bom = []byte{0xef, 0xbb, 0xbf}

// ReadLines returns the lines of the file at path. Gzip and bzip2 files are
// decompressed by extension, a UTF-8 byte order mark is dropped and CR or
// CRLF line endings are treated as LF.
func ReadLines(fs fsutil.FileSystem, path string) ([]string, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	_, compression := DetectType(path)
	r, err := decompress(compression, f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	b, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return SplitLines(b), nil
}

// SplitLines normalises line endings and splits b into lines. A trailing
// newline does not produce an empty final line.
func SplitLines(b []byte) []string {
	b = bytes.TrimPrefix(b, bom)
	b = bytes.ReplaceAll(b, []byte("\r\n"), []byte("\n"))
	b = bytes.ReplaceAll(b, []byte("\r"), []byte("\n"))
	s := strings.TrimSuffix(string(b), "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

func decompress(t string, r io.Reader) (io.Reader, error) {
	switch t {
	case "":
		return r, nil
	case "gz":
		return gzip.NewReader(r)
	case "bz2":
		return bzip2.NewReader(r), nil
	}
	return nil, fmt.Errorf("compression type not supported: %s", t)
}

// DetectType splits a path's extensions into the data extension and the
// compression extension, e.g. "cast.cnv.gz" gives ".cnv" and "gz".
func DetectType(path string) (ext, compression string) {
	name := strings.ToLower(filepath.Base(path))
	switch e := filepath.Ext(name); e {
	case ".gz", ".gzip":
		compression = "gz"
		name = strings.TrimSuffix(name, e)
	case ".bz2", ".bzip2":
		compression = "bz2"
		name = strings.TrimSuffix(name, e)
	}
	return filepath.Ext(name), compression
}

// DetectFormat picks the file format from the path's extension.
func DetectFormat(path string) (*header.Format, error) {
	ext, _ := DetectType(path)
	for _, f := range header.Formats {
		for _, e := range f.Extensions {
			if ext == e {
				return f, nil
			}
		}
	}
	return nil, fmt.Errorf("cannot detect format of %s from extension %q", path, ext)
}
