// Package fsutil has the small file helpers the tools share: output
// name construction, list files, gzip-aware reading and a tail -1
// equivalent.
package fsutil

import (
	"bufio"
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
)

// GzipExt marks compressed Gaussian output
const GzipExt = ".gz"

// TrimExt returns filename without its extension
func TrimExt(filename string) string {
	return strings.TrimSuffix(filename, filepath.Ext(filename))
}

// OutName builds an output file name from src. The result lives in
// dir, or in the directory of src when dir is empty, and is named with
// the base name of src stripped of its extension, followed by suffix
// and ext. An empty ext keeps the extension of src.
func OutName(src, suffix, ext, dir string) string {
	if dir == "" {
		dir = filepath.Dir(src)
	}
	base := filepath.Base(src)
	if ext == "" {
		ext = filepath.Ext(base)
	}
	return filepath.Join(dir, TrimExt(base)+suffix+ext)
}

// Exists reports whether filename is a regular file
func Exists(filename string) bool {
	info, err := os.Stat(filename)
	return err == nil && info.Mode().IsRegular()
}

// DirExists reports whether dir is a directory
func DirExists(dir string) bool {
	info, err := os.Stat(dir)
	return err == nil && info.IsDir()
}

// ReadList returns the trimmed, non-blank lines of filename
func ReadList(filename string) ([]string, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var ret []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			ret = append(ret, line)
		}
	}
	return ret, scanner.Err()
}

// WriteString writes s to filename with permissions perm
func WriteString(filename, s string, perm os.FileMode) error {
	return os.WriteFile(filename, []byte(s), perm)
}

// WriteLines writes each line followed by a newline to filename
func WriteLines(filename string, lines []string) error {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	for _, line := range lines {
		w.WriteString(line)
		w.WriteByte('\n')
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

type gzipFile struct {
	*gzip.Reader
	f *os.File
}

func (g gzipFile) Close() error {
	g.Reader.Close()
	return g.f.Close()
}

// Open opens filename for reading, decompressing it when the name ends
// in GzipExt
func Open(filename string) (io.ReadCloser, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	if !strings.HasSuffix(filename, GzipExt) {
		return f, nil
	}
	zr, err := gzip.NewReader(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	return gzipFile{Reader: zr, f: f}, nil
}

// LastLine returns the last line of filename with surrounding
// whitespace removed, matching `tail -1`: a single trailing newline
// does not start a new line, but a trailing blank line does.
// Plain files are read backwards from the end a chunk at a time.
func LastLine(filename string) (string, error) {
	if strings.HasSuffix(filename, GzipExt) {
		r, err := Open(filename)
		if err != nil {
			return "", err
		}
		defer r.Close()
		byts, err := io.ReadAll(r)
		if err != nil {
			return "", err
		}
		return lastLine(byts), nil
	}
	f, err := os.Open(filename)
	if err != nil {
		return "", err
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return "", err
	}
	size := info.Size()
	for chunk := int64(tailChunk); ; chunk *= 2 {
		off := max(size-chunk, 0)
		byts := make([]byte, size-off)
		if _, err := f.ReadAt(byts, off); err != nil && err != io.EOF {
			return "", err
		}
		if off == 0 || bytes.IndexByte(bytes.TrimSuffix(byts, []byte("\n")), '\n') >= 0 {
			return lastLine(byts), nil
		}
	}
}

// tailChunk is the first read size of LastLine
const tailChunk = 4096

func lastLine(byts []byte) string {
	byts = bytes.TrimSuffix(byts, []byte("\n"))
	if i := bytes.LastIndexByte(byts, '\n'); i >= 0 {
		byts = byts[i+1:]
	}
	return strings.TrimSpace(string(byts))
}
