// Package testfs provides an in-memory fs.FS of flat filename → content
// for exercising the Suite Loader without touching disk. It is adapted
// from the teacher's go/mapfs package, which maps a virtual filename to
// a path on real disk and opens it with os.Open; here the content lives
// in the map itself; no file descriptor is ever opened.
package testfs

import (
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"time"
)

// FS is a flat, single-directory in-memory filesystem: every file lives
// at the root, keyed by its base filename.
type FS map[string]string

var _ fs.FS = FS(nil)

func (f FS) Open(name string) (fs.File, error) {
	if name == "." {
		entries := make([]fs.DirEntry, 0, len(f))
		for base, content := range f {
			entries = append(entries, fileDirEntry{name: base, size: int64(len(content))})
		}
		return &virtualDir{entries: entries}, nil
	}

	content, ok := f[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", fs.ErrNotExist, name)
	}
	return &virtualFile{name: name, Reader: bytes.NewReader([]byte(content)), size: int64(len(content))}, nil
}

type virtualFile struct {
	*bytes.Reader
	name string
	size int64
}

func (f *virtualFile) Stat() (fs.FileInfo, error) {
	return fileDirEntry{name: f.name, size: f.size}, nil
}

func (f *virtualFile) Close() error { return nil }

type virtualDir struct {
	entries []fs.DirEntry
	pos     int
}

func (d *virtualDir) Stat() (fs.FileInfo, error) { return dirInfo{}, nil }
func (d *virtualDir) Read([]byte) (int, error)   { return 0, io.EOF }
func (d *virtualDir) Close() error                { return nil }

func (d *virtualDir) ReadDir(n int) ([]fs.DirEntry, error) {
	if d.pos >= len(d.entries) {
		if n <= 0 {
			return nil, nil
		}
		return nil, io.EOF
	}
	if n <= 0 || d.pos+n > len(d.entries) {
		n = len(d.entries) - d.pos
	}
	entries := d.entries[d.pos : d.pos+n]
	d.pos += n
	return entries, nil
}

// fileDirEntry implements both fs.DirEntry and fs.FileInfo for a flat file.
type fileDirEntry struct {
	name string
	size int64
}

func (e fileDirEntry) Name() string               { return e.name }
func (e fileDirEntry) IsDir() bool                 { return false }
func (e fileDirEntry) Type() fs.FileMode           { return 0 }
func (e fileDirEntry) Info() (fs.FileInfo, error)  { return e, nil }
func (e fileDirEntry) Size() int64                 { return e.size }
func (e fileDirEntry) Mode() fs.FileMode           { return 0 }
func (e fileDirEntry) ModTime() time.Time          { return time.Time{} }
func (e fileDirEntry) Sys() interface{}            { return nil }

type dirInfo struct{}

func (dirInfo) Name() string       { return "." }
func (dirInfo) Size() int64        { return 0 }
func (dirInfo) Mode() fs.FileMode  { return fs.ModeDir }
func (dirInfo) ModTime() time.Time { return time.Time{} }
func (dirInfo) IsDir() bool        { return true }
func (dirInfo) Sys() interface{}   { return nil }
