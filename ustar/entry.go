package ustar

import (
	"io/fs"
	"path"
	"time"
)

// Entry is the read-only view of a decoded header that is exposed to callers.
type Entry struct {
	hdr *Header
}

// NewEntry creates an Entry by parsing the given header record.
func NewEntry(record []byte, optFns ...func(*HeaderOptions)) (Entry, error) {
	h, err := ParseHeader(record, optFns...)
	if err != nil {
		return Entry{}, err
	}

	return Entry{hdr: h}, nil
}

// Name returns the full name of the entry in the archive.
func (e Entry) Name() string {
	return e.hdr.Name()
}

// Size returns the length of the entry's content in bytes.
func (e Entry) Size() int64 {
	return e.hdr.Size()
}

// IsDirectory see Header.IsDirectory.
func (e Entry) IsDirectory() bool {
	return e.hdr.IsDirectory()
}

// ModTime returns the modification time.
func (e Entry) ModTime() time.Time {
	return e.hdr.ModTime()
}

// Mode returns the file mode.
func (e Entry) Mode() fs.FileMode {
	return e.hdr.FileMode()
}

// Header returns the backing Header.
func (e Entry) Header() *Header {
	return e.hdr
}

// FileInfo returns an fs.FileInfo describing the entry.
func (e Entry) FileInfo() fs.FileInfo {
	return entryInfo{e}
}

func (e Entry) String() string {
	return "Entry" + e.hdr.String()
}

type entryInfo struct {
	e Entry
}

func (i entryInfo) Name() string       { return path.Base(i.e.Name()) }
func (i entryInfo) Size() int64        { return i.e.Size() }
func (i entryInfo) Mode() fs.FileMode  { return i.e.Mode() }
func (i entryInfo) ModTime() time.Time { return i.e.ModTime() }
func (i entryInfo) IsDir() bool        { return i.e.IsDirectory() }
func (i entryInfo) Sys() any           { return i.e.hdr }
