package ustar

import (
	"bytes"
	"fmt"
	"io"
)

// testHeader describes a header record to be written by record.
type testHeader struct {
	name     string
	prefix   string
	linkname string
	typeflag byte
	mode     int64
	uid, gid int64
	size     int64
	mtime    int64
	uname    string
	gname    string

	// magic and version are written verbatim. Use magicUSTAR, magicGNU, or magicNone.
	magic, version string
}

const (
	magicUSTAR, versionUSTAR = "ustar\x00", "00"
	magicGNU, versionGNU     = "ustar ", " \x00"
	magicNone                = "\x00"
)

// record writes the header the same way ustar writers do: zero-padded octal with a trailing NUL, then the checksum.
func (th testHeader) record() []byte {
	header := make([]byte, RecordSize)
	copy(header[0:], th.name)
	copy(header[100:], fmt.Sprintf("%07o\x00", th.mode))
	copy(header[108:], fmt.Sprintf("%07o\x00", th.uid))
	copy(header[116:], fmt.Sprintf("%07o\x00", th.gid))
	copy(header[124:], fmt.Sprintf("%011o\x00", th.size))
	copy(header[136:], fmt.Sprintf("%011o\x00", th.mtime))
	copy(header[148:], "        ")
	header[156] = th.typeflag
	copy(header[157:], th.linkname)

	magic, version := th.magic, th.version
	if magic == "" {
		magic, version = magicUSTAR, versionUSTAR
	}
	copy(header[257:], magic)
	copy(header[263:], version)
	copy(header[265:], th.uname)
	copy(header[297:], th.gname)
	copy(header[329:], "0000000\x00")
	copy(header[337:], "0000000\x00")
	copy(header[345:], th.prefix)

	var sum int64
	for _, b := range header {
		sum += int64(b)
	}
	copy(header[148:], fmt.Sprintf("%06o\x00 ", sum))

	return header
}

// testEntry is a header plus its content. The header's size is set from the content unless the header says otherwise.
type testEntry struct {
	hdr     testHeader
	content []byte
}

func file(name string, content string) testEntry {
	return testEntry{
		hdr:     testHeader{name: name, typeflag: '0', mode: 0644, uid: 1000, gid: 1000, mtime: 1700000000, uname: "user", gname: "group"},
		content: []byte(content),
	}
}

func dir(name string) testEntry {
	return testEntry{hdr: testHeader{name: name, typeflag: '5', mode: 0755, mtime: 1700000000}}
}

// buildTar writes the entries, padding content to the record boundary, followed by two end records.
func buildTar(entries ...testEntry) []byte {
	var buf bytes.Buffer
	for _, e := range entries {
		if e.hdr.size == 0 {
			e.hdr.size = int64(len(e.content))
		}
		buf.Write(e.hdr.record())
		buf.Write(e.content)
		if n := len(e.content) % RecordSize; n != 0 {
			buf.Write(make([]byte, RecordSize-n))
		}
	}

	buf.Write(make([]byte, 2*RecordSize))
	return buf.Bytes()
}

// chunkedReader returns at most n bytes per Read to exercise repeated reads of one block.
type chunkedReader struct {
	r io.Reader
	n int
}

func (c *chunkedReader) Read(p []byte) (int, error) {
	if len(p) > c.n {
		p = p[:c.n]
	}
	return c.r.Read(p)
}

// closeCounter counts Close calls.
type closeCounter struct {
	io.Reader
	closed int
}

func (c *closeCounter) Close() error {
	c.closed++
	return nil
}
