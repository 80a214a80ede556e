package ustar

import (
	"fmt"
	"io/fs"
	"log"
	"strings"
	"time"
)

// FieldSpec describes one header field: its name and its width in bytes.
type FieldSpec struct {
	Name  string
	Width int
}

// Layout is the POSIX header layout in on-disk order. Offsets are the cumulative widths.
//
// The widths add up to HeaderSize; the remaining 12 bytes of the record are padding.
var Layout = [...]FieldSpec{
	{"name", 100},
	{"mode", 8},
	{"uid", 8},
	{"gid", 8},
	{"size", 12},
	{"mtime", 12},
	{"chksum", 8},
	{"typeflag", 1},
	{"linkname", 100}, // last field of the original unix header.
	{"magic", 6},
	{"version", 2},
	{"uname", 32},
	{"gname", 32},
	{"devmajor", 8},
	{"devminor", 8},
	{"prefix", 155},
}

// HeaderSize is the number of significant bytes of a header record.
const HeaderSize = 500

const (
	fName = iota
	fMode
	fUID
	fGID
	fSize
	fMtime
	fChksum
	fTypeflag
	fLinkname
	fMagic
	fVersion
	fUname
	fGname
	fDevmajor
	fDevminor
	fPrefix
)

// Dialect is the header variant, derived from the magic field.
type Dialect int

const (
	// DialectUnix is the original unix (V7) header with an empty magic.
	DialectUnix Dialect = iota
	// DialectUSTAR has magic "ustar".
	DialectUSTAR
	// DialectGNU has a magic starting with "ustar" followed by more characters (usually "ustar ").
	DialectGNU
)

func (d Dialect) String() string {
	switch d {
	case DialectUnix:
		return "unix"
	case DialectUSTAR:
		return "ustar"
	case DialectGNU:
		return "gnu"
	default:
		return fmt.Sprintf("Dialect(%d)", int(d))
	}
}

// DialectOf classifies the decoded magic string.
//
// The boolean is false if the magic is not recognized.
func DialectOf(magic string) (Dialect, bool) {
	switch {
	case magic == "":
		return DialectUnix, true
	case magic == "ustar":
		return DialectUSTAR, true
	case strings.HasPrefix(magic, "ustar"):
		return DialectGNU, true
	default:
		return 0, false
	}
}

// HeaderOptions customises ParseHeader.
type HeaderOptions struct {
	// Logger receives the diagnostics for type flags whose action is reported.
	//
	// Default to log.Default.
	Logger *log.Logger

	// VerifyChecksum enables checksum verification. Off by default because many real-world archives carry bad
	// checksums.
	VerifyChecksum bool
}

// Header is the decoded header of one tar entry.
//
// Header is immutable once ParseHeader returns.
type Header struct {
	fields  [len(Layout)]*Field
	record  []byte
	dialect Dialect

	name     string
	mode     int
	uid      int
	gid      int
	size     int64
	mtime    int64
	checksum int
	typeFlag TypeFlag
	action   Action
	linkname string
	uname    string
	gname    string
	devmajor int
	devminor int
}

// ParseHeader decodes one header record.
//
// A record shorter than HeaderSize is zero-padded. ErrInvalidHeader is returned (possibly wrapped in a FieldError) if
// a numeric field is not octal or if the magic or type flag is not recognized, while an UnsupportedEntryError is
// returned if the type flag's action is ActionError.
func ParseHeader(record []byte, optFns ...func(*HeaderOptions)) (h *Header, err error) {
	opts := &HeaderOptions{Logger: log.Default()}
	for _, fn := range optFns {
		fn(opts)
	}

	h = &Header{record: make([]byte, RecordSize)}
	copy(h.record, record)

	offset := 0
	for i, spec := range Layout {
		h.fields[i] = newField(spec.Name, spec.Width, record, offset)
		offset += spec.Width
	}

	var ok bool
	if h.dialect, ok = DialectOf(h.fields[fMagic].String()); !ok {
		return nil, &FieldError{Field: "magic", Raw: append([]byte(nil), h.fields[fMagic].raw...), Reason: "unrecognized magic"}
	}

	h.name = reconstructName(h.fields[fPrefix], h.fields[fName])

	if h.mode, err = h.fields[fMode].Int(); err != nil {
		return nil, err
	}
	if h.uid, err = h.fields[fUID].Int(); err != nil {
		return nil, err
	}
	if h.gid, err = h.fields[fGID].Int(); err != nil {
		return nil, err
	}
	if h.size, err = h.fields[fSize].Int64(); err != nil {
		return nil, err
	}
	if h.mtime, err = h.fields[fMtime].Int64(); err != nil {
		return nil, err
	}
	if h.checksum, err = h.fields[fChksum].Int(); err != nil {
		return nil, err
	}
	h.linkname = h.fields[fLinkname].String()

	if h.dialect == DialectUSTAR {
		h.uname = h.fields[fUname].String()
		h.gname = h.fields[fGname].String()
		if h.devmajor, err = h.fields[fDevmajor].Int(); err != nil {
			return nil, err
		}
		if h.devminor, err = h.fields[fDevminor].Int(); err != nil {
			return nil, err
		}
	}

	h.typeFlag = TypeFlag(h.fields[fTypeflag].Byte())
	if h.action, ok = ActionOf(h.typeFlag); !ok {
		return nil, &FieldError{Field: "typeflag", Raw: append([]byte(nil), h.fields[fTypeflag].raw...), Reason: "unrecognized type flag"}
	}

	if h.action == ActionError {
		return nil, &UnsupportedEntryError{Name: h.name, TypeFlag: h.typeFlag}
	}

	if opts.VerifyChecksum && !h.VerifyChecksum() {
		return nil, &FieldError{Field: "chksum", Raw: append([]byte(nil), h.fields[fChksum].raw...), Reason: "checksum mismatch"}
	}

	if h.action.Report() {
		opts.Logger.Printf("report tar entry %s", h)
	}

	return h, nil
}

// reconstructName joins the ustar prefix and name fields with "/" if the prefix is not empty.
func reconstructName(prefix, name *Field) string {
	if prefix.Byte() != 0 {
		return prefix.String() + "/" + name.String()
	}

	return name.String()
}

// Name returns the full name of the entry, with the ustar prefix applied.
func (h *Header) Name() string {
	return h.name
}

// Size returns the length of the entry's content in bytes.
func (h *Header) Size() int64 {
	return h.size
}

// Mode returns the permission bits as stored in the header.
func (h *Header) Mode() int {
	return h.mode
}

// FileMode converts Mode to fs.FileMode, adding fs.ModeDir for directories.
func (h *Header) FileMode() fs.FileMode {
	m := fs.FileMode(h.mode) & fs.ModePerm
	if h.IsDirectory() {
		m |= fs.ModeDir
	}

	return m
}

// UID returns the owner's user id.
func (h *Header) UID() int {
	return h.uid
}

// GID returns the owner's group id.
func (h *Header) GID() int {
	return h.gid
}

// Uname returns the owner's user name. Always empty unless the dialect is DialectUSTAR.
func (h *Header) Uname() string {
	return h.uname
}

// Gname returns the owner's group name. Always empty unless the dialect is DialectUSTAR.
func (h *Header) Gname() string {
	return h.gname
}

// Devmajor returns the device major number. Always 0 unless the dialect is DialectUSTAR.
func (h *Header) Devmajor() int {
	return h.devmajor
}

// Devminor returns the device minor number. Always 0 unless the dialect is DialectUSTAR.
func (h *Header) Devminor() int {
	return h.devminor
}

// Mtime returns the modification time in seconds since epoch.
func (h *Header) Mtime() int64 {
	return h.mtime
}

// ModTime is Mtime as time.Time.
func (h *Header) ModTime() time.Time {
	return time.Unix(h.mtime, 0)
}

// Checksum returns the checksum stored in the header.
func (h *Header) Checksum() int {
	return h.checksum
}

// Linkname returns the name of the link target.
func (h *Header) Linkname() string {
	return h.linkname
}

// Dialect returns the header variant.
func (h *Header) Dialect() Dialect {
	return h.dialect
}

// TypeFlag returns the entry's type flag.
func (h *Header) TypeFlag() TypeFlag {
	return h.typeFlag
}

// Action returns the action associated with the entry's type flag.
func (h *Header) Action() Action {
	return h.action
}

// Field returns the named field, or nil if there is no such field in Layout.
func (h *Header) Field(name string) *Field {
	for i, spec := range Layout {
		if spec.Name == name {
			return h.fields[i]
		}
	}

	return nil
}

// IsDirectory returns true if the type flag says so or if the name ends with "/".
//
// Some archivers mark directories only with the trailing slash.
func (h *Header) IsDirectory() bool {
	return h.action == ActionDirectory || strings.HasSuffix(h.name, "/")
}

// IsDescendant returns true if h's name starts with the ancestor's name.
//
// This is a plain string prefix test that does not look at path segments: "foobar" is a descendant of "foo".
func (h *Header) IsDescendant(ancestor *Header) bool {
	return strings.HasPrefix(h.name, ancestor.name)
}

// ComputeChecksum returns the unsigned sum of the record's bytes with the chksum field counted as spaces.
func (h *Header) ComputeChecksum() int64 {
	offset, width := fieldOffset(fChksum), Layout[fChksum].Width

	var sum int64
	for i, b := range h.record {
		if offset <= i && i < offset+width {
			b = ' '
		}
		sum += int64(b)
	}

	return sum
}

// VerifyChecksum compares the stored checksum against ComputeChecksum.
func (h *Header) VerifyChecksum() bool {
	return int64(h.checksum) == h.ComputeChecksum()
}

// withName returns a copy of h that uses the given name, used to apply a GNU long name.
func (h *Header) withName(name string) *Header {
	c := *h
	c.name = name
	return &c
}

func (h *Header) String() string {
	return fmt.Sprintf("[%s-%s(%s), name=%s, isDir=%t, size=%d, uid=%d, user=%s, gid=%d, group=%s]",
		h.dialect, h.typeFlag, h.action, h.name, h.IsDirectory(), h.size, h.uid, h.uname, h.gid, h.gname)
}

func fieldOffset(i int) (offset int) {
	for _, spec := range Layout[:i] {
		offset += spec.Width
	}

	return
}
