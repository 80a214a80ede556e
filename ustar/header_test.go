package ustar

import (
	"bytes"
	"errors"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLayout(t *testing.T) {
	total := 0
	for _, spec := range Layout {
		total += spec.Width
	}

	assert.Equal(t, HeaderSize, total)
	assert.Equal(t, 345, fieldOffset(fPrefix))
	assert.Equal(t, 257, fieldOffset(fMagic))
	assert.Equal(t, 148, fieldOffset(fChksum))
}

func TestParseHeader(t *testing.T) {
	th := file("hello.txt", "").hdr
	th.size = 1000

	h, err := ParseHeader(th.record())
	require.NoError(t, err)

	assert.Equal(t, "hello.txt", h.Name())
	assert.Equal(t, int64(1000), h.Size())
	assert.Equal(t, 0644, h.Mode())
	assert.Equal(t, 1000, h.UID())
	assert.Equal(t, 1000, h.GID())
	assert.Equal(t, "user", h.Uname())
	assert.Equal(t, "group", h.Gname())
	assert.Equal(t, int64(1700000000), h.Mtime())
	assert.Equal(t, int64(1700000000), h.ModTime().Unix())
	assert.Equal(t, DialectUSTAR, h.Dialect())
	assert.Equal(t, TypeNormal, h.TypeFlag())
	assert.Equal(t, ActionNormal, h.Action())
	assert.False(t, h.IsDirectory())
	assert.True(t, h.VerifyChecksum())
	assert.Equal(t, "hello.txt", h.Field("name").String())
	assert.Nil(t, h.Field("nope"))

	// decoding is deterministic.
	h2, err := ParseHeader(th.record())
	require.NoError(t, err)
	assert.Equal(t, h.String(), h2.String())
}

func TestParseHeader_Dialect(t *testing.T) {
	tests := []struct {
		name          string
		magic         string
		version       string
		want          Dialect
		wantOwnership bool
	}{
		{name: "ustar", magic: magicUSTAR, version: versionUSTAR, want: DialectUSTAR, wantOwnership: true},
		{name: "gnu", magic: magicGNU, version: versionGNU, want: DialectGNU},
		{name: "unix", magic: magicNone, want: DialectUnix},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			th := file("a", "").hdr
			th.magic, th.version = tt.magic, tt.version

			h, err := ParseHeader(th.record())
			require.NoError(t, err)
			assert.Equal(t, tt.want, h.Dialect())

			if tt.wantOwnership {
				assert.Equal(t, "user", h.Uname())
				assert.Equal(t, "group", h.Gname())
			} else {
				assert.Empty(t, h.Uname())
				assert.Empty(t, h.Gname())
				assert.Zero(t, h.Devmajor())
				assert.Zero(t, h.Devminor())
			}
		})
	}
}

func TestParseHeader_UnknownMagic(t *testing.T) {
	th := file("a", "").hdr
	th.magic = "tar\x00\x00\x00"

	_, err := ParseHeader(th.record())
	assert.ErrorIs(t, err, ErrInvalidHeader)

	var fe *FieldError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, "magic", fe.Field)
	assert.Equal(t, []byte("tar\x00\x00\x00"), fe.Raw)
}

func TestParseHeader_Name(t *testing.T) {
	tests := []struct {
		name   string
		prefix string
		want   string
	}{
		{name: "bin/tool", prefix: "usr/local", want: "usr/local/bin/tool"},
		{name: "file.txt", prefix: "", want: "file.txt"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			th := file(tt.name, "").hdr
			th.prefix = tt.prefix

			h, err := ParseHeader(th.record())
			require.NoError(t, err)
			assert.Equal(t, tt.want, h.Name())
		})
	}
}

func TestParseHeader_IsDirectory(t *testing.T) {
	tests := []struct {
		name     string
		typeflag byte
		want     bool
	}{
		{name: "dir", typeflag: '5', want: true},
		{name: "dir/", typeflag: '5', want: true},
		{name: "a/b/", typeflag: '0', want: true},
		{name: "a/b", typeflag: '0', want: false},
		{name: "legacy/", typeflag: 0, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			th := file(tt.name, "").hdr
			th.typeflag = tt.typeflag

			h, err := ParseHeader(th.record())
			require.NoError(t, err)
			assert.Equal(t, tt.want, h.IsDirectory())
		})
	}
}

func TestParseHeader_TypeFlag(t *testing.T) {
	tests := []struct {
		typeflag    byte
		want        Action
		wantErr     error
		wantLogLine bool
	}{
		{typeflag: 0, want: ActionNormal},
		{typeflag: '0', want: ActionNormal},
		{typeflag: '1', want: ActionReportProceed, wantLogLine: true},
		{typeflag: '3', want: ActionReportProceed, wantLogLine: true},
		{typeflag: '4', want: ActionReportProceed, wantLogLine: true},
		{typeflag: '5', want: ActionDirectory},
		{typeflag: '6', want: ActionReportProceed, wantLogLine: true},
		{typeflag: '7', want: ActionReportProceed, wantLogLine: true},
		{typeflag: 'A', want: ActionReportProceed, wantLogLine: true},
		{typeflag: 'I', want: ActionReportProceed, wantLogLine: true},
		{typeflag: 'g', want: ActionReportExtended, wantLogLine: true},
		{typeflag: 'x', want: ActionReportExtended, wantLogLine: true},
		{typeflag: 'E', want: ActionReportExtended, wantLogLine: true},
		{typeflag: 'N', want: ActionReportExtended, wantLogLine: true},
		{typeflag: 'X', want: ActionReportExtended, wantLogLine: true},
		{typeflag: 'K', want: ActionReportExtended, wantLogLine: true},
		{typeflag: 'L', want: ActionExtended},
		{typeflag: 'D', want: ActionIgnore},
		{typeflag: 'V', want: ActionIgnore},
		{typeflag: '2', wantErr: ErrUnsupportedEntry},
		{typeflag: 'M', wantErr: ErrUnsupportedEntry},
		{typeflag: 'S', wantErr: ErrUnsupportedEntry},
		{typeflag: 'Z', wantErr: ErrInvalidHeader},
		{typeflag: '9', wantErr: ErrInvalidHeader},
	}

	for _, tt := range tests {
		t.Run(TypeFlag(tt.typeflag).String(), func(t *testing.T) {
			th := file("entry", "").hdr
			th.typeflag = tt.typeflag

			var logs bytes.Buffer
			h, err := ParseHeader(th.record(), func(opts *HeaderOptions) {
				opts.Logger = log.New(&logs, "", 0)
			})

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, h)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, h.Action())
			assert.Equal(t, tt.wantLogLine, logs.Len() > 0, "log output: %s", logs.String())
		})
	}
}

func TestParseHeader_SymlinkIsFatal(t *testing.T) {
	th := file("link", "").hdr
	th.typeflag = '2'
	th.linkname = "target"

	_, err := ParseHeader(th.record())

	var ue *UnsupportedEntryError
	require.True(t, errors.As(err, &ue))
	assert.Equal(t, "link", ue.Name)
	assert.Equal(t, TypeSymLink, ue.TypeFlag)
}

func TestParseHeader_MalformedSize(t *testing.T) {
	record := file("a", "").hdr.record()
	copy(record[124:], "00000000080\x00")

	_, err := ParseHeader(record)
	assert.ErrorIs(t, err, ErrInvalidHeader)

	var fe *FieldError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, "size", fe.Field)
}

func TestParseHeader_ShortRecord(t *testing.T) {
	// only the first 297 bytes: magic and uname are intact, everything from gname onwards is NUL.
	record := file("short.txt", "").hdr.record()[:297]

	h, err := ParseHeader(record)
	require.NoError(t, err)
	assert.Equal(t, "short.txt", h.Name())
	assert.Equal(t, "user", h.Uname())
	assert.Equal(t, "", h.Gname())
}

func TestParseHeader_Checksum(t *testing.T) {
	record := file("a", "").hdr.record()
	copy(record[148:], "000001\x00 ")

	// lenient by default.
	h, err := ParseHeader(record)
	require.NoError(t, err)
	assert.Equal(t, 1, h.Checksum())
	assert.False(t, h.VerifyChecksum())

	_, err = ParseHeader(record, func(opts *HeaderOptions) {
		opts.VerifyChecksum = true
	})
	assert.ErrorIs(t, err, ErrInvalidHeader)

	var fe *FieldError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, "chksum", fe.Field)
	assert.Equal(t, []byte("000001\x00 "), fe.Raw)
}

func TestParseHeader_ChecksumRejectedBeforeReport(t *testing.T) {
	record := testHeader{name: "hardlink", typeflag: '1', linkname: "a"}.record()
	copy(record[148:], "000001\x00 ")

	var logs bytes.Buffer
	_, err := ParseHeader(record, func(opts *HeaderOptions) {
		opts.Logger = log.New(&logs, "", 0)
		opts.VerifyChecksum = true
	})
	assert.ErrorIs(t, err, ErrInvalidHeader)
	assert.Empty(t, logs.String())

	// a valid checksum still gets the diagnostic.
	_, err = ParseHeader(testHeader{name: "hardlink", typeflag: '1', linkname: "a"}.record(), func(opts *HeaderOptions) {
		opts.Logger = log.New(&logs, "", 0)
		opts.VerifyChecksum = true
	})
	require.NoError(t, err)
	assert.Contains(t, logs.String(), "hardlink")
}

func TestHeader_IsDescendant(t *testing.T) {
	parse := func(name string) *Header {
		h, err := ParseHeader(file(name, "").hdr.record())
		require.NoError(t, err)
		return h
	}

	assert.True(t, parse("foo/bar.txt").IsDescendant(parse("foo/")))
	assert.False(t, parse("baz/bar.txt").IsDescendant(parse("foo/")))
	assert.False(t, parse("foo/").IsDescendant(parse("foo/bar.txt")))

	// known limitation: the test is a plain string prefix so a sibling sharing the prefix counts as a descendant.
	assert.True(t, parse("foobar").IsDescendant(parse("foo")))
}

func TestNewEntry(t *testing.T) {
	e, err := NewEntry(file("dir/a.txt", "").hdr.record())
	require.NoError(t, err)

	assert.Equal(t, "dir/a.txt", e.Name())
	assert.Equal(t, int64(0), e.Size())
	assert.False(t, e.IsDirectory())
	assert.Equal(t, "a.txt", e.FileInfo().Name())
	assert.Equal(t, "-rw-r--r--", e.Mode().String())

	_, err = NewEntry(make([]byte, RecordSize))
	assert.NoError(t, err, "an all-zero record decodes to an empty unix entry")

	_, err = NewEntry(nil)
	assert.NoError(t, err)
}
