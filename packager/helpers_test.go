package packager

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"io"
	"log"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/nguyengg/pvzip/codec"
	"github.com/stretchr/testify/require"
)

type entry struct {
	name, body string
	dir        bool
}

// tarBytes writes the entries as an uncompressed USTAR archive.
func tarBytes(t *testing.T, entries ...entry) []byte {
	t.Helper()

	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	for _, e := range entries {
		hdr := &tar.Header{
			Name:    e.name,
			Mode:    0644,
			Size:    int64(len(e.body)),
			ModTime: time.Unix(1700000000, 0),
			Format:  tar.FormatUSTAR,
		}
		if e.dir {
			hdr.Typeflag = tar.TypeDir
			hdr.Mode = 0755
			hdr.Size = 0
		} else {
			hdr.Typeflag = tar.TypeReg
		}

		require.NoError(t, tw.WriteHeader(hdr))
		if !e.dir {
			_, err := io.WriteString(tw, e.body)
			require.NoError(t, err)
		}
	}
	require.NoError(t, tw.Close())

	return buf.Bytes()
}

// compress encodes data with the named codec, or returns data as-is if name is empty.
func compress(t *testing.T, name string, data []byte) []byte {
	t.Helper()

	if name == "" {
		return data
	}

	c, ok := codec.FromName(name)
	require.Truef(t, ok, "unknown codec %s", name)

	var buf bytes.Buffer
	w, err := c.NewEncoder(&buf)
	require.NoError(t, err)
	_, err = w.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	return buf.Bytes()
}

func zipBytes(t *testing.T, entries ...entry) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, e := range entries {
		if e.dir {
			_, err := zw.Create(e.name)
			require.NoError(t, err)
			continue
		}

		w, err := zw.Create(e.name)
		require.NoError(t, err)
		_, err = io.WriteString(w, e.body)
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())

	return buf.Bytes()
}

func writeFile(t *testing.T, path string, data []byte) string {
	t.Helper()

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}

// readZip returns the entries of the zip file in order.
func readZip(t *testing.T, path string) []entry {
	t.Helper()

	zr, err := zip.OpenReader(path)
	require.NoError(t, err)
	defer zr.Close()

	entries := make([]entry, 0, len(zr.File))
	for _, f := range zr.File {
		r, err := f.Open()
		require.NoError(t, err)
		data, err := io.ReadAll(r)
		require.NoError(t, err)
		require.NoError(t, r.Close())

		entries = append(entries, entry{name: f.Name, body: string(data)})
	}

	return entries
}

func quiet(dir string) func(*Options) {
	return func(opts *Options) {
		opts.LocalVerDir = dir
		opts.Logger = log.New(io.Discard, "", 0)
		opts.Quiet = true
	}
}
