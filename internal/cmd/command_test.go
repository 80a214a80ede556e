package cmd

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"compress/gzip"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeTarGz writes a gzip-compressed USTAR archive with a directory and the given files.
func writeTarGz(t *testing.T, path string, files map[string]string, names ...string) {
	t.Helper()

	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gw)

	require.NoError(t, tw.WriteHeader(&tar.Header{
		Name:     "root/",
		Typeflag: tar.TypeDir,
		Mode:     0755,
		ModTime:  time.Unix(1700000000, 0),
		Format:   tar.FormatUSTAR,
	}))
	for _, name := range names {
		require.NoError(t, tw.WriteHeader(&tar.Header{
			Name:     name,
			Typeflag: tar.TypeReg,
			Mode:     0644,
			Size:     int64(len(files[name])),
			ModTime:  time.Unix(1700000000, 0),
			Format:   tar.FormatUSTAR,
		}))
		_, err := io.WriteString(tw, files[name])
		require.NoError(t, err)
	}

	require.NoError(t, tw.Close())
	require.NoError(t, gw.Close())
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0644))
}

func TestNewParser(t *testing.T) {
	p, err := NewParser()
	require.NoError(t, err)

	assert.NotNil(t, p.Find("package"))
	assert.NotNil(t, p.Find("list"))
}

func TestList_Execute(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app-1.0-x.tar.gz")
	writeTarGz(t, path, map[string]string{"root/a.txt": "hello", "root/b.txt": "world!"}, "root/a.txt", "root/b.txt")

	var buf bytes.Buffer
	c := &List{out: &buf}
	c.Args.Files = []string{path}
	require.NoError(t, c.Execute(nil))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, []string{"ustar", "'5'", "Directory", "0", "root/"}, strings.Fields(lines[0]))
	assert.Equal(t, []string{"ustar", "'0'", "Normal", "5", "root/a.txt"}, strings.Fields(lines[1]))
	assert.Equal(t, []string{"ustar", "'0'", "Normal", "6", "root/b.txt"}, strings.Fields(lines[2]))
}

func TestList_Execute_Missing(t *testing.T) {
	c := &List{out: io.Discard}
	c.Args.Files = []string{filepath.Join(t.TempDir(), "missing.tar")}
	assert.Error(t, c.Execute(nil))
}

func TestPackage_Execute(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app-1.0-x.tar.gz")
	writeTarGz(t, path, map[string]string{"root/a.txt": "hello"}, "root/a.txt")

	out := t.TempDir()
	c := &Package{LocalVerDir: flags.Filename(out), MemoryThreshold: "1KiB", Quiet: true}
	c.Args.Source = path
	require.NoError(t, c.Execute(nil))

	zr, err := zip.OpenReader(filepath.Join(out, "app", "1.0.zip"))
	require.NoError(t, err)
	defer zr.Close()

	names := make([]string, 0, len(zr.File))
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"version.txt", "root/a.txt"}, names)
}

func TestPackage_Execute_InvalidFlags(t *testing.T) {
	tests := []struct {
		name string
		c    *Package
	}{
		{name: "memory threshold", c: &Package{MemoryThreshold: "lots"}},
		{name: "records per block", c: &Package{RecordsPerBlock: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.c.LocalVerDir = flags.Filename(t.TempDir())
			tt.c.Args.Source = t.TempDir()
			tt.c.Quiet = true
			assert.Error(t, tt.c.Execute(nil))
		})
	}
}
