package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoader_LoadFrom(t *testing.T) {
	root := t.TempDir()
	child := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(child, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, FileName), []byte(`
[package]
local-ver-dir = /opt/versions
memory-threshold = 2 MiB
records-per-block = 40
verify-checksum = true
skip-extended = true

[s3]
profile = packager
upload = s3://bucket/versions
`), 0644))

	l := &Loader{}
	path, err := l.LoadFrom(context.Background(), child)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, FileName), path)

	pc, err := l.ForPackage()
	require.NoError(t, err)
	assert.Equal(t, PackageConfig{
		LocalVerDir:     "/opt/versions",
		MemoryThreshold: 2 << 20,
		RecordsPerBlock: 40,
		VerifyChecksum:  true,
		SkipExtended:    true,
	}, pc)

	assert.Equal(t, S3Config{Profile: "packager", Upload: "s3://bucket/versions"}, l.ForS3())

	l.Profile = "override"
	assert.Equal(t, "override", l.ForS3().Profile)
}

func TestLoader_ForPackage_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "threshold", content: "[package]\nmemory-threshold = lots\n"},
		{name: "records", content: "[package]\nrecords-per-block = abc\n"},
		{name: "zero records", content: "[package]\nrecords-per-block = 0\n"},
		{name: "checksum", content: "[package]\nverify-checksum = maybe\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(tt.content), 0644))

			l := &Loader{}
			_, err := l.LoadFrom(context.Background(), dir)
			require.NoError(t, err)

			_, err = l.ForPackage()
			assert.Error(t, err)
		})
	}
}

func TestLoader_Empty(t *testing.T) {
	l := &Loader{}
	_, err := l.LoadFrom(context.Background(), t.TempDir())
	require.NoError(t, err)

	pc, err := l.ForPackage()
	require.NoError(t, err)
	assert.Equal(t, PackageConfig{}, pc)
	assert.Equal(t, S3Config{}, l.ForS3())
}
