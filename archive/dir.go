package archive

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"iter"
	"os"
	"path/filepath"
)

// WalkDir returns the regular files under root, recursively, in lexical order.
//
// File names are relative to root and use "/" as separator. The iteration stops with ctx.Err() if the context is
// cancelled.
func WalkDir(ctx context.Context, root string) iter.Seq2[File, error] {
	return func(yield func(File, error) bool) {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			switch {
			case err != nil:
				return fmt.Errorf("walk dir error: %w", err)
			case d.IsDir(), !d.Type().IsRegular():
				return nil
			}

			fi, err := d.Info()
			if err != nil {
				return fmt.Errorf(`describe file "%s" error: %w`, path, err)
			}

			rel, err := filepath.Rel(root, path)
			if err != nil {
				return fmt.Errorf(`compute relative path of "%s" error: %w`, path, err)
			}

			if !yield(&dirFile{name: filepath.ToSlash(rel), path: path, fi: fi}, nil) {
				return filepath.SkipAll
			}

			return nil
		})

		if err != nil {
			yield(nil, err)
		}
	}
}

type dirFile struct {
	name, path string
	fi         os.FileInfo
}

var _ File = &dirFile{}

func (f *dirFile) Name() string {
	return f.name
}

func (f *dirFile) FileInfo() os.FileInfo {
	return f.fi
}

func (f *dirFile) Mode() os.FileMode {
	return f.fi.Mode()
}

func (f *dirFile) Open() (io.ReadCloser, error) {
	return os.Open(f.path)
}
