package archive

import (
	"archive/zip"
	"compress/flate"
	"fmt"
	"io"
	"iter"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/nguyengg/pvzip/util"
)

// Zip implements Archiver for ZIP files.
type Zip struct {
	// TempDir is where non-file sources are spooled since reading ZIP requires io.ReaderAt. Default to os.TempDir.
	TempDir string
}

var _ Archiver = Zip{}

func (z Zip) Create(dst io.Writer, root string) (add AddFunction, closer CloseFunction, err error) {
	root = filepath.ToSlash(root)

	w := zip.NewWriter(dst)
	w.RegisterCompressor(zip.Deflate, func(w io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(w, flate.BestCompression)
	})

	add = func(name string, fi os.FileInfo) (io.WriteCloser, error) {
		name = filepath.ToSlash(name)
		if fi.IsDir() || strings.HasSuffix(name, "/") {
			name = path.Join(root, name) + "/"
		} else {
			name = path.Join(root, name)
		}

		fh := &zip.FileHeader{
			Name:     name,
			Method:   zip.Deflate,
			Modified: fi.ModTime(),
		}
		fh.SetMode(fi.Mode())

		fw, err := w.CreateHeader(fh)
		if err != nil {
			return nil, fmt.Errorf(`create zip file "%s" error: %w`, name, err)
		}

		return &util.WriteNoopCloser{Writer: fw}, nil
	}

	closer = w.Close

	return
}

// Open returns the regular files of the ZIP archive; directory entries are skipped.
//
// If src is not an os.File, it is first copied to a temporary file which is removed at the end of the iteration.
func (z Zip) Open(src io.Reader) (iter.Seq2[File, error], error) {
	f, ok := src.(*os.File)
	if !ok {
		var err error
		if f, err = z.spool(src); err != nil {
			return nil, err
		}
	}

	zr, err := z.newReader(f)
	if err != nil {
		if !ok {
			_, _ = f.Close(), os.Remove(f.Name())
		}
		return nil, err
	}

	return func(yield func(File, error) bool) {
		if !ok {
			defer func() {
				_ = f.Close()
				_ = os.Remove(f.Name())
			}()
		}

		for _, zf := range zr.File {
			if zf.FileInfo().IsDir() || strings.HasSuffix(zf.Name, "/") {
				continue
			}

			if !yield(&zipFile{
				FileHeader: &zf.FileHeader,
				open:       zf.Open,
			}, nil) {
				return
			}
		}
	}, nil
}

func (z Zip) newReader(f *os.File) (*zip.Reader, error) {
	fi, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf(`stat file "%s" error: %w`, f.Name(), err)
	}

	zr, err := zip.NewReader(f, fi.Size())
	if err != nil {
		return nil, fmt.Errorf(`open zip file "%s" error: %w`, f.Name(), err)
	}

	return zr, nil
}

func (z Zip) spool(src io.Reader) (f *os.File, err error) {
	if f, err = os.CreateTemp(z.TempDir, "pvzip-*.zip"); err != nil {
		return nil, fmt.Errorf("create temp file error: %w", err)
	}

	if _, err = io.Copy(f, src); err != nil {
		_, _ = f.Close(), os.Remove(f.Name())
		return nil, fmt.Errorf("spool zip to temp file error: %w", err)
	}

	return f, nil
}

func (z Zip) ArchiveExt() string {
	return ".zip"
}

func (z Zip) ContentType() string {
	return "application/zip"
}

type zipFile struct {
	*zip.FileHeader
	open func() (io.ReadCloser, error)
}

var _ File = &zipFile{}

func (f *zipFile) Name() string {
	return f.FileHeader.Name
}

func (f *zipFile) Open() (io.ReadCloser, error) {
	return f.open()
}
