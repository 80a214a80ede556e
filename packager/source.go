package packager

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/nguyengg/pvzip/archive"
	"github.com/nguyengg/pvzip/codec"
	"github.com/nguyengg/pvzip/internal"
	"github.com/nguyengg/pvzip/ustar"
	"github.com/nguyengg/pvzip/util"
)

// Kind describes how a Source produces its files.
type Kind string

const (
	KindDir Kind = "dir"
	KindZip Kind = "zip"
	KindTar Kind = "tar"
)

// Source is a directory or an archive whose files will be packaged.
type Source struct {
	// Name is the local path or S3 URI of the source.
	Name string
	// Kind is the type of the source.
	Kind Kind
	// Codec is the compression of a tar source, nil if uncompressed.
	Codec codec.Codec

	files  iter.Seq2[archive.File, error]
	closer func() error
}

// Files returns the regular files of the source in archive (or lexical, for directories) order.
//
// Each file is only valid until the next iteration. Files can only be iterated once for archive sources.
func (s *Source) Files() iter.Seq2[archive.File, error] {
	return s.files
}

// Close releases the underlying file or stream.
func (s *Source) Close() error {
	if s.closer == nil {
		return nil
	}

	closer := s.closer
	s.closer = nil
	return closer()
}

// String returns the name and kind of the source, for example `"jre-7u60-linux-x64.tar.gz" (tar.gzip)`.
func (s *Source) String() string {
	if s.Codec != nil {
		return fmt.Sprintf(`"%s" (%s.%s)`, s.Name, s.Kind, s.Codec.Name())
	}

	return fmt.Sprintf(`"%s" (%s)`, s.Name, s.Kind)
}

// Open opens the local directory, zip, or tar file at the given path, or the S3 object if path is an S3 URI.
//
// The client is only used for S3 URIs and may be nil otherwise.
func Open(ctx context.Context, path string, client internal.GetObjectAPIClient, optFns ...func(*Options)) (*Source, error) {
	if strings.HasPrefix(path, "s3://") {
		if client == nil {
			return nil, fmt.Errorf(`no S3 client to open "%s"`, path)
		}

		bucket, key, err := internal.ParseS3URI(path)
		if err != nil {
			return nil, err
		}

		body, _, err := internal.OpenObject(ctx, client, bucket, key)
		if err != nil {
			return nil, err
		}

		src, err := OpenReader(ctx, path, body, optFns...)
		if err != nil {
			_ = body.Close()
			return nil, err
		}

		src.closer = util.ChainCloser(src.closer, body.Close)
		return src, nil
	}

	fi, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf(`stat source "%s" error: %w`, path, err)
	}

	if fi.IsDir() {
		return &Source{Name: path, Kind: KindDir, files: archive.WalkDir(ctx, path)}, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf(`open source "%s" error: %w`, path, err)
	}

	src, err := OpenReader(ctx, path, f, optFns...)
	if err != nil {
		_ = f.Close()
		return nil, err
	}

	src.closer = util.ChainCloser(src.closer, f.Close)
	return src, nil
}

// OpenReader identifies the archive in r by its content and name then returns its files.
//
// Zip archives are recognised first, then tar archives with any compression known to package codec. Anything else is
// an error. The caller remains responsible for closing r, but should also close the returned Source.
func OpenReader(ctx context.Context, name string, r io.Reader, optFns ...func(*Options)) (*Source, error) {
	opts := newOptions(optFns)

	br := bufio.NewReader(r)
	head, err := br.Peek(ustar.RecordSize)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf(`read source "%s" error: %w`, name, err)
	}

	isZip, err := codec.IsZip(ctx, name, bytes.NewReader(head))
	if err != nil {
		return nil, fmt.Errorf(`identify source "%s" error: %w`, name, err)
	}

	if isZip {
		var zr io.Reader = br
		// os.File implements io.ReaderAt so there's no need to spool it.
		if f, ok := r.(*os.File); ok {
			if _, err = f.Seek(0, io.SeekStart); err != nil {
				return nil, fmt.Errorf(`rewind source "%s" error: %w`, name, err)
			}
			zr = f
		}

		files, err := archive.Zip{TempDir: opts.TempDir}.Open(zr)
		if err != nil {
			return nil, err
		}

		return &Source{Name: name, Kind: KindZip, files: files, closer: noopCloser}, nil
	}

	dec, c, err := codec.NewDecoder(ctx, name, br)
	if err != nil {
		return nil, fmt.Errorf(`decompress source "%s" error: %w`, name, err)
	}

	tbr := bufio.NewReader(dec)
	if head, err = tbr.Peek(ustar.RecordSize); err != nil && !errors.Is(err, io.EOF) {
		_ = dec.Close()
		return nil, fmt.Errorf(`read source "%s" error: %w`, name, err)
	}

	if !isTar(name, head) {
		_ = dec.Close()
		return nil, fmt.Errorf(`"%s" is neither a directory nor a zip or tar file`, name)
	}

	tar := &archive.Tar{IteratorOptions: opts.iteratorOptions}
	files, err := tar.Open(tbr)
	if err != nil {
		_ = dec.Close()
		return nil, err
	}

	return &Source{Name: name, Kind: KindTar, Codec: c, files: files, closer: util.ChainCloser(tar.Close, dec.Close)}, nil
}

// isTar returns true if head is a tar end-of-archive record or a parsable tar header, or if name says it is a tar.
func isTar(name string, head []byte) bool {
	if len(head) == ustar.RecordSize {
		if ustar.IsEndRecord(head) {
			return true
		}

		_, err := ustar.ParseHeader(head, func(opts *ustar.HeaderOptions) {
			opts.Logger = log.New(io.Discard, "", 0)
		})
		if err == nil || errors.Is(err, ustar.ErrUnsupportedEntry) {
			return true
		}
	}

	name = strings.ToLower(filepath.Base(name))
	if strings.Contains(name, ".tar") {
		return true
	}

	switch filepath.Ext(name) {
	case ".tgz", ".tbz2", ".txz":
		return true
	}

	return false
}

func noopCloser() error {
	return nil
}
