package archive

import (
	"fmt"
	"io"
	"iter"
	"log"

	"github.com/nguyengg/pvzip/codec"
	"github.com/nguyengg/pvzip/ustar"
	"github.com/nguyengg/pvzip/util"
)

// Tar implements Opener for tar archives using package ustar.
//
// Directories are never returned. Files larger than IteratorOptions.MemoryThreshold are spooled to disk and removed
// once the iterator moves past them.
type Tar struct {
	// Codec if given will be used to decode contents with Open.
	codec.Codec

	// IteratorOptions if given customises the underlying ustar.Iterator.
	IteratorOptions func(*ustar.IteratorOptions)

	closer func() error
}

var _ Opener = &Tar{}

// Open starts reading the tar archive from src.
//
// Ranging over the returned sequence until it finishes or breaks releases the underlying ustar.Iterator. If the
// sequence is never ranged, call Close to release it.
func (t *Tar) Open(src io.Reader) (_ iter.Seq2[File, error], err error) {
	var dec io.ReadCloser

	if t.Codec != nil {
		if dec, err = t.Codec.NewDecoder(src); err != nil {
			return nil, fmt.Errorf("open %s decoder error: %w", t.Codec.Name(), err)
		}
	} else {
		dec = io.NopCloser(src)
	}

	optFns := make([]func(*ustar.IteratorOptions), 0, 1)
	if t.IteratorOptions != nil {
		optFns = append(optFns, t.IteratorOptions)
	}

	it, err := ustar.NewIterator(dec, optFns...)
	if err != nil {
		_ = dec.Close()
		return nil, fmt.Errorf("read tar error: %w", err)
	}

	t.closer = util.ChainCloser(it.Close, dec.Close)

	return func(yield func(File, error) bool) {
		defer func() {
			if err := it.Close(); err != nil {
				log.Printf("close tar error: %v", err)
			}
		}()

		for it.HasNext() {
			f, err := it.Next()
			if err != nil {
				yield(nil, fmt.Errorf("read next tar entry error: %w", err))
				return
			}

			ok := yield(&tarFile{f}, nil)
			_ = f.Close()
			if !ok {
				return
			}
		}
	}, nil
}

// Close releases the iterator and decoder created by the last Open. It is safe to call more than once, and after
// ranging over the sequence.
func (t *Tar) Close() error {
	if t.closer == nil {
		return nil
	}

	closer := t.closer
	t.closer = nil
	return closer()
}

type tarFile struct {
	*ustar.File
}

var _ File = &tarFile{}
