package ustar

import (
	"errors"
	"fmt"
	"io"
	"iter"
	"log"
)

// DefaultMemoryThreshold is the default value for IteratorOptions.MemoryThreshold (1 MiB).
const DefaultMemoryThreshold = 1024 * 1024

// MaxLongNameSize is the largest GNU long name entry accepted by Iterator.
const MaxLongNameSize = 64 * 1024

// IteratorOptions customises NewIterator.
type IteratorOptions struct {
	BlockReaderOptions

	// MemoryThreshold is the largest entry size whose content is kept in memory. Larger entries are spooled to a
	// temporary file in TempDir.
	//
	// Default to DefaultMemoryThreshold.
	MemoryThreshold int64

	// TempDir is the directory for spool files. Default to os.TempDir.
	TempDir string

	// VerifyChecksum see HeaderOptions.VerifyChecksum.
	VerifyChecksum bool

	// SkipExtended drops entries whose action is ActionReportExtended (pax and similar metadata headers) along with
	// their content. By default they are returned as-is like regular files, without applying their attributes.
	SkipExtended bool

	// Logger receives diagnostics. Default to log.Default.
	Logger *log.Logger
}

type iteratorState int

const (
	statePositioned iteratorState = iota
	stateExhausted
	stateFailed
)

// Iterator enumerates the file entries of a tar stream, skipping directories.
//
// Each File's content must be copied out by Next before the stream can advance, which Next does on the caller's
// behalf. Iterator is not safe for concurrent use.
type Iterator struct {
	br   *BlockReader
	opts IteratorOptions

	state iteratorState
	err   error
	cur   *Header

	// owned tracks spooled files not yet closed so Close can remove them.
	owned  []*File
	closed bool
}

// NewIterator creates an Iterator reading the tar stream from src and positions it at the first file entry.
//
// If src implements io.Closer, it is closed by Iterator.Close, or immediately if the first entry cannot be read.
func NewIterator(src io.Reader, optFns ...func(*IteratorOptions)) (*Iterator, error) {
	opts := IteratorOptions{
		BlockReaderOptions: BlockReaderOptions{RecordsPerBlock: DefaultRecordsPerBlock},
		MemoryThreshold:    DefaultMemoryThreshold,
		Logger:             log.Default(),
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}

	it := &Iterator{
		br: NewBlockReader(src, func(o *BlockReaderOptions) {
			*o = opts.BlockReaderOptions
		}),
		opts: opts,
	}

	if err := it.advance(); err != nil {
		_ = it.br.Close()
		return nil, err
	}

	return it, nil
}

// HasNext returns true if Next would return a file.
func (it *Iterator) HasNext() bool {
	return it.state == statePositioned
}

// Next returns the current file entry with its content copied out, then advances to the next file entry.
//
// ErrIteratorExhausted is returned if there are no more entries. After an error from reading the stream, the same
// error is returned by subsequent calls.
func (it *Iterator) Next() (*File, error) {
	switch it.state {
	case stateExhausted:
		return nil, ErrIteratorExhausted
	case stateFailed:
		return nil, it.err
	}

	f, err := it.readFile(it.cur)
	if err == nil {
		err = it.advance()
	}
	if err != nil {
		if f != nil {
			_ = f.Close()
		}
		return nil, it.fail(err)
	}

	if !f.InMemory() {
		it.owned = append(it.owned, f)
	}

	return f, nil
}

// All returns an iterator over the remaining files.
//
// Iteration stops after the first error.
func (it *Iterator) All() iter.Seq2[*File, error] {
	return func(yield func(*File, error) bool) {
		for it.HasNext() {
			f, err := it.Next()
			if !yield(f, err) || err != nil {
				return
			}
		}
	}
}

// Close releases the tar stream and deletes every spool file created by this Iterator.
//
// Only the first call has any effect.
func (it *Iterator) Close() error {
	if it.closed {
		return nil
	}

	it.closed = true
	if it.state == statePositioned {
		it.state = stateExhausted
	}

	for _, f := range it.owned {
		_ = f.Close()
	}
	it.owned = nil

	return it.br.Close()
}

func (it *Iterator) fail(err error) error {
	it.state, it.err, it.cur = stateFailed, err, nil
	return err
}

func (it *Iterator) readFile(h *Header) (f *File, err error) {
	f = &File{Entry: Entry{hdr: h}, logger: it.opts.Logger}

	if h.Size() <= it.opts.MemoryThreshold {
		if f.data, err = readToMemory(it.br, h.Size()); err != nil {
			return nil, fmt.Errorf(`read content of "%s" error: %w`, h.Name(), err)
		}
		return f, nil
	}

	if f.spool, err = spoolToDisk(it.br, it.opts.TempDir, h.Size()); err != nil {
		return nil, fmt.Errorf(`spool content of "%s" error: %w`, h.Name(), err)
	}

	return f, nil
}

// advance moves to the next file entry, skipping directories and non-file entries.
func (it *Iterator) advance() error {
	var longName *string

	for {
		h, err := it.nextHeader()
		if err != nil {
			return it.fail(err)
		}
		if h == nil {
			it.state, it.cur = stateExhausted, nil
			return nil
		}

		switch action := h.Action(); {
		case action == ActionExtended:
			if h.Size() > MaxLongNameSize {
				return it.fail(&HeaderError{Block: it.br.BlockIndex(), Record: it.br.RecordIndex(), Err: &FieldError{
					Field:  "size",
					Raw:    append([]byte(nil), h.Field("size").Raw()...),
					Reason: fmt.Sprintf("GNU long name of %d bytes exceeds %d", h.Size(), MaxLongNameSize),
				}})
			}

			var data []byte
			if data, err = readToMemory(it.br, h.Size()); err != nil {
				return it.fail(fmt.Errorf("read GNU long name error: %w", err))
			}

			name := newField("longname", len(data)+1, data, 0).String()
			longName = &name
			continue

		case action.Ignore(), action == ActionReportExtended && it.opts.SkipExtended:
			if err = it.br.SkipRecords(recordCount(h.Size())); err != nil {
				return it.fail(fmt.Errorf(`skip content of "%s" error: %w`, h.Name(), err))
			}
			continue
		}

		if longName != nil {
			h, longName = h.withName(*longName), nil
		}

		if h.IsDirectory() {
			if err = it.br.SkipRecords(recordCount(h.Size())); err != nil {
				return it.fail(fmt.Errorf(`skip content of directory "%s" error: %w`, h.Name(), err))
			}
			continue
		}

		it.state, it.cur = statePositioned, h
		return nil
	}
}

// nextHeader reads and decodes the next header record. A nil Header is returned at the end of the archive.
func (it *Iterator) nextHeader() (*Header, error) {
	return readHeader(it.br, func(o *HeaderOptions) {
		o.Logger = it.opts.Logger
		o.VerifyChecksum = it.opts.VerifyChecksum
	})
}

func readHeader(br *BlockReader, optFns ...func(*HeaderOptions)) (*Header, error) {
	record, err := br.ReadRecord()
	switch {
	case errors.Is(err, io.EOF):
		return nil, nil
	case err != nil:
		return nil, err
	case IsEndRecord(record):
		return nil, nil
	}

	h, err := ParseHeader(record, optFns...)
	if err != nil {
		return nil, &HeaderError{Block: br.BlockIndex(), Record: br.RecordIndex(), Err: err}
	}

	return h, nil
}

// Headers returns an iterator over every header of the tar stream, including directories, extended and ignored
// entries, without copying any content.
//
// GNU long names are not applied. The src io.Reader is consumed but not closed.
func Headers(src io.Reader, optFns ...func(*IteratorOptions)) iter.Seq2[Entry, error] {
	opts := IteratorOptions{
		BlockReaderOptions: BlockReaderOptions{RecordsPerBlock: DefaultRecordsPerBlock},
		Logger:             log.Default(),
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	return func(yield func(Entry, error) bool) {
		// io.MultiReader hides src's io.Closer so that the caller keeps ownership.
		br := NewBlockReader(io.MultiReader(src), func(o *BlockReaderOptions) {
			*o = opts.BlockReaderOptions
		})

		for {
			h, err := readHeader(br, func(o *HeaderOptions) {
				o.Logger = opts.Logger
				o.VerifyChecksum = opts.VerifyChecksum
			})
			if err != nil {
				yield(Entry{}, err)
				return
			}
			if h == nil {
				return
			}

			if !yield(Entry{hdr: h}, nil) {
				return
			}

			if err = br.SkipRecords(recordCount(h.Size())); err != nil {
				yield(Entry{}, fmt.Errorf(`skip content of "%s" error: %w`, h.Name(), err))
				return
			}
		}
	}
}
