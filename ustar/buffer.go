package ustar

import (
	"errors"
	"fmt"
	"io"
)

const (
	// RecordSize is the size of one tar record, the unit every header and content run is aligned to.
	RecordSize = 512

	// DefaultRecordsPerBlock is the default number of records per physical read.
	DefaultRecordsPerBlock = 20

	// DefaultBlockSize is RecordSize * DefaultRecordsPerBlock (10 KiB).
	DefaultBlockSize = RecordSize * DefaultRecordsPerBlock
)

// BlockReaderOptions customises NewBlockReader.
type BlockReaderOptions struct {
	// RecordsPerBlock is the number of records read from the source at once.
	//
	// Default to DefaultRecordsPerBlock. Values less than 1 are replaced with the default.
	RecordsPerBlock int
}

// BlockReader reads a tar stream one 512-byte record at a time while reading the underlying source one full block at
// a time.
//
// BlockReader is forward-only and not safe for concurrent use. It owns the source from construction until Close.
type BlockReader struct {
	src             io.Reader
	recordsPerBlock int

	block    []byte
	blockIdx int
	// recordIdx is the index of the next record to be returned from block.
	recordIdx int
	eof       bool
	closed    bool
}

// NewBlockReader creates a new BlockReader reading from src.
//
// If src also implements io.Closer, BlockReader.Close will close it.
func NewBlockReader(src io.Reader, optFns ...func(*BlockReaderOptions)) *BlockReader {
	opts := &BlockReaderOptions{RecordsPerBlock: DefaultRecordsPerBlock}
	for _, fn := range optFns {
		fn(opts)
	}
	if opts.RecordsPerBlock < 1 {
		opts.RecordsPerBlock = DefaultRecordsPerBlock
	}

	return &BlockReader{
		src:             src,
		recordsPerBlock: opts.RecordsPerBlock,
		blockIdx:        -1,
		recordIdx:       opts.RecordsPerBlock,
	}
}

// BlockSize returns the number of bytes of one physical read.
func (r *BlockReader) BlockSize() int {
	return r.recordsPerBlock * RecordSize
}

// ReadRecord returns the next 512-byte record.
//
// io.EOF is returned when the source has no more data. The returned slice is a fresh copy owned by the caller.
func (r *BlockReader) ReadRecord() ([]byte, error) {
	if r.closed {
		return nil, errors.New("read record error: block reader already closed")
	}

	if r.block == nil || r.recordIdx >= r.recordsPerBlock {
		if err := r.readBlock(); err != nil {
			return nil, err
		}
	}

	record := make([]byte, RecordSize)
	copy(record, r.block[r.recordIdx*RecordSize:])
	r.recordIdx++

	return record, nil
}

// SkipRecords reads and discards n records.
//
// io.ErrUnexpectedEOF is returned if the source ends before n records could be read.
func (r *BlockReader) SkipRecords(n int64) error {
	for ; n > 0; n-- {
		if _, err := r.ReadRecord(); err != nil {
			if err == io.EOF {
				return io.ErrUnexpectedEOF
			}
			return err
		}
	}

	return nil
}

// readBlock fills the next block with as many reads as necessary.
//
// A short final block is tolerated and the remainder zero-filled since some archivers do not pad to the full block.
func (r *BlockReader) readBlock() error {
	if r.eof {
		return io.EOF
	}

	// always start with a zeroed block so a short read leaves NUL padding.
	block := make([]byte, r.BlockSize())

	n, err := io.ReadFull(r.src, block)
	switch {
	case err == io.ErrUnexpectedEOF:
		r.eof = true
	case err == io.EOF:
		r.eof = true
		return io.EOF
	case err != nil:
		return fmt.Errorf("read block %d error: %w", r.blockIdx+1, err)
	}

	if n == 0 {
		r.eof = true
		return io.EOF
	}

	r.block = block
	r.blockIdx++
	r.recordIdx = 0
	return nil
}

// IsEndRecord returns true if the record consists entirely of zero bytes, marking the logical end of the archive.
func IsEndRecord(record []byte) bool {
	for _, b := range record {
		if b != 0 {
			return false
		}
	}

	return true
}

// BlockIndex returns the zero-based index of the current block, or -1 if nothing has been read.
func (r *BlockReader) BlockIndex() int {
	return r.blockIdx
}

// RecordIndex returns the zero-based index within the current block of the record last returned, or -1 if nothing
// has been read from the current block.
func (r *BlockReader) RecordIndex() int {
	if r.block == nil {
		return -1
	}

	return r.recordIdx - 1
}

// Close closes the underlying source if it implements io.Closer.
//
// Only the first call has any effect.
func (r *BlockReader) Close() error {
	if r.closed {
		return nil
	}

	r.closed = true
	r.block = nil

	if c, ok := r.src.(io.Closer); ok {
		if err := c.Close(); err != nil {
			return fmt.Errorf("close tar source error: %w", err)
		}
	}

	return nil
}
