package ustar

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
)

// File is a file entry whose content has been copied out of the tar stream.
//
// Content is kept in memory for small entries or spooled to a temporary file for large ones (see
// IteratorOptions.MemoryThreshold). Either way, File.Open can be called any number of times. File.Close deletes the
// temporary file if there is one.
type File struct {
	Entry

	data   []byte
	spool  string
	closed bool
	logger *log.Logger
}

// InMemory returns true if the content is held in memory.
func (f *File) InMemory() bool {
	return f.spool == ""
}

// Open opens the content for reading.
func (f *File) Open() (io.ReadCloser, error) {
	if f.closed {
		return nil, fmt.Errorf(`open "%s" error: %w`, f.Name(), fs.ErrClosed)
	}

	if f.spool == "" {
		return io.NopCloser(bytes.NewReader(f.data)), nil
	}

	r, err := os.Open(f.spool)
	if err != nil {
		return nil, fmt.Errorf(`open spool file of "%s" error: %w`, f.Name(), err)
	}

	return r, nil
}

// Close releases the content. A temporary file that cannot be removed is logged but not returned as an error.
func (f *File) Close() error {
	if f.closed {
		return nil
	}

	f.closed = true
	f.data = nil

	if f.spool != "" {
		if err := os.Remove(f.spool); err != nil && !errors.Is(err, fs.ErrNotExist) {
			f.logger.Printf(`remove spool file "%s" of "%s" error: %v`, f.spool, f.Name(), err)
		}
	}

	return nil
}

// copyContent writes exactly size bytes of content to w, consuming ceil(size/512) records.
func copyContent(br *BlockReader, w io.Writer, size int64) error {
	for remaining := size; remaining > 0; {
		record, err := br.ReadRecord()
		if err != nil {
			if err == io.EOF {
				return io.ErrUnexpectedEOF
			}
			return err
		}

		n := min(int64(RecordSize), remaining)
		if _, err = w.Write(record[:n]); err != nil {
			return err
		}

		remaining -= n
	}

	return nil
}

// recordCount returns the number of records needed to hold size bytes.
func recordCount(size int64) int64 {
	return (size + RecordSize - 1) / RecordSize
}

func readToMemory(br *BlockReader, size int64) ([]byte, error) {
	// size comes from the header so the stream may hold far less.
	var buf bytes.Buffer
	buf.Grow(int(min(size, DefaultBlockSize)))

	if err := copyContent(br, &buf, size); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func spoolToDisk(br *BlockReader, dir string, size int64) (name string, err error) {
	f, err := os.CreateTemp(dir, "pvzip-*.tmp")
	if err != nil {
		return "", fmt.Errorf("create spool file error: %w", err)
	}

	name = f.Name()
	defer func() {
		if err != nil {
			_ = os.Remove(name)
		}
	}()

	w := bufio.NewWriterSize(f, DefaultBlockSize)
	if err = copyContent(br, w, size); err == nil {
		err = w.Flush()
	}
	if closeErr := f.Close(); err == nil && closeErr != nil {
		err = closeErr
	}
	if err != nil {
		return "", fmt.Errorf("write spool file error: %w", err)
	}

	return name, nil
}
