package archive

import (
	"io"
	"iter"
	"os"
)

// Opener can read files from an archive.
//
// All implementations are not thread-safe by default.
type Opener interface {
	// Open produces an iterator returning the files from the archive opened by the given io.Reader.
	//
	// The src io.Reader will be consumed by the end of the iterator. A File is only valid until the next iteration;
	// its contents must be consumed (or copied out) before then.
	Open(src io.Reader) (iter.Seq2[File, error], error)
}

// Archiver can both read and write archives.
type Archiver interface {
	Opener

	// Create returns methods to write files to the archive being created by writing to the given io.Writer.
	//
	// If a root directory is given, it will become the root directory for all files added to the archive.
	//
	// The add function creates a new file in the archive with the given metadata and return the io.WriteCloser to
	// write the actual contents of the file. Calling add again implicitly closes out the previous file; not all
	// archive libraries support io.Close on writing individual files but add still returns io.WriteCloser just in
	// case.
	//
	// The close function should be called once all files have been added. After close is called, subsequent calls
	// to add and close will have undefined (and most likely wrong) behaviour.
	Create(dst io.Writer, root string) (add AddFunction, close CloseFunction, err error)

	// ArchiveExt returns the file name extension of the archives created with this archiver.
	ArchiveExt() string

	// ContentType returns the content type of the archives created with this archiver.
	ContentType() string
}

// AddFunction creates a new file in the archive.
type AddFunction func(path string, fi os.FileInfo) (io.WriteCloser, error)

// CloseFunction closes the writer.
type CloseFunction func() error

// File represents a file in an archive or a directory.
//
// The interface intentionally matches that of zip.File for simplicity.
type File interface {
	// Name returns the full name of the file relative to the archive or directory root, using "/" as separator.
	Name() string
	// FileInfo returns description about the file.
	FileInfo() os.FileInfo
	// Mode returns the file's mode.
	Mode() os.FileMode
	// Open opens the file for reading.
	Open() (io.ReadCloser, error)
}
