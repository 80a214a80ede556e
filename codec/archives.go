package codec

import (
	"io"

	"github.com/mholt/archives"
)

// Bz2Codec implements Codec for bzip2 using the archives library.
type Bz2Codec struct{}

var _ Codec = Bz2Codec{}

func (c Bz2Codec) NewDecoder(src io.Reader) (io.ReadCloser, error) {
	return archives.Bz2{}.OpenReader(src)
}

func (c Bz2Codec) NewEncoder(dst io.Writer) (io.WriteCloser, error) {
	return archives.Bz2{CompressionLevel: 9}.OpenWriter(dst)
}

func (c Bz2Codec) Name() string {
	return "bzip2"
}

// Lz4Codec implements Codec for lz4 using the archives library.
type Lz4Codec struct{}

var _ Codec = Lz4Codec{}

func (c Lz4Codec) NewDecoder(src io.Reader) (io.ReadCloser, error) {
	return archives.Lz4{}.OpenReader(src)
}

func (c Lz4Codec) NewEncoder(dst io.Writer) (io.WriteCloser, error) {
	return archives.Lz4{}.OpenWriter(dst)
}

func (c Lz4Codec) Name() string {
	return "lz4"
}
