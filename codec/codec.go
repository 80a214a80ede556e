package codec

import (
	"io"
)

// Codec has methods to create compressor/encoder and decompressor/decoder.
type Codec interface {
	// NewDecoder creates a decoder to decompress contents from the given io.Reader.
	NewDecoder(src io.Reader) (io.ReadCloser, error)
	// NewEncoder creates an encoder to compress contents from the given io.Writer.
	NewEncoder(dst io.Writer) (io.WriteCloser, error)
	// Name returns the short name of the algorithm, for example "gzip".
	Name() string
}

// FromName returns a Codec from the given algorithm name or file extension (without the leading dot).
func FromName(name string) (Codec, bool) {
	switch name {
	case "gzip", "gz", "tgz":
		return GzipCodec{}, true
	case "xz", "txz":
		return XzCodec{}, true
	case "zstd", "zst":
		return ZstdCodec{}, true
	case "bzip2", "bz2", "tbz2":
		return Bz2Codec{}, true
	case "lz4":
		return Lz4Codec{}, true
	default:
		return nil, false
	}
}
