package codec

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/mholt/archives"
)

// peekSize is enough for every compression magic number known to Detect.
const peekSize = 64

type matcher interface {
	Match(ctx context.Context, filename string, stream io.Reader) (archives.MatchResult, error)
}

var candidates = []struct {
	matcher
	Codec
}{
	{archives.Gz{}, GzipCodec{}},
	{archives.Xz{}, XzCodec{}},
	{archives.Zstd{}, ZstdCodec{}},
	{archives.Bz2{}, Bz2Codec{}},
	{archives.Lz4{}, Lz4Codec{}},
}

// Detect identifies the compression algorithm of src by its leading bytes, falling back to the file name.
//
// The returned io.Reader must be used in place of src since some bytes have been buffered. A nil Codec means the
// stream is not compressed (or compressed with an unknown algorithm).
func Detect(ctx context.Context, name string, src io.Reader) (Codec, io.Reader, error) {
	br := bufio.NewReaderSize(src, peekSize)

	head, err := br.Peek(peekSize)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, br, fmt.Errorf("peek stream error: %w", err)
	}

	if len(head) == 0 {
		return nil, br, nil
	}

	var byName Codec
	for _, c := range candidates {
		mr, err := c.Match(ctx, name, bytes.NewReader(head))
		switch {
		case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
			continue
		case err != nil:
			return nil, br, fmt.Errorf("match %s error: %w", c.Name(), err)
		}

		if mr.ByStream {
			return c.Codec, br, nil
		}
		if mr.ByName && byName == nil {
			byName = c.Codec
		}
	}

	return byName, br, nil
}

// IsZip returns true if src starts with a ZIP local file header or if name has the .zip extension.
//
// A src too short to hold a header is matched by name only.
func IsZip(ctx context.Context, name string, src io.Reader) (bool, error) {
	mr, err := archives.Zip{}.Match(ctx, name, src)
	switch {
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return strings.EqualFold(filepath.Ext(name), ".zip"), nil
	case err != nil:
		return false, err
	}

	return mr.ByStream || mr.ByName, nil
}

// NewDecoder detects the compression of src then returns a decoder for it, or src itself (with a no-op Close) if src
// is not compressed.
func NewDecoder(ctx context.Context, name string, src io.Reader) (io.ReadCloser, Codec, error) {
	c, r, err := Detect(ctx, name, src)
	if err != nil {
		return nil, nil, err
	}

	if c == nil {
		return io.NopCloser(r), nil, nil
	}

	dec, err := c.NewDecoder(r)
	if err != nil {
		return nil, c, fmt.Errorf("open %s decoder error: %w", c.Name(), err)
	}

	return dec, c, nil
}
