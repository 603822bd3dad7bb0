package compress

import (
	"errors"

	"github.com/pierrec/lz4/v4"
)

// LZ4Codec handles ".lz4" table file siblings using the LZ4 block format.
// Blocks carry no decompressed size, so Decompress grows its output buffer
// until the block fits.
type LZ4Codec struct{}

var _ Codec = LZ4Codec{}

func (LZ4Codec) Compress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	dst := make([]byte, lz4.CompressBlockBound(len(data)))
	var c lz4.Compressor
	n, err := c.CompressBlock(data, dst)
	if err != nil {
		return nil, err
	}

	return dst[:n], nil
}

func (LZ4Codec) Decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	// Table files decompress to, at most, a modest multiple of their
	// compressed size; grow geometrically on ErrInvalidSourceShortBuffer.
	bufSize := len(data)*4 + 64
	const maxSize = 128 * 1024 * 1024 // 128MB safety limit

	for bufSize <= maxSize {
		dst := make([]byte, bufSize)
		n, err := lz4.UncompressBlock(data, dst)
		if err == nil {
			return dst[:n], nil
		}
		if errors.Is(err, lz4.ErrInvalidSourceShortBuffer) {
			bufSize *= 2
			continue
		}

		return nil, err
	}

	return nil, lz4.ErrInvalidSourceShortBuffer
}
