package compress

import "strings"

// Codec decompresses a table file's on-disk bytes into the plain text the
// table parsers expect. Table files are write-once distribution artifacts
// for this module, so only decompression is exercised; Compress exists so
// the same interface can support a future packaging tool.
type Codec interface {
	Compress(data []byte) ([]byte, error)
	Decompress(data []byte) ([]byte, error)
}

// NoOpCodec returns its input unchanged; it is the Codec for plain,
// uncompressed table files.
type NoOpCodec struct{}

var _ Codec = NoOpCodec{}

func (NoOpCodec) Compress(data []byte) ([]byte, error)   { return data, nil }
func (NoOpCodec) Decompress(data []byte) ([]byte, error) { return data, nil }

// CodecForExt selects a Codec by the file's extension (".gz", ".s2",
// ".lz4"), defaulting to NoOpCodec for anything else.
func CodecForExt(name string) Codec {
	switch {
	case strings.HasSuffix(name, ".gz"):
		return GzipCodec{}
	case strings.HasSuffix(name, ".s2"):
		return S2Codec{}
	case strings.HasSuffix(name, ".lz4"):
		return LZ4Codec{}
	default:
		return NoOpCodec{}
	}
}
