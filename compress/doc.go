// Package compress provides the Codec interface used to transparently load
// compressed BUFR table-file distributions.
//
// WMO and vendored table directories are sometimes shipped gzip-, s2-, or
// lz4-compressed to save space in package registries. The tables loaders
// try a plain file first and fall back to the compressed sibling (same
// name plus .gz/.s2/.lz4) picked by CodecForExt, so callers never need to
// know which form is on disk.
package compress
