// Package bitio provides an MSB-first bit cursor over a byte buffer.
//
// BUFR packs every element as an arbitrary-width bit field, big-endian
// within the field and concatenated high bit first across field boundaries.
// Reader and Writer give the codec package a single place to reason about
// that bit addressing instead of re-deriving shift/mask arithmetic at every
// call site.
package bitio
