// Package codec implements the BUFR descriptor expander and the bit-level
// subset codec: Table D sequence substitution, Class 1 replication, Class 2
// operator state tracking, and the decode/encode of individual F=0 element
// values against an effective Table B.
package codec
