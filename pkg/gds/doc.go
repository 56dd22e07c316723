// Package gds reads and writes GDSII stream files.
//
// A stream is a sequence of length-prefixed records. Reader exposes the
// records one at a time, Build and Decode assemble them into a Library of
// Structures and Elements, and Writer serializes a Library back into a
// stream.
//
// Only the fields needed to merge libraries are interpreted: the library
// header, structure names and the target names of SREF and AREF elements.
// Everything else (geometry, transforms, properties) is kept as raw record
// bytes and written back unchanged, so any record that was not renamed is
// reproduced bit for bit.
package gds
