// Package testutil provides fixtures for testing gdsmerge components.
//
// Fixture libraries are described with CellSpec values and encoded through
// the gds package itself, so every test input is a well-formed stream unless
// a test deliberately corrupts it. A Workspace keeps fixture files in a
// per-test temp dir.
package testutil
