// Package format renders OCM API documents as the fixed-layout text returned
// by the tools.
//
// Every formatter is total: absent, malformed or empty documents produce a
// fixed "not found" sentence and a missing field is rendered as "N/A".
// Scalar values of any JSON type are rendered as text; numbers keep their
// original spelling.
package format
