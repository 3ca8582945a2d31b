// Package wireless holds the canonical model of a router's radios and
// wireless networks and the normalizer that builds it from a raw UCI
// "wireless" dump.
//
// The raw dump is loosely typed: booleans are the strings "0" and "1"
// and bands are two-letter codes. Normalize is the only place those
// encodings are interpreted; everything downstream sees Go booleans and
// Band values.
package wireless
