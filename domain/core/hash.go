package core

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
)

// Hash represents a cryptographic hash
type Hash string

// NewHash creates a new hash from data
func NewHash(data []byte) Hash {
	sum := sha256.Sum256(data)
	return Hash(hex.EncodeToString(sum[:]))
}

// String returns the string representation
func (h Hash) String() string {
	return string(h)
}

// IsEmpty checks if the hash is empty
func (h Hash) IsEmpty() bool {
	return h == ""
}

// Equals checks if two hashes are equal
func (h Hash) Equals(other Hash) bool {
	return h == other
}

// RowHash identifies a row by content, used for duplicate detection.
type RowHash Hash

func (h RowHash) String() string { return Hash(h).String() }

// ComputeRowHash hashes a row's canonical field encoding. Fields are
// length-prefixed so adjacent values cannot collide by concatenation
// ("ab","c" vs "a","bc"); missing fields encode as a distinct marker so
// a missing value never collides with an empty string.
func ComputeRowHash(fields []string, missing []bool) RowHash {
	var data strings.Builder
	for i, f := range fields {
		if missing != nil && missing[i] {
			data.WriteString("m;")
			continue
		}
		data.WriteString(strconv.Itoa(len(f)))
		data.WriteString(":")
		data.WriteString(f)
	}
	return RowHash(NewHash([]byte(data.String())))
}

// ComputeSchemaHash fingerprints an ordered column layout (name and kind
// per column) so two datasets can be checked for structural equality.
func ComputeSchemaHash(columns []string, kinds []string) Hash {
	var data strings.Builder
	for i, c := range columns {
		data.WriteString(c)
		data.WriteString("|")
		if i < len(kinds) {
			data.WriteString(kinds[i])
		}
		data.WriteString(";")
	}
	return NewHash([]byte(data.String()))
}
