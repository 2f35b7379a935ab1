// Package record defines the normalized run record model shared by every
// other package in brancheval.
//
// A RunRecord is a read-only snapshot of one experiment run as reported by the
// tracking store. Nothing in this module mutates a RunRecord once it has been
// built; resolvers, comparators and report builders copy what they need.
//
// # Values
//
// Summary and config entries are stored as a sealed tagged union (Value):
// Number, Text, Bool, Null and Other. Only Number takes part in metric
// comparison, so "is this metric numeric" is a type switch instead of a
// runtime probe on loosely typed data.
//
// # Canonical JSON
//
// MarshalCanonical produces deterministic JSON (sorted keys in UTF-16 code
// unit order, NFC-normalized strings, no HTML escaping, shortest round-trip
// number format). Every JSON document the tool emits goes through it so that
// identical inputs always produce byte-identical output.
package record
