// Package versionstore persists chapter lineage and serves similarity search.
//
// Lineage truth lives in SQLite: one row per chapter and one row per stored
// version, with sequence numbers assigned transactionally so version order is
// never ambiguous. Every stored version is also indexed in an embedded vector
// collection so past versions can be found by semantic similarity.
package versionstore
