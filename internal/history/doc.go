// Package history keeps a SQLite ledger of weekly recap runs.
//
// Each run is recorded when it starts and updated when it finishes with the
// final verdict, whether a patch was applied, whether evidence was degraded,
// the estimated model cost, and the recap path. The ledger backs the
// `history` command and lets operators see which weeks ran and how they
// audited.
package history
