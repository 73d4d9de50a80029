// Package stepcache stores the per-step artifacts of a weekly recap run under
// {output}/{league}/{season}_week{week}/.
//
// Structured steps are JSON documents and the outline and article are plain
// text. A week directory is guarded by an advisory file lock so concurrent
// runs for the same week fail fast instead of interleaving writes. Offline
// readers (audit, export) use View and never take the lock.
package stepcache
