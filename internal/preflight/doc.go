// Package preflight provides readiness checks for the filesystem paths,
// credentials, and Sleeper league a recap run depends on.
//
// The CLI "status" command runs every check and prints one line per result.
// Checks never call the model providers; credential checks only confirm that
// a key is configured for every provider the step mapping routes to.
package preflight
