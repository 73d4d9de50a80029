// Package sleeper is a small client for the read-only Sleeper fantasy API.
//
// It fetches league metadata, users, rosters, weekly matchups, and the NFL
// players database. Calls share the run's retry policy and pacing; the
// players database is cached on disk because it is large and changes slowly.
package sleeper
