// Package evidence gathers per-player findings and citations for a league week.
//
// Live research goes through the step's provider chain. When every attempt
// fails the caller receives services.ErrResearchUnavailable and can fall back
// to Degraded, which derives minimal evidence from the truth record alone.
package evidence
