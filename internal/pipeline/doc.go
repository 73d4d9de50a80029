// Package pipeline orchestrates a weekly recap run.
//
// Steps run strictly in order: truth, evidence, plan, write, audit, and at
// most one patch followed by a second audit. Every step persists its artifact
// in the week's step cache; later runs reuse cached evidence, outline, and
// draft unless forced. Truth is rebuilt on every run so scores and records
// always reflect Sleeper's latest stat corrections.
//
// A failed audit is never fatal. The draft is patched exactly once and
// delivered with both reports whatever the second verdict.
package pipeline
