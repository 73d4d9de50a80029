// Package audit checks a generated recap against the week's truth and
// evidence without calling any model.
//
// Check families:
//
//   - UNBOUND_ENTITY: capitalized name candidates that are not a rostered
//     player, a team or owner name, or a known non-player phrase.
//   - SCORE_MISMATCH: matchup scores and player point claims that differ
//     from the truth by more than the tolerance. A difference exactly equal
//     to the tolerance passes.
//   - MISSING_CITATION: [n] markers with no matching evidence citation.
//   - Style (optional): EM_DASH, WORD_COUNT, TABLE_FORMAT, and
//     MISSING_POWER_RANKINGS.
//
// Families are independent; a report is PASS only when none of the enabled
// families found anything.
package audit
