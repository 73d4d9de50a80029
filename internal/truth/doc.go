// Package truth assembles the ground-truth record for one league week.
//
// A Record is built entirely from Sleeper data: teams and their scored
// players, paired matchups with winners, and cumulative standings through the
// week. Everything downstream (evidence, writing, audit) treats it as the
// authority on names and numbers.
package truth
