// Package export renders a week's cached artifacts for people: CSV sheets of
// player rows, matchups, and standings; an HTML page of the recap; and a
// markdown file with YAML front matter for static site publishing.
package export
