// Package prompts renders the instructions sent to research and generation
// models. System prompts are constants; user prompts are embedded templates
// filled from plain input structs so callers own all data shaping.
package prompts
