package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"sleeperrecap/internal/history"
	"sleeperrecap/internal/preflight"
)

type checkState int

const (
	stateInfo checkState = iota
	statePass
	stateWarn
	stateFail
)

const statusLabelWidth = 20

var (
	stateColors = map[checkState]lipgloss.Color{
		stateInfo: lipgloss.Color("#58A6FF"),
		statePass: lipgloss.Color("#3FB950"),
		stateWarn: lipgloss.Color("#F0883E"),
		stateFail: lipgloss.Color("#F85149"),
	}
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#58A6FF"))
)

func (s checkState) label() string {
	switch s {
	case statePass:
		return "OK"
	case stateWarn:
		return "WARN"
	case stateFail:
		return "ERROR"
	default:
		return "INFO"
	}
}

func statusLine(label string, state checkState, detail string, colorize bool) string {
	tag := "[" + state.label() + "]"
	if colorize {
		tag = lipgloss.NewStyle().Foreground(stateColors[state]).Render(tag)
	}
	line := fmt.Sprintf("  %-*s %s", statusLabelWidth, label+":", tag)
	if detail != "" {
		line += " " + detail
	}
	return line
}

func sectionHeader(title string, colorize bool) []string {
	title = strings.TrimSpace(title)
	rule := strings.Repeat("-", len(title)+6)
	line := "== " + title + " =="
	if colorize {
		line = headerStyle.Render(line)
	}
	return []string{line, rule}
}

func checkLine(result preflight.Result, colorize bool) string {
	state := statePass
	if !result.Passed {
		state = stateFail
	}
	return statusLine(result.Name, state, result.Detail, colorize)
}

// runLine summarizes the newest ledger row. A run left in the running state
// was interrupted or is still going.
func runLine(run history.Run, colorize bool) string {
	week := fmt.Sprintf("league %s %d week %d", run.LeagueID, run.Season, run.Week)
	switch {
	case run.Status == history.StatusFailed:
		return statusLine("Last run", stateFail, fmt.Sprintf("%s failed: %s", week, run.Error), colorize)
	case run.Status == history.StatusRunning:
		return statusLine("Last run", stateWarn, week+" still running or interrupted", colorize)
	case run.Verdict != "PASS":
		return statusLine("Last run", stateWarn, fmt.Sprintf("%s: %s", week, run.Verdict), colorize)
	}
	return statusLine("Last run", statePass, fmt.Sprintf("%s: %s", week, run.Verdict), colorize)
}

func shouldColorize(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
