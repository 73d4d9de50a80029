package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"sleeperrecap/internal/audit"
	"sleeperrecap/internal/pipeline"
	"sleeperrecap/internal/truth"
)

func summaryLines(result *pipeline.Result) []string {
	lines := []string{
		fmt.Sprintf("League:    %s", leagueLabel(result.Truth)),
		fmt.Sprintf("Verdict:   %s (%d issues)", result.Report.Verdict, len(result.Report.Issues)),
	}
	if result.InitialReport != nil {
		lines = append(lines, fmt.Sprintf("Initial:   %s (%d issues)", result.InitialReport.Verdict, len(result.InitialReport.Issues)))
	}
	lines = append(lines,
		fmt.Sprintf("Patched:   %s", yesNo(result.Patched)),
		fmt.Sprintf("Degraded:  %s", yesNo(result.Degraded)),
	)
	if result.Draft != nil {
		lines = append(lines, fmt.Sprintf("Words:     %d", result.Draft.WordCount))
	}
	if len(result.Reused) > 0 {
		lines = append(lines, fmt.Sprintf("Cached:    %s", strings.Join(result.Reused, ", ")))
	}
	lines = append(lines,
		fmt.Sprintf("LLM calls: %d (~$%.4f)%s", result.Calls, result.CostUSD, usageSuffix(result.Usage)),
		fmt.Sprintf("Duration:  %s", result.Duration.Round(time.Millisecond)),
		fmt.Sprintf("Recap:     %s", result.RecapPath),
	)
	if result.PatchError != "" {
		lines = append(lines, fmt.Sprintf("Patch:     failed (%s)", result.PatchError))
	}
	return lines
}

// usageSuffix renders ": research 1, write 2" for the calls line.
func usageSuffix(usage []pipeline.StepUsage) string {
	if len(usage) == 0 {
		return ""
	}
	parts := make([]string, 0, len(usage))
	for _, u := range usage {
		parts = append(parts, fmt.Sprintf("%s %d", u.Step, u.Calls))
	}
	return ": " + strings.Join(parts, ", ")
}

func leagueLabel(record *truth.Record) string {
	if record == nil {
		return ""
	}
	name := record.LeagueName
	if name == "" {
		name = record.LeagueID
	}
	return fmt.Sprintf("%s, %d week %d", name, record.Season, record.Week)
}

// renderRunSummary prints the end-of-run panel. On a terminal it is boxed and
// the verdict colored; otherwise plain lines are written.
func renderRunSummary(out io.Writer, result *pipeline.Result, colorize bool) {
	lines := summaryLines(result)
	if !colorize {
		for _, line := range lines {
			fmt.Fprintln(out, line)
		}
		return
	}

	verdictColor := stateColors[statePass]
	if result.Report.Verdict != audit.VerdictPass {
		verdictColor = stateColors[stateWarn]
	}
	head := lipgloss.NewStyle().
		Bold(true).
		Foreground(verdictColor).
		Render(fmt.Sprintf("RECAP · %s", result.Report.Verdict))
	body := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#AAAAAA")).
		Render(strings.Join(lines, "\n"))
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(verdictColor).
		Padding(0, 1).
		Render(head + "\n" + body)
	fmt.Fprintln(out, box)
}

func renderIssueTable(report audit.Report) string {
	rows := make([][]string, 0, len(report.Issues))
	for i, issue := range report.Issues {
		rows = append(rows, []string{
			fmt.Sprintf("%d", i+1),
			string(issue.Kind),
			issue.Location,
			issue.Fix,
		})
	}
	return renderTable([]column{
		{Title: "#", Right: true},
		{Title: "Kind"},
		{Title: "Where", Width: 48},
		{Title: "Fix", Width: 72},
	}, rows)
}
