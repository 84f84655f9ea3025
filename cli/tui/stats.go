package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/pithecene-io/wearlink/lode"
	"github.com/pithecene-io/wearlink/types"
)

func renderAutoSync(data any) string {
	var stats types.AutoSyncStats
	switch v := data.(type) {
	case *types.AutoSyncStats:
		if v == nil {
			return MutedStyle.Render("No auto-sync run recorded.")
		}
		stats = *v
	case types.AutoSyncStats:
		stats = v
	default:
		return ErrorStyle.Render("Invalid data")
	}

	var b strings.Builder
	b.WriteString(TitleStyle.Render("Auto-Sync"))
	b.WriteString("\n\n")

	boxes := lipgloss.JoinHorizontal(lipgloss.Top,
		statBox("Attempted", stats.Attempted, primaryColor),
		"  ",
		statBox("Sent", stats.Sent, successColor),
		"  ",
		statBox("Changed", stats.ChangedCategories, highlightColor),
	)
	b.WriteString(boxes)
	b.WriteString("\n\n")

	b.WriteString(LabelStyle.Render("Status") + " " + StatusStyle(string(stats.Status)).Render(string(stats.Status)))
	b.WriteString("\n")
	if stats.Reason != "" {
		b.WriteString(field("Reason", stats.Reason))
		b.WriteString("\n")
	}
	b.WriteString(field("Completed", formatMillis(stats.Timestamp)))
	b.WriteString("\n")

	if len(stats.Categories) > 0 {
		b.WriteString("\n")
		b.WriteString(TitleStyle.Render("Categories"))
		b.WriteString("\n")
		b.WriteString(BoxStyle.Render(renderCategories(stats.Categories)))
	}
	return b.String()
}

func renderCategories(categories map[types.Category]types.CategorySyncResult) string {
	rows := make([]string, 0, len(categories)+1)
	rows = append(rows, MutedStyle.Render(fmt.Sprintf("%-10s %9s %5s %8s", "CATEGORY", "ATTEMPTED", "SENT", "CHANGED")))
	for _, c := range types.AllCategories {
		r, ok := categories[c]
		if !ok {
			continue
		}
		line := fmt.Sprintf("%-10s %9d %5d %8t", c, r.Attempted, r.Sent, r.Changed)
		switch {
		case r.Attempted > r.Sent:
			line = WarningStyle.Render(line)
		case r.Changed:
			line = SuccessStyle.Render(line)
		default:
			line = ValueStyle.Render(line)
		}
		rows = append(rows, line)
	}
	return strings.Join(rows, "\n")
}

func renderHistory(data any) string {
	runs, ok := data.([]lode.RunRecord)
	if !ok {
		return ErrorStyle.Render("Invalid data")
	}

	var b strings.Builder
	b.WriteString(TitleStyle.Render(fmt.Sprintf("Auto-Sync History (%d runs)", len(runs))))
	b.WriteString("\n\n")
	if len(runs) == 0 {
		b.WriteString(MutedStyle.Render("No archived runs."))
		return b.String()
	}

	counts := make(map[types.AutoSyncStatus]int)
	for _, r := range runs {
		counts[r.Status]++
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		statBox("Success", counts[types.AutoSyncSuccess], successColor),
		"  ",
		statBox("Partial", counts[types.AutoSyncPartial], warningColor),
		"  ",
		statBox("Retry", counts[types.AutoSyncRetry], errorColor),
	))
	b.WriteString("\n\n")

	rows := []string{MutedStyle.Render(fmt.Sprintf("%-20s %-12s %-8s %4s/%-4s", "COMPLETED", "DEVICE", "STATUS", "SENT", "ALL"))}
	for _, r := range runs {
		status := StatusStyle(string(r.Status)).Render(fmt.Sprintf("%-8s", r.Status))
		rows = append(rows, fmt.Sprintf("%-20s %-12s %s %4d/%-4d",
			formatMillis(r.Timestamp), truncate(r.Device, 12), status, r.Sent, r.Attempted))
	}
	b.WriteString(BoxStyle.Render(strings.Join(rows, "\n")))
	return b.String()
}

func formatMillis(ms int64) string {
	if ms <= 0 {
		return "-"
	}
	return time.UnixMilli(ms).UTC().Format("2006-01-02 15:04:05")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}
