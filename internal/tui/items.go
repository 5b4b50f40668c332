package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/Joseda-hg/listkeeper/internal/model"
)

func formatListSummary(list model.List) string {
	if list.Description == "" {
		return list.Title
	}
	return fmt.Sprintf("%s | %s", list.Title, firstLine(list.Description))
}

func formatTaskSummary(task model.Task) string {
	check := "[ ]"
	if task.IsCompleted {
		check = "[x]"
	}
	summary := fmt.Sprintf("%s %s", check, task.Title)
	if task.DueDate != nil {
		summary += " | due " + task.DueDate.Format(model.DateLayout)
	}
	return summary
}

// formatDue renders a due date relative to now, e.g. "2026-10-05 (4 days from now)".
func formatDue(due *time.Time, now time.Time) string {
	if due == nil {
		return "n/a"
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	day := due.UTC()
	switch {
	case day.Equal(today):
		return day.Format(model.DateLayout) + " (today)"
	default:
		return fmt.Sprintf("%s (%s)", day.Format(model.DateLayout), humanize.RelTime(day, today, "ago", "from now"))
	}
}

func formatWhen(t, now time.Time) string {
	if t.IsZero() {
		return "n/a"
	}
	return humanize.RelTime(t, now, "ago", "from now")
}

func formatPageLabel[T any](page model.Page[T]) string {
	if page.Total == 0 {
		return "empty"
	}
	return fmt.Sprintf("%d-%d of %s | page %d/%d", page.From, page.To, humanize.Comma(int64(page.Total)), page.CurrentPage, page.LastPage)
}

func listDetailLines(list model.List, now time.Time) []string {
	lines := []string{
		list.Title,
		fmt.Sprintf("Created: %s", formatWhen(list.CreatedAt, now)),
		fmt.Sprintf("Updated: %s", formatWhen(list.UpdatedAt, now)),
	}
	if list.Description != "" {
		lines = append(lines, "", list.Description)
	}
	return lines
}

func taskDetailLines(task model.Task, listTitle string, history []model.HistoryEntry, now time.Time) []string {
	status := "pending"
	if task.IsCompleted {
		status = "completed"
	}
	if listTitle == "" {
		listTitle = fmt.Sprintf("#%d", task.ListID)
	}
	lines := []string{
		task.Title,
		fmt.Sprintf("Status: %s", status),
		fmt.Sprintf("List: %s", listTitle),
		fmt.Sprintf("Due: %s", formatDue(task.DueDate, now)),
		fmt.Sprintf("Updated: %s", formatWhen(task.UpdatedAt, now)),
	}
	if task.Description != "" {
		lines = append(lines, "", task.Description)
	}
	if len(history) > 0 {
		lines = append(lines, "", "History:")
		for _, entry := range history {
			lines = append(lines, fmt.Sprintf("  %s %s: %s", formatWhen(entry.CreatedAt, now), entry.EventType, entry.Details))
		}
	}
	return lines
}

func firstLine(value string) string {
	line, _, _ := strings.Cut(value, "\n")
	return strings.TrimSpace(line)
}
