package projection

import (
	"fmt"
	"strings"
	"time"

	"github.com/hylla/taskscope/internal/domain"
)

const icsDateLayout = "20060102"

// ExportICS renders one all-day VEVENT per task that has a due date. Tasks without one are skipped.
func ExportICS(tasks []domain.Task, now time.Time) string {
	lines := []string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:-//taskscope//Task Export//EN",
		"CALSCALE:GREGORIAN",
		"METHOD:PUBLISH",
	}
	stamp := now.UTC().Format("20060102T150405Z")
	for _, task := range tasks {
		if task.DueDate == nil {
			continue
		}
		due := domain.TruncateDay(*task.DueDate)
		lines = append(lines,
			"BEGIN:VEVENT",
			"UID:"+escapeICSText(fmt.Sprintf("task-%s@taskscope", task.ID)),
			"DTSTAMP:"+stamp,
			"SUMMARY:"+escapeICSText(task.Title),
			"DTSTART;VALUE=DATE:"+due.Format(icsDateLayout),
			"DTEND;VALUE=DATE:"+due.AddDate(0, 0, 1).Format(icsDateLayout),
			"STATUS:"+icsStatus(task.Status),
			"PRIORITY:"+icsPriority(task.Priority),
		)
		if desc := strings.TrimSpace(task.Description); desc != "" {
			lines = append(lines, "DESCRIPTION:"+escapeICSText(desc))
		}
		if len(task.Tags) > 0 {
			tags := make([]string, len(task.Tags))
			for i, tag := range task.Tags {
				tags[i] = escapeICSText(tag)
			}
			lines = append(lines, "CATEGORIES:"+strings.Join(tags, ","))
		}
		lines = append(lines, "END:VEVENT")
	}
	lines = append(lines, "END:VCALENDAR", "")
	return strings.Join(lines, "\r\n")
}

func icsStatus(status domain.Status) string {
	switch status {
	case domain.StatusCompleted:
		return "CONFIRMED"
	case domain.StatusCancelled:
		return "CANCELLED"
	default:
		return "TENTATIVE"
	}
}

// icsPriority maps onto RFC 5545 PRIORITY where 1 is highest.
func icsPriority(priority domain.Priority) string {
	switch priority {
	case domain.PriorityUrgent:
		return "1"
	case domain.PriorityHigh:
		return "3"
	case domain.PriorityLow:
		return "9"
	default:
		return "5"
	}
}

func escapeICSText(s string) string {
	repl := strings.NewReplacer(
		"\\", "\\\\",
		";", "\\;",
		",", "\\,",
		"\r\n", "\\n",
		"\n", "\\n",
		"\r", "\\n",
	)
	return repl.Replace(s)
}
