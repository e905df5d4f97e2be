package rules

import (
	"fmt"
	"time"
)

const (
	subMillisecondDurationLabelConstant = "< 1ms"
	millisecondDurationTemplateConstant = "%dms"
	secondDurationTemplateConstant      = "%.2fs"
)

// CategoryTiming records the execution metrics for a single category.
type CategoryTiming struct {
	Name          string        `json:"name"`
	RuleCount     int           `json:"rule_count"`
	FindingsCount int           `json:"findings_count"`
	Duration      time.Duration `json:"duration_ms"`
}

// AuditTiming aggregates per-category timings for a full run.
type AuditTiming struct {
	Categories    []CategoryTiming `json:"categories"`
	TotalDuration time.Duration    `json:"total_duration_ms"`
}

// AddCategory appends a category timing and accumulates the total duration.
func (timing *AuditTiming) AddCategory(categoryTiming CategoryTiming) {
	timing.Categories = append(timing.Categories, categoryTiming)
	timing.TotalDuration += categoryTiming.Duration
}

// FormatDuration renders a duration for human consumption. Durations under a
// millisecond collapse to "< 1ms" and durations of a second or more switch to
// fractional seconds.
func FormatDuration(duration time.Duration) string {
	if duration < time.Millisecond {
		return subMillisecondDurationLabelConstant
	}
	if duration < time.Second {
		return fmt.Sprintf(millisecondDurationTemplateConstant, duration.Milliseconds())
	}
	return fmt.Sprintf(secondDurationTemplateConstant, duration.Seconds())
}
