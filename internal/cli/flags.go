package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"nexdo/internal/model"
	"nexdo/internal/statusutil"

	"github.com/spf13/pflag"
)

// priorityValue accepts urgent|high|medium|low|none and the p0..p3 aliases.
type priorityValue struct {
	p   model.Priority
	set bool
}

var _ pflag.Value = (*priorityValue)(nil)

func (v *priorityValue) String() string { return string(v.p) }

func (v *priorityValue) Type() string { return "priority" }

func (v *priorityValue) Set(s string) error {
	p, err := statusutil.NormalizePriority(s)
	if err != nil {
		return err
	}
	v.p, v.set = p, true
	return nil
}

// recurrenceValue accepts daily|weekly|monthly, a count plus unit ("2w", "3d", "1m") or none.
type recurrenceValue struct {
	rule  *model.RecurrenceRule
	clear bool
	set   bool
}

var _ pflag.Value = (*recurrenceValue)(nil)

func (v *recurrenceValue) String() string {
	if v.rule == nil {
		return ""
	}
	return fmt.Sprintf("%d%c", v.rule.Interval, v.rule.Frequency[0])
}

func (v *recurrenceValue) Type() string { return "recurrence" }

func (v *recurrenceValue) Set(s string) error {
	rule, clear, err := parseRecurrence(s)
	if err != nil {
		return err
	}
	v.rule, v.clear, v.set = rule, clear, true
	return nil
}

func parseRecurrence(s string) (*model.RecurrenceRule, bool, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "", "none", "never":
		return nil, true, nil
	case "daily", "weekly", "monthly":
		return &model.RecurrenceRule{Frequency: model.Frequency(s), Interval: 1}, false, nil
	}
	units := map[byte]model.Frequency{
		'd': model.FrequencyDaily,
		'w': model.FrequencyWeekly,
		'm': model.FrequencyMonthly,
	}
	if len(s) >= 2 {
		if f, ok := units[s[len(s)-1]]; ok {
			if n, err := strconv.Atoi(s[:len(s)-1]); err == nil && n >= 1 {
				return &model.RecurrenceRule{Frequency: f, Interval: n}, false, nil
			}
		}
	}
	return nil, false, fmt.Errorf("invalid recurrence: %q (expected daily|weekly|monthly|<n>d|<n>w|<n>m|none)", s)
}

// normalizeDue validates a due date: YYYY-MM-DD, RFC3339, "today" or "tomorrow". Empty clears.
func normalizeDue(s string, now time.Time) (string, error) {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "", "none":
		return "", nil
	case "today":
		return now.Format("2006-01-02"), nil
	case "tomorrow":
		return now.AddDate(0, 0, 1).Format("2006-01-02"), nil
	}
	if _, err := time.Parse("2006-01-02", s); err == nil {
		return s, nil
	}
	if _, err := time.Parse(time.RFC3339, s); err == nil {
		return s, nil
	}
	return "", fmt.Errorf("invalid date: %q (expected YYYY-MM-DD or RFC3339)", s)
}
