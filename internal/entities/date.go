package entities

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/datatypes"
)

var dateLayouts = []string{time.DateOnly, time.RFC3339, "2006-01-02T15:04:05"}

// ParseDate accepts a calendar date or an RFC 3339 timestamp. The empty
// string yields nil.
func ParseDate(s string) (*datatypes.Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			d := datatypes.Date(time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC))
			return &d, nil
		}
	}
	return nil, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", s)
}
