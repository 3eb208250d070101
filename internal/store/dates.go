package store

import (
	"database/sql"
	"fmt"
	"time"
)

func formatDate(t time.Time) string {
	return t.Format(dateLayout)
}

func formatDatePtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatDate(*t)
}

func parseDate(s string) (time.Time, error) {
	return time.ParseInLocation(dateLayout, s, time.UTC)
}

func parseDatePtr(s sql.NullString) (*time.Time, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	t, err := parseDate(s.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// timestampFormats lists the formats SQLite drivers may produce for
// CURRENT_TIMESTAMP. modernc.org/sqlite typically returns RFC 3339, while
// canonical SQLite returns the space-separated DateTime format.
var timestampFormats = []string{
	time.RFC3339,
	time.DateTime,
}

func parseTimestamp(s string) (time.Time, error) {
	for _, layout := range timestampFormats {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp format: %q", s)
}
