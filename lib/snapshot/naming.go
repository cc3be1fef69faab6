package snapshot

import (
	"strings"
	"time"
)

const (
	// ISO-8601 in UTC with millisecond precision
	TimestampLayout = "2006-01-02T15:04:05.000Z"

	Prefix      = "posts-"
	Suffix      = ".json"
	LatestName  = "latest.json"
	SummaryName = "summary.json"
	IndexName   = "index.html"
)

func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

func ParseTimestamp(value string) (time.Time, error) {
	return time.Parse(TimestampLayout, value)
}

// FileName derives a filesystem-safe name from a fetchedAt timestamp:
// "2024-05-01T08:00:00.000Z" becomes "posts-2024-05-01T08-00-00-000Z.json".
func FileName(fetchedAt string) string {
	safe := strings.NewReplacer(":", "-", ".", "-").Replace(fetchedAt)
	return Prefix + safe + Suffix
}

// TimestampFromName reverses FileName, it returns false for names that
// FileName could not have produced.
func TimestampFromName(name string) (string, bool) {
	if !strings.HasPrefix(name, Prefix) || !strings.HasSuffix(name, Suffix) {
		return "", false
	}
	safe := strings.TrimSuffix(strings.TrimPrefix(name, Prefix), Suffix)
	// 2024-05-01T08-00-00-000Z
	if len(safe) != len(TimestampLayout) {
		return "", false
	}
	b := []byte(safe)
	b[13] = ':'
	b[16] = ':'
	b[19] = '.'
	value := string(b)
	_, err := ParseTimestamp(value)
	if err != nil {
		return "", false
	}
	return value, true
}

// IsReserved reports whether `name` is one of the files that live next to
// the snapshots without being one.
func IsReserved(name string) bool {
	return name == LatestName || name == SummaryName
}
