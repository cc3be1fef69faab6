package snapshot

import (
	"bytes"
	"encoding/json"
	"phtrending/lib/platforms/producthunt"
	"time"

	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("snapshot")

// Snapshot is the content of one snapshot file, it is never modified once
// written.
type Snapshot struct {
	FetchedAt string             `json:"fetchedAt"`
	Posts     []producthunt.Post `json:"posts"`
}

func New(fetchedAt time.Time, posts []producthunt.Post) Snapshot {
	if posts == nil {
		posts = []producthunt.Post{}
	}
	return Snapshot{
		FetchedAt: FormatTimestamp(fetchedAt),
		Posts:     posts,
	}
}

// Encode serializes the snapshot the way it is stored on disk: two-space
// indentation and a trailing newline.
func (s Snapshot) Encode() ([]byte, error) {
	return EncodeJSON(s)
}

// EncodeJSON is the encoding shared by every JSON file in the output
// directory.
func EncodeJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetIndent("", "  ")
	encoder.SetEscapeHTML(false)
	err := encoder.Encode(v)
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
