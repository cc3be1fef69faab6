package snapshot

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const excerptLength = 100

// ReadError explains why a file in the output directory could not be used
// as a snapshot.
type ReadError struct {
	Path   string
	Reason string
	// at most 100 characters of the offending content
	Excerpt string
	Err     error
}

func (e *ReadError) Error() string {
	msg := fmt.Sprintf("%s: %s", filepath.Base(e.Path), e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ReadError) Unwrap() error {
	return e.Err
}

func excerpt(contents []byte) string {
	runes := []rune(string(contents))
	if len(runes) > excerptLength {
		runes = runes[:excerptLength]
	}
	return string(runes)
}

// LoosePost is a post read back from disk without assuming anything about
// its fields.
type LoosePost map[string]any

// Str returns the field if it is a non-empty string.
func (p LoosePost) Str(key string) (string, bool) {
	value, ok := p[key].(string)
	if !ok || value == "" {
		return "", false
	}
	return value, true
}

// Count returns the field as an integer, anything missing or non-numeric
// counts as 0.
func (p LoosePost) Count(key string) int64 {
	switch value := p[key].(type) {
	case json.Number:
		i, err := value.Int64()
		if err == nil {
			return i
		}
		f, err := value.Float64()
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0
		}
		return int64(f)
	case float64:
		return int64(value)
	case int:
		return int64(value)
	case int64:
		return value
	}
	return 0
}

// Document is the tolerant read-side view of a snapshot file.
type Document struct {
	Path      string
	FetchedAt string
	Posts     []LoosePost
}

func (d Document) Name() string {
	return filepath.Base(d.Path)
}

// List returns the snapshot files in `dir`, newest first. latest.json,
// summary.json and anything that is not a regular *.json file are left out.
// A missing directory has no snapshots.
func List(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var names []string
	for _, entry := range entries {
		name := entry.Name()
		if !entry.Type().IsRegular() || !strings.HasSuffix(name, Suffix) || IsReserved(name) {
			continue
		}
		names = append(names, name)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(names)))

	paths := make([]string, len(names))
	for i, name := range names {
		paths[i] = filepath.Join(dir, name)
	}
	return paths, nil
}

// Read loads the snapshot at `path`. Every failure is a *ReadError.
func Read(path string) (Document, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		return Document{}, &ReadError{Path: path, Reason: "unreadable", Err: err}
	}
	doc, err := Parse(path, contents)
	if err != nil {
		return Document{}, err
	}
	if doc.FetchedAt == "" {
		info, err := os.Stat(path)
		if err == nil {
			doc.FetchedAt = FormatTimestamp(info.ModTime())
		}
	}
	return doc, nil
}

// Parse interprets `contents` as a snapshot. `path` is used to derive the
// fetch time when the file does not carry one.
func Parse(path string, contents []byte) (Document, error) {
	trimmed := bytes.TrimSpace(contents)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return Document{}, &ReadError{
			Path:    path,
			Reason:  "not a json object",
			Excerpt: excerpt(contents),
		}
	}

	decoder := json.NewDecoder(bytes.NewReader(trimmed))
	decoder.UseNumber()
	var raw map[string]any
	err := decoder.Decode(&raw)
	if err == nil {
		err = expectEOF(decoder)
	}
	if err != nil {
		return Document{}, &ReadError{
			Path:    path,
			Reason:  "invalid json",
			Excerpt: excerpt(contents),
			Err:     err,
		}
	}

	rawPosts, ok := raw["posts"].([]any)
	if !ok {
		return Document{}, &ReadError{
			Path:    path,
			Reason:  "posts is not an array",
			Excerpt: excerpt(contents),
		}
	}

	posts := make([]LoosePost, len(rawPosts))
	for i, rawPost := range rawPosts {
		post, _ := rawPost.(map[string]any)
		posts[i] = LoosePost(post)
	}

	fetchedAt, _ := raw["fetchedAt"].(string)
	if fetchedAt == "" {
		fetchedAt, _ = TimestampFromName(filepath.Base(path))
	}

	return Document{
		Path:      path,
		FetchedAt: fetchedAt,
		Posts:     posts,
	}, nil
}

func expectEOF(decoder *json.Decoder) error {
	_, err := decoder.Token()
	if err == io.EOF {
		return nil
	}
	if err != nil {
		return err
	}
	return fmt.Errorf("unexpected data after the top-level object")
}
