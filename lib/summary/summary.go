package summary

import (
	"phtrending/lib/snapshot"
)

const TopPostCount = 5

// placeholders for fields a snapshot post does not carry
const (
	UnknownName = "Unknown"
	UnknownURL  = "#"
)

type TopPost struct {
	Name  string `json:"name"`
	Votes int64  `json:"votes"`
	URL   string `json:"url"`
}

type DataPoint struct {
	Timestamp  string    `json:"timestamp"`
	PostCount  int       `json:"postCount"`
	TotalVotes int64     `json:"totalVotes"`
	TopPosts   []TopPost `json:"topPosts"`
}

type Summary struct {
	LastUpdated string      `json:"lastUpdated"`
	DataPoints  []DataPoint `json:"dataPoints"`
}

// NewDataPoint condenses one snapshot. The top posts are the first ones in
// file order, the ranking the snapshot was fetched with.
func NewDataPoint(doc snapshot.Document) DataPoint {
	var total int64
	for _, post := range doc.Posts {
		total += post.Count("votesCount")
	}

	top := make([]TopPost, 0, min(len(doc.Posts), TopPostCount))
	for _, post := range doc.Posts {
		if len(top) == TopPostCount {
			break
		}
		name, ok := post.Str("name")
		if !ok {
			name = UnknownName
		}
		url, ok := post.Str("url")
		if !ok {
			url = UnknownURL
		}
		top = append(top, TopPost{
			Name:  name,
			Votes: post.Count("votesCount"),
			URL:   url,
		})
	}

	return DataPoint{
		Timestamp:  doc.FetchedAt,
		PostCount:  len(doc.Posts),
		TotalVotes: total,
		TopPosts:   top,
	}
}

// Newest returns the most recent data point, it returns false for an empty
// summary.
func (s Summary) Newest() (DataPoint, bool) {
	if len(s.DataPoints) == 0 {
		return DataPoint{}, false
	}
	return s.DataPoints[0], true
}
