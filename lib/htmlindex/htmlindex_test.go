package htmlindex

import (
	"os"
	"phtrending/lib/summary"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
)

func TestWrite(t *testing.T) {
	dir := t.TempDir()
	s := summary.Summary{
		LastUpdated: "2024-05-02T12:30:00.000Z",
		DataPoints: []summary.DataPoint{
			{
				Timestamp:  "2024-05-02T08:00:00.000Z",
				PostCount:  3,
				TotalVotes: 18,
				TopPosts: []summary.TopPost{
					{Name: "Alpha <beta>", Votes: 10, URL: "https://ph.test/alpha"},
					{Name: "Gamma", Votes: 5, URL: "https://ph.test/gamma"},
					{Name: summary.UnknownName, Votes: 3, URL: summary.UnknownURL},
				},
			},
			{
				Timestamp:  "2024-05-01T08:00:00.000Z",
				PostCount:  0,
				TotalVotes: 0,
				TopPosts:   []summary.TopPost{},
			},
		},
	}

	path, err := Write(dir, s)
	require.NoError(t, err)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	doc, err := goquery.NewDocumentFromReader(f)
	require.NoError(t, err)

	require.Equal(t, "2024-05-02T12:30:00.000Z", doc.Find(".updated time").Text())
	require.Equal(t, 0, doc.Find(".empty").Length())

	sections := doc.Find("section.data-point")
	require.Equal(t, 2, sections.Length())

	first := sections.First()
	timestamp, ok := first.Attr("data-timestamp")
	require.True(t, ok)
	require.Equal(t, "2024-05-02T08:00:00.000Z", timestamp)
	require.Equal(t, "18", first.Find(".total").Text())

	var names, links []string
	first.Find("li a").Each(func(_ int, a *goquery.Selection) {
		names = append(names, a.Text())
		href, _ := a.Attr("href")
		links = append(links, href)
	})
	require.Equal(t, []string{"Alpha <beta>", "Gamma", "Unknown"}, names)
	require.Equal(t, []string{"https://ph.test/alpha", "https://ph.test/gamma", "#"}, links)

	require.Equal(t, 0, sections.Last().Find("li").Length())
}

func TestRenderEmpty(t *testing.T) {
	var out strings.Builder
	err := Render(&out, summary.Summary{LastUpdated: "2024-05-02T12:30:00.000Z"})
	require.NoError(t, err)

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(out.String()))
	require.NoError(t, err)
	require.Equal(t, 1, doc.Find(".empty").Length())
	require.Equal(t, 0, doc.Find("section").Length())
}
