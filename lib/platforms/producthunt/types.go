package producthunt

// Post is a single entry of the trending ranking, in the shape the API
// returns it.
type Post struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Tagline       string `json:"tagline"`
	URL           string `json:"url"`
	VotesCount    int    `json:"votesCount"`
	CommentsCount int    `json:"commentsCount"`
	CreatedAt     string `json:"createdAt"`

	Thumbnail *Thumbnail       `json:"thumbnail,omitempty"`
	Topics    *TopicConnection `json:"topics,omitempty"`
}

type Thumbnail struct {
	URL string `json:"url"`
}

type Topic struct {
	Name string `json:"name"`
}

type TopicEdge struct {
	Node Topic `json:"node"`
}

type TopicConnection struct {
	Edges []TopicEdge `json:"edges"`
}

// TopicNames flattens the topics connection, it returns nil when the post
// has no topics.
func (p Post) TopicNames() []string {
	if p.Topics == nil {
		return nil
	}
	names := make([]string, 0, len(p.Topics.Edges))
	for _, edge := range p.Topics.Edges {
		names = append(names, edge.Node.Name)
	}
	return names
}
