package producthunt

import (
	"fmt"
	"strings"
)

const postMediaFields = `
        thumbnail { url }
        topics { edges { node { name } } }`

const postsQueryTemplate = `query {
  posts(order: RANK, first: %d) {
    edges {
      node {
        id
        name
        tagline
        url
        votesCount
        commentsCount
        createdAt%s
      }
    }
  }
}`

func postsQuery(pageSize int, includeMedia bool) string {
	media := ""
	if includeMedia {
		media = postMediaFields
	}
	return strings.TrimSpace(fmt.Sprintf(postsQueryTemplate, pageSize, media))
}

type postEdge struct {
	Node *Post `json:"node"`
}

type postConnection struct {
	Edges []postEdge `json:"edges"`
}

type postsQueryData struct {
	Posts *postConnection `json:"posts"`
}
