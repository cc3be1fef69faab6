package testutil

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
)

type RecordedRequest struct {
	Method string
	Header http.Header
	Body   string
}

// GraphQLServer is a stand-in for a GraphQL endpoint that answers every
// request with a fixed status and payload.
type GraphQLServer struct {
	*httptest.Server

	status  int
	payload string

	hits     atomic.Int64
	mutex    sync.Mutex
	requests []RecordedRequest
}

func NewGraphQLServer(t testing.TB, status int, payload string) *GraphQLServer {
	s := &GraphQLServer{status: status, payload: payload}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	t.Cleanup(s.Close)
	return s
}

func (s *GraphQLServer) handle(w http.ResponseWriter, r *http.Request) {
	s.hits.Add(1)

	body, _ := io.ReadAll(r.Body)
	s.mutex.Lock()
	s.requests = append(s.requests, RecordedRequest{
		Method: r.Method,
		Header: r.Header.Clone(),
		Body:   string(body),
	})
	s.mutex.Unlock()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(s.status)
	w.Write([]byte(s.payload))
}

func (s *GraphQLServer) Hits() int64 {
	return s.hits.Load()
}

func (s *GraphQLServer) LastRequest() RecordedRequest {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if len(s.requests) == 0 {
		return RecordedRequest{}
	}
	return s.requests[len(s.requests)-1]
}

// TestPost returns a post node with every field the trending query asks for.
func TestPost(i int, votes int) map[string]any {
	return map[string]any{
		"id":            fmt.Sprintf("%d", 1000+i),
		"name":          fmt.Sprintf("Product %d", i),
		"tagline":       fmt.Sprintf("Tagline %d", i),
		"url":           fmt.Sprintf("https://www.producthunt.com/posts/product-%d", i),
		"votesCount":    votes,
		"commentsCount": i,
		"createdAt":     "2024-05-01T07:01:00Z",
	}
}

// PostsPayload wraps `nodes` the way the posts connection returns them.
func PostsPayload(nodes ...map[string]any) string {
	edges := make([]map[string]any, len(nodes))
	for i, node := range nodes {
		edges[i] = map[string]any{"node": node}
	}
	serialized, err := json.Marshal(map[string]any{
		"data": map[string]any{
			"posts": map[string]any{
				"edges": edges,
			},
		},
	})
	if err != nil {
		panic(err)
	}
	return string(serialized)
}
