package producthunt

import (
	"context"
	"fmt"
	"log/slog"
	"phtrending/lib/restyutil"
	"time"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
)

var tracer = otel.Tracer("platforms/producthunt")
var meter = otel.Meter("platforms/producthunt")

const (
	DefaultEndpoint = "https://api.producthunt.com/v2/api/graphql"
	MaxPageSize     = 20
)

type Options struct {
	// defaults to DefaultEndpoint
	Endpoint string
	Token    string
	// clamped to 1..MaxPageSize, 0 means MaxPageSize
	PageSize     int
	IncludeMedia bool
	// 0 means no timeout
	Timeout time.Duration
	// if set, every HTTP exchange is dumped into it while debug logging is on
	InstrumentOutput restyutil.InstrumentOutput
}

type Client struct {
	http         *resty.Client
	endpoint     string
	pageSize     int
	includeMedia bool

	postsFetched metric.Int64Counter
}

func clampPageSize(size int) int {
	if size <= 0 || size > MaxPageSize {
		return MaxPageSize
	}
	return size
}

func NewClient(opts Options) (*Client, error) {
	if opts.Token == "" {
		return nil, fmt.Errorf("producthunt: an api token is required")
	}
	endpoint := opts.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}

	client := resty.New()
	client.SetAuthToken(opts.Token)
	client.SetHeader("accept", "application/json")
	if opts.Timeout > 0 {
		client.SetTimeout(opts.Timeout)
	}
	restyutil.InstrumentClient(client, otel.Tracer("platforms/producthunt/http"), opts.InstrumentOutput)

	postsFetched, err := meter.Int64Counter(
		"producthunt.posts_fetched",
		metric.WithDescription("Number of posts received from the trending query."),
	)
	if err != nil {
		return nil, err
	}

	return &Client{
		http:         client,
		endpoint:     endpoint,
		pageSize:     clampPageSize(opts.PageSize),
		includeMedia: opts.IncludeMedia,
		postsFetched: postsFetched,
	}, nil
}

// FetchPosts runs the trending query once and returns the posts in the
// order the server ranked them. Edges without a node are dropped.
func (c *Client) FetchPosts(ctx context.Context) ([]Post, error) {
	ctx, span := tracer.Start(ctx, "FetchPosts")
	defer span.End()

	data, payload, err := graphqlQuery[postsQueryData](
		ctx, c.http, c.endpoint,
		"TrendingPosts", postsQuery(c.pageSize, c.includeMedia),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if data.Posts == nil {
		err := &MalformedResponseError{Reason: "response has no data.posts", Payload: payload}
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if data.Posts.Edges == nil {
		err := &MalformedResponseError{Reason: "response has no data.posts.edges", Payload: payload}
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	posts := make([]Post, 0, len(data.Posts.Edges))
	for i, edge := range data.Posts.Edges {
		if edge.Node == nil {
			slog.WarnContext(ctx, "skipping edge without a node", "index", i)
			continue
		}
		posts = append(posts, *edge.Node)
	}

	span.SetAttributes(attribute.Int("custom.posts", len(posts)))
	c.postsFetched.Add(ctx, int64(len(posts)))
	slog.DebugContext(ctx, "fetched posts", "count", len(posts))

	return posts, nil
}
