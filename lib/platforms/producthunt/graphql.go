package producthunt

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

type graphqlQueryObject struct {
	Name      string `json:"operationName,omitempty"`
	Variables any    `json:"variables,omitempty"`
	Query     string `json:"query"`
}

type graphqlError struct {
	Message string `json:"message"`
}

type graphqlQueryResult[Data any] struct {
	Data   *Data          `json:"data"`
	Errors []graphqlError `json:"errors"`
}

func (r graphqlQueryResult[Data]) errorMessages() []string {
	if len(r.Errors) == 0 {
		return nil
	}
	messages := make([]string, len(r.Errors))
	for i, e := range r.Errors {
		messages[i] = e.Message
	}
	return messages
}

// graphqlQuery posts an anonymous query document to `endpoint` and decodes
// the `data` member of the response, alongside the raw payload. `name` is
// only used for tracing.
func graphqlQuery[Output any](
	ctx context.Context,
	client *resty.Client,
	endpoint,
	name,
	query string,
) (*Output, string, error) {
	ctx, span := tracer.Start(ctx, fmt.Sprintf("graphql:%s", name))
	defer span.End()

	span.SetAttributes(attribute.KeyValue{
		Key:   "custom.name",
		Value: attribute.StringValue(name),
	})

	body, err := json.Marshal(graphqlQueryObject{Query: query})
	if err != nil {
		span.SetStatus(codes.Error, "failed to serialize json query")
		return nil, "", err
	}

	res, err := client.R().
		SetContext(ctx).
		SetHeader("content-type", "application/json").
		SetBody(body).
		Post(endpoint)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch")
		return nil, "", &NetworkError{Err: err}
	}

	payload := res.String()
	slog.DebugContext(ctx, "graphql response", "name", name, "status", res.StatusCode(), "payload", payload)

	if res.StatusCode() < 200 || res.StatusCode() >= 300 {
		span.SetStatus(codes.Error, res.Status())
		return nil, payload, &NetworkError{
			Status: res.StatusCode(),
			Body:   payload,
		}
	}

	var result graphqlQueryResult[Output]
	err = json.Unmarshal(res.Body(), &result)
	if err != nil {
		span.SetStatus(codes.Error, "failed to parse json response")
		return nil, payload, &MalformedResponseError{
			Reason:  fmt.Sprintf("invalid json: %s", err.Error()),
			Payload: payload,
		}
	}
	if result.Data == nil {
		span.SetStatus(codes.Error, "response has no data")
		return nil, payload, &MalformedResponseError{
			Reason:        "response has no data",
			Payload:       payload,
			GraphQLErrors: result.errorMessages(),
		}
	}

	return result.Data, payload, nil
}
