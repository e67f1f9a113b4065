// Package session talks to the courtsim backend over plain request/response
// HTTP: joining a meeting, ending it, and fetching case evidence.
package session

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"net/http"
	"strings"
	"time"

	// Evidence pages are served as plain image resources.
	_ "image/jpeg"
	_ "image/png"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	joinPath = "/api/cases/meeting/vr/join"
	endPath  = "/api/cases/meeting/end"

	defaultTimeout = 15 * time.Second
)

// Client performs the request/response half of a courtroom session. It is
// stateless; the composing application owns the resulting Session.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

type ClientOption func(*Client)

// WithHTTPClient replaces the underlying HTTP client, e.g. to route through
// a proxy or shorten timeouts in tests.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// WithTimeout bounds every request issued by the client.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

func NewClient(baseURL string, opts ...ClientOption) *Client {
	client := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: defaultTimeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport,
				otelhttp.WithSpanNameFormatter(func(operationName string, request *http.Request) string {
					return operationName + " " + request.URL.Path
				}),
			),
		},
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

// Join exchanges a meeting code for the joined-meeting identifiers and the
// ordered evidence page URLs. It suspends the caller until the transport
// completes; cancel through ctx.
func (c *Client) Join(ctx context.Context, code string) (*Joined, error) {
	ctx, span := tracer.Start(ctx, "join meeting")
	defer span.End()

	if code == "" {
		span.RecordError(ErrEmptyCode)
		span.SetStatus(codes.Error, ErrEmptyCode.Error())
		return nil, ErrEmptyCode
	}

	var parsed joinResponse
	if err := c.post(ctx, "join", joinPath, joinRequest{MeetingCode: code}, &parsed); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	if !parsed.Success || parsed.MeetingID == "" {
		err := fmt.Errorf("%w: join did not return a meeting id", ErrInvalidResponse)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(
		attribute.String("meeting.id", parsed.MeetingID),
		attribute.Int("meeting.evidence_pages", len(parsed.EvidencePages)),
	)

	return &Joined{
		MeetingID:     parsed.MeetingID,
		CaseID:        parsed.CaseID,
		CaseTitle:     parsed.CaseTitle,
		CaseSummary:   parsed.CaseSummary,
		EvidencePages: parsed.EvidencePages,
	}, nil
}

// End reports the meeting as finished and returns the closing report.
// Callers treat failure as non-fatal; the affordance that triggered the end
// re-enables and may re-trigger.
func (c *Client) End(ctx context.Context, meetingID string) (*EndReport, error) {
	ctx, span := tracer.Start(ctx, "end meeting")
	defer span.End()

	var parsed endResponse
	if err := c.post(ctx, "end", endPath, endRequest{MeetingID: meetingID}, &parsed); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	logger.InfoContext(ctx, "end session request sent", "meetingID", meetingID, "score", parsed.Score)
	return &EndReport{Summary: parsed.Summary, Score: parsed.Score, Feedback: parsed.Feedback}, nil
}

// FetchEvidence downloads and decodes every evidence page, preserving input
// order. A page that fails to download or decode is logged and skipped, so
// the result may be shorter than urls; one bad page never fails the batch.
func (c *Client) FetchEvidence(ctx context.Context, urls []string) []Evidence {
	ctx, span := tracer.Start(ctx, "fetch evidence")
	defer span.End()

	evidence := make([]Evidence, 0, len(urls))
	for _, url := range urls {
		img, err := c.fetchImage(ctx, url)
		if err != nil {
			logger.WarnContext(ctx, "skipping evidence page", "url", url, "error", err)
			span.RecordError(err)
			continue
		}
		evidence = append(evidence, Evidence{URL: url, Image: img})
	}

	span.SetAttributes(
		attribute.Int("evidence.requested", len(urls)),
		attribute.Int("evidence.fetched", len(evidence)),
	)
	return evidence
}

func (c *Client) fetchImage(ctx context.Context, url string) (image.Image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("error creating HTTP request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Op: "evidence", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("non-OK HTTP status: %s", resp.Status)
	}

	img, _, err := image.Decode(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error decoding image: %w", err)
	}
	return img, nil
}

func (c *Client) post(ctx context.Context, op, path string, body, out any) error {
	requestBodyBytes, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("error marshalling JSON: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewBuffer(requestBodyBytes))
	if err != nil {
		return fmt.Errorf("error creating HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: non-OK HTTP status: %s", ErrInvalidResponse, resp.Status)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return nil
}
