// Package gateway is the single point of contact with the sorrycast
// backend. Every operation either returns a typed payload or an *Error
// carrying a human-readable message; transport failures, HTTP error
// statuses, and server-side rejections are all normalized into that one
// failure shape, so callers branch on exactly one discriminant.
package gateway

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"

	"sorrycast/pkg/logger"
	"sorrycast/pkg/types"
)

// Error is the normalized failure for a gateway operation.
type Error struct {
	Op      string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

// TokenSource yields the bearer credential attached to outgoing calls.
// An empty result means no credential, which is not itself an error:
// some operations are public.
type TokenSource func() string

type Client struct {
	http *resty.Client
}

type Option func(*Client)

// WithTokenSource attaches a bearer token to every outgoing request
// whenever the source yields a non-empty value.
func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) {
		c.http.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
			if tok := ts(); tok != "" {
				req.SetAuthToken(tok)
			}
			return nil
		})
	}
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.http.SetTimeout(d)
	}
}

func New(baseURL string, opts ...Option) *Client {
	hc := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(30 * time.Second)

	hc.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		req.SetHeader("X-Request-ID", uuid.New().String())
		return nil
	})

	c := &Client{http: hc}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// apiError is the backend's error body shape.
type apiError struct {
	Message string `json:"message"`
}

// normalize folds the three failure modes (transport error, HTTP error
// status, empty success) into a single *Error, or nil on success.
func normalize(op, fallback string, resp *resty.Response, err error, apiErr *apiError) error {
	if err != nil {
		logger.WarnCF("gateway", "Request failed", map[string]any{
			"op":    op,
			"error": err.Error(),
		})
		return &Error{Op: op, Message: fmt.Sprintf("%s: %v", fallback, err)}
	}
	if resp.IsError() {
		msg := fallback
		if apiErr.Message != "" {
			msg = apiErr.Message
		}
		logger.WarnCF("gateway", "Request rejected", map[string]any{
			"op":     op,
			"status": resp.StatusCode(),
		})
		return &Error{Op: op, Message: msg}
	}
	return nil
}

// AuthenticatePlatform exchanges an OAuth authorization code for a
// platform connection. The token exchange itself happens server-side.
func (c *Client) AuthenticatePlatform(ctx context.Context, platform types.Platform, code string) (types.PlatformConnection, error) {
	const op = "authenticate-platform"
	var out types.PlatformConnection
	var apiErr apiError
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]string{"platform": string(platform), "code": code}).
		SetResult(&out).
		SetError(&apiErr).
		Post("/auth/connect")
	if err := normalize(op, "authentication failed", resp, err, &apiErr); err != nil {
		return types.PlatformConnection{}, err
	}
	return out, nil
}

func (c *Client) ListConnections(ctx context.Context) ([]types.PlatformConnection, error) {
	const op = "list-connections"
	var out []types.PlatformConnection
	var apiErr apiError
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&out).
		SetError(&apiErr).
		Get("/auth/connections")
	if err := normalize(op, "failed to fetch connections", resp, err, &apiErr); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ListDetectedMessages(ctx context.Context) ([]types.DetectedMessage, error) {
	const op = "list-detected-messages"
	var out []types.DetectedMessage
	var apiErr apiError
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&out).
		SetError(&apiErr).
		Get("/messages/detected")
	if err := normalize(op, "failed to fetch messages", resp, err, &apiErr); err != nil {
		return nil, err
	}
	return out, nil
}

// AnalyzeMessage asks the backend to re-summarize a single message.
func (c *Client) AnalyzeMessage(ctx context.Context, messageID string) (types.Analysis, error) {
	const op = "analyze-message"
	var out types.Analysis
	var apiErr apiError
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&out).
		SetError(&apiErr).
		Post(fmt.Sprintf("/messages/%s/analyze", messageID))
	if err := normalize(op, "failed to analyze message", resp, err, &apiErr); err != nil {
		return types.Analysis{}, err
	}
	return out, nil
}

func (c *Client) GenerateApologyText(ctx context.Context, messageID, summary string) (string, error) {
	const op = "generate-apology-text"
	var out struct {
		ApologyText string `json:"apologyText"`
	}
	var apiErr apiError
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]string{"messageId": messageID, "summary": summary}).
		SetResult(&out).
		SetError(&apiErr).
		Post("/apology/generate-text")
	if err := normalize(op, "failed to generate apology text", resp, err, &apiErr); err != nil {
		return "", err
	}
	return out.ApologyText, nil
}

// GenerateApologyVideo submits the apology text and the user photo as a
// multipart form and returns the synthesized video locator.
func (c *Client) GenerateApologyVideo(ctx context.Context, apologyText string, photo types.Photo) (string, error) {
	const op = "generate-apology-video"
	var out struct {
		VideoURL string `json:"videoUrl"`
	}
	var apiErr apiError
	resp, err := c.http.R().
		SetContext(ctx).
		SetMultipartFormData(map[string]string{"apologyText": apologyText}).
		SetMultipartField("photo", photo.Name, photo.MIME, bytes.NewReader(photo.Data)).
		SetResult(&out).
		SetError(&apiErr).
		Post("/apology/generate-video")
	if err := normalize(op, "failed to generate video", resp, err, &apiErr); err != nil {
		return "", err
	}
	return out.VideoURL, nil
}

func (c *Client) UploadVideo(ctx context.Context, videoURL, title string) (string, error) {
	const op = "upload-video"
	var out struct {
		YouTubeURL string `json:"youtubeUrl"`
	}
	var apiErr apiError
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]string{"videoUrl": videoURL, "title": title}).
		SetResult(&out).
		SetError(&apiErr).
		Post("/youtube/upload")
	if err := normalize(op, "failed to upload video", resp, err, &apiErr); err != nil {
		return "", err
	}
	return out.YouTubeURL, nil
}

// RelayToOrigin posts the published video link back to the platform the
// original message came from.
func (c *Client) RelayToOrigin(ctx context.Context, messageID, publishedURL string) error {
	const op = "relay-to-origin"
	var apiErr apiError
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]string{"messageId": messageID, "youtubeUrl": publishedURL}).
		SetError(&apiErr).
		Post("/messages/share-response")
	return normalize(op, "failed to share response", resp, err, &apiErr)
}

func (c *Client) Stats(ctx context.Context) (types.Stats, error) {
	const op = "stats"
	var out types.Stats
	var apiErr apiError
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&out).
		SetError(&apiErr).
		Get("/stats")
	if err := normalize(op, "failed to fetch stats", resp, err, &apiErr); err != nil {
		return types.Stats{}, err
	}
	return out, nil
}
