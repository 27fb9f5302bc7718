package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/inkwell-ai/inkwell/internal/chat/contract"
	"github.com/inkwell-ai/inkwell/internal/chat/stream"
	inkerrors "github.com/inkwell-ai/inkwell/internal/errors"
)

const maxErrorBody = 8 << 20

// Client talks to the Inkwell writing backend: the streaming chat endpoint,
// batched tool execution, story/chapter reads, and suggestion generation.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func New(baseURL string, requestTimeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: newStreamingHTTPClient(requestTimeout),
	}
}

// ChatStream POSTs the conversation to /api/stories/{id}/chat/stream and
// consumes the response stream. The returned turn carries the accumulated
// content and any tool calls resolved from the stream's fragments.
func (c *Client) ChatStream(ctx context.Context, storyID string, req contract.ChatStreamRequest, h stream.Handlers) (*contract.AssistantTurn, error) {
	endpoint := c.storyPath(storyID, "chat/stream")

	resp, err := c.postStream(ctx, endpoint, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	acc := stream.NewAccumulator()
	wrapped := h
	userToolCalls := h.OnToolCalls
	wrapped.OnToolCalls = func(fragments []stream.ToolCallFragment) {
		acc.Add(fragments)
		if userToolCalls != nil {
			userToolCalls(fragments)
		}
	}

	content, err := stream.Consume(resp.Body, wrapped)
	if err != nil {
		return nil, inkerrors.MapError(err)
	}

	return &contract.AssistantTurn{
		Content:   content,
		ToolCalls: acc.Finalize(),
	}, nil
}

// ExecuteTools POSTs the transcript to /api/stories/{id}/chat/tools. The
// backend runs every pending call from the trailing assistant message in one
// batch and reports whether story state changed.
func (c *Client) ExecuteTools(ctx context.Context, storyID string, req contract.ToolExecRequest) (*contract.ToolExecResponse, error) {
	var out contract.ToolExecResponse
	if err := c.postJSON(ctx, c.storyPath(storyID, "chat/tools"), req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) storyPath(storyID, suffix string) string {
	return fmt.Sprintf("%s/api/stories/%s/%s", c.baseURL, url.PathEscape(storyID), suffix)
}

func (c *Client) postStream(ctx context.Context, endpoint string, body any) (*http.Response, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, transportError(err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		resp.Body.Close()
		return nil, fmt.Errorf("backend http %d: %s: %w", resp.StatusCode, strings.TrimSpace(string(raw)), inkerrors.ErrTransport)
	}
	return resp, nil
}

func (c *Client) postJSON(ctx context.Context, endpoint string, body, out any) error {
	b, err := json.Marshal(body)
	if err != nil {
		return err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(b))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return transportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fmt.Errorf("backend http %d: %s: %w", resp.StatusCode, strings.TrimSpace(string(raw)), inkerrors.ErrTransport)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode backend response: %w", err)
	}
	return nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, out any) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return transportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return inkerrors.NotFound(endpoint)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fmt.Errorf("backend http %d: %s: %w", resp.StatusCode, strings.TrimSpace(string(raw)), inkerrors.ErrTransport)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

// transportError keeps cancellation recognizable while folding everything
// else under the transport category.
func transportError(err error) error {
	if mapped := inkerrors.MapError(err); inkerrors.IsSilent(mapped) {
		return mapped
	}
	return fmt.Errorf("%v: %w", err, inkerrors.ErrTransport)
}

func newStreamingHTTPClient(requestTimeout time.Duration) *http.Client {
	dialer := &net.Dialer{
		Timeout:   15 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   15 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		ResponseHeaderTimeout: responseHeaderTimeout(requestTimeout),
	}

	// Do not use http.Client.Timeout for SSE because it caps total stream
	// duration.
	return &http.Client{Transport: transport}
}

func responseHeaderTimeout(requestTimeout time.Duration) time.Duration {
	const (
		defaultTimeout = 30 * time.Second
		maxTimeout     = 45 * time.Second
	)

	if requestTimeout <= 0 {
		return defaultTimeout
	}
	if requestTimeout < defaultTimeout {
		return requestTimeout
	}
	if requestTimeout > maxTimeout {
		return maxTimeout
	}
	return requestTimeout
}
