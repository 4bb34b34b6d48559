package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"

	"github.com/feral-file/ff-image-optimizer/internal/adapter"
	"github.com/feral-file/ff-image-optimizer/internal/logger"
)

const (
	DEFAULT_ENDPOINT   = "https://api.tinify.com"
	DEFAULT_USER_AGENT = "ff-image-optimizer/1.0"

	shrinkPath             = "/shrink"
	compressionCountHeader = "Compression-Count"
	apiUser                = "api"
)

// Config holds the remote compression API settings
type Config struct {
	Endpoint  string
	UserAgent string
}

// Result is a successful compression
type Result struct {
	Data []byte
	// CompressionCount is the account's total usage as reported by the service
	CompressionCount *int
}

// Gateway compresses image bytes with a remote service.
// A call is a single attempt; retries belong to the caller.
//
//go:generate mockgen -source=gateway.go -destination=../../mocks/gateway.go -package=mocks -mock_names=Gateway=MockGateway
type Gateway interface {
	Compress(ctx context.Context, apiKey string, data []byte) (*Result, error)
}

type tinifyGateway struct {
	httpClient adapter.HTTPClient
	config     Config
}

// NewGateway creates a Tinify API gateway
func NewGateway(httpClient adapter.HTTPClient, cfg Config) Gateway {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DEFAULT_ENDPOINT
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DEFAULT_USER_AGENT
	}
	cfg.Endpoint = strings.TrimRight(cfg.Endpoint, "/")

	return &tinifyGateway{
		httpClient: httpClient,
		config:     cfg,
	}
}

// Compress uploads data to the shrink endpoint and downloads the output
func (g *tinifyGateway) Compress(ctx context.Context, apiKey string, data []byte) (*Result, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, &CompressionError{Kind: KindAccount, Message: "Provide an API key with the compression request"}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.config.Endpoint+shrinkPath, bytes.NewReader(data))
	if err != nil {
		return nil, &CompressionError{Kind: KindConnection, Message: fmt.Sprintf("Error while building request: %v", err), Err: err}
	}
	req.Header.Set("Content-Type", mimetype.Detect(data).String())

	body, header, err := g.do(req, apiKey, http.StatusCreated)
	if err != nil {
		return nil, err
	}
	count := parseCount(header)

	location := header.Get("Location")
	if location == "" {
		return nil, &CompressionError{
			Kind:             KindServer,
			Status:           http.StatusCreated,
			Code:             "ParseError",
			Message:          "Response did not include an output location",
			CompressionCount: count,
		}
	}

	logger.DebugCtx(ctx, "Image shrunk",
		zap.String("location", location),
		zap.Int("inputSize", len(data)),
		zap.Int("responseSize", len(body)),
	)

	req, err = http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, &CompressionError{Kind: KindConnection, Message: fmt.Sprintf("Error while building request: %v", err), Err: err, CompressionCount: count}
	}

	output, header, err := g.do(req, apiKey, http.StatusOK)
	if err != nil {
		var ce *CompressionError
		if errors.As(err, &ce) && ce.CompressionCount == nil {
			ce.CompressionCount = count
		}
		return nil, err
	}
	if c := parseCount(header); c != nil {
		count = c
	}

	return &Result{
		Data:             output,
		CompressionCount: count,
	}, nil
}

// do sends an authenticated request and returns the body when the status matches
func (g *tinifyGateway) do(req *http.Request, apiKey string, wantStatus int) ([]byte, http.Header, error) {
	req.SetBasicAuth(apiUser, apiKey)
	req.Header.Set("User-Agent", g.config.UserAgent)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, nil, &CompressionError{
			Kind:    KindConnection,
			Message: fmt.Sprintf("Error while connecting: %v", err),
			Err:     err,
		}
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Warn("failed to close response body", zap.Error(err), zap.String("url", req.URL.String()))
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, &CompressionError{
			Kind:             KindConnection,
			Status:           resp.StatusCode,
			Code:             "ReadError",
			Message:          fmt.Sprintf("Error while reading response: %v", err),
			CompressionCount: parseCount(resp.Header),
			Err:              err,
		}
	}

	if resp.StatusCode != wantStatus {
		return nil, nil, parseError(resp.StatusCode, body, parseCount(resp.Header))
	}

	return body, resp.Header, nil
}

// parseError decodes a {"error": ..., "message": ...} body
func parseError(status int, body []byte, count *int) *CompressionError {
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || payload.Message == "" {
		msg := fmt.Sprintf("Error while parsing response: unexpected body %q", truncate(body, 128))
		if err != nil {
			msg = fmt.Sprintf("Error while parsing response: %v", err)
		}
		return &CompressionError{
			Kind:             kindForStatus(status),
			Status:           status,
			Code:             "ParseError",
			Message:          msg,
			CompressionCount: count,
			Err:              err,
		}
	}

	return &CompressionError{
		Kind:             kindForStatus(status),
		Status:           status,
		Code:             payload.Error,
		Message:          payload.Message,
		CompressionCount: count,
	}
}

func parseCount(header http.Header) *int {
	v := strings.TrimSpace(header.Get(compressionCountHeader))
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return nil
	}
	return &n
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n])
}
