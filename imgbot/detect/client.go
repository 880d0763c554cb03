// Package detect calls the external object-detection service.
package detect

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/m3rciful/imgbot/core/logger"
	"github.com/m3rciful/imgbot/core/metrics"
	"github.com/m3rciful/imgbot/core/telegram/netutil"
	"github.com/m3rciful/imgbot/imgbot/dispatch"
)

const (
	defaultTimeout = 30 * time.Second
	formField      = "file"
	maxErrorBody   = 512
	maxResponse    = 1 << 20
)

// ErrBadResponse is returned when the service answers with a non-2xx status or malformed JSON.
var ErrBadResponse = errors.New("detect: bad response")

// Options configures a Client.
type Options struct {
	// URL is the prediction endpoint receiving the multipart upload.
	URL     string
	Timeout time.Duration
	// HTTPClient overrides the default retrying client.
	HTTPClient *http.Client
}

// Client posts images to the detection service.
type Client struct {
	url     string
	timeout time.Duration
	http    *http.Client
}

type predictResponse struct {
	Labels            []string `json:"labels"`
	DetectionCount    int      `json:"detection_count"`
	PredictedImageURL string   `json:"predicted_image_url"`
}

// New validates opts and returns a Client.
func New(opts Options) (*Client, error) {
	u := strings.TrimSpace(opts.URL)
	if u == "" {
		return nil, errors.New("detect: url is required")
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	hc := opts.HTTPClient
	if hc == nil {
		// The upload is a POST, so only connection failures are retried.
		hc = netutil.NewClient(netutil.ClientOptions{
			Timeout:               opts.Timeout,
			ResponseHeaderTimeout: opts.Timeout,
			Retries:               1,
			Backoff:               500 * time.Millisecond,
		})
	}
	return &Client{url: u, timeout: opts.Timeout, http: hc}, nil
}

// Detect uploads the image at path and returns the parsed detection result.
// Timeouts and transport failures are returned as is; callers classify them.
func (c *Client) Detect(ctx context.Context, path string) (res dispatch.Detection, err error) {
	start := time.Now()
	defer func() {
		took := time.Since(start)
		metrics.ObserveDetection(took, err == nil)
		attrs := []slog.Attr{
			slog.String("status", logger.Status(err)),
			slog.String("path", path),
			slog.Duration("duration", took),
		}
		if err != nil {
			attrs = append(attrs, slog.String("err", err.Error()))
			logger.Warn(ctx, "detect", "detect.call", attrs...)
			return
		}
		attrs = append(attrs, slog.Int("count", res.Count))
		logger.Debug(ctx, "detect", "detect.call", attrs...)
	}()

	body, contentType, err := encodeUpload(path)
	if err != nil {
		return dispatch.Detection{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return dispatch.Detection{}, fmt.Errorf("detect: build request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return dispatch.Detection{}, fmt.Errorf("detect: post: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponse))
	if err != nil {
		return dispatch.Detection{}, fmt.Errorf("detect: read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return dispatch.Detection{}, fmt.Errorf("%w: http %d: %s", ErrBadResponse, resp.StatusCode,
			logger.SanitizeLimit(strings.TrimSpace(string(raw)), maxErrorBody))
	}

	var out predictResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return dispatch.Detection{}, fmt.Errorf("%w: %v", ErrBadResponse, err)
	}
	return dispatch.Detection{
		Labels:            out.Labels,
		Count:             out.DetectionCount,
		PredictedImageURL: strings.TrimSpace(out.PredictedImageURL),
	}, nil
}

// encodeUpload buffers the multipart body so the transport can replay it on retry.
func encodeUpload(path string) ([]byte, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("detect: open %s: %w", path, err)
	}
	defer f.Close()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile(formField, filepath.Base(path))
	if err != nil {
		return nil, "", fmt.Errorf("detect: create form file: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, "", fmt.Errorf("detect: copy %s: %w", path, err)
	}
	if err := mw.Close(); err != nil {
		return nil, "", fmt.Errorf("detect: close form: %w", err)
	}
	return buf.Bytes(), mw.FormDataContentType(), nil
}
