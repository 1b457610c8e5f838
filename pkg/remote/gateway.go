package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	errs "tgbulkdl/pkg/errors"
	"tgbulkdl/pkg/logger"
	"tgbulkdl/pkg/models"
	"tgbulkdl/pkg/ratelimit"
	"tgbulkdl/pkg/retry"
)

// ErrClosed is returned by calls made after Close
var ErrClosed = errors.New("gateway client closed")

const downloadChunkSize = 64 * 1024

// Options configures a GatewayClient
type Options struct {
	BaseURL string
	APIID   int
	APIHash string
	Session string
	Timeout time.Duration

	Limiter    ratelimit.Limiter
	Retry      *retry.Config
	Logger     logger.Logger
	HTTPClient *http.Client
}

// GatewayClient implements Client over the gateway's HTTP API
type GatewayClient struct {
	httpClient *http.Client
	baseURL    string
	apiID      int
	apiHash    string
	limiter    ratelimit.Limiter
	retry      *retry.Config
	logger     logger.Logger

	mu      sync.RWMutex
	session string
	closed  bool
}

var _ Client = (*GatewayClient)(nil)

// NewGatewayClient creates a client; zero options fall back to defaults
func NewGatewayClient(opts Options) *GatewayClient {
	log := opts.Logger
	if log == nil {
		log = logger.GetLogger()
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 60 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	base := strings.TrimRight(opts.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	limiter := opts.Limiter
	if limiter == nil {
		limiter = ratelimit.Unlimited{}
	}
	retryCfg := opts.Retry
	if retryCfg == nil {
		retryCfg = retry.DefaultConfig()
	}

	return &GatewayClient{
		httpClient: httpClient,
		baseURL:    base,
		apiID:      opts.APIID,
		apiHash:    opts.APIHash,
		session:    opts.Session,
		limiter:    limiter,
		retry:      retryCfg,
		logger:     log.WithField("component", "gateway"),
	}
}

// Session returns the current session token
func (c *GatewayClient) Session() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.session
}

// SetSession replaces the session token sent with every request
func (c *GatewayClient) SetSession(session string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.session = session
}

func (c *GatewayClient) isClosed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closed
}

// newRequest builds a request with the gateway headers set
func (c *GatewayClient) newRequest(ctx context.Context, method, url string, body interface{}) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, errs.New(errs.ErrorTypeUnknown, 0, "failed to encode request: %v", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, errs.New(errs.ErrorTypeUnknown, 0, "failed to create request: %v", err)
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiID != 0 {
		req.Header.Set("X-Api-Id", strconv.Itoa(c.apiID))
	}
	if c.apiHash != "" {
		req.Header.Set("X-Api-Hash", c.apiHash)
	}
	if session := c.Session(); session != "" {
		req.Header.Set("Authorization", "Bearer "+session)
	}
	return req, nil
}

// send performs one round trip, returning a classified error for non-2xx replies
func (c *GatewayClient) send(ctx context.Context, method, url string, body interface{}) (*http.Response, error) {
	if c.isClosed() {
		return nil, ErrClosed
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := c.newRequest(ctx, method, url, body)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	elapsed := float64(time.Since(start).Microseconds()) / 1000

	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		c.logger.WithError(err).WarnWithFields("gateway request failed", map[string]interface{}{
			"method": method,
			"path":   req.URL.Path,
		})
		return nil, errs.New(errs.ErrorTypeNetwork, 0, "network error: %v", err)
	}

	logger.LogGatewayRequest(c.logger, method, req.URL.Path, resp.StatusCode, elapsed)

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}

	defer resp.Body.Close()
	apiErr := decodeError(resp)
	if apiErr.Type == errs.ErrorTypeRateLimit && apiErr.RetryAfter > 0 {
		c.limiter.Pause(apiErr.RetryAfter)
		logger.LogRateLimit(c.logger, req.URL.Path, int(apiErr.RetryAfter/time.Second))
	}
	return nil, apiErr
}

// decodeError classifies a non-2xx response from its structured body,
// falling back to the status code
func decodeError(resp *http.Response) *errs.Error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))

	var env errorEnvelope
	if err := json.Unmarshal(body, &env); err != nil || env.Error.Type == "" {
		msg := strings.TrimSpace(string(body))
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return &errs.Error{
			Type:    errs.TypeForStatus(resp.StatusCode),
			Message: msg,
			Code:    resp.StatusCode,
		}
	}

	apiErr := &errs.Error{
		Type:    classify(env.Error.Type, resp.StatusCode),
		Message: env.Error.Message,
		Code:    env.Error.Code,
	}
	if apiErr.Code == 0 {
		apiErr.Code = resp.StatusCode
	}
	if env.Error.RetryAfter > 0 {
		apiErr.RetryAfter = time.Duration(env.Error.RetryAfter) * time.Second
	}
	return apiErr
}

// classify maps a gateway error type onto errs.ErrorType
func classify(gatewayType string, status int) errs.ErrorType {
	switch errs.ErrorType(strings.ToLower(gatewayType)) {
	case errs.ErrorTypeNetwork:
		return errs.ErrorTypeNetwork
	case errs.ErrorTypeRateLimit:
		return errs.ErrorTypeRateLimit
	case errs.ErrorTypeAuth:
		return errs.ErrorTypeAuth
	case errs.ErrorTypePasswordNeeded:
		return errs.ErrorTypePasswordNeeded
	case errs.ErrorTypeNotFound:
		return errs.ErrorTypeNotFound
	case errs.ErrorTypeForumMissing:
		return errs.ErrorTypeForumMissing
	case errs.ErrorTypeServerError:
		return errs.ErrorTypeServerError
	case errs.ErrorTypeParsing:
		return errs.ErrorTypeParsing
	default:
		return errs.TypeForStatus(status)
	}
}

// doJSON sends a request with retries and decodes a JSON reply into target
func (c *GatewayClient) doJSON(ctx context.Context, method, url string, body, target interface{}) error {
	return retry.Do(ctx, c.retry, func(ctx context.Context) error {
		resp, err := c.send(ctx, method, url, body)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if target == nil {
			_, _ = io.Copy(io.Discard, resp.Body)
			return nil
		}

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return errs.New(errs.ErrorTypeNetwork, resp.StatusCode, "failed to read response body: %v", err)
		}
		if err := json.Unmarshal(data, target); err != nil {
			preview := string(data)
			if len(preview) > 200 {
				preview = preview[:200] + "..."
			}
			c.logger.ErrorWithFields("failed to parse gateway response", map[string]interface{}{
				"url":          url,
				"error":        err.Error(),
				"body_preview": preview,
			})
			return errs.New(errs.ErrorTypeParsing, resp.StatusCode, "failed to parse JSON: %v", err)
		}
		return nil
	})
}

// ResolveEntity resolves a username, link or numeric id
func (c *GatewayClient) ResolveEntity(ctx context.Context, identifier string) (*models.Entity, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return nil, errs.New(errs.ErrorTypeNotFound, 0, "empty chat identifier")
	}

	var out resolveResponse
	if err := c.doJSON(ctx, http.MethodGet, resolveURL(c.baseURL, identifier), nil, &out); err != nil {
		return nil, fmt.Errorf("resolve %q: %w", identifier, err)
	}
	if out.Entity.ID == 0 {
		return nil, errs.New(errs.ErrorTypeNotFound, 0, "gateway returned no entity for %q", identifier)
	}

	c.logger.DebugWithFields("entity resolved", map[string]interface{}{
		"identifier": identifier,
		"entity_id":  out.Entity.ID,
		"kind":       string(out.Entity.Kind),
	})
	return &out.Entity, nil
}

// TopicSupport asks whether peer is a forum. Only channels can be forums,
// so other peers answer NoTopics without a round trip.
func (c *GatewayClient) TopicSupport(ctx context.Context, peer models.Entity) (TopicSupport, error) {
	if peer.Kind != "" && peer.Kind != models.KindChannel {
		return NoTopics, nil
	}

	var out forumResponse
	err := c.doJSON(ctx, http.MethodGet, forumURL(c.baseURL, peer.ID, peerParams(string(peer.Kind), peer.AccessHash)), nil, &out)
	switch {
	case err == nil && out.Forum:
		return SupportsTopics, nil
	case err == nil:
		return NoTopics, nil
	case errs.Is(err, errs.ErrorTypeForumMissing):
		return NoTopics, nil
	default:
		return TopicSupportUnknown, fmt.Errorf("forum capability: %w", err)
	}
}

// TopicExists reports whether topicID is a topic of peer
func (c *GatewayClient) TopicExists(ctx context.Context, peer models.Entity, topicID int) (bool, error) {
	if topicID <= 0 {
		return false, nil
	}

	var out topicResponse
	err := c.doJSON(ctx, http.MethodGet, topicURL(c.baseURL, peer.ID, topicID, peerParams(string(peer.Kind), peer.AccessHash)), nil, &out)
	switch {
	case err == nil:
		return out.Topic.ID == topicID, nil
	case errs.Is(err, errs.ErrorTypeNotFound), errs.Is(err, errs.ErrorTypeForumMissing):
		return false, nil
	default:
		return false, fmt.Errorf("topic lookup: %w", err)
	}
}

// Search fetches one page in ascending id order
func (c *GatewayClient) Search(ctx context.Context, req SearchRequest) ([]models.Message, error) {
	var out searchResponse
	if err := c.doJSON(ctx, http.MethodGet, searchURL(c.baseURL, req), nil, &out); err != nil {
		return nil, fmt.Errorf("search %s after %d: %w", req.Filter, req.OffsetID, err)
	}

	sort.SliceStable(out.Messages, func(i, j int) bool {
		return out.Messages[i].ID < out.Messages[j].ID
	})
	return out.Messages, nil
}

// DownloadMedia streams the attachment of msg, reporting progress per chunk
func (c *GatewayClient) DownloadMedia(ctx context.Context, peer models.Entity, msg models.Message, progress ProgressFunc) ([]byte, error) {
	url := mediaURL(c.baseURL, peer.ID, msg.ID, peerParams(string(peer.Kind), peer.AccessHash))

	resp, err := retry.DoWithResult(ctx, c.retry, func(ctx context.Context) (*http.Response, error) {
		return c.send(ctx, http.MethodGet, url, nil)
	})
	if err != nil {
		return nil, fmt.Errorf("download message %d: %w", msg.ID, err)
	}
	defer resp.Body.Close()

	total := resp.ContentLength
	if total < 0 && msg.Attachment != nil {
		total = msg.Attachment.Size
	}

	var buf bytes.Buffer
	if total > 0 {
		buf.Grow(int(total))
	}

	chunk := make([]byte, downloadChunkSize)
	var downloaded int64
	for {
		n, readErr := resp.Body.Read(chunk)
		if n > 0 {
			buf.Write(chunk[:n])
			downloaded += int64(n)
			if progress != nil {
				if err := progress(downloaded, total); err != nil {
					return nil, err
				}
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, errs.New(errs.ErrorTypeNetwork, resp.StatusCode, "download message %d: %v", msg.ID, readErr)
		}
	}

	return buf.Bytes(), nil
}

// Close tells the gateway to drop the connection. It is safe to call twice.
func (c *GatewayClient) Close(ctx context.Context) error {
	if c.isClosed() {
		return nil
	}

	resp, err := c.send(ctx, http.MethodPost, c.baseURL+disconnectPath, struct{}{})
	if err == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}

	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()

	if err != nil {
		return fmt.Errorf("disconnect: %w", err)
	}
	return nil
}
