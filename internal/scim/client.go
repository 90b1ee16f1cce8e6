package scim

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/identity-sync/scim-connector/internal/platform/logger"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

const (
	defaultRequestTimeout = 8 * time.Second
	defaultMaxRetries     = 3

	initialBackoff = 250 * time.Millisecond
	maxBackoff     = 2000 * time.Millisecond

	userAgent = "scim-connector/1.0"
)

// reBacktickedUuid pulls a backticked identifier out of an error body.
// Some SCIM implementations embed the conflicting resource id this way
// on 409 responses.
var reBacktickedUuid = regexp.MustCompile("`([0-9a-fA-F-]{36})`")

// Client talks to one SyncTarget's SCIM v2 endpoint.  It carries no state
// between calls beyond the underlying connection pool, so a Client may be
// constructed per dispatch or shared.
type Client struct {
	baseUrl    string
	token      string
	maxRetries int
	httpClient *http.Client
	logger     *logrus.Entry
}

func NewClient(targetName, baseUrl, token string) *Client {
	return NewClientWithOptions(targetName, baseUrl, token, defaultRequestTimeout, defaultMaxRetries)
}

func NewClientWithOptions(targetName, baseUrl, token string, requestTimeout time.Duration, maxRetries int) *Client {
	if requestTimeout <= 0 {
		requestTimeout = defaultRequestTimeout
	}
	if maxRetries < 0 {
		maxRetries = 0
	}

	return &Client{
		baseUrl:    strings.TrimSuffix(baseUrl, "/"),
		token:      token,
		maxRetries: maxRetries,
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
		logger: logger.Log.WithFields(logrus.Fields{"subsystem": "scim-http", "target": targetName}),
	}
}

// Probe checks reachability of the target by fetching the service
// metadata document.  Diagnostics only, not used in the dispatch path.
func (c *Client) Probe(ctx context.Context) bool {
	res, err := c.sendWithRetries(ctx, http.MethodGet, "/ServiceProviderConfig", nil, "probe")
	if err != nil {
		c.logger.WithFields(logrus.Fields{"error": err}).Error("Probe of SCIM target failed")
		return false
	}
	return is2xx(res.statusCode)
}

// FindUserIDByUserName looks up a user by exact userName match and returns
// the SCIM id of the first matching resource.  An empty id means not
// found; non-2xx responses and unparsable payloads are logged and treated
// as not found.  An error is returned only when the transport gave up
// without ever receiving a response.
func (c *Client) FindUserIDByUserName(ctx context.Context, userName string) (string, error) {
	query := "filter=" + url.QueryEscape(fmt.Sprintf("userName eq %q", userName))

	res, err := c.sendWithRetries(ctx, http.MethodGet, "/Users?"+query, nil, "find")
	if err != nil {
		return "", err
	}

	if !is2xx(res.statusCode) {
		c.logger.Errorf("GET /Users?%s -> %d %s", query, res.statusCode, safeBody(res.body))
		return "", nil
	}

	var list listResponse
	if err := json.Unmarshal(res.body, &list); err != nil {
		c.logger.WithFields(logrus.Fields{"error": err}).Error("Unable to parse SCIM list response")
		return "", nil
	}

	c.logger.Debugf("GET /Users?%s -> %d totalResults=%d", query, res.statusCode, list.TotalResults)

	if list.TotalResults > 0 {
		if len(list.Resources) > 0 && list.Resources[0].ID != "" {
			return list.Resources[0].ID, nil
		}
		c.logger.Error("Could not extract user id from SCIM response (Resources present but no id found)")
	}

	return "", nil
}

// CreateUser posts a new SCIM User.  A 409 is reported as failure so the
// caller can re-resolve the id and patch instead; the conflicting id is
// extracted from the error body when possible, for diagnostics only.
func (c *Client) CreateUser(ctx context.Context, user *UserResource) (bool, error) {
	payload, err := json.Marshal(user)
	if err != nil {
		return false, err
	}

	res, err := c.sendWithRetries(ctx, http.MethodPost, "/Users", payload, "create")
	if err != nil {
		return false, err
	}

	if res.statusCode == http.StatusCreated || res.statusCode == http.StatusOK {
		return true, nil
	}

	if res.statusCode == http.StatusConflict {
		existingId := extractIdFromErrorBody(res.body)
		if existingId == "" {
			existingId = "(not parsed)"
		}
		c.logger.Infof("POST /Users got 409; existingId=%s", existingId)
	} else {
		c.logger.Errorf("POST /Users -> %d %s", res.statusCode, safeBody(res.body))
	}

	return false, nil
}

// PatchUser applies an RFC 7644 PatchOp to the user with the given id.
func (c *Client) PatchUser(ctx context.Context, id string, patch *PatchOp) (bool, error) {
	payload, err := json.Marshal(patch)
	if err != nil {
		return false, err
	}

	path := "/Users/" + id

	res, err := c.sendWithRetries(ctx, http.MethodPatch, path, payload, "patch")
	if err != nil {
		return false, err
	}

	if res.statusCode == http.StatusOK || res.statusCode == http.StatusNoContent {
		return true, nil
	}

	c.logger.Errorf("PATCH %s -> %d %s", path, res.statusCode, safeBody(res.body))
	return false, nil
}

// DeleteUser removes the user with the given id.  A 404 counts as success
// so that repeated deletes stay idempotent.
func (c *Client) DeleteUser(ctx context.Context, id string) (bool, error) {
	path := "/Users/" + id

	res, err := c.sendWithRetries(ctx, http.MethodDelete, path, nil, "delete")
	if err != nil {
		return false, err
	}

	if res.statusCode == http.StatusNoContent || res.statusCode == http.StatusOK || res.statusCode == http.StatusNotFound {
		return true, nil
	}

	c.logger.Errorf("DELETE %s -> %d %s", path, res.statusCode, safeBody(res.body))
	return false, nil
}

type response struct {
	statusCode int
	body       []byte
}

// sendWithRetries performs one logical SCIM request with bounded retries.
// Network failures, 429 and 5xx responses are retried with exponential
// backoff; any other status is returned to the caller on the first
// attempt.  An error is returned only when the retry budget is exhausted
// without ever receiving a response.
func (c *Client) sendWithRetries(ctx context.Context, method string, pathAndQuery string, payload []byte, operation string) (*response, error) {

	attempt := 0
	backoff := initialBackoff

	for {
		attempt++

		req, err := c.buildRequest(ctx, method, pathAndQuery, payload)
		if err != nil {
			return nil, err
		}

		res, err := c.httpClient.Do(req)
		if err != nil {
			if attempt > c.maxRetries {
				metrics.transportFailCounter.Inc()
				return nil, err
			}
			metrics.retryCounter.Inc()
			if err := sleepWithContext(ctx, backoff); err != nil {
				return nil, err
			}
			backoff = nextBackoff(backoff)
			continue
		}

		body, err := ioutil.ReadAll(res.Body)
		res.Body.Close()
		if err != nil {
			body = nil
		}

		metrics.requestCounter.With(prometheus.Labels{
			"operation": operation,
			"status":    strconv.Itoa(res.StatusCode)}).Inc()

		if is2xx(res.StatusCode) {
			return &response{statusCode: res.StatusCode, body: body}, nil
		}

		if (res.StatusCode == http.StatusTooManyRequests || res.StatusCode >= 500) && attempt <= c.maxRetries {
			metrics.retryCounter.Inc()
			if err := sleepWithContext(ctx, backoff); err != nil {
				return nil, err
			}
			backoff = nextBackoff(backoff)
			continue
		}

		return &response{statusCode: res.StatusCode, body: body}, nil
	}
}

func (c *Client) buildRequest(ctx context.Context, method string, pathAndQuery string, payload []byte) (*http.Request, error) {
	if !strings.HasPrefix(pathAndQuery, "/") {
		pathAndQuery = "/" + pathAndQuery
	}

	var body *bytes.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseUrl+pathAndQuery, body)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", MediaType)
	req.Header.Set("User-Agent", userAgent)
	if payload != nil {
		req.Header.Set("Content-Type", MediaType)
	}

	return req, nil
}

func nextBackoff(current time.Duration) time.Duration {
	next := current * 2
	if next > maxBackoff {
		next = maxBackoff
	}
	return next
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func is2xx(statusCode int) bool {
	return statusCode >= 200 && statusCode < 300
}

func safeBody(body []byte) string {
	if len(body) > 400 {
		return string(body[:400]) + " ..."
	}
	return string(body)
}

// extractIdFromErrorBody makes a best-effort attempt to recover the
// pre-existing resource id from a SCIM error response.  It first tries
// the structured detail field, then falls back to a backticked uuid
// anywhere in the body.
func extractIdFromErrorBody(body []byte) string {
	var scimError errorResponse
	if err := json.Unmarshal(body, &scimError); err == nil {
		if m := reBacktickedUuid.FindStringSubmatch(scimError.Detail); m != nil {
			if _, err := uuid.Parse(m[1]); err == nil {
				return m[1]
			}
		}
	}

	if m := reBacktickedUuid.FindStringSubmatch(string(body)); m != nil {
		if _, err := uuid.Parse(m[1]); err == nil {
			return m[1]
		}
	}

	return ""
}
