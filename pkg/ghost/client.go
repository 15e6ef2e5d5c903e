// Package ghost is a client for the Ghost Admin API member endpoints. Ghost
// owns the member records; this client is the only automated writer for
// Stripe-sourced members.
package ghost

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/sunknudsen/ghost-join/pkg/metrics"
)

const (
	serviceName        = "ghost"
	adminBasePath      = "/ghost/api/v4/admin/"
	adminAudience      = "/v4/admin/"
	tokenLifetime      = 5 * time.Minute
	defaultHTTPTimeout = 10 * time.Second
	maxErrorBodyBytes  = 4096
)

// Config holds configuration for the Ghost Admin API client.
type Config struct {
	// APIURL is the Ghost instance URL, e.g. "https://blog.example.com" (required).
	APIURL string

	// AdminKey is the Admin API key in "id:hex-secret" form (required).
	AdminKey string

	HTTPClient *http.Client
	Logger     zerolog.Logger
	Metrics    metrics.Metrics
}

// Client calls the Ghost Admin API.
type Client struct {
	apiURL  string
	keyID   string
	secret  []byte
	httpc   *http.Client
	logger  zerolog.Logger
	metrics metrics.Metrics
}

// NewClient creates a Ghost Admin API client from config.
func NewClient(config Config) (*Client, error) {
	apiURL := strings.TrimRight(strings.TrimSpace(config.APIURL), "/")
	if apiURL == "" {
		return nil, fmt.Errorf("ghost: API URL is required")
	}

	keyID, secretHex, ok := strings.Cut(strings.TrimSpace(config.AdminKey), ":")
	if !ok || keyID == "" || secretHex == "" {
		return nil, fmt.Errorf("ghost: admin API key must be in id:secret form")
	}
	secret, err := hex.DecodeString(secretHex)
	if err != nil {
		return nil, fmt.Errorf("ghost: admin API key secret is not hex: %w", err)
	}

	httpc := config.HTTPClient
	if httpc == nil {
		httpc = &http.Client{Timeout: defaultHTTPTimeout}
	}

	m := config.Metrics
	if m == nil {
		m = &metrics.Noop{}
	}

	return &Client{
		apiURL:  apiURL,
		keyID:   keyID,
		secret:  secret,
		httpc:   httpc,
		logger:  config.Logger,
		metrics: m,
	}, nil
}

// token mints a short-lived Admin API JWT.
func (c *Client) token() (string, error) {
	now := time.Now()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"iat": now.Unix(),
		"exp": now.Add(tokenLifetime).Unix(),
		"aud": adminAudience,
	})
	tok.Header["kid"] = c.keyID
	return tok.SignedString(c.secret)
}

// Label is a member label.
type Label struct {
	Name string `json:"name"`
}

// Member is a Ghost member record.
type Member struct {
	ID     string  `json:"id,omitempty"`
	Name   string  `json:"name,omitempty"`
	Email  string  `json:"email,omitempty"`
	Labels []Label `json:"labels,omitempty"`
	Note   string  `json:"note,omitempty"`
}

type membersEnvelope struct {
	Members []*Member `json:"members"`
}

// MembersByEmail looks up members by exact email filter. Matching semantics
// (including case sensitivity) are the store's.
func (c *Client) MembersByEmail(ctx context.Context, email string) ([]*Member, error) {
	query := url.Values{}
	query.Set("filter", fmt.Sprintf("email:'%s'", email))
	return c.browse(ctx, query)
}

// Members browses up to limit members.
func (c *Client) Members(ctx context.Context, limit int) ([]*Member, error) {
	query := url.Values{}
	query.Set("limit", strconv.Itoa(limit))
	return c.browse(ctx, query)
}

func (c *Client) browse(ctx context.Context, query url.Values) ([]*Member, error) {
	var envelope membersEnvelope
	if err := c.do(ctx, http.MethodGet, "members/", query, nil, &envelope); err != nil {
		return nil, err
	}
	return envelope.Members, nil
}

// Member reads a single member by id.
func (c *Client) Member(ctx context.Context, id string) (*Member, error) {
	var envelope membersEnvelope
	err := c.do(ctx, http.MethodGet, "members/"+url.PathEscape(id)+"/", nil, nil, &envelope)
	if err != nil {
		if apiErr, ok := err.(*APIError); ok && apiErr.StatusCode == http.StatusNotFound {
			return nil, ErrMemberNotFound
		}
		return nil, err
	}
	if len(envelope.Members) == 0 {
		return nil, ErrMemberNotFound
	}
	return envelope.Members[0], nil
}

// AddMember creates a member. With sendEmail set, Ghost sends its signup
// email to the new member.
func (c *Client) AddMember(ctx context.Context, member *Member, sendEmail bool) (*Member, error) {
	query := url.Values{}
	if sendEmail {
		query.Set("send_email", "true")
	}
	var envelope membersEnvelope
	if err := c.do(ctx, http.MethodPost, "members/", query, member, &envelope); err != nil {
		return nil, err
	}
	if len(envelope.Members) == 0 {
		return nil, fmt.Errorf("ghost: add member returned empty response")
	}
	return envelope.Members[0], nil
}

// EditMember updates fields on an existing member.
func (c *Client) EditMember(ctx context.Context, id string, member *Member) (*Member, error) {
	var envelope membersEnvelope
	if err := c.do(ctx, http.MethodPut, "members/"+url.PathEscape(id)+"/", nil, member, &envelope); err != nil {
		return nil, err
	}
	if len(envelope.Members) == 0 {
		return nil, fmt.Errorf("ghost: edit member returned empty response")
	}
	return envelope.Members[0], nil
}

// DeleteMember removes a member.
func (c *Client) DeleteMember(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "members/"+url.PathEscape(id)+"/", nil, nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	endpoint := c.apiURL + adminBasePath + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var body io.Reader
	if in != nil {
		member, ok := in.(*Member)
		if !ok {
			return fmt.Errorf("ghost: unsupported request body type %T", in)
		}
		data, err := json.Marshal(membersEnvelope{Members: []*Member{member}})
		if err != nil {
			return fmt.Errorf("ghost: encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("ghost: build request: %w", err)
	}

	token, err := c.token()
	if err != nil {
		return fmt.Errorf("ghost: sign admin token: %w", err)
	}
	req.Header.Set("Authorization", "Ghost "+token)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpc.Do(req)
	if err != nil {
		c.metrics.RecordAPICallDuration(serviceName, path, time.Since(start))
		return fmt.Errorf("ghost: %s %s: %w", method, endpoint, err)
	}
	defer resp.Body.Close()

	c.metrics.RecordAPICall(serviceName, path, strconv.Itoa(resp.StatusCode))
	c.metrics.RecordAPICallDuration(serviceName, path, time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		apiErr := &APIError{
			Method:     method,
			Endpoint:   endpoint,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(data)),
		}
		c.logger.Error().
			Str("method", method).
			Str("url", endpoint).
			Int("status", resp.StatusCode).
			Msg("ghost call failed")
		return apiErr
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("ghost: decode %s %s response: %w", method, endpoint, err)
	}
	return nil
}
