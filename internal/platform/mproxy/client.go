package mproxy

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"giveaway-draw-bot/internal/features/giveaway/models"
)

// ErrDisabled reports that the proxy base URL or token is not configured.
var ErrDisabled = errors.New("mproxy is not configured")

// ProxyError carries the HTTP status and body of a failed proxy call so the
// operator sees the collaborator's own error text.
type ProxyError struct {
	Status int
	Body   string
}

func (e *ProxyError) Error() string {
	return fmt.Sprintf("mproxy error %d: %s", e.Status, e.Body)
}

// Client talks to the privileged-client proxy, the service that enumerates
// group members and delivers messages through the user account. All calls are
// authenticated with a Bearer token.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
}

func NewClient(baseURL, token string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		token:      token,
	}
}

// Enabled reports whether the proxy is configured. Disabled clients fail every
// call with ErrDisabled.
func (c *Client) Enabled() bool {
	return c.baseURL != "" && c.token != ""
}

// Me returns the identity of the privileged account.
func (c *Client) Me(ctx context.Context) (*models.Candidate, error) {
	var me models.Candidate
	if err := c.get(ctx, "/me", nil, &me); err != nil {
		return nil, err
	}
	return &me, nil
}

// FetchMembers returns one page of the channel roster.
func (c *Client) FetchMembers(ctx context.Context, channel string, limit, offset int) ([]models.Candidate, error) {
	params := url.Values{
		"limit":  {fmt.Sprint(limit)},
		"offset": {fmt.Sprint(offset)},
	}
	var members []models.Candidate
	if err := c.get(ctx, "/channels/"+url.PathEscape(channel)+"/members", params, &members); err != nil {
		return nil, err
	}
	return members, nil
}

// FetchAllMembers pages through FetchMembers until an empty page or hardMax
// members collected.
func (c *Client) FetchAllMembers(ctx context.Context, channel string, pageSize, hardMax int) ([]models.Candidate, error) {
	if pageSize <= 0 {
		pageSize = 200
	}
	if hardMax <= 0 {
		hardMax = 20000
	}
	var members []models.Candidate
	offset := 0
	for {
		page, err := c.FetchMembers(ctx, channel, pageSize, offset)
		if err != nil {
			return nil, err
		}
		if len(page) == 0 {
			break
		}
		members = append(members, page...)
		offset += len(page)
		if len(members) >= hardMax {
			break
		}
	}
	return members, nil
}

// FetchAdmins returns the channel's administrator roster.
func (c *Client) FetchAdmins(ctx context.Context, channel string) ([]models.Candidate, error) {
	params := url.Values{
		"role":  {"admins"},
		"limit": {"10000"},
	}
	var admins []models.Candidate
	if err := c.get(ctx, "/channels/"+url.PathEscape(channel)+"/members", params, &admins); err != nil {
		return nil, err
	}
	return admins, nil
}

// IsMember reports whether the privileged account is in the target group.
func (c *Client) IsMember(ctx context.Context, target string) (bool, error) {
	var resp struct {
		IsMember bool `json:"is_member"`
	}
	if err := c.get(ctx, "/channels/"+url.PathEscape(target)+"/isMember", nil, &resp); err != nil {
		return false, err
	}
	return resp.IsMember, nil
}

// JoinTarget makes the privileged account join a public group or invite link.
func (c *Client) JoinTarget(ctx context.Context, target string) error {
	body := map[string]string{"target": target}
	return c.post(ctx, "/join", body, nil)
}

// SendResult summarizes a bulk delivery: partial failures are reported as
// counts, not per recipient.
type SendResult struct {
	Sent  int `json:"sent"`
	Total int `json:"total"`
}

// SendMessages delivers text to each user id through the privileged account.
func (c *Client) SendMessages(ctx context.Context, userIDs []string, text string) (*SendResult, error) {
	body := map[string]interface{}{
		"user_ids": userIDs,
		"text":     text,
	}
	var result SendResult
	if err := c.post(ctx, "/sendMessages", body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// PostMessage publishes a message with a single inline button to the channel
// and returns the message id for later edits.
func (c *Client) PostMessage(ctx context.Context, channel, text, buttonText, buttonURL string) (int64, error) {
	body := map[string]string{
		"text":        text,
		"button_text": buttonText,
		"url":         buttonURL,
	}
	var resp struct {
		MessageID int64 `json:"message_id"`
	}
	if err := c.post(ctx, "/channels/"+url.PathEscape(channel)+"/post", body, &resp); err != nil {
		return 0, err
	}
	return resp.MessageID, nil
}

// EditButton replaces the inline button of a previously posted message.
func (c *Client) EditButton(ctx context.Context, channel string, messageID int64, buttonText, buttonURL string) error {
	body := map[string]interface{}{
		"message_id":  messageID,
		"button_text": buttonText,
		"url":         buttonURL,
	}
	return c.post(ctx, "/channels/"+url.PathEscape(channel)+"/editButton", body, nil)
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out interface{}) error {
	if !c.Enabled() {
		return ErrDisabled
	}
	endpoint := c.baseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	return c.do(req, out)
}

func (c *Client) post(ctx context.Context, path string, body, out interface{}) error {
	if !c.Enabled() {
		return ErrDisabled
	}
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out interface{}) error {
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return &ProxyError{Status: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}
