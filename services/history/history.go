package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"webchat/apperrors"
	"webchat/pkg/breaker"
	"webchat/pkg/logger"
	"webchat/pkg/metrics"
	"webchat/services/chat"

	"github.com/gofiber/fiber/v2"
	"github.com/sony/gobreaker"
)

const (
	EndpointUsers       = "/history/users"
	EndpointGroups      = "/history/groups"
	EndpointMessages    = "/history/messages"
	EndpointUserInfo    = "/history/user_info"
	EndpointCreateGroup = "/create_group"
)

// Labels prefixed to the status code of a failed request
const (
	LabelLoadFailed     = "加载失败"
	LabelMessagesFailed = "消息加载失败"
)

type User struct {
	UserID   chat.ID `json:"user_id"`
	Username string  `json:"username"`
}

type Group struct {
	GroupID   chat.ID `json:"group_id"`
	GroupName string  `json:"group_name"`
}

type UserInfo struct {
	Username string `json:"username"`
}

type MessagesRequest struct {
	UserID   chat.ID   `json:"userId"`
	ChatID   chat.ID   `json:"chatId"`
	Type     chat.Kind `json:"type"`
	Page     int       `json:"page"`
	PageSize int       `json:"pageSize"`
}

type CreateGroupRequest struct {
	CreatorID chat.ID   `json:"creator_id"`
	GroupName string    `json:"group_name"`
	Members   []chat.ID `json:"members"`
}

type CreateGroupResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// Client calls the backend's REST endpoints. Calls never retry; a tripped
// breaker fails fast.
type Client struct {
	baseURL string
	timeout time.Duration
	cb      *gobreaker.CircuitBreaker
	log     *logger.Logger
}

func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: timeout,
		cb:      breaker.New(breaker.Config{Name: "history-api"}),
		log:     logger.WithComponent("history"),
	}
}

// Users lists every registered user
func (c *Client) Users(ctx context.Context) ([]User, error) {
	var users []User
	if err := c.getJSON(ctx, EndpointUsers, "", LabelLoadFailed, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// Groups lists the groups userID belongs to
func (c *Client) Groups(ctx context.Context, userID chat.ID) ([]Group, error) {
	var groups []Group
	q := url.Values{"user_id": {userID.String()}}.Encode()
	if err := c.getJSON(ctx, EndpointGroups, q, LabelLoadFailed, &groups); err != nil {
		return nil, err
	}
	return groups, nil
}

// Messages returns one page of history, newest first
func (c *Client) Messages(ctx context.Context, req MessagesRequest) ([]chat.WireMessage, error) {
	res, err := c.do(ctx, EndpointMessages, fiber.Post(c.baseURL+EndpointMessages).JSON(req))
	if err != nil {
		return nil, err
	}
	if !res.ok() {
		return nil, apperrors.NewRequestFailedError(EndpointMessages, res.status, LabelMessagesFailed)
	}
	var msgs []chat.WireMessage
	if err := json.Unmarshal(res.body, &msgs); err != nil {
		return nil, decodeError(EndpointMessages, err)
	}
	return msgs, nil
}

func (c *Client) UserInfo(ctx context.Context, id chat.ID) (*UserInfo, error) {
	var info UserInfo
	q := url.Values{"id": {id.String()}}.Encode()
	if err := c.getJSON(ctx, EndpointUserInfo, q, LabelLoadFailed, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// CreateGroup succeeds only on a 2xx response carrying success=true. The
// backend's error text is surfaced otherwise.
func (c *Client) CreateGroup(ctx context.Context, req CreateGroupRequest) error {
	res, err := c.do(ctx, EndpointCreateGroup, fiber.Post(c.baseURL+EndpointCreateGroup).JSON(req))
	if err != nil {
		return err
	}

	var out CreateGroupResponse
	if len(res.body) > 0 {
		if err := json.Unmarshal(res.body, &out); err != nil {
			c.log.WithError(err).WithField("status", res.status).Warn("create group response not JSON")
		}
	}
	if res.ok() && out.Success {
		return nil
	}
	return apperrors.NewGroupRejectedError(out.Error).WithDetails("status", res.status)
}

func (c *Client) getJSON(ctx context.Context, endpoint, query, label string, dst any) error {
	a := fiber.Get(c.baseURL + endpoint)
	if query != "" {
		a.QueryString(query)
	}
	res, err := c.do(ctx, endpoint, a)
	if err != nil {
		return err
	}
	if !res.ok() {
		return apperrors.NewRequestFailedError(endpoint, res.status, label)
	}
	if err := json.Unmarshal(res.body, dst); err != nil {
		return decodeError(endpoint, err)
	}
	return nil
}

type response struct {
	status int
	body   []byte
}

func (r *response) ok() bool {
	return r.status >= 200 && r.status < 300
}

// serverError marks a 5xx so the breaker counts it while the caller still
// gets the status
type serverError struct {
	status int
}

func (e *serverError) Error() string {
	return fmt.Sprintf("server responded %d", e.status)
}

func (c *Client) do(ctx context.Context, endpoint string, a *fiber.Agent) (*response, error) {
	start := time.Now()

	ran := false
	out, err := breaker.ExecuteCtx(ctx, c.cb, func() (any, error) {
		ran = true
		timeout := c.timeout
		if d, ok := ctx.Deadline(); ok {
			if left := time.Until(d); left < timeout {
				timeout = left
			}
		}
		a.Timeout(timeout)

		if err := a.Parse(); err != nil {
			fiber.ReleaseAgent(a)
			return nil, apperrors.NewNetworkError(endpoint, err)
		}
		code, body, errs := a.Bytes()
		if len(errs) > 0 {
			return nil, apperrors.NewNetworkError(endpoint, errors.Join(errs...))
		}
		res := &response{status: code, body: body}
		if code >= 500 {
			return res, &serverError{status: code}
		}
		return res, nil
	})
	// Bytes releases the agent; a short-circuit never reaches it
	if !ran {
		fiber.ReleaseAgent(a)
	}

	var se *serverError
	if err != nil && !errors.As(err, &se) {
		metrics.RecordBackendRequest(endpoint, time.Since(start).Seconds(), false)
		c.log.WithError(err).WithField("endpoint", endpoint).Warn("backend request failed")
		return nil, err
	}

	res := out.(*response)
	metrics.RecordBackendRequest(endpoint, time.Since(start).Seconds(), res.ok())
	c.log.WithFields(map[string]any{
		"endpoint": endpoint,
		"status":   res.status,
		"duration": time.Since(start).String(),
	}).Debug("backend request")
	return res, nil
}

func decodeError(endpoint string, err error) *apperrors.AppError {
	return apperrors.New(apperrors.ErrCodeRequestFailed, "响应格式错误", fiber.StatusBadGateway).
		WithDetails("endpoint", endpoint).
		WithInternal(err)
}
