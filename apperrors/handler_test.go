package apperrors

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApp(err error, seen *[]ErrorCode) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: Handler(HandlerConfig{
			OnError: func(c *fiber.Ctx, e *AppError) {
				*seen = append(*seen, e.Code)
			},
		}),
	})
	app.Get("/*", func(c *fiber.Ctx) error { return err })
	return app
}

func TestHandlerRendersFragmentForHTMX(t *testing.T) {
	var seen []ErrorCode
	app := newTestApp(NewValidationError(`<名称> "无效"`), &seen)

	req := httptest.NewRequest(http.MethodGet, "/groups", nil)
	req.Header.Set("HX-Request", "true")
	resp, err := app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, `<div class="error">&lt;名称&gt; &#34;无效&#34;</div>`, string(body))
	assert.Equal(t, []ErrorCode{ErrCodeValidationFailed}, seen)
}

func TestHandlerRedirectsUnauthorized(t *testing.T) {
	var seen []ErrorCode
	app := newTestApp(NewUnauthorized(""), &seen)

	req := httptest.NewRequest(http.MethodGet, "/contacts", nil)
	req.Header.Set("HX-Request", "true")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, SignInPath, resp.Header.Get("HX-Redirect"))

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, SignInPath, resp.Header.Get("Location"))
}

func TestHandlerAnswersAPIWithJSON(t *testing.T) {
	var seen []ErrorCode
	app := newTestApp(NewRequestFailedError("/history/messages", 500, "消息加载失败"), &seen)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/status", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)

	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), `"code":"REQUEST_FAILED"`)
	assert.Contains(t, string(body), `"message":"消息加载失败: 500"`)
}

func TestFromError(t *testing.T) {
	assert.Nil(t, FromError(nil))

	wrapped := errors.Join(errors.New("ctx"), NewNoConversation())
	assert.Equal(t, ErrCodeNoConversation, FromError(wrapped).Code)

	assert.Equal(t, ErrCodeNotFound, FromError(fiber.ErrNotFound).Code)
	assert.Equal(t, ErrCodeUnauthorized, FromError(fiber.ErrUnauthorized).Code)

	plain := FromError(errors.New("boom"))
	assert.Equal(t, ErrCodeInternal, plain.Code)
	assert.Equal(t, http.StatusInternalServerError, plain.StatusCode)
}

func TestHasCode(t *testing.T) {
	err := NewNetworkError("/history/users", errors.New("refused"))
	assert.True(t, HasCode(err, ErrCodeNetwork))
	assert.False(t, HasCode(err, ErrCodeRequestFailed))
	assert.False(t, HasCode(errors.New("x"), ErrCodeNetwork))
	assert.Equal(t, "网络错误", err.Message)
}

func TestUserFacingMessagesAreLocalized(t *testing.T) {
	tests := []struct {
		err  *AppError
		want string
	}{
		{NewCircuitBreakerError("history-api", "open"), "服务暂时不可用，请稍后再试"},
		{NewMessageEmpty(), "消息不能为空"},
		{NewNoConversation(), "请先选择联系人或群聊"},
		{NewNetworkError("/create_group", errors.New("refused")), "网络错误"},
		{NewGroupRejectedError(""), "未知错误"},
	}
	for _, tt := range tests {
		t.Run(string(tt.err.Code), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Message)
		})
	}
}
