package helper

import (
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func renderError(t *testing.T, err error) (int, ErrorResponse) {
	t.Helper()
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	app.Get("/", func(c *fiber.Ctx) error { return err })

	resp, rerr := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, rerr)
	defer resp.Body.Close()

	body, rerr := io.ReadAll(resp.Body)
	require.NoError(t, rerr)
	var out ErrorResponse
	require.NoError(t, json.Unmarshal(body, &out))
	return resp.StatusCode, out
}

func TestJsonFromError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"validation", FieldError("email", "this field is required"), 422, "VALIDATION_ERROR"},
		{"conflict", Conflict("ALREADY_ENROLLED", "x"), 409, "ALREADY_ENROLLED"},
		{"state", StateErr("NOT_ENROLLED", "x"), 409, "NOT_ENROLLED"},
		{"not found", NotFound("APPLICATION_NOT_FOUND", "x"), 404, "APPLICATION_NOT_FOUND"},
		{"external", External("GATEWAY_ERROR", "x", errors.New("timeout")), 502, "GATEWAY_ERROR"},
		{"fiber error", fiber.NewError(fiber.StatusUnauthorized, "no token"), 401, "UNAUTHORIZED"},
		{"plain error", errors.New("boom"), 500, "INTERNAL_ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := renderError(t, tt.err)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.code, body.ErrorCode)
			assert.False(t, body.Success)
		})
	}
}

func TestJsonFromErrorKeepsFieldsAndMeta(t *testing.T) {
	_, body := renderError(t, FieldError("date_of_birth", "must not be in the future"))
	assert.Equal(t, []string{"must not be in the future"}, body.Errors["date_of_birth"])

	_, body = renderError(t, StateErr("OTP_INVALID", "the code is not correct").With("attempts_remaining", 2))
	assert.EqualValues(t, 2, body.Meta["attempts_remaining"])
}

func TestAppErrorUnwrap(t *testing.T) {
	cause := errors.New("dial tcp: refused")
	err := External("STORAGE_ERROR", "could not store the file", cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "STORAGE_ERROR", CodeOf(err))
	assert.Equal(t, KindExternal, KindOf(err))
	assert.True(t, IsKind(err, KindExternal))
	assert.Empty(t, CodeOf(cause))
}

func TestBuildPagination(t *testing.T) {
	p := BuildPagination(45, 2, 20)
	assert.Equal(t, 3, p.TotalPages)
	assert.True(t, p.HasNext)
	assert.True(t, p.HasPrev)

	empty := BuildPagination(0, 0, 0)
	assert.Equal(t, 1, empty.TotalPages)
	assert.Equal(t, 1, empty.Page)
	assert.Equal(t, 20, empty.PerPage)
	assert.False(t, empty.HasNext)
}

func TestResolvePaging(t *testing.T) {
	tests := []struct {
		query   string
		page    int
		perPage int
		offset  int
	}{
		{"", 1, 20, 0},
		{"?page=3&per_page=10", 3, 10, 20},
		{"?limit=5", 1, 5, 0},
		{"?per_page=500", 1, 100, 0},
		{"?page=-1&per_page=abc", 1, 20, 0},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			var got Paging
			app := fiber.New()
			app.Get("/", func(c *fiber.Ctx) error {
				got = ResolvePaging(c, 20, 100)
				return nil
			})
			_, err := app.Test(httptest.NewRequest("GET", "/"+tt.query, nil))
			require.NoError(t, err)
			assert.Equal(t, tt.page, got.Page)
			assert.Equal(t, tt.perPage, got.PerPage)
			assert.Equal(t, tt.offset, got.Offset)
		})
	}
}

type signup struct {
	Email string `json:"email" validate:"required,email"`
	Name  string `json:"name" validate:"required"`
}

func TestValidateStructUsesJSONNames(t *testing.T) {
	fields := ValidateStruct(&signup{Email: "nope"})
	require.NotNil(t, fields)
	assert.Contains(t, fields, "email")
	assert.Equal(t, []string{"this field is required"}, fields["name"])

	assert.Nil(t, ValidateStruct(&signup{Email: "a@b.co", Name: "Asha"}))
}
