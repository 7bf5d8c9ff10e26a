package http

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"daromad/internal/core"
	"daromad/internal/services"
)

func TestJSONResponseBuilder_Basic(t *testing.T) {
	w := httptest.NewRecorder()

	NewJSONResponse().
		Status(http.StatusCreated).
		Data(map[string]int{"id": 7}).
		Write(w)

	if w.Code != http.StatusCreated {
		t.Errorf("Status code = %d, want %d", w.Code, http.StatusCreated)
	}
	if got := w.Header().Get("Content-Type"); got != "application/json; charset=utf-8" {
		t.Errorf("Content-Type = %q", got)
	}
	if got := strings.TrimSpace(w.Body.String()); got != `{"id":7}` {
		t.Errorf("Body = %q, want %q", got, `{"id":7}`)
	}
}

func TestJSONResponseBuilder_NoBody(t *testing.T) {
	w := httptest.NewRecorder()

	NewJSONResponse().
		Status(http.StatusNoContent).
		Header("X-Custom", "value").
		Write(w)

	if w.Code != http.StatusNoContent {
		t.Errorf("Status code = %d, want %d", w.Code, http.StatusNoContent)
	}
	if w.Body.Len() != 0 {
		t.Errorf("Body = %q, want empty", w.Body.String())
	}
	if w.Header().Get("X-Custom") != "value" {
		t.Error("custom header not set")
	}
}

func TestJSONResponseBuilder_EncodeFailure(t *testing.T) {
	w := httptest.NewRecorder()

	NewJSONResponse().Data(map[string]any{"bad": make(chan int)}).Write(w)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("Status code = %d, want %d", w.Code, http.StatusInternalServerError)
	}
}

func TestErrorResponses(t *testing.T) {
	tests := []struct {
		name     string
		builder  *JSONResponseBuilder
		wantCode int
	}{
		{"BadRequest", BadRequestError("bad"), http.StatusBadRequest},
		{"Unprocessable", UnprocessableEntityError("invalid"), http.StatusUnprocessableEntity},
		{"NotFound", NotFoundError("missing"), http.StatusNotFound},
		{"Conflict", ConflictError("busy"), http.StatusConflict},
		{"TooMany", TooManyRequestsError("slow down"), http.StatusTooManyRequests},
		{"Internal", InternalServerError("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			tt.builder.Write(w)
			if w.Code != tt.wantCode {
				t.Errorf("Status code = %d, want %d", w.Code, tt.wantCode)
			}
			if !strings.Contains(w.Body.String(), `"error":`) {
				t.Errorf("Body = %q, want an error field", w.Body.String())
			}
		})
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{nil, http.StatusOK},
		{fmt.Errorf("%w: invalid JSON", errBadRequest), http.StatusBadRequest},
		{fmt.Errorf("get schedule 3: %w", core.ErrNotFound), http.StatusNotFound},
		{core.ErrCategoryOwnerMatch, http.StatusForbidden},
		{core.ErrConflict, http.StatusConflict},
		{services.ErrRunInProgress, http.StatusConflict},
		{core.ErrInvalidAmount, http.StatusUnprocessableEntity},
		{core.ErrInvalidDayOfMonth, http.StatusUnprocessableEntity},
		{core.ErrMissingOwner, http.StatusUnprocessableEntity},
		{core.ErrNoteTooLong, http.StatusUnprocessableEntity},
		{fmt.Errorf("%w: invalid run date", core.ErrConfiguration), http.StatusInternalServerError},
		{fmt.Errorf("%w: %w", core.ErrConfiguration, core.ErrFutureRunDate), http.StatusBadRequest},
		{errors.New("disk I/O error"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		name := "nil"
		if tt.err != nil {
			name = tt.err.Error()
		}
		t.Run(name, func(t *testing.T) {
			if got := StatusFor(tt.err); got != tt.want {
				t.Errorf("StatusFor(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}
