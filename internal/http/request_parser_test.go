package http

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"daromad/internal/core"
)

func TestDecodeJSON(t *testing.T) {
	type payload struct {
		Amount core.Money `json:"amount"`
		Note   string     `json:"note"`
	}

	tests := []struct {
		name    string
		body    string
		wantErr error
	}{
		{name: "valid", body: `{"amount":"12,50","note":"x"}`},
		{name: "empty", body: ``, wantErr: errBadRequest},
		{name: "malformed", body: `{"amount":`, wantErr: errBadRequest},
		{name: "unknown field", body: `{"amount":"1","owner":2}`, wantErr: errBadRequest},
		{name: "trailing data", body: `{"amount":"1"}{"amount":"2"}`, wantErr: errBadRequest},
		{name: "bad amount", body: `{"amount":"-5"}`, wantErr: core.ErrInvalidAmount},
		{name: "too large", body: `{"note":"` + strings.Repeat("a", maxBodyBytes) + `"}`, wantErr: errBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			w := httptest.NewRecorder()

			var p payload
			err := decodeJSON(w, req, &p)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("decodeJSON() unexpected error: %v", err)
				}
				if p.Amount.String() != "12.50" {
					t.Errorf("Amount = %s, want 12.50", p.Amount)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("decodeJSON() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestOwnerID(t *testing.T) {
	tests := []struct {
		query   string
		want    int64
		wantErr error
	}{
		{"owner_id=7", 7, nil},
		{"", 0, core.ErrMissingOwner},
		{"owner_id=abc", 0, errBadRequest},
		{"owner_id=-1", 0, errBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/schedules?"+tt.query, nil)
			got, err := ownerID(req)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("ownerID() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("ownerID() = %d, %v; want %d", got, err, tt.want)
			}
		})
	}
}

func TestPathID(t *testing.T) {
	req := httptest.NewRequest(http.MethodDelete, "/api/schedules/12", nil)
	req.SetPathValue("id", "12")
	if id, err := pathID(req, "id"); err != nil || id != 12 {
		t.Errorf("pathID() = %d, %v; want 12", id, err)
	}

	req.SetPathValue("id", "0")
	if _, err := pathID(req, "id"); !errors.Is(err, errBadRequest) {
		t.Errorf("pathID(0) error = %v, want errBadRequest", err)
	}
}

func TestDateAndMonthParams(t *testing.T) {
	def := core.NewDate(2025, 3, 17)

	req := httptest.NewRequest(http.MethodGet, "/?date=2025-02-05&month=2025-01", nil)
	d, err := dateParam(req, "date", def)
	if err != nil || d.String() != "2025-02-05" {
		t.Errorf("dateParam() = %s, %v", d, err)
	}
	m, err := monthParam(req, "month", def)
	if err != nil || m.String() != "2025-01-01" {
		t.Errorf("monthParam() = %s, %v", m, err)
	}

	empty := httptest.NewRequest(http.MethodGet, "/", nil)
	if d, _ := dateParam(empty, "date", def); d != def {
		t.Errorf("dateParam() default = %s, want %s", d, def)
	}
	if m, _ := monthParam(empty, "month", def); m.String() != "2025-03-01" {
		t.Errorf("monthParam() default = %s", m)
	}

	bad := httptest.NewRequest(http.MethodGet, "/?date=2025-02-30&month=March", nil)
	if _, err := dateParam(bad, "date", def); !errors.Is(err, errBadRequest) {
		t.Errorf("dateParam(2025-02-30) error = %v", err)
	}
	if _, err := monthParam(bad, "month", def); !errors.Is(err, errBadRequest) {
		t.Errorf("monthParam(March) error = %v", err)
	}

	if m, err := parseMonth("2025-06-20"); err != nil || m.String() != "2025-06-01" {
		t.Errorf("parseMonth(2025-06-20) = %s, %v", m, err)
	}
}

func TestIntParam(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?limit=500", nil)
	if n, err := intParam(req, "limit", 20, 100); err != nil || n != 100 {
		t.Errorf("intParam() = %d, %v; want capped 100", n, err)
	}
	req = httptest.NewRequest(http.MethodGet, "/?limit=x", nil)
	if _, err := intParam(req, "limit", 20, 100); !errors.Is(err, errBadRequest) {
		t.Errorf("intParam(x) error = %v", err)
	}
}

func TestSanitizeInput(t *testing.T) {
	if got := sanitizeInput("  rent\x00\x07 march\n "); got != "rent march" {
		t.Errorf("sanitizeInput() = %q", got)
	}
}
