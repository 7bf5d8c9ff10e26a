// Package http provides the JSON API over the daromad services.
//
// This file implements utilities for parsing and validating request data:
// JSON bodies, path ids, owner and date parameters.

package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"daromad/internal/core"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 64 << 10

const monthLayout = "2006-01"

// decodeJSON reads a single JSON object from the request body into dst.
// Unknown fields, trailing data and oversized bodies are rejected.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			return fmt.Errorf("%w: empty body", errBadRequest)
		case errors.As(err, &maxErr):
			return fmt.Errorf("%w: body larger than %d bytes", errBadRequest, maxErr.Limit)
		case isDomainError(err):
			// Money and Date report their own validation errors while decoding.
			return err
		default:
			return fmt.Errorf("%w: invalid JSON: %v", errBadRequest, err)
		}
	}
	if dec.More() {
		return fmt.Errorf("%w: unexpected data after JSON object", errBadRequest)
	}
	return nil
}

func isDomainError(err error) bool {
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// ownerID reads the required owner_id query parameter.
func ownerID(r *http.Request) (int64, error) {
	v := strings.TrimSpace(r.URL.Query().Get("owner_id"))
	if v == "" {
		return 0, core.ErrMissingOwner
	}
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid owner_id %q", errBadRequest, v)
	}
	return id, nil
}

// pathID reads a positive integer path value such as {id}.
func pathID(r *http.Request, name string) (int64, error) {
	v := r.PathValue(name)
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid %s %q", errBadRequest, name, v)
	}
	return id, nil
}

// dateParam reads an optional YYYY-MM-DD query parameter, falling back to def.
func dateParam(r *http.Request, name string, def core.Date) (core.Date, error) {
	v := strings.TrimSpace(r.URL.Query().Get(name))
	if v == "" {
		return def, nil
	}
	d, err := core.ParseDate(v)
	if err != nil {
		return core.Date{}, fmt.Errorf("%w: %s must be YYYY-MM-DD", errBadRequest, name)
	}
	return d, nil
}

// parseMonth accepts YYYY-MM or a full YYYY-MM-DD date and returns the
// first day of that month.
func parseMonth(v string) (core.Date, error) {
	v = strings.TrimSpace(v)
	if t, err := time.Parse(monthLayout, v); err == nil {
		return core.DateOf(t), nil
	}
	d, err := core.ParseDate(v)
	if err != nil {
		return core.Date{}, fmt.Errorf("%w: month must be YYYY-MM", errBadRequest)
	}
	return d.FirstOfMonth(), nil
}

// monthParam reads an optional month query parameter, falling back to the
// month of def.
func monthParam(r *http.Request, name string, def core.Date) (core.Date, error) {
	v := strings.TrimSpace(r.URL.Query().Get(name))
	if v == "" {
		return def.FirstOfMonth(), nil
	}
	return parseMonth(v)
}

// intParam reads an optional positive integer query parameter capped at limit.
func intParam(r *http.Request, name string, def, limit int) (int, error) {
	v := strings.TrimSpace(r.URL.Query().Get(name))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%w: invalid %s %q", errBadRequest, name, v)
	}
	if n > limit {
		n = limit
	}
	return n, nil
}
