// Package http provides HTTP server and handler implementations.
//
// This file implements utilities for parsing and validating HTTP request data:
// JSON bodies, path ids and fiscal-year query parameters.

package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"ops/internal/core"
)

// maxBodyBytes caps admin request bodies.
const maxBodyBytes = 1 << 20

// DecodeJSON reads a single JSON object from the request body into v.
// Unknown fields are rejected.
func DecodeJSON(r *http.Request, v any) error {
	if r.Body == nil {
		return errors.New("request body is empty")
	}
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is empty")
		}
		return fmt.Errorf("invalid JSON body: %w", core.AmountFieldError(err))
	}
	if dec.More() {
		return errors.New("request body must hold a single JSON object")
	}
	return nil
}

// PathID parses a positive id from the named path wildcard.
func PathID(r *http.Request, name string) (int64, error) {
	return parseID(name, r.PathValue(name))
}

// QueryID parses a positive id from a required query parameter.
func QueryID(query url.Values, name string) (int64, error) {
	return parseID(name, query.Get(name))
}

func parseID(name, raw string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, fmt.Errorf("missing %s", name)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s %q", name, raw)
	}
	return id, nil
}

// ParseFiscalYear parses a four-digit fiscal year.
func ParseFiscalYear(name, raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, fmt.Errorf("missing %s", name)
	}
	fy, err := strconv.Atoi(raw)
	if err != nil || fy < 1900 || fy > 9999 {
		return 0, fmt.Errorf("invalid %s %q", name, raw)
	}
	return fy, nil
}

// PathFiscalYear parses the fiscal year from the named path wildcard.
func PathFiscalYear(r *http.Request, name string) (int, error) {
	return ParseFiscalYear(name, r.PathValue(name))
}

// QueryFiscalYear parses the fiscal year from a required query parameter.
func QueryFiscalYear(query url.Values, name string) (int, error) {
	return ParseFiscalYear(name, query.Get(name))
}
