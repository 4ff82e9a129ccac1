package services

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	ErrTransient         = errors.New("transient failure")
	ErrConfiguration     = errors.New("configuration error")
	ErrRejected          = errors.New("request rejected")
	ErrMalformedResponse = errors.New("malformed response")
)

// Wrap builds an error message that includes service context while tagging it
// with the provided marker. The marker should be one of the exported sentinel
// errors above.
func Wrap(marker error, service, operation, message string, err error) error {
	detail := buildDetail(service, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// StatusMarker classifies an HTTP status code: 408, 429 and 5xx are transient,
// 401 and 403 point at credentials, everything else is a rejected request.
func StatusMarker(code int) error {
	switch {
	case code == http.StatusRequestTimeout, code == http.StatusTooManyRequests, code >= http.StatusInternalServerError:
		return ErrTransient
	case code == http.StatusUnauthorized, code == http.StatusForbidden:
		return ErrConfiguration
	default:
		return ErrRejected
	}
}

// Hint returns a short operator hint for err, used as the error_hint log field.
func Hint(err error) string {
	switch {
	case errors.Is(err, ErrTransient):
		return "service unavailable or rate limited; rerun later"
	case errors.Is(err, ErrConfiguration):
		return "check the api key and base url in the config"
	case errors.Is(err, ErrMalformedResponse):
		return "service returned an unexpected payload; rerun or try another model"
	case errors.Is(err, ErrRejected):
		return "service rejected the request; check the base url"
	default:
		return "check logs for details"
	}
}

func buildDetail(service, operation, message string) string {
	parts := make([]string, 0, 3)
	if service = strings.TrimSpace(service); service != "" {
		parts = append(parts, service)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
