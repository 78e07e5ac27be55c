package razorpay

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// GatewayError is a rejection or transport failure of an outbound gateway call
type GatewayError struct {
	StatusCode  int
	Code        string
	Description string
	Field       string
	err         error
}

func (e *GatewayError) Error() string {
	if e.Description != "" {
		return e.Description
	}
	if e.Code != "" {
		return e.Code
	}
	return fmt.Sprintf("razorpay request failed with status %d", e.StatusCode)
}

func (e *GatewayError) Unwrap() error {
	return e.err
}

func parseGatewayError(statusCode int, body []byte) *GatewayError {
	gwErr := &GatewayError{StatusCode: statusCode}

	var envelope struct {
		Error struct {
			Code        string `json:"code"`
			Description string `json:"description"`
			Field       string `json:"field"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error.Description != "" {
		gwErr.Code = envelope.Error.Code
		gwErr.Description = envelope.Error.Description
		gwErr.Field = envelope.Error.Field
		return gwErr
	}

	if text := strings.TrimSpace(string(body)); text != "" && len(text) < 512 {
		gwErr.Description = text
	} else {
		gwErr.Description = http.StatusText(statusCode)
	}
	return gwErr
}
