package handler

import "github.com/labstack/echo/v4"

// envelope is the uniform success payload: every endpoint wraps its data the
// same way so clients never branch on response shape.
type envelope struct {
	StatusCode int    `json:"statusCode"`
	Data       any    `json:"data,omitempty"`
	Message    string `json:"message"`
	Success    bool   `json:"success"`
}

// respond writes the canonical success envelope.
func respond(c echo.Context, status int, data any, message string) error {
	return c.JSON(status, envelope{
		StatusCode: status,
		Data:       data,
		Message:    message,
		Success:    true,
	})
}
