package utils

import "github.com/gofiber/fiber/v2"

// APIResponse describes the common structure for API responses. Exactly one
// of the fields is populated per response.
type APIResponse struct {
	Success bool        `json:"success,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// SendData sends a `{data: ...}` payload with status 200.
func SendData(c *fiber.Ctx, data interface{}) error {
	return SendDataWithStatus(c, fiber.StatusOK, data)
}

// SendDataWithStatus sends a `{data: ...}` payload using the provided HTTP status code.
func SendDataWithStatus(c *fiber.Ctx, status int, data interface{}) error {
	if status == 0 {
		status = fiber.StatusOK
	}

	return c.Status(status).JSON(APIResponse{Data: data})
}

// SendSuccess sends a bare `{success: true}` acknowledgement.
func SendSuccess(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(APIResponse{Success: true})
}

// SendError sends an error JSON response with the given status code.
func SendError(c *fiber.Ctx, status int, message string) error {
	if message == "" {
		message = "Unknown error"
	}

	return c.Status(status).JSON(APIResponse{Error: message})
}

// ErrorHandler renders errors escaping route handlers, including recovered
// panics, as `{error: ...}` so every failure keeps the same shape.
func ErrorHandler(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	message := "Unknown error"

	if err != nil {
		message = err.Error()
		if fiberErr, ok := err.(*fiber.Error); ok {
			status = fiberErr.Code
		}
	}

	return SendError(c, status, message)
}
