package auth

import "github.com/gofiber/fiber/v2"

const (
	userIDKey   = "user_id"
	usernameKey = "username"
)

// SetUser stashes the verified identity on the request; only the JWT
// middleware calls this.
func SetUser(c *fiber.Ctx, userID int64, username string) {
	c.Locals(userIDKey, userID)
	c.Locals(usernameKey, username)
}

// GetUserID returns the owner identity for the request, 0 when absent.
func GetUserID(c *fiber.Ctx) int64 {
	if val, ok := c.Locals(userIDKey).(int64); ok {
		return val
	}
	return 0
}

func GetUsername(c *fiber.Ctx) string {
	if val, ok := c.Locals(usernameKey).(string); ok {
		return val
	}
	return ""
}
