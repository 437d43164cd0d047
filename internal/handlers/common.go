package handlers

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
)

// getUserKey extracts the account key from context (set by auth middleware).
// Namespaces are keyed by the account email; the Authorizer id is the
// fallback for accounts created without one.
func getUserKey(c *fiber.Ctx) (string, error) {
	user := c.Locals("user")
	if user == nil {
		return "", fmt.Errorf("user not found in context")
	}

	userMap, ok := user.(map[string]interface{})
	if !ok {
		return "", fmt.Errorf("invalid user data format")
	}

	if email := stringValue(userMap["email"]); email != "" {
		return email, nil
	}
	if id := stringValue(userMap["id"]); id != "" {
		return id, nil
	}

	return "", fmt.Errorf("user identity not found")
}

// stringValue unwraps a string or *string from an untyped claim value.
func stringValue(v interface{}) string {
	switch s := v.(type) {
	case string:
		return s
	case *string:
		if s != nil {
			return *s
		}
	}
	return ""
}
