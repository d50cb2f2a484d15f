package handler // handler defines http handlers

import (
    "errors"
    "strconv"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/event-venue-booking/internal/model"
)

// getUserID extracts the user_id from echo.Context and converts it to uint64.
func getUserID(c echo.Context) (uint64, error) {
    v := c.Get("user_id")
    switch t := v.(type) {
    case uint64:
        return t, nil
    case int:
        return uint64(t), nil
    case int64:
        return uint64(t), nil
    case float64:
        return uint64(t), nil
    case string:
        if n, err := strconv.ParseUint(t, 10, 64); err == nil {
            return n, nil
        }
    }
    return 0, errors.New("invalid user_id in context")
}

// getRole returns the caller's role claim or an empty string.
func getRole(c echo.Context) string {
    if s, ok := c.Get("role").(string); ok {
        return s
    }
    return ""
}

// getEmail returns the caller's normalized email claim or an empty string.
// Ownership checks on event requests and the guest roster compare against
// this value.
func getEmail(c echo.Context) string {
    if s, ok := c.Get("email").(string); ok {
        return strings.ToLower(strings.TrimSpace(s))
    }
    return ""
}

// isAdmin reports whether the caller carries the ADMIN role.
func isAdmin(c echo.Context) bool {
    return getRole(c) == model.RoleAdmin
}
