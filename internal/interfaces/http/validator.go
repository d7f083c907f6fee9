package http

import (
	"errors"
	"strconv"
	"strings"
	"unicode/utf8"

	"project_outreach/internal/entities"

	"github.com/gin-gonic/gin"
)

// Input validation constants
const (
	MaxChatIDLength = 64
	MaxTitleLength  = 256
)

func parseVertical(s string) (entities.Vertical, error) {
	if strings.TrimSpace(s) == "" {
		return "", errors.New("vertical is required")
	}
	v, err := entities.ParseVertical(s)
	if err != nil {
		return "", errors.New("vertical must be one of CREATOR, ENTERTAINER, VENUE")
	}
	return v, nil
}

// intQuery reads an optional integer query parameter.
func intQuery(c *gin.Context, key string, def int) (int, bool) {
	raw := c.Query(key)
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return n, true
}

// SanitizeString removes null bytes and invalid UTF-8
func SanitizeString(s string) string {
	s = strings.ReplaceAll(s, "\x00", "")

	if !utf8.ValidString(s) {
		s = strings.ToValidUTF8(s, "")
	}
	return s
}

// TruncateString safely truncates a string to max runes
func TruncateString(s string, maxLen int) string {
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	return string([]rune(s)[:maxLen])
}
