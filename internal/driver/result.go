package driver

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dandantas/starling/internal/model"
	"github.com/oliveagle/jsonpath"
)

// parseResult extracts the outcome fields from the driver's JSON reply. The
// success path is mandatory; comment and content extraction is best-effort
// because not every action produces them.
func (c *Client) parseResult(body []byte, action model.ActionType) (*model.SlotResult, error) {
	var jsonData interface{}
	if err := json.Unmarshal(body, &jsonData); err != nil {
		return nil, fmt.Errorf("failed to parse driver response: %w", err)
	}

	successValue, err := extractValue(jsonData, c.cfg.SuccessPath)
	if err != nil {
		return nil, fmt.Errorf("driver response missing success field: %w", err)
	}

	result := &model.SlotResult{
		ActionType: action,
		Success:    truthy(successValue),
	}

	if comment, err := extractValue(jsonData, c.cfg.CommentPath); err == nil {
		result.CommentText = asString(comment)
	}
	if content, err := extractValue(jsonData, c.cfg.ContentPath); err == nil {
		result.OriginalContent = asString(content)
	} else {
		slog.Debug("Driver response has no original content", "path", c.cfg.ContentPath)
	}

	return result, nil
}

// extractValue evaluates a JSONPath expression against parsed JSON
func extractValue(jsonData interface{}, expression string) (interface{}, error) {
	pattern, err := jsonpath.Compile(expression)
	if err != nil {
		return nil, fmt.Errorf("invalid JSONPath expression '%s': %w", expression, err)
	}

	result, err := pattern.Lookup(jsonData)
	if err != nil {
		return nil, fmt.Errorf("JSONPath expression '%s' returned no results: %w", expression, err)
	}

	return result, nil
}

// truthy coerces the loosely-typed success value drivers return. Accepts
// booleans, non-zero numbers, and the usual affirmative strings.
func truthy(v interface{}) bool {
	switch val := v.(type) {
	case bool:
		return val
	case float64:
		return val != 0
	case string:
		switch strings.ToLower(strings.TrimSpace(val)) {
		case "true", "1", "ok", "success":
			return true
		}
		return false
	default:
		return false
	}
}

func asString(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%v", v)
}
