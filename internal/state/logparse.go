package state

import (
	"encoding/json"
	"fmt"
	"strings"
)

// InferLevel extracts and normalizes a log level from a log message.
// Tries JSON (level/lvl key), then logfmt (level/lvl key), then a bare
// leading level word like "ERROR something broke".
// Returns "ERR", "WARN", "INFO", "DBUG", or "".
func InferLevel(message string) string {
	message = strings.TrimSpace(message)
	if len(message) > 0 && message[0] == '{' {
		if lvl := jsonLevel(message); lvl != "" {
			return lvl
		}
	}
	if strings.ContainsRune(message, '=') {
		if v, ok := logfmtLevel(message); ok {
			return normalizeLevel(v)
		}
	}
	word, _, _ := strings.Cut(message, " ")
	return normalizeLevel(strings.Trim(word, "[]:"))
}

func jsonLevel(raw string) string {
	var m map[string]any
	if json.Unmarshal([]byte(raw), &m) != nil {
		return ""
	}
	for _, k := range []string{"level", "lvl"} {
		if v, ok := m[k]; ok {
			return normalizeLevel(fmt.Sprint(v))
		}
	}
	return ""
}

// logfmtLevel returns the value of the first level or lvl key in a logfmt line.
func logfmtLevel(raw string) (string, bool) {
	for _, field := range strings.Fields(raw) {
		key, val, ok := strings.Cut(field, "=")
		if !ok {
			continue
		}
		switch strings.ToLower(key) {
		case "level", "lvl":
			return strings.Trim(val, `"`), true
		}
	}
	return "", false
}

// normalizeLevel normalizes a log level string to a standard form.
func normalizeLevel(s string) string {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "INFO", "INFORMATION":
		return "INFO"
	case "WARN", "WARNING":
		return "WARN"
	case "ERR", "ERROR", "FATAL", "PANIC":
		return "ERR"
	case "DEBUG", "DBG", "TRACE":
		return "DBUG"
	default:
		return ""
	}
}
