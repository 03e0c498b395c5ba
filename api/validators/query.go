package validators

import (
	"net/http"
	"strconv"
	"strings"

	pkgerrors "github.com/angelmondragon/yoypulse/pkg/errors"
)

func queryValue(r *http.Request, key string) string {
	return strings.TrimSpace(r.URL.Query().Get(key))
}

func badQuery(key, msg string, extra map[string]any) error {
	details := map[string]any{"field": key}
	for k, v := range extra {
		details[k] = v
	}
	return pkgerrors.New(pkgerrors.CodeValidation, msg).WithDetails(details)
}

// ParseQueryInt reads key as an integer in [lo, hi]. An absent key yields
// def without a range check, so def may sit outside the range as a sentinel.
func ParseQueryInt(r *http.Request, key string, def, lo, hi int) (int, error) {
	raw := queryValue(r, key)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, badQuery(key, key+" must be an integer", nil)
	}
	if n < lo || n > hi {
		return 0, badQuery(key, key+" out of range", map[string]any{"min": lo, "max": hi})
	}
	return n, nil
}

// ParseQueryBool accepts 1/0, true/false, yes/no and on/off.
func ParseQueryBool(r *http.Request, key string, def bool) (bool, error) {
	switch strings.ToLower(queryValue(r, key)) {
	case "":
		return def, nil
	case "1", "true", "yes", "on":
		return true, nil
	case "0", "false", "no", "off":
		return false, nil
	}
	return false, badQuery(key, key+" must be a boolean", nil)
}
