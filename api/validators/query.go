package validators

import (
	"net/http"
	"strconv"
	"strings"

	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
)

func ParseQueryInt(r *http.Request, key string, defaultVal, min, max int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return defaultVal, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "query parameter must be numeric").WithDetails(map[string]any{"field": key})
	}
	if value < min || value > max {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "query parameter out of range").WithDetails(map[string]any{"field": key, "min": min, "max": max})
	}
	return value, nil
}

// PassthroughQuery keeps only the listed keys of the incoming query so
// admin list filters can be forwarded without leaking unrelated params.
func PassthroughQuery(r *http.Request, allowed ...string) map[string]string {
	out := map[string]string{}
	values := r.URL.Query()
	for _, key := range allowed {
		if v := strings.TrimSpace(values.Get(key)); v != "" {
			out[key] = v
		}
	}
	return out
}
