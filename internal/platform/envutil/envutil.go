package envutil

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// String returns the trimmed value of name, or def when unset or blank.
func String(name, def string) string {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return def
	}
	return v
}

// Duration parses name with time.ParseDuration. Unset or blank gives def.
func Duration(name string, def time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def, fmt.Errorf("%s: %w", name, err)
	}
	if d < 0 {
		return def, fmt.Errorf("%s: negative duration %s", name, v)
	}
	return d, nil
}
