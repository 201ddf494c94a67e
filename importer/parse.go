package importer

import (
	"fmt"
	"strings"
)

func parseFlag(raw string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "0", "false", "no", "n", "nein", "off", "done":
		return false, nil
	case "1", "true", "yes", "y", "ja", "x", "on", "active", "in progress":
		return true, nil
	default:
		return false, fmt.Errorf("unsupported flag value %q", raw)
	}
}
