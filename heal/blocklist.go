package heal

import (
	"path"
	"strings"
)

type blockRule struct {
	name  string
	match func(p, base string) bool
}

// blocklist is fixed; it is not configurable.
var blocklist = []blockRule{
	{"env file", func(_, base string) bool {
		return base == ".env" || strings.HasPrefix(base, ".env.")
	}},
	{"credentials", func(p, _ string) bool {
		return strings.Contains(p, "credentials")
	}},
	{"secrets", func(p, _ string) bool {
		return strings.Contains(p, "secret")
	}},
	{"key material", func(_, base string) bool {
		ext := path.Ext(base)
		return ext == ".pem" || ext == ".key" || strings.Contains(base, "id_rsa")
	}},
	{"ssh directory", func(p, _ string) bool {
		for _, seg := range strings.Split(p, "/") {
			if seg == ".ssh" {
				return true
			}
		}
		return false
	}},
}

// BlockReason returns the name of the blocklist rule matching target.
// Matching is case-insensitive and treats backslashes as separators.
func BlockReason(target string) (string, bool) {
	if strings.TrimSpace(target) == "" {
		return "", false
	}
	p := strings.ToLower(strings.ReplaceAll(target, `\`, "/"))
	base := path.Base(p)
	for _, rule := range blocklist {
		if rule.match(p, base) {
			return rule.name, true
		}
	}
	return "", false
}

// IsBlocked reports whether a fix may never modify target.
func IsBlocked(target string) bool {
	_, blocked := BlockReason(target)
	return blocked
}
