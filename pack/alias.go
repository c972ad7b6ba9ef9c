package pack

import (
	"fmt"
	"maps"
	"path/filepath"
	"slices"
	"strings"
)

// ResolveAlias rewrites an import request using the configured aliases.  A request matches an alias if it equals the
// token or starts with the token followed by "/"; the longest matching token wins.  The rewritten request is checked
// again against the other aliases, unless the target begins with its own token, as in "react" to
// "react/dist/react.min".
func (cfg *Config) ResolveAlias(request string) (string, bool) {
	ret, changed, err := substitute(cfg.Alias, request)
	if err != nil {
		return request, false
	}
	return ret, changed
}

func substitute(aliases map[string]string, request string) (string, bool, error) {
	used := make(map[string]bool, 2)
	changed := false
	for {
		token, ok := matchAlias(aliases, request)
		if !ok {
			return request, changed, nil
		}
		if used[token] {
			return request, changed, fmt.Errorf(`alias cycle through %q`, token)
		}
		used[token] = true
		target := aliases[token]
		request = target + request[len(token):]
		changed = true
		if hasToken(target, token) {
			return request, true, nil
		}
	}
}

func matchAlias(aliases map[string]string, request string) (string, bool) {
	best := ``
	for token := range aliases {
		if len(token) > len(best) && hasToken(request, token) {
			best = token
		}
	}
	return best, best != ``
}

func hasToken(request, token string) bool {
	if !strings.HasPrefix(request, token) {
		return false
	}
	rest := request[len(token):]
	return rest == `` || rest[0] == '/' || (token != `` && token[len(token)-1] == '/')
}

func checkAliasCycles(aliases map[string]string) (string, error) {
	for _, token := range slices.Sorted(maps.Keys(aliases)) {
		if _, _, err := substitute(aliases, token); err != nil {
			return token, err
		}
	}
	return ``, nil
}

// isPath is true for alias targets that name a file or directory rather than a package.
func isPath(target string) bool {
	return filepath.IsAbs(target) ||
		strings.HasPrefix(target, `./`) || strings.HasPrefix(target, `../`) ||
		target == `.` || target == `..`
}
