package cpm

import (
	"strconv"
	"strings"
)

// ParseDependencies parses a dependency expression such as "A,B+2,C-1"
// into predecessor references. Tokens are comma separated; surrounding
// whitespace and empty tokens are ignored.
//
// A token that is itself a known activity id is taken verbatim, so ids
// containing '+' or '-' (e.g. "ACT-1") stay referenceable. Any other token
// is split at its last '+' or '-' and the suffix must be an integer. known
// may be nil, in which case every token is split.
//
// The returned error is a *ScheduleError of kind KindInvalidLag; the
// caller fills in activity context.
func ParseDependencies(expr string, known func(id string) bool) ([]Dependency, error) {
	var deps []Dependency
	for _, raw := range strings.Split(expr, ",") {
		token := strings.TrimSpace(raw)
		if token == "" {
			continue
		}
		if known != nil && known(token) {
			deps = append(deps, Dependency{ID: token})
			continue
		}
		dep, err := parseToken(token)
		if err != nil {
			return nil, err
		}
		deps = append(deps, dep)
	}
	return deps, nil
}

func parseToken(token string) (Dependency, error) {
	idx := strings.LastIndexAny(token, "+-")
	if idx <= 0 {
		if idx == 0 {
			return Dependency{}, &ScheduleError{Kind: KindInvalidLag, Ref: token, Detail: "missing predecessor id"}
		}
		return Dependency{ID: token}, nil
	}

	id := strings.TrimSpace(token[:idx])
	amount := strings.TrimSpace(token[idx+1:])
	if id == "" {
		return Dependency{}, &ScheduleError{Kind: KindInvalidLag, Ref: token, Detail: "missing predecessor id"}
	}
	n, err := strconv.Atoi(amount)
	if err != nil {
		return Dependency{}, &ScheduleError{Kind: KindInvalidLag, Ref: token, Detail: "lag must be a whole number"}
	}
	if token[idx] == '-' {
		n = -n
	}
	return Dependency{ID: id, Lag: n}, nil
}

// ParseDuration parses a textual duration, rejecting non-numeric and
// negative values with ErrInvalidDuration.
func ParseDuration(s string) (int, error) {
	s = strings.TrimSpace(s)
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, &ScheduleError{Kind: KindInvalidDuration, Ref: s, Detail: "not a whole number"}
	}
	if n < 0 {
		return 0, &ScheduleError{Kind: KindInvalidDuration, Ref: s, Detail: "must not be negative"}
	}
	return n, nil
}
