package ratelimit

import "strings"

func splitPath(p string) []string {
	return strings.Split(strings.Trim(p, "/"), "/")
}

// Matches reports whether the rule applies to a request.
func (r Rule) Matches(method, path string) bool {
	if r.Method != "" && r.Method != method {
		return false
	}
	want, got := splitPath(r.Pattern), splitPath(path)
	if len(want) != len(got) {
		return false
	}
	for i, seg := range want {
		if seg != "*" && seg != got[i] {
			return false
		}
	}
	return true
}

// MatchRule returns the first rule that applies, or nil.
func MatchRule(method, path string, rules []Rule) *Rule {
	for i := range rules {
		if rules[i].Matches(method, path) {
			return &rules[i]
		}
	}
	return nil
}
