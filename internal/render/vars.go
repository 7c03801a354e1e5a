package render

import "regexp"

var sitePlaceholder = regexp.MustCompile(`\{site\.([A-Za-z0-9_]+)\}`)

// varSubstituter replaces {site.<key>} with configured values. Unknown keys
// stay as written so they show up in review.
type varSubstituter struct {
	vars map[string]string
}

func newVarSubstituter(vars map[string]string) *varSubstituter {
	return &varSubstituter{vars: vars}
}

func (v *varSubstituter) apply(s string) string {
	if len(v.vars) == 0 {
		return s
	}
	return sitePlaceholder.ReplaceAllStringFunc(s, func(m string) string {
		key := sitePlaceholder.FindStringSubmatch(m)[1]
		if val, ok := v.vars[key]; ok {
			return val
		}
		return m
	})
}
