package teamsync

import "strings"

// Slugify derives the provider-compatible identifier from a team's declared
// name. The slug is the join key between desired and observed state, so the
// derivation must be deterministic: lowercase, strip everything outside
// [a-z0-9- ], turn whitespace runs into single hyphens, collapse repeated
// hyphens, trim hyphens from both ends.
func Slugify(name string) string {
	lower := strings.ToLower(name)

	var b strings.Builder
	b.Grow(len(lower))
	for _, r := range lower {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-':
			b.WriteRune(r)
		case r == ' ' || r == '\t':
			b.WriteRune(' ')
		}
	}

	fields := strings.Fields(b.String())
	slug := strings.Join(fields, "-")

	for strings.Contains(slug, "--") {
		slug = strings.ReplaceAll(slug, "--", "-")
	}
	return strings.Trim(slug, "-")
}
