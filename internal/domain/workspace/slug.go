package workspace

import "strings"

const slugFallback = "workspace"

// Slugify derives the URL slug base from a workspace name: lower-case, runs
// of non-alphanumeric characters collapsed to a single hyphen, no leading or
// trailing hyphen. Uniqueness is handled by the creation loop, not here.
func Slugify(name string) string {
	lower := strings.ToLower(name)

	var b strings.Builder
	b.Grow(len(lower))
	pendingHyphen := false
	for _, c := range []byte(lower) {
		alnum := (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9')
		if !alnum {
			pendingHyphen = b.Len() > 0
			continue
		}
		if pendingHyphen {
			b.WriteByte('-')
			pendingHyphen = false
		}
		b.WriteByte(c)
	}

	if b.Len() == 0 {
		return slugFallback
	}
	return b.String()
}
