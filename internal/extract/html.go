package extract

import (
	"regexp"
	"strconv"
	"strings"
)

// The named/hex entities Greenhouse content is seen to carry in practice.
var entityReplacer = strings.NewReplacer(
	"&amp;", "&",
	"&lt;", "<",
	"&gt;", ">",
	"&quot;", `"`,
	"&#39;", "'",
	"&nbsp;", " ",
	"&#x2F;", "/",
	"&#x27;", "'",
	"&#x60;", "`",
	"&#x3D;", "=",
)

var decimalEntityRe = regexp.MustCompile(`&#(\d+);`)

// DecodeEntities replaces the common named and decimal HTML entities with
// their character equivalents. Unknown entities pass through unchanged.
func DecodeEntities(s string) string {
	s = entityReplacer.Replace(s)
	return decimalEntityRe.ReplaceAllStringFunc(s, func(m string) string {
		code, err := strconv.Atoi(m[2 : len(m)-1])
		if err != nil || code < 0 || code > 0x10FFFF {
			return m
		}
		return string(rune(code))
	})
}
