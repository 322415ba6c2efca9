package content

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// foldings covers letters that do not decompose into a base letter plus a
// combining mark.
var foldings = strings.NewReplacer(
	"ı", "i", "İ", "i", "ß", "ss", "æ", "ae", "Æ", "ae",
	"ø", "o", "Ø", "o", "œ", "oe", "Œ", "oe", "đ", "d", "Đ", "d", "ł", "l", "Ł", "l",
)

// Slugify converts a name into an ASCII slug suitable for page ids and file
// names. Accents are stripped ("Gösterge Paneli" becomes "gosterge-paneli"),
// runs of anything else collapse to a single hyphen.
func Slugify(name string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, foldings.Replace(name))
	if err != nil {
		folded = name
	}

	var b strings.Builder
	hyphen := false
	for _, r := range strings.ToLower(folded) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			hyphen = false
			continue
		}
		if !hyphen && b.Len() > 0 {
			b.WriteByte('-')
			hyphen = true
		}
	}
	return strings.TrimRight(b.String(), "-")
}
