package upload

import (
	"net/url"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// turkishLetters maps Turkish letters with no combining-mark decomposition
// (or whose decomposition is ambiguous) to their closest ASCII equivalents.
// Most accented letters are already handled by the NFD + mark-strip pass;
// the dotless ı in particular has no decomposition and needs the table.
var turkishLetters = strings.NewReplacer(
	"İ", "I",
	"ı", "i",
	"Ş", "S",
	"ş", "s",
	"Ğ", "G",
	"ğ", "g",
	"Ü", "U",
	"ü", "u",
	"Ö", "O",
	"ö", "o",
	"Ç", "C",
	"ç", "c",
)

var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// NormalizeFilename converts an original upload filename into a form safe
// for the local filesystem: URL-decoding, diacritic stripping, Turkish
// letter transliteration, and replacement of any remaining character outside
// [A-Za-z0-9._-] with an underscore. Pure function, no I/O.
func NormalizeFilename(name string) string {
	if decoded, err := url.PathUnescape(name); err == nil {
		name = decoded
	}

	if stripped, _, err := transform.String(stripMarks, name); err == nil {
		name = stripped
	}
	name = turkishLetters.Replace(name)

	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '.', r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}
