package workflow

import "strings"

// Characters distributors decorate artist/album names with. Stripped before
// comparison so «Альбом», "Album" and [Album] all land on the same key.
var normalizeStripper = strings.NewReplacer(
	"«", "",
	"»", "",
	`"`, "",
	"“", "",
	"”", "",
	"(", "",
	")", "",
	"[", "",
	"]", "",
)

// NormalizeTitle canonicalizes an artist or album name for matching:
// trim, lowercase, drop quote/bracket characters, collapse whitespace runs.
// It is applied identically on the catalog side and the report side; any
// asymmetry would break every match. Idempotent, empty in -> empty out.
func NormalizeTitle(s string) string {
	if s == "" {
		return ""
	}
	s = strings.ToLower(strings.TrimSpace(s))
	s = normalizeStripper.Replace(s)
	return strings.Join(strings.Fields(s), " ")
}

// releaseKey joins the normalized pair into the index key.
func releaseKey(normalizedArtist, normalizedAlbum string) string {
	return normalizedArtist + "||" + normalizedAlbum
}
