package workflow

import (
	"context"

	"github.com/lumeray/royalty_backend/models"
)

// ReleaseRef is what a matched report row resolves to.
type ReleaseRef struct {
	UserId     int
	ReleaseId  int
	ArtistName string
}

// ReleaseIndex is an in-memory lookup over the whole release catalog, keyed
// by normalized (artist, album). Built once per worker invocation and passed
// down explicitly; with N releases and M report rows this is O(N) preload
// plus O(M) hash lookups instead of a catalog query per row. There is no
// shared global instance, so concurrent invocations cannot interfere.
type ReleaseIndex struct {
	byKey map[string]ReleaseRef
}

// BuildReleaseIndex indexes catalog entries, skipping releases whose
// normalized artist or album is empty. Releases must be enumerated lowest id
// first: the first entry for a duplicate normalized key wins, making the
// tie-break deterministic.
func BuildReleaseIndex(releases []*models.Release) *ReleaseIndex {
	idx := &ReleaseIndex{byKey: make(map[string]ReleaseRef, len(releases))}
	for _, r := range releases {
		artist := NormalizeTitle(r.ArtistName)
		album := NormalizeTitle(r.ReleaseName)
		if artist == "" || album == "" {
			continue
		}
		key := releaseKey(artist, album)
		if _, exists := idx.byKey[key]; exists {
			continue
		}
		idx.byKey[key] = ReleaseRef{
			UserId:     r.ArtistId,
			ReleaseId:  r.ID,
			ArtistName: r.ArtistName,
		}
	}
	return idx
}

// LoadReleaseIndex reads the catalog and builds the index. A read error is
// fatal for the caller's chunk or job.
func LoadReleaseIndex(ctx context.Context) (*ReleaseIndex, error) {
	releases, err := models.GetAllReleases(ctx)
	if err != nil {
		return nil, err
	}
	return BuildReleaseIndex(releases), nil
}

// Match resolves a report row against the catalog. Exact equality after
// normalization is the entire algorithm; formatting differences between the
// statement and the catalog are expected to miss and land in the pending
// bucket for manual review. An empty artist or album never matches,
// regardless of index contents.
func (idx *ReleaseIndex) Match(artistName, albumName string) (ReleaseRef, bool) {
	artist := NormalizeTitle(artistName)
	album := NormalizeTitle(albumName)
	if artist == "" || album == "" {
		return ReleaseRef{}, false
	}
	ref, ok := idx.byKey[releaseKey(artist, album)]
	return ref, ok
}

// Size reports how many catalog entries are indexed.
func (idx *ReleaseIndex) Size() int {
	return len(idx.byKey)
}
