package indexer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harpoonmedia/harpoon/internal/infrastructure/indexer"
	"github.com/harpoonmedia/harpoon/pkg/interfaces"
)

func candidate(title string, seeders int, size int64) interfaces.ReleaseCandidate {
	return interfaces.ReleaseCandidate{
		Title:     title,
		MagnetURI: "magnet:?xt=urn:btih:" + title,
		Size:      size,
		Seeders:   seeders,
		Indexer:   "ExampleIndexer",
	}
}

func TestSelectBest_PicksMostSeeders(t *testing.T) {
	candidates := []interfaces.ReleaseCandidate{
		candidate("Example.Movie.2020.1080p.BluRay", 10, 2_000_000_000),
		candidate("Example.Movie.2020.1080p.WEB-DL", 80, 3_000_000_000),
		candidate("Example.Movie.2020.720p.WEB-DL", 40, 1_000_000_000),
	}

	best := indexer.NewSelector().SelectBest(candidates, interfaces.SelectionPreferences{})

	require.NotNil(t, best)
	assert.Equal(t, "Example.Movie.2020.1080p.WEB-DL", best.Title)
}

func TestSelectBest_SeederTieBreaksOnSmallerSize(t *testing.T) {
	candidates := []interfaces.ReleaseCandidate{
		candidate("Example.Movie.2020.1080p.Remux", 50, 30_000_000_000),
		candidate("Example.Movie.2020.1080p.BluRay", 50, 8_000_000_000),
	}

	best := indexer.NewSelector().SelectBest(candidates, interfaces.SelectionPreferences{})

	require.NotNil(t, best)
	assert.Equal(t, "Example.Movie.2020.1080p.BluRay", best.Title)
}

func TestSelectBest_AppliesFilters(t *testing.T) {
	candidates := []interfaces.ReleaseCandidate{
		candidate("Example.Movie.2020.CAM.x264", 500, 1_000_000_000),
		candidate("Example.Movie.2020.720p.BluRay", 90, 4_000_000_000),
		candidate("Example.Movie.2020.1080p.BluRay", 60, 9_000_000_000),
		candidate("Example.Movie.2020.1080p.WEB-DL", 3, 8_000_000_000),
	}
	prefs := interfaces.SelectionPreferences{
		QualityAllowlist: []string{"1080p"},
		BlacklistWords:   []string{"cam"},
		MinSeeders:       5,
	}

	best := indexer.NewSelector().SelectBest(candidates, prefs)

	require.NotNil(t, best)
	assert.Equal(t, "Example.Movie.2020.1080p.BluRay", best.Title)
}

func TestSelectBest_MaxSizeAndTrustedIndexers(t *testing.T) {
	tooBig := candidate("Example.Movie.2020.2160p.Remux", 100, 60_000_000_000)
	untrusted := candidate("Example.Movie.2020.1080p.BluRay", 90, 8_000_000_000)
	untrusted.Indexer = "ShadyIndexer"
	acceptable := candidate("Example.Movie.2020.1080p.WEB-DL", 40, 8_000_000_000)

	best := indexer.NewSelector().SelectBest(
		[]interfaces.ReleaseCandidate{tooBig, untrusted, acceptable},
		interfaces.SelectionPreferences{
			MaxSize:         20_000_000_000,
			TrustedIndexers: []string{"exampleindexer"},
		})

	require.NotNil(t, best)
	assert.Equal(t, "Example.Movie.2020.1080p.WEB-DL", best.Title)
}

func TestSelectBest_RejectsCandidatesWithoutFetchableSource(t *testing.T) {
	unfetchable := interfaces.ReleaseCandidate{Title: "Example.Movie.2020.1080p", Seeders: 100}

	best := indexer.NewSelector().SelectBest(
		[]interfaces.ReleaseCandidate{unfetchable}, interfaces.SelectionPreferences{})

	assert.Nil(t, best)
}

func TestSelectBest_NothingPasses(t *testing.T) {
	candidates := []interfaces.ReleaseCandidate{
		candidate("Example.Movie.2020.480p.DVDRip", 10, 700_000_000),
	}

	best := indexer.NewSelector().SelectBest(candidates, interfaces.SelectionPreferences{
		QualityAllowlist: []string{"1080p"},
	})

	assert.Nil(t, best)
}
