package downloads_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/harpoonmedia/harpoon/internal/downloads"
)

func TestOrganizableFiles(t *testing.T) {
	paths := []string{
		"/downloads/Example.Movie.2020.1080p/Example.Movie.2020.1080p.mkv",
		"/downloads/Example.Movie.2020.1080p/Sample/example-sample.mkv",
		"/downloads/Example.Movie.2020.1080p/example.nfo",
		"/downloads/Example.Movie.2020.1080p/example.srt",
		"/downloads/Example.Movie.2020.1080p/proof.jpg",
		"/downloads/Example.Movie.2020.1080p/cover.png",
	}

	files := downloads.OrganizableFiles(paths)

	assert.Equal(t, []string{"/downloads/Example.Movie.2020.1080p/Example.Movie.2020.1080p.mkv"}, files)
}

func TestOrganizableFiles_Empty(t *testing.T) {
	assert.Empty(t, downloads.OrganizableFiles(nil))
	assert.Empty(t, downloads.OrganizableFiles([]string{"/downloads/readme.txt"}))
}

func TestExtractHints(t *testing.T) {
	name := "Example.Movie.2020.Extended.1080p.BluRay.x264"

	assert.Equal(t, "1080p", downloads.ExtractQuality(name))
	assert.Equal(t, "BluRay", downloads.ExtractFormat(name))
	assert.Equal(t, "Extended", downloads.ExtractEdition(name))

	assert.Empty(t, downloads.ExtractQuality("Example.Movie"))
	assert.Empty(t, downloads.ExtractFormat("Example.Movie"))
	assert.Empty(t, downloads.ExtractEdition("Example.Movie"))
}
