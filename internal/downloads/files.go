package downloads

import (
	"path/filepath"
	"strings"
)

// skippedExtensions are files never handed to the organizer: torrent
// metadata, checksums, artwork, subtitles and control files.
var skippedExtensions = map[string]struct{}{
	".nfo":     {},
	".sfv":     {},
	".srr":     {},
	".txt":     {},
	".url":     {},
	".jpg":     {},
	".jpeg":    {},
	".png":     {},
	".srt":     {},
	".sub":     {},
	".idx":     {},
	".torrent": {},
	".aria2":   {},
	".parts":   {},
}

// OrganizableFiles filters the download's file paths down to the content
// worth organizing, dropping samples, proofs and known metadata files.
func OrganizableFiles(paths []string) []string {
	var files []string
	for _, path := range paths {
		name := strings.ToLower(filepath.Base(path))
		if _, skip := skippedExtensions[filepath.Ext(name)]; skip {
			continue
		}
		if strings.Contains(name, "sample") || strings.HasPrefix(name, "proof") {
			continue
		}
		files = append(files, path)
	}
	return files
}

var qualityTags = []string{"2160p", "1080p", "720p", "576p", "480p"}

var formatTags = []string{"WEB-DL", "WEBRip", "BluRay", "BDRip", "HDTV", "DVDRip", "Remux"}

var editionTags = []string{"Extended", "Directors.Cut", "Director's Cut", "Unrated", "Remastered", "IMAX", "Theatrical"}

// ExtractQuality pulls a resolution tag out of a release or file name.
func ExtractQuality(name string) string {
	return firstTag(name, qualityTags)
}

// ExtractFormat pulls a source/format tag out of a release or file name.
func ExtractFormat(name string) string {
	return firstTag(name, formatTags)
}

// ExtractEdition pulls an edition tag out of a release or file name.
func ExtractEdition(name string) string {
	return firstTag(name, editionTags)
}

func firstTag(name string, tags []string) string {
	lower := strings.ToLower(name)
	for _, tag := range tags {
		if strings.Contains(lower, strings.ToLower(tag)) {
			return tag
		}
	}
	return ""
}
