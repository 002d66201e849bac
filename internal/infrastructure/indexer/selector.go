// Package indexer holds indexer-side release selection.
package indexer

import (
	"strings"

	"github.com/harpoonmedia/harpoon/pkg/interfaces"
)

// Selector is the default release selector: it filters candidates against
// per-request preferences, then picks the healthiest survivor by seeders.
type Selector struct{}

// NewSelector creates the default selector.
func NewSelector() *Selector {
	return &Selector{}
}

// SelectBest returns the preferred candidate, or nil when nothing passes the
// filters.
func (s *Selector) SelectBest(candidates []interfaces.ReleaseCandidate, prefs interfaces.SelectionPreferences) *interfaces.ReleaseCandidate {
	var best *interfaces.ReleaseCandidate
	for i := range candidates {
		candidate := &candidates[i]
		if !s.accepts(candidate, prefs) {
			continue
		}
		if best == nil || candidate.Seeders > best.Seeders ||
			(candidate.Seeders == best.Seeders && candidate.Size < best.Size) {
			best = candidate
		}
	}
	if best == nil {
		return nil
	}
	// Copy so callers never alias the input slice.
	chosen := *best
	return &chosen
}

func (s *Selector) accepts(candidate *interfaces.ReleaseCandidate, prefs interfaces.SelectionPreferences) bool {
	title := strings.ToLower(candidate.Title)
	for _, word := range prefs.BlacklistWords {
		if word != "" && strings.Contains(title, strings.ToLower(word)) {
			return false
		}
	}
	if !matchesAllowlist(title, prefs.QualityAllowlist) {
		return false
	}
	if !matchesAllowlist(title, prefs.FormatAllowlist) {
		return false
	}
	if len(prefs.TrustedIndexers) > 0 && !containsFold(prefs.TrustedIndexers, candidate.Indexer) {
		return false
	}
	if candidate.Seeders < prefs.MinSeeders {
		return false
	}
	if prefs.MaxSize > 0 && candidate.Size > prefs.MaxSize {
		return false
	}
	return candidate.MagnetURI != "" || candidate.Link != ""
}

// matchesAllowlist is satisfied by an empty allowlist or any one entry
// appearing in the title.
func matchesAllowlist(title string, allowlist []string) bool {
	if len(allowlist) == 0 {
		return true
	}
	for _, entry := range allowlist {
		if entry != "" && strings.Contains(title, strings.ToLower(entry)) {
			return true
		}
	}
	return false
}

func containsFold(values []string, target string) bool {
	for _, v := range values {
		if strings.EqualFold(v, target) {
			return true
		}
	}
	return false
}

var _ interfaces.ReleaseSelector = (*Selector)(nil)
