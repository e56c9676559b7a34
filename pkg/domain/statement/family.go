package statement

import (
	"regexp"
	"sort"
	"strings"

	"github.com/secmon-lab/threatline/pkg/domain/model"
)

var (
	actorPhrasePattern = regexp.MustCompile(`(?i)^(a|an)\s+([^,]+?)\s+(could|with)`)

	// Tried in order against lower-cased text; the first match wins.
	assetPhrasePatterns = []*regexp.Regexp{
		regexp.MustCompile(`of\s+([a-z0-9\s]+?)\s+in order`),
		regexp.MustCompile(`target(?:ing)?\s+(?:the\s+)?([a-z0-9\s]+?)\s+to`),
		regexp.MustCompile(`impacting\s+\w+\s+of\s+([a-z0-9\s]+?)\s+in order`),
	}
)

// Family is the set of threats describing one attack chain across stages.
type Family map[model.ThreatID]struct{}

// Contains reports whether id belongs to the family.
func (f Family) Contains(id model.ThreatID) bool {
	_, ok := f[id]
	return ok
}

// Len returns the number of members.
func (f Family) Len() int {
	return len(f)
}

// IDs returns the members in ascending order.
func (f Family) IDs() []model.ThreatID {
	ids := make([]model.ThreatID, 0, len(f))
	for id := range f {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (f Family) add(id model.ThreatID) {
	f[id] = struct{}{}
}

// ResolveFamily returns threatID together with every threat connected to it
// through parent links: its ancestors and everything descending from any
// member. When no parent link touches threatID, threats sharing its actor
// phrase (and asset phrase, when both sides have one) are grouped instead.
// threatID is always a member, even if it is not in threats.
func ResolveFamily(threatID model.ThreatID, threats []*model.Threat) Family {
	family := Family{}
	family.add(threatID)

	byID := make(map[model.ThreatID]*model.Threat, len(threats))
	for _, t := range threats {
		if t != nil {
			byID[t.ID] = t
		}
	}

	// Walk up. Stops at an unknown parent or one already collected, so a
	// cyclic parent chain terminates.
	for cur := byID[threatID]; cur != nil && cur.HasParent(); {
		parent, ok := byID[cur.ParentID]
		if !ok || family.Contains(parent.ID) {
			break
		}
		family.add(parent.ID)
		cur = parent
	}

	// Walk down until no threat is added.
	for changed := true; changed; {
		changed = false
		for _, t := range threats {
			if t == nil || family.Contains(t.ID) || !t.HasParent() {
				continue
			}
			if family.Contains(t.ParentID) {
				family.add(t.ID)
				changed = true
			}
		}
	}

	if family.Len() > 1 {
		return family
	}

	seed, ok := byID[threatID]
	if !ok {
		return family
	}
	for _, id := range matchHeuristically(seed, threats) {
		family.add(id)
	}
	return family
}

// matchHeuristically finds threats that look like the same attack chain as
// seed by comparing actor and asset phrases.
func matchHeuristically(seed *model.Threat, threats []*model.Threat) []model.ThreatID {
	actor, ok := actorPhrase(seed.Statement)
	if !ok {
		return nil
	}
	seedAsset, seedHasAsset := assetPhrase(seed.Statement)

	var matched []model.ThreatID
	for _, t := range threats {
		if t == nil || t.ID == seed.ID {
			continue
		}
		if !strings.Contains(strings.ToLower(t.Statement), actor) {
			continue
		}
		asset, hasAsset := assetPhrase(t.Statement)
		if seedHasAsset && hasAsset && asset != seedAsset {
			continue
		}
		matched = append(matched, t.ID)
	}
	return matched
}

// actorPhrase returns the lower-cased actor phrase of a statement starting
// with an article.
func actorPhrase(text string) (string, bool) {
	m := actorPhrasePattern.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return strings.ToLower(m[2]), true
}

func assetPhrase(text string) (string, bool) {
	lower := strings.ToLower(text)
	for _, p := range assetPhrasePatterns {
		if m := p.FindStringSubmatch(lower); m != nil {
			return m[1], true
		}
	}
	return "", false
}
