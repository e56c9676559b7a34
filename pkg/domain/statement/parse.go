package statement

import (
	"regexp"
	"strings"

	"github.com/secmon-lab/threatline/pkg/domain/model"
)

var (
	vowelPattern = regexp.MustCompile(`(?i)^[aeiou]`)

	initialPattern = regexp.MustCompile(`(?i)^(An?\s+)(.+?)\s+with\s+(.+?)\s+could\s+target\s+the\s+(.+?)\s+to\s+conduct\s+(.+?)\s+in\s+order\s+to\s+(.+)$`)
)

// baseParts holds the fields of an initial statement reused by the
// intermediate template. article keeps its trailing whitespace.
type baseParts struct {
	article            string
	actor              string
	vector             string
	asset              string
	localObjective     string
	strategicObjective string
}

// ParseInitial recovers the components of a statement rendered by the
// initial template. It returns false when the text does not match, e.g.
// after a manual edit.
func ParseInitial(text string) (*model.StatementComponents, bool) {
	parts, ok := parseInitial(text)
	if !ok {
		return nil, false
	}
	return &model.StatementComponents{
		Article:            strings.TrimSpace(parts.article),
		Actor:              parts.actor,
		Vector:             parts.vector,
		Asset:              parts.asset,
		LocalObjective:     parts.localObjective,
		StrategicObjective: parts.strategicObjective,
	}, true
}

func parseInitial(text string) (baseParts, bool) {
	m := initialPattern.FindStringSubmatch(text)
	if m == nil {
		return baseParts{}, false
	}
	return baseParts{
		article:            m[1],
		actor:              m[2],
		vector:             m[3],
		asset:              m[4],
		localObjective:     m[5],
		strategicObjective: m[6],
	}, true
}

func partsFromComponents(c *model.StatementComponents) (baseParts, bool) {
	if !c.HasInitialFields() {
		return baseParts{}, false
	}
	return baseParts{
		article:            c.Article + " ",
		actor:              c.Actor,
		vector:             c.Vector,
		asset:              c.Asset,
		localObjective:     c.LocalObjective,
		strategicObjective: c.StrategicObjective,
	}, true
}
