package usecase

import (
	"github.com/secmon-lab/threatline/pkg/domain/model"
	"github.com/sergi/go-diff/diffmatchpatch"
)

// newRevision builds a revision with a textual patch from previous to current
func newRevision(threatID model.ThreatID, previous, current string) *model.ThreatRevision {
	dmp := diffmatchpatch.New()
	patches := dmp.PatchMake(previous, current)

	return &model.ThreatRevision{
		ID:       model.NewRevisionID(),
		ThreatID: threatID,
		Previous: previous,
		Current:  current,
		Patch:    dmp.PatchToText(patches),
	}
}
