package model

import "fmt"

// AttackTechnique is an ATT&CK technique selected for a final-stage
// statement. Sub-technique fields are optional.
type AttackTechnique struct {
	TechniqueID      string
	TechniqueName    string
	SubTechniqueID   string
	SubTechniqueName string
}

// Label renders the technique as "{name} ({id})", preferring the
// sub-technique fields when present.
func (t AttackTechnique) Label() string {
	name := t.TechniqueName
	if t.SubTechniqueName != "" {
		name = t.SubTechniqueName
	}
	id := t.TechniqueID
	if t.SubTechniqueID != "" {
		id = t.SubTechniqueID
	}
	return fmt.Sprintf("%s (%s)", name, id)
}

// TechniqueSuggestion is a catalog technique proposed for a statement
type TechniqueSuggestion struct {
	Technique AttackTechnique
	Reason    string
}
