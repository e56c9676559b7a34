package model

import "time"

// ArtefactFormat is the document format of an exported register
type ArtefactFormat string

const (
	ArtefactFormatMarkdown ArtefactFormat = "markdown"
)

// Extension returns the file extension for the format
func (f ArtefactFormat) Extension() string {
	switch f {
	case ArtefactFormatMarkdown:
		return ".md"
	default:
		return ""
	}
}

// Artefact is one exported version of a project's threat register
type Artefact struct {
	ProjectID ProjectID
	Version   int
	Format    ArtefactFormat
	Path      string
	Size      int64
	CreatedAt time.Time
}
