package office

import (
	"fmt"
	"path/filepath"
)

// Kind identifies one of the supported office-document container formats.
type Kind int

const (
	// WordDocument is a word-processing container (.docx).
	WordDocument Kind = iota + 1
	// PresentationDocument is a presentation container (.pptx).
	PresentationDocument
	// SpreadsheetDocument is a spreadsheet container (.xlsx).
	SpreadsheetDocument
)

func (k Kind) String() string {
	switch k {
	case WordDocument:
		return "word"
	case PresentationDocument:
		return "presentation"
	case SpreadsheetDocument:
		return "spreadsheet"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Detect maps a filename extension to a container kind.
// Matching is case-sensitive and exact-suffix on the last extension: only
// ".docx", ".pptx" and ".xlsx" are accepted; everything else (including a
// missing extension or ".DOCX") yields ErrUnsupportedFormat.
func Detect(filename string) (Kind, error) {
	switch filepath.Ext(filename) {
	case ".docx":
		return WordDocument, nil
	case ".pptx":
		return PresentationDocument, nil
	case ".xlsx":
		return SpreadsheetDocument, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedFormat, filename)
	}
}

// ContentType returns the OOXML media type for the given container kind.
// Used by the transport layer when returning rewritten bytes to the caller.
func ContentType(k Kind) string {
	switch k {
	case WordDocument:
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case PresentationDocument:
		return "application/vnd.openxmlformats-officedocument.presentationml.presentation"
	case SpreadsheetDocument:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "application/octet-stream"
	}
}
