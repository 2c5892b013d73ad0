// Package office reads and rewrites author-identity metadata in
// office-document containers (.docx, .pptx, .xlsx).
//
// The package is a pure in-memory transformation layer: it performs no I/O,
// no logging and no network access. Every failure is returned to the caller
// wrapped around one of the sentinel errors below.
package office

import (
	"errors"
	"fmt"

	"github.com/rickcedwhat/assignment-checker/internal/model"
)

var (
	// ErrUnsupportedFormat is returned when a filename does not map to a
	// supported container kind.
	ErrUnsupportedFormat = errors.New("unsupported file type")
	// ErrCorruptDocument is returned when bytes cannot be decoded as a valid
	// container of the detected kind.
	ErrCorruptDocument = errors.New("corrupt document")
	// ErrEncodeFailed is returned when re-encoding a mutated document fails.
	ErrEncodeFailed = errors.New("encode failed")
)

// Document is a decoded office container. A Document is exclusively owned by
// the request that decoded it: it is never shared across goroutines, so
// SetIdentity mutates in place without locking.
//
// Each container kind carries its own implementation; mixing a document with
// an accessor of a different kind is not possible through this interface.
type Document interface {
	// Kind reports the container kind this document was decoded as.
	Kind() Kind

	// Identity returns the author and last-modified-by core properties,
	// with missing fields normalized to empty strings. For spreadsheets the
	// author is read from the underlying "creator" property.
	Identity() model.IdentityMetadata

	// SetIdentity applies the provided fields of the update to the document.
	// Nil fields are left untouched; a non-nil empty string clears the field.
	SetIdentity(upd model.IdentityUpdate)

	// Encode serializes the document back to container bytes. Content that
	// was not touched by SetIdentity round-trips unchanged.
	Encode() ([]byte, error)

	// Close releases any resources held by the decoded document.
	Close() error
}

// Decode turns raw bytes into a Document of the given kind.
func Decode(kind Kind, data []byte) (Document, error) {
	switch kind {
	case WordDocument, PresentationDocument:
		return decodeOPC(kind, data)
	case SpreadsheetDocument:
		return decodeSpreadsheet(data)
	default:
		return nil, fmt.Errorf("%w: unknown container kind %d", ErrUnsupportedFormat, int(kind))
	}
}

// Open detects the container kind from the filename and decodes the bytes.
func Open(filename string, data []byte) (Document, error) {
	kind, err := Detect(filename)
	if err != nil {
		return nil, err
	}
	return Decode(kind, data)
}
