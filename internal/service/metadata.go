package service

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/rickcedwhat/assignment-checker/internal/model"
	"github.com/rickcedwhat/assignment-checker/internal/office"
)

var (
	ErrFilenameRequired = errors.New("filename is required")
	ErrEmptyFile        = errors.New("file is empty")
	ErrFileTooLarge     = errors.New("file exceeds the maximum accepted size")
)

// UpdateResult is the outcome of rewriting a document's identity metadata.
type UpdateResult struct {
	Data []byte
	// SuggestedFilename is always the original filename; this service does
	// not rename. The transport layer uses it for the content disposition.
	SuggestedFilename string
	ContentType       string
}

// MetadataService exposes the two identity-metadata use cases over office
// containers.
type MetadataService interface {
	// Read returns the author and last-modified-by properties of the file.
	Read(ctx context.Context, filename string, data []byte) (*model.IdentityMetadata, error)

	// Update applies the provided identity fields and returns the rewritten
	// container bytes. Fields absent from the update are left untouched.
	Update(ctx context.Context, filename string, data []byte, upd model.IdentityUpdate) (*UpdateResult, error)
}

// metadataService is a concrete implementation of MetadataService.
type metadataService struct {
	maxBytes int64
	tracer   trace.Tracer
}

// NewMetadataService constructs a MetadataService. maxBytes bounds accepted
// file sizes; zero or negative disables the guard.
func NewMetadataService(maxBytes int64) MetadataService {
	return &metadataService{
		maxBytes: maxBytes,
		tracer:   otel.Tracer("assignment-checker/service"),
	}
}

// open runs the shared front half of both operations: detect the container
// kind from the filename, apply the size guard, then decode.
func (s *metadataService) open(filename string, data []byte) (office.Document, error) {
	if filename == "" {
		return nil, ErrFilenameRequired
	}
	kind, err := office.Detect(filename)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, ErrEmptyFile
	}
	if s.maxBytes > 0 && int64(len(data)) > s.maxBytes {
		return nil, fmt.Errorf("%w: %d bytes", ErrFileTooLarge, len(data))
	}
	return office.Decode(kind, data)
}

func (s *metadataService) Read(ctx context.Context, filename string, data []byte) (*model.IdentityMetadata, error) {
	_, span := s.tracer.Start(ctx, "metadata.read",
		trace.WithAttributes(attribute.Int("file.size", len(data))))
	defer span.End()

	doc, err := s.open(filename, data)
	if err != nil {
		return nil, err
	}
	defer doc.Close()

	span.SetAttributes(attribute.String("file.kind", doc.Kind().String()))
	md := doc.Identity()
	return &md, nil
}

func (s *metadataService) Update(ctx context.Context, filename string, data []byte, upd model.IdentityUpdate) (*UpdateResult, error) {
	_, span := s.tracer.Start(ctx, "metadata.update",
		trace.WithAttributes(attribute.Int("file.size", len(data))))
	defer span.End()

	doc, err := s.open(filename, data)
	if err != nil {
		return nil, err
	}
	defer doc.Close()
	span.SetAttributes(attribute.String("file.kind", doc.Kind().String()))

	doc.SetIdentity(upd)

	out, err := doc.Encode()
	if err != nil {
		return nil, err
	}
	return &UpdateResult{
		Data:              out,
		SuggestedFilename: filename,
		ContentType:       office.ContentType(doc.Kind()),
	}, nil
}
