package handler

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/rickcedwhat/assignment-checker/internal/model"
	"github.com/rickcedwhat/assignment-checker/internal/office"
	"github.com/rickcedwhat/assignment-checker/internal/service"
)

// GetMetadata returns the handler for reading author identity properties
// out of an uploaded Office file.
//
//	@Summary		Get File Metadata
//	@Description	Reads an Office file and returns its author and last modified by properties.
//	@Tags			metadata
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			file	formData	file	true	"The Office file to inspect."
//	@Success		200		{object}	model.IdentityMetadata
//	@Failure		400		{object}	errorPayload
//	@Router			/get-metadata [post]
func GetMetadata(svc service.MetadataService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fh, err := c.FormFile("file")
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "file is required")
		}

		data, err := readUpload(fh)
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
		}

		md, err := svc.Read(c.UserContext(), fh.Filename, data)
		if err != nil {
			return writeMetadataError(c, err)
		}
		return c.JSON(md)
	}
}

// ProcessFile returns the handler for rewriting author identity properties.
// The author and last_modified_by form fields are optional; a field that is
// absent leaves the corresponding property untouched, while a present but
// empty field clears it.
//
//	@Summary		Modify File Metadata
//	@Description	Rewrites the author and/or last modified by properties and returns the modified file.
//	@Tags			metadata
//	@Accept			multipart/form-data
//	@Produce		application/octet-stream
//	@Param			file				formData	file	true	"The Office file to modify."
//	@Param			author				formData	string	false	"The new author name."
//	@Param			last_modified_by	formData	string	false	"The new 'last modified by' name."
//	@Success		200	{file}		binary
//	@Failure		400	{object}	errorPayload
//	@Router			/process-file [post]
func ProcessFile(svc service.MetadataService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		form, err := c.MultipartForm()
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "file is required")
		}

		files := form.File["file"]
		if len(files) == 0 {
			return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "file is required")
		}
		fh := files[0]

		data, err := readUpload(fh)
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
		}

		// Field presence, not emptiness, decides whether a property is
		// updated; an empty value is a deliberate clear.
		var upd model.IdentityUpdate
		if vals, ok := form.Value["author"]; ok && len(vals) > 0 {
			upd.Author = &vals[0]
		}
		if vals, ok := form.Value["last_modified_by"]; ok && len(vals) > 0 {
			upd.LastModifiedBy = &vals[0]
		}

		res, err := svc.Update(c.UserContext(), fh.Filename, data, upd)
		if err != nil {
			return writeMetadataError(c, err)
		}

		c.Set(fiber.HeaderContentType, res.ContentType)
		c.Set(fiber.HeaderContentDisposition,
			fmt.Sprintf(`attachment; filename="%s"`, dispositionFilename(res.SuggestedFilename)))
		return c.Send(res.Data)
	}
}

// writeMetadataError translates metadata service failures into the error envelope.
func writeMetadataError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, office.ErrUnsupportedFormat):
		return writeError(c, fiber.StatusBadRequest, "UNSUPPORTED_FILE_TYPE",
			"unsupported file type, please upload a .docx, .pptx, or .xlsx file")
	case errors.Is(err, office.ErrCorruptDocument):
		// Keep the wrapped decode cause: it tells the caller what was wrong
		// with their file, not anything about ours.
		return writeError(c, fiber.StatusBadRequest, "CORRUPT_DOCUMENT", err.Error())
	case errors.Is(err, service.ErrFilenameRequired):
		return writeError(c, fiber.StatusBadRequest, "FILENAME_REQUIRED", "filename is required")
	case errors.Is(err, service.ErrEmptyFile):
		return writeError(c, fiber.StatusBadRequest, "EMPTY_FILE", "file is empty")
	case errors.Is(err, service.ErrFileTooLarge):
		return writeError(c, fiber.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE",
			"file exceeds the maximum accepted size")
	default:
		return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
	}
}

// dispositionFilename makes a filename safe inside the quoted-string of a
// Content-Disposition header: quotes and backslashes are escaped, line
// breaks are stripped.
func dispositionFilename(name string) string {
	return strings.NewReplacer(
		`\`, `\\`,
		`"`, `\"`,
		"\r", "",
		"\n", "",
	).Replace(name)
}

// readUpload reads the full content of a multipart file header.
func readUpload(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}
