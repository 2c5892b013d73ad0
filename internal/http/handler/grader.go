package handler

import (
	"errors"
	"mime/multipart"

	"github.com/gofiber/fiber/v2"

	"github.com/rickcedwhat/assignment-checker/internal/service"
)

// CheckAssignment returns the handler that grades a submission against its
// instructions. Both sides accept free text, uploaded files, or a mix.
//
//	@Summary		Check Assignment
//	@Description	Analyzes a completed assignment against its instructions and returns a Markdown report.
//	@Tags			grading
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			instructions_text	formData	string	false	"Assignment instructions as text."
//	@Param			instructions_files	formData	file	false	"Assignment instructions as files."
//	@Param			submission_text		formData	string	false	"Completed assignment as text."
//	@Param			submission_files	formData	file	false	"Completed assignment as files."
//	@Success		200	{object}	map[string]string
//	@Failure		400	{object}	errorPayload
//	@Router			/check-assignment [post]
func CheckAssignment(svc service.GraderService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		in := service.CheckAssignmentInput{
			InstructionsText: c.FormValue("instructions_text"),
			SubmissionText:   c.FormValue("submission_text"),
		}
		if form, err := c.MultipartForm(); err == nil {
			in.InstructionsFiles = namedFiles(form.File["instructions_files"])
			in.SubmissionFiles = namedFiles(form.File["submission_files"])
		}

		analysis, err := svc.CheckAssignment(c.UserContext(), in)
		if err != nil {
			switch {
			case errors.Is(err, service.ErrNoInstructions):
				return writeError(c, fiber.StatusBadRequest, "NO_INSTRUCTIONS",
					"no instructions provided, please provide either text or files")
			case errors.Is(err, service.ErrNoSubmission):
				return writeError(c, fiber.StatusBadRequest, "NO_SUBMISSION",
					"no submission provided, please provide either text or files")
			default:
				return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
			}
		}
		return c.JSON(fiber.Map{"analysis": analysis})
	}
}

// SolveQuestion returns the handler that answers a multiple-choice question
// from one or more screenshots.
//
//	@Summary		Solve Test Question
//	@Description	Answers a multiple-choice question captured in one or more screenshots.
//	@Tags			grading
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			files	formData	file	true	"One or more images of the test question."
//	@Success		200	{object}	map[string]string
//	@Failure		400	{object}	errorPayload
//	@Router			/solve-question [post]
func SolveQuestion(svc service.GraderService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		form, err := c.MultipartForm()
		if err != nil || len(form.File["files"]) == 0 {
			return writeError(c, fiber.StatusBadRequest, "FILES_REQUIRED", "at least one image file is required")
		}

		answer, err := svc.SolveQuestion(c.UserContext(), namedFiles(form.File["files"]))
		if err != nil {
			switch {
			case errors.Is(err, service.ErrNoImages):
				return writeError(c, fiber.StatusBadRequest, "NO_VALID_IMAGES", "no valid image files were provided")
			case errors.Is(err, service.ErrInvalidImage):
				return writeError(c, fiber.StatusBadRequest, "INVALID_IMAGE", "one of the uploaded files is not a valid image")
			default:
				return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
			}
		}
		return c.JSON(fiber.Map{"answer": answer})
	}
}

// namedFiles reads a slice of multipart file headers into service inputs.
// Files that cannot be opened are passed through with no content so the
// service layer can report them in its placeholder form.
func namedFiles(fhs []*multipart.FileHeader) []service.NamedFile {
	files := make([]service.NamedFile, 0, len(fhs))
	for _, fh := range fhs {
		data, _ := readUpload(fh)
		files = append(files, service.NamedFile{
			Name:        fh.Filename,
			ContentType: fh.Header.Get(fiber.HeaderContentType),
			Data:        data,
		})
	}
	return files
}
