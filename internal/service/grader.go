package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"strings"

	// Register the decoders for the screenshot formats the UI produces.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/rickcedwhat/assignment-checker/internal/config"
	"github.com/rickcedwhat/assignment-checker/internal/extract"
	"github.com/rickcedwhat/assignment-checker/internal/gemini"
)

var (
	ErrNoInstructions = errors.New("no instructions provided")
	ErrNoSubmission   = errors.New("no submission provided")
	ErrNoImages       = errors.New("no valid image files were provided")
	ErrInvalidImage   = errors.New("invalid image file")
)

// solveQuestionPrompt instructs the vision model to answer with just the
// question number and letter option.
const solveQuestionPrompt = "Given a screenshot of a multiple choice question respond with only the question number (if provided) and the letter option of the correct choice (ABCD, etc) unless explicitly directed to do otherwise."

// NamedFile is an uploaded file with its claimed content type.
type NamedFile struct {
	Name        string
	ContentType string
	Data        []byte
}

// CheckAssignmentInput carries the assignment instructions and the completed
// submission; each side can be free text, files, or both.
type CheckAssignmentInput struct {
	InstructionsText  string
	InstructionsFiles []NamedFile
	SubmissionText    string
	SubmissionFiles   []NamedFile
}

// GraderService produces grading analyses and test-question answers through
// the generative-language model.
type GraderService interface {
	// CheckAssignment grades a submission against its instructions and
	// returns a Markdown analysis.
	CheckAssignment(ctx context.Context, in CheckAssignmentInput) (string, error)

	// SolveQuestion answers a multiple-choice question from one or more
	// screenshots. Non-image files are skipped.
	SolveQuestion(ctx context.Context, files []NamedFile) (string, error)
}

// Generator is the narrow slice of the gemini client this service needs.
type Generator interface {
	GenerateContent(ctx context.Context, model string, parts []gemini.Part) (string, error)
}

// graderService is a concrete implementation of GraderService.
type graderService struct {
	gen         Generator
	model       string
	visionModel string
	tracer      trace.Tracer
}

// NewGraderService constructs a GraderService that sends prompts through gen
// using the configured model names.
func NewGraderService(gen Generator, cfg config.GeminiConfig) GraderService {
	return &graderService{
		gen:         gen,
		model:       cfg.Model,
		visionModel: cfg.VisionModel,
		tracer:      otel.Tracer("assignment-checker/service"),
	}
}

func (s *graderService) CheckAssignment(ctx context.Context, in CheckAssignmentInput) (string, error) {
	ctx, span := s.tracer.Start(ctx, "grader.check_assignment")
	defer span.End()

	instructions := collectText(in.InstructionsText, in.InstructionsFiles)
	if strings.TrimSpace(instructions) == "" {
		return "", ErrNoInstructions
	}
	submission := collectText(in.SubmissionText, in.SubmissionFiles)
	if strings.TrimSpace(submission) == "" {
		return "", ErrNoSubmission
	}

	wordCount := len(strings.Fields(submission))
	span.SetAttributes(attribute.Int("submission.word_count", wordCount))

	prompt := buildCheckPrompt(instructions, submission, wordCount)
	return s.gen.GenerateContent(ctx, s.model, []gemini.Part{gemini.TextPart(prompt)})
}

func (s *graderService) SolveQuestion(ctx context.Context, files []NamedFile) (string, error) {
	ctx, span := s.tracer.Start(ctx, "grader.solve_question",
		trace.WithAttributes(attribute.Int("files.count", len(files))))
	defer span.End()

	parts := []gemini.Part{gemini.TextPart(solveQuestionPrompt)}
	for _, f := range files {
		if !strings.HasPrefix(f.ContentType, "image/") {
			continue
		}
		format, err := sniffImage(f.Data)
		if err != nil {
			return "", fmt.Errorf("%w: %s", ErrInvalidImage, f.Name)
		}
		parts = append(parts, gemini.ImagePart("image/"+format, f.Data))
	}
	if len(parts) <= 1 {
		return "", ErrNoImages
	}

	answer, err := s.gen.GenerateContent(ctx, s.visionModel, parts)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(answer), nil
}

// sniffImage verifies the bytes decode as a known image format and reports it.
func sniffImage(data []byte) (string, error) {
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	return format, nil
}

// collectText assembles one side of the grading input from free text plus
// extracted file text. A file whose content cannot be read contributes a
// bracketed placeholder line instead of failing the whole request.
func collectText(text string, files []NamedFile) string {
	var b strings.Builder
	if text != "" {
		b.WriteString(text)
		b.WriteString("\n\n")
	}
	for _, f := range files {
		extracted, err := extract.Text(f.Name, f.Data)
		if err != nil {
			fmt.Fprintf(&b, "[Error: Could not read content from file '%s']\n", f.Name)
			continue
		}
		b.WriteString(extracted)
	}
	return b.String()
}

func buildCheckPrompt(instructions, submission string, wordCount int) string {
	return fmt.Sprintf(`You are an academic assistant. You will be given instructions for a college homework assignment and a copy of the completed assignment.
Provide a detailed analysis formatted in Markdown. Your response MUST include the following sections with these exact headings:

### Requirements Analysis
- Use a bulleted list to assess whether each requirement from the instructions was met, partially met, or unmet.

### AI Sound Check
- Provide a brief analysis of the writing style. Does it sound like it was written by a student or does it have hallmarks of AI generation? Explain your reasoning.

### Suggestions for Improvement
- Offer a bulleted list of actionable suggestions for improving the assignment. Focus on areas like deeper analysis, providing more concrete examples, or refining the structure.

---
**ADDITIONAL CONTEXT:**
* **Accurate Word Count:** %d words. Please use this pre-calculated word count for your analysis, especially when checking for length requirements.
---

ASSIGNMENT INSTRUCTIONS:
%s

---
COMPLETED ASSIGNMENT SUBMISSION:
%s`, wordCount, instructions, submission)
}
