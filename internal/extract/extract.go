// Package extract pulls plain text out of uploaded files so it can be fed to
// the language model. Extraction is best-effort and content-oriented: it does
// not parse document structure beyond what locating the text requires.
package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ErrNoDocumentPart is returned for a zip container without the
// word-processing document part.
var ErrNoDocumentPart = errors.New("word/document.xml not found in archive")

// Text extracts readable text from the file. PDF and word-processing
// containers get format-aware extraction; anything else is decoded as UTF-8
// with invalid bytes dropped. Suffix matching is case-sensitive, consistent
// with the container detection policy.
func Text(filename string, data []byte) (string, error) {
	switch {
	case strings.HasSuffix(filename, ".pdf"):
		return pdfText(data)
	case strings.HasSuffix(filename, ".docx"):
		return wordText(data)
	default:
		return strings.ToValidUTF8(string(data), ""), nil
	}
}

func pdfText(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}

	var b strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			// Pages without a text layer (scans, images) are skipped.
			continue
		}
		b.WriteString(text)
	}
	return b.String(), nil
}

// wordText walks word/document.xml and joins paragraph texts with newlines.
func wordText(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open container: %w", err)
	}

	var content []byte
	for _, f := range zr.File {
		if f.Name != "word/document.xml" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return "", fmt.Errorf("open document part: %w", err)
		}
		content, err = io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return "", fmt.Errorf("read document part: %w", err)
		}
		break
	}
	if content == nil {
		return "", ErrNoDocumentPart
	}

	dec := xml.NewDecoder(bytes.NewReader(content))
	var (
		paragraphs []string
		current    strings.Builder
		inText     bool
	)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("parse document part: %w", err)
		}
		switch el := tok.(type) {
		case xml.StartElement:
			if el.Name.Local == "t" {
				inText = true
			}
		case xml.EndElement:
			switch el.Name.Local {
			case "t":
				inText = false
			case "p":
				paragraphs = append(paragraphs, current.String())
				current.Reset()
			}
		case xml.CharData:
			if inText {
				current.Write(el)
			}
		}
	}
	return strings.Join(paragraphs, "\n"), nil
}
