package intake

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"rsc.io/pdf"
)

// ReadSyllabus returns the text of a syllabus file. PDFs are reduced to the
// text runs of every page; anything else is read as UTF-8 text.
func ReadSyllabus(path string) (string, error) {
	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		return readPDF(path)
	}
	data, err := os.ReadFile(path) // #nosec G304
	if err != nil {
		return "", fmt.Errorf("failed to read syllabus: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

func readPDF(path string) (string, error) {
	doc, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}

	var pages []string
	for i := 1; i <= doc.NumPage(); i++ {
		p := doc.Page(i)
		if p.V.IsNull() {
			continue
		}
		var parts []string
		for _, text := range p.Content().Text {
			if strings.TrimSpace(text.S) == "" {
				continue
			}
			parts = append(parts, text.S)
		}
		if len(parts) > 0 {
			pages = append(pages, strings.Join(parts, " "))
		}
	}
	return strings.TrimSpace(strings.Join(pages, "\n")), nil
}

// Resolve fills Syllabus from SyllabusFile when only the file is given, then
// normalizes the request.
func (p Policy) Resolve(req *Request) error {
	if req.Syllabus == "" && req.SyllabusFile != "" {
		if err := p.CheckSyllabusFile(req.SyllabusFile); err != nil {
			return err
		}
		text, err := ReadSyllabus(req.SyllabusFile)
		if err != nil {
			return err
		}
		req.Syllabus = text
	}
	req.Normalize()
	return nil
}
