package office

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"io"
	"strings"

	"github.com/lai-labs/sales-assistant/internal/core/domain"
)

// documentXML mirrors the paragraph/run structure of word/document.xml.
type documentXML struct {
	Body struct {
		Paragraphs []paragraph `xml:"p"`
	} `xml:"body"`
}

type paragraph struct {
	Runs []run `xml:"r"`
}

type run struct {
	Text []textElement `xml:"t"`
}

type textElement struct {
	Content string `xml:",chardata"`
}

func extractDOCX(raw []byte) (string, error) {
	archive, err := zip.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return "", domain.WrapError(domain.ErrCorruptFile, "parse docx", err)
	}

	for _, file := range archive.File {
		if file.Name != "word/document.xml" {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return "", domain.WrapError(domain.ErrCorruptFile, "parse docx", err)
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return "", domain.WrapError(domain.ErrCorruptFile, "parse docx", err)
		}
		return parseDocumentXML(content)
	}
	return "", domain.WrapError(domain.ErrCorruptFile, "parse docx", errors.New("word/document.xml missing"))
}

func parseDocumentXML(content []byte) (string, error) {
	var doc documentXML
	if err := xml.Unmarshal(content, &doc); err != nil {
		return "", domain.WrapError(domain.ErrCorruptFile, "parse docx xml", err)
	}

	var out strings.Builder
	for i, para := range doc.Body.Paragraphs {
		if i > 0 {
			out.WriteString("\n")
		}
		for _, r := range para.Runs {
			for _, t := range r.Text {
				out.WriteString(t.Content)
			}
		}
	}
	return out.String(), nil
}
