package office

import (
	"bytes"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/lai-labs/sales-assistant/internal/core/domain"
)

func extractPDF(raw []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return "", domain.WrapError(domain.ErrCorruptFile, "parse pdf", err)
	}

	var out strings.Builder
	fonts := make(map[string]*pdf.Font)
	for pageNum := 1; pageNum <= reader.NumPage(); pageNum++ {
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(fonts)
		if err != nil {
			// Skip pages the parser cannot decode; the rest of the
			// document is still usable.
			continue
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		out.WriteString(text)
		out.WriteString("\n")
	}
	return out.String(), nil
}
