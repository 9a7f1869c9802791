package knowledge

import (
	"fmt"

	"github.com/ledongthuc/pdf"
)

// pdfPages returns the plain text of each page of the PDF at path, in page
// order. Pages without a content stream come back empty.
func pdfPages(path string) (pages []string, err error) {
	file, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf %s: %w", path, err)
	}
	defer file.Close()
	// The pdf package panics on some malformed cross-reference tables.
	defer func() {
		if r := recover(); r != nil {
			pages = nil
			err = fmt.Errorf("read pdf %s: %v", path, r)
		}
	}()

	total := reader.NumPage()
	pages = make([]string, 0, total)
	for i := 1; i <= total; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("extract text from %s page %d: %w", path, i, err)
		}
		pages = append(pages, text)
	}
	return pages, nil
}
