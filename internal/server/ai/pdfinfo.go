package ai

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

var disableConfigDir sync.Once

// PageCount parses pdf and returns its number of pages. Parser panics on
// malformed input are returned as errors.
func PageCount(pdf []byte) (n int, err error) {
	// The function sandbox has a read-only home directory.
	disableConfigDir.Do(api.DisableConfigDir)

	defer func() {
		if p := recover(); p != nil {
			n, err = 0, fmt.Errorf("page count: %v", p)
		}
	}()

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	n, err = api.PageCount(bytes.NewReader(pdf), conf)
	if err != nil {
		return 0, fmt.Errorf("page count: %w", err)
	}
	return n, nil
}

// LooksLikePDF reports whether b starts with the PDF magic bytes.
func LooksLikePDF(b []byte) bool {
	return bytes.HasPrefix(b, []byte("%PDF-"))
}
