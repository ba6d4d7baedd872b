// Package extract derives bounded plain-text previews from raw document
// bytes. Extraction is always best effort: the routing cycle must never
// fail because an attachment was unreadable, so every failure path degrades
// to whatever text has been accumulated, possibly none.
package extract

import (
	"bytes"
	"context"
	"log/slog"
	"strings"

	"github.com/googleapis/gax-go/v2"
	"github.com/ledongthuc/pdf"

	visionpb "cloud.google.com/go/vision/v2/apiv1/visionpb"
)

// fileAnnotator is the minimal Cloud Vision surface needed for the OCR
// fallback. *vision.ImageAnnotatorClient satisfies it.
type fileAnnotator interface {
	BatchAnnotateFiles(ctx context.Context, req *visionpb.BatchAnnotateFilesRequest, opts ...gax.CallOption) (*visionpb.BatchAnnotateFilesResponse, error)
}

// Extractor produces text previews from PDF bytes, degrading from
// structured parsing to optical recognition when the document carries no
// extractable text (scanned documents).
type Extractor struct {
	ocr    fileAnnotator
	logger *slog.Logger
}

// New creates an Extractor. ocr may be nil, which disables the OCR
// fallback; scanned documents then yield an empty preview.
func New(ocr fileAnnotator, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{ocr: ocr, logger: logger}
}

// Preview extracts up to maxChars of text from the document. Structured
// page-by-page extraction runs first; if it yields nothing but whitespace,
// each page is OCRed instead. Never returns an error.
func (e *Extractor) Preview(ctx context.Context, data []byte, maxChars int) string {
	if len(data) == 0 || maxChars <= 0 {
		return ""
	}

	text := structuredText(data, maxChars)
	if strings.TrimSpace(text) == "" && e.ocr != nil {
		text = e.ocrText(ctx, data, maxChars)
	}
	if len(text) > maxChars {
		text = text[:maxChars]
	}
	return text
}

// structuredText accumulates per-page plain text until the budget is
// reached. The pdf reader panics on some malformed files, so the whole
// pass is guarded.
func structuredText(data []byte, maxChars int) (text string) {
	defer func() {
		if r := recover(); r != nil {
			text = ""
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return ""
	}

	var sb strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		sb.WriteString(pageText)
		if sb.Len() >= maxChars {
			break
		}
	}
	return sb.String()
}

// ocrText runs DOCUMENT_TEXT_DETECTION over the PDF, accumulating page
// text until the budget is reached. Sync file annotation covers the first
// five pages, which comfortably fills the preview budget for scanned
// documents.
func (e *Extractor) ocrText(ctx context.Context, data []byte, maxChars int) string {
	resp, err := e.ocr.BatchAnnotateFiles(ctx, &visionpb.BatchAnnotateFilesRequest{
		Requests: []*visionpb.AnnotateFileRequest{{
			InputConfig: &visionpb.InputConfig{
				Content:  data,
				MimeType: "application/pdf",
			},
			Features: []*visionpb.Feature{{
				Type: visionpb.Feature_DOCUMENT_TEXT_DETECTION,
			}},
		}},
	})
	if err != nil {
		e.logger.Warn("ocr fallback failed", "err", err)
		return ""
	}
	if len(resp.GetResponses()) == 0 {
		return ""
	}

	var sb strings.Builder
	for _, pr := range resp.GetResponses()[0].GetResponses() {
		sb.WriteString(pr.GetFullTextAnnotation().GetText())
		if sb.Len() >= maxChars {
			break
		}
	}
	return sb.String()
}
