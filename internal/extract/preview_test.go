package extract

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/googleapis/gax-go/v2"
	"github.com/stretchr/testify/require"

	visionpb "cloud.google.com/go/vision/v2/apiv1/visionpb"
)

type fakeAnnotator struct {
	pageTexts []string
	err       error
	calls     int
	gotMime   string
	gotData   []byte
}

func (f *fakeAnnotator) BatchAnnotateFiles(_ context.Context, req *visionpb.BatchAnnotateFilesRequest, _ ...gax.CallOption) (*visionpb.BatchAnnotateFilesResponse, error) {
	f.calls++
	if len(req.Requests) > 0 {
		f.gotMime = req.Requests[0].GetInputConfig().GetMimeType()
		f.gotData = req.Requests[0].GetInputConfig().GetContent()
	}
	if f.err != nil {
		return nil, f.err
	}
	pages := make([]*visionpb.AnnotateImageResponse, 0, len(f.pageTexts))
	for _, text := range f.pageTexts {
		pages = append(pages, &visionpb.AnnotateImageResponse{
			FullTextAnnotation: &visionpb.TextAnnotation{Text: text},
		})
	}
	return &visionpb.BatchAnnotateFilesResponse{
		Responses: []*visionpb.AnnotateFileResponse{{Responses: pages}},
	}, nil
}

func TestPreview_EmptyInput(t *testing.T) {
	e := New(&fakeAnnotator{}, nil)
	require.Equal(t, "", e.Preview(context.Background(), nil, 800))
	require.Equal(t, "", e.Preview(context.Background(), []byte("data"), 0))
}

func TestPreview_UnreadableDocumentDegradesToOCR(t *testing.T) {
	ocr := &fakeAnnotator{pageTexts: []string{"scanned page one ", "scanned page two"}}
	e := New(ocr, nil)

	// Not a parseable PDF, so the structured pass yields nothing and the
	// OCR fallback runs over the raw bytes.
	got := e.Preview(context.Background(), []byte("not a pdf at all"), 800)
	require.Equal(t, "scanned page one scanned page two", got)
	require.Equal(t, 1, ocr.calls)
	require.Equal(t, "application/pdf", ocr.gotMime)
	require.Equal(t, []byte("not a pdf at all"), ocr.gotData)
}

func TestPreview_TruncatesToBudget(t *testing.T) {
	ocr := &fakeAnnotator{pageTexts: []string{strings.Repeat("x", 2000)}}
	e := New(ocr, nil)

	got := e.Preview(context.Background(), []byte("junk"), 800)
	require.Len(t, got, 800)
}

func TestPreview_OCRStopsAtBudget(t *testing.T) {
	ocr := &fakeAnnotator{pageTexts: []string{
		strings.Repeat("a", 500),
		strings.Repeat("b", 500),
		strings.Repeat("c", 500),
	}}
	e := New(ocr, nil)

	got := e.Preview(context.Background(), []byte("junk"), 800)
	require.Len(t, got, 800)
	// The third page was never needed.
	require.NotContains(t, got, "c")
}

func TestPreview_OCRFailureYieldsEmpty(t *testing.T) {
	ocr := &fakeAnnotator{err: errors.New("vision unavailable")}
	e := New(ocr, nil)

	require.Equal(t, "", e.Preview(context.Background(), []byte("junk"), 800))
}

func TestPreview_NoOCRClientYieldsEmpty(t *testing.T) {
	e := New(nil, nil)
	require.Equal(t, "", e.Preview(context.Background(), []byte("junk"), 800))
}
