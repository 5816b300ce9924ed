package extract

import "context"

// Source exposes a document as an ordered sequence of pages.
// Page numbers are zero-based. Implementations must be safe for
// sequential use; concurrent page access is not required.
type Source interface {
	// PageCount returns the number of pages in the document.
	PageCount() int

	// PageText returns the embedded text of a page.
	PageText(ctx context.Context, page int) (string, error)

	// PageImage renders a page to an image suitable for OCR.
	PageImage(ctx context.Context, page int) ([]byte, error)
}

// Recognizer converts a page image into text.
type Recognizer interface {
	// Recognize runs OCR over the image and returns the extracted text.
	Recognize(ctx context.Context, image []byte) (string, error)
}
