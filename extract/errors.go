package extract

import "errors"

var (
	// ErrNoExtractableText indicates that the document yields no usable
	// embedded text and no recognizer is available to OCR it.
	ErrNoExtractableText = errors.New("no extractable text")

	// ErrEmptyDocument indicates that the document has no pages.
	ErrEmptyDocument = errors.New("document has no pages")

	// ErrPageOutOfRange indicates a page index outside the document.
	ErrPageOutOfRange = errors.New("page out of range")
)
