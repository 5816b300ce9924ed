// Package extract provides page-level text extraction from documents.
//
// A Source exposes a document as an ordered sequence of pages that can
// yield embedded text or a rendered image. The Selector samples a few
// pages to decide, once per document, whether embedded text is usable
// or whether every page must go through OCR via a Recognizer. Pages are
// then streamed lazily through ForEachPage so large documents never
// need to be held in memory at once.
package extract
