// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package pdf provides an extract.Source backed by the poppler utilities
// (pdfinfo, pdftotext, pdftoppm) and an extract.Recognizer backed by
// tesseract. All binaries are invoked as external commands; install them
// with `apt install poppler-utils tesseract-ocr` or
// `brew install poppler tesseract`.
package pdf

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/poiesic/libram/extract"
)

// render resolution for OCR input
const imageDPI = 200

// ErrMalformedDocument indicates that pdfinfo could not report a page count.
var ErrMalformedDocument = errors.New("malformed pdf document")

// Document implements extract.Source for a PDF file on disk.
type Document struct {
	path   string
	pages  int
	runner Runner
}

var _ extract.Source = (*Document)(nil)

// Option configures a Document.
type Option func(*Document) error

// WithRunner substitutes the command runner. Used in tests.
func WithRunner(r Runner) Option {
	return func(d *Document) error {
		d.runner = r
		return nil
	}
}

// Open inspects the PDF at path with pdfinfo and returns a page source
// for it.
func Open(ctx context.Context, path string, opts ...Option) (*Document, error) {
	d := &Document{
		path:   path,
		runner: execRunner{},
	}
	for _, opt := range opts {
		if err := opt(d); err != nil {
			return nil, err
		}
	}

	out, err := d.runner.Run(ctx, nil, "pdfinfo", path)
	if err != nil {
		return nil, err
	}

	pages, err := parsePageCount(string(out))
	if err != nil {
		return nil, err
	}
	d.pages = pages

	return d, nil
}

// PageCount returns the number of pages reported by pdfinfo.
func (d *Document) PageCount() int {
	return d.pages
}

// PageText extracts the embedded text of a page with pdftotext.
func (d *Document) PageText(ctx context.Context, page int) (string, error) {
	if page < 0 || page >= d.pages {
		return "", extract.ErrPageOutOfRange
	}

	n := strconv.Itoa(page + 1)
	out, err := d.runner.Run(ctx, nil, "pdftotext",
		"-f", n, "-l", n, "-layout", d.path, "-")
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// PageImage renders a page to a PNG with pdftoppm.
func (d *Document) PageImage(ctx context.Context, page int) ([]byte, error) {
	if page < 0 || page >= d.pages {
		return nil, extract.ErrPageOutOfRange
	}

	n := strconv.Itoa(page + 1)
	return d.runner.Run(ctx, nil, "pdftoppm",
		"-f", n, "-l", n, "-r", strconv.Itoa(imageDPI), "-png", d.path)
}

// parsePageCount extracts the "Pages:" field from pdfinfo output.
func parsePageCount(info string) (int, error) {
	for _, line := range strings.Split(info, "\n") {
		if !strings.HasPrefix(line, "Pages:") {
			continue
		}
		value := strings.TrimSpace(strings.TrimPrefix(line, "Pages:"))
		pages, err := strconv.Atoi(value)
		if err != nil {
			return 0, fmt.Errorf("%w: bad page count %q", ErrMalformedDocument, value)
		}
		return pages, nil
	}
	return 0, ErrMalformedDocument
}

// TesseractRecognizer implements extract.Recognizer by piping images
// through the tesseract CLI.
type TesseractRecognizer struct {
	language string
	runner   Runner
}

var _ extract.Recognizer = (*TesseractRecognizer)(nil)

// NewTesseractRecognizer creates a recognizer for the given language
// (e.g. "eng"). An empty language uses tesseract's default.
func NewTesseractRecognizer(language string) *TesseractRecognizer {
	return &TesseractRecognizer{
		language: language,
		runner:   execRunner{},
	}
}

// NewTesseractRecognizerWithRunner creates a recognizer with a custom
// command runner. Used in tests.
func NewTesseractRecognizerWithRunner(language string, runner Runner) *TesseractRecognizer {
	return &TesseractRecognizer{
		language: language,
		runner:   runner,
	}
}

// Recognize runs OCR over the image and returns the extracted text.
func (r *TesseractRecognizer) Recognize(ctx context.Context, image []byte) (string, error) {
	args := []string{"stdin", "stdout"}
	if r.language != "" {
		args = append(args, "-l", r.language)
	}

	out, err := r.runner.Run(ctx, image, "tesseract", args...)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
