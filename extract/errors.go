package extract

import "errors"

var (
	// ErrEmptyInput indicates the uploaded file contained no bytes.
	ErrEmptyInput = errors.New("empty input")

	// ErrPDFParse indicates the bytes could not be parsed as a PDF.
	ErrPDFParse = errors.New("failed to parse PDF")

	// ErrEMLParse indicates the bytes could not be parsed as an EML message.
	ErrEMLParse = errors.New("failed to parse EML")

	// ErrNoText indicates parsing succeeded but no readable text was found.
	ErrNoText = errors.New("no readable text content found")
)
