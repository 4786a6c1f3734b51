// Package document turns uploaded files into the PDF payload sent for analysis.
package document

import (
	"bytes"
	"errors"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-pdf/fpdf"

	"github.com/growly/resume-bot/internal/types"
)

// DefaultMaxBytes matches the Bot API download limit.
const DefaultMaxBytes int64 = 20 << 20

// imageTypes maps accepted image MIME types to fpdf image type names.
var imageTypes = map[string]string{
	"image/jpeg": "JPG",
	"image/jpg":  "JPG",
	"image/png":  "PNG",
	"image/gif":  "GIF",
}

// DetectMIMEType returns the declared type when present, otherwise sniffs data.
// Parameters such as "; charset=" are dropped.
func DetectMIMEType(declared string, data []byte) string {
	mimeType := strings.TrimSpace(declared)
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = mimetype.Detect(data).String()
	}
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = mimeType[:i]
	}
	return strings.ToLower(strings.TrimSpace(mimeType))
}

// Normalize validates an upload and returns it as PDF bytes. PDFs pass through
// unchanged; JPEG, PNG and GIF images become a single A4 page.
func Normalize(declaredMIME string, data []byte, maxBytes int64) ([]byte, error) {
	if len(data) == 0 {
		return nil, errors.New("document is empty")
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	if size := int64(len(data)); size > maxBytes {
		return nil, &TooLargeError{Size: size, Limit: maxBytes}
	}

	mimeType := DetectMIMEType(declaredMIME, data)
	if mimeType == types.MIMETypePDF {
		return data, nil
	}

	imageType, ok := imageTypes[mimeType]
	if !ok {
		return nil, &UnsupportedTypeError{MIMEType: mimeType}
	}

	out, err := imageToPDF(data, imageType)
	if err != nil {
		return nil, &ConversionError{MIMEType: mimeType, Cause: err}
	}
	return out, nil
}

// IsSupported reports whether Normalize accepts the given MIME type.
func IsSupported(mimeType string) bool {
	if mimeType == types.MIMETypePDF {
		return true
	}
	_, ok := imageTypes[mimeType]
	return ok
}

func imageToPDF(data []byte, imageType string) ([]byte, error) {
	const name = "resume"
	const margin = 10.0

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(margin, margin, margin)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()

	opts := fpdf.ImageOptions{ImageType: imageType, ReadDpi: true}
	info := pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(data))
	if !pdf.Ok() {
		return nil, pdf.Error()
	}

	// Scale to fit inside the margins, keeping the aspect ratio.
	pageW, pageH := pdf.GetPageSize()
	maxW, maxH := pageW-2*margin, pageH-2*margin
	w, h := info.Width(), info.Height()
	if w <= 0 || h <= 0 {
		return nil, errors.New("image has no dimensions")
	}
	scale := min(maxW/w, maxH/h)
	w, h = w*scale, h*scale

	pdf.ImageOptions(name, (pageW-w)/2, margin, w, h, false, opts, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
