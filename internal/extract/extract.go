// Package extract turns uploaded documents into plain text for scoring.
package extract

import (
	"fmt"
	"mime"
	"os"
	"strings"

	"atsmatch/internal/errors"
	"atsmatch/internal/utils"
)

// Supported content types
const (
	ContentTypePDF      = "application/pdf"
	ContentTypeDOCX     = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	ContentTypeText     = "text/plain"
	ContentTypeMarkdown = "text/markdown"
	ContentTypeHTML     = "text/html"
)

var extensionTypes = map[string]string{
	".pdf":      ContentTypePDF,
	".docx":     ContentTypeDOCX,
	".txt":      ContentTypeText,
	".text":     ContentTypeText,
	".md":       ContentTypeMarkdown,
	".markdown": ContentTypeMarkdown,
	".html":     ContentTypeHTML,
	".htm":      ContentTypeHTML,
}

type extractor func(data []byte) (string, error)

var extractors = map[string]extractor{
	ContentTypePDF:      extractPDF,
	ContentTypeDOCX:     extractDOCX,
	ContentTypeText:     extractText,
	ContentTypeMarkdown: extractText,
	ContentTypeHTML:     extractHTML,
}

// ContentTypeForFile maps a file name to a supported content type by extension
func ContentTypeForFile(filename string) (string, bool) {
	ct, ok := extensionTypes[utils.GetFileExtension(filename)]
	return ct, ok
}

// NormalizeContentType drops parameters such as charset and lowercases the type
func NormalizeContentType(contentType string) string {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(contentType))
	}
	return mediaType
}

// Supported reports whether contentType can be extracted
func Supported(contentType string) bool {
	_, ok := extractors[NormalizeContentType(contentType)]
	return ok
}

// Extract returns the trimmed plain text of data
func Extract(data []byte, contentType string) (string, error) {
	ct := NormalizeContentType(contentType)
	fn, ok := extractors[ct]
	if !ok {
		return "", errors.NewValidationError(errors.ErrCodeUnsupportedType, "Unsupported file type", nil).
			WithContext("content_type", ct)
	}

	text, err := fn(data)
	if err != nil {
		return "", errors.NewExtractionError(errors.ErrCodeExtractionFailed, "Failed to parse file", err).
			WithContext("content_type", ct)
	}
	return strings.TrimSpace(text), nil
}

// File reads and extracts a file, choosing the extractor by extension.
// maxSize <= 0 disables the size check.
func File(filename string, maxSize int64) (string, error) {
	ct, ok := ContentTypeForFile(filename)
	if !ok {
		return "", errors.NewValidationError(errors.ErrCodeUnsupportedType,
			fmt.Sprintf("Unsupported file type: %s", filename), nil)
	}

	info, err := os.Stat(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return "", errors.NewIOError(errors.ErrCodeFileNotFound,
				fmt.Sprintf("File not found: %s", filename), err)
		}
		return "", errors.NewIOError(errors.ErrCodeFileNotReadable,
			fmt.Sprintf("Cannot read file: %s", filename), err)
	}
	if maxSize > 0 && info.Size() > maxSize {
		return "", errors.NewValidationError(errors.ErrCodeFileTooLarge,
			fmt.Sprintf("File %s is %s, limit is %s", filename,
				utils.FormatFileSize(info.Size()), utils.FormatFileSize(maxSize)), nil)
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		return "", errors.NewIOError(errors.ErrCodeFileNotReadable,
			fmt.Sprintf("Cannot read file: %s", filename), err)
	}
	return Extract(data, ct)
}

func extractText(data []byte) (string, error) {
	return strings.ReplaceAll(string(data), "\r\n", "\n"), nil
}
