package common

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"unicode/utf8"

	"resumatch/internal/errors"
	"resumatch/internal/utils"
)

// FileProcessor reads input documents as plain text and writes reports.
type FileProcessor struct {
	logger      *errors.Logger
	maxFileSize int64
}

// NewFileProcessor creates a new file processor instance. Input files larger
// than maxFileSize bytes are rejected; zero disables the limit.
func NewFileProcessor(logger *errors.Logger, maxFileSize int64) *FileProcessor {
	return &FileProcessor{logger: logger, maxFileSize: maxFileSize}
}

// ReadFile returns the text of filename. HTML documents are reduced to their
// visible text and PDF documents to their text layer. Files of unknown kind
// are read as text unless they hold binary data.
func (fp *FileProcessor) ReadFile(filename string) (string, error) {
	file, err := os.Open(filename)
	if err != nil {
		return "", openError(filename, err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			fp.logger.Warn("Failed to close file", "filename", filename, "error", err)
		}
	}()

	switch kind := utils.KindOf(filename); kind {
	case utils.KindHTML:
		text, err := ExtractHTMLText(file)
		if err != nil {
			return "", errors.NewIOError(errors.ErrCodeFileNotReadable,
				fmt.Sprintf("Failed to extract text from HTML file: %s", filename), err)
		}
		return text, nil
	case utils.KindPDF:
		return fp.readPDF(file, filename)
	default:
		content, err := io.ReadAll(file)
		if err != nil {
			return "", errors.NewIOError(errors.ErrCodeFileNotReadable,
				fmt.Sprintf("Failed to read file content: %s", filename), err)
		}
		if kind == utils.KindUnknown && isBinary(content) {
			return "", errors.NewIOError(errors.ErrCodeFileNotReadable,
				fmt.Sprintf("Unsupported binary file: %s", filename), nil)
		}
		return string(content), nil
	}
}

func (fp *FileProcessor) readPDF(file *os.File, filename string) (string, error) {
	info, err := file.Stat()
	if err != nil {
		return "", errors.NewIOError(errors.ErrCodeFileNotReadable,
			fmt.Sprintf("Failed to open or read PDF file: %s", filename), err)
	}
	text, err := ExtractPDFText(file, info.Size())
	if err != nil {
		return "", errors.NewIOError(errors.ErrCodeFileNotReadable,
			fmt.Sprintf("Failed to open or read PDF file: %s", filename), err)
	}
	fp.logger.Debug("Extracted PDF text", "filename", filename, "chars", len(text))
	return text, nil
}

// isBinary reports whether content looks like something other than text.
func isBinary(content []byte) bool {
	return bytes.IndexByte(content, 0) >= 0 || !utf8.Valid(content)
}

// ReadDocuments checks and reads every file, in order.
func (fp *FileProcessor) ReadDocuments(filenames ...string) ([]string, error) {
	contents := make([]string, len(filenames))
	for i, filename := range filenames {
		if _, err := utils.CheckInputFile(filename, fp.maxFileSize); err != nil {
			return nil, inputError(filename, err)
		}
		if kind := utils.KindOf(filename); kind == utils.KindUnknown {
			fp.logger.Warn("Unrecognized file extension, reading as text", "filename", filename)
		}

		content, err := fp.ReadFile(filename)
		if err != nil {
			return nil, err
		}
		contents[i] = content
	}
	return contents, nil
}

// PrepareOutput makes sure filename can be created. Empty means stdout.
func (fp *FileProcessor) PrepareOutput(filename string) error {
	if filename == "" {
		return nil
	}
	if err := utils.EnsureParentDir(filename); err != nil {
		return errors.NewIOError("INVALID_OUTPUT_FILE",
			fmt.Sprintf("Invalid output file: %s", filename), err)
	}
	return nil
}

// WriteFile writes content to filename, creating its directory.
func (fp *FileProcessor) WriteFile(filename, content string) error {
	if err := fp.PrepareOutput(filename); err != nil {
		return err
	}
	if err := os.WriteFile(filename, []byte(content), 0600); err != nil {
		return errors.NewIOError("FILE_WRITE_FAILED",
			fmt.Sprintf("Cannot write file: %s", filename), err)
	}
	return nil
}

func inputError(filename string, err error) error {
	switch {
	case stderrors.Is(err, utils.ErrFileTooLarge):
		return errors.NewValidationError("FILE_TOO_LARGE",
			fmt.Sprintf("Invalid file %s", filename), err)
	case stderrors.Is(err, os.ErrNotExist):
		return errors.NewIOError(errors.ErrCodeFileNotFound,
			fmt.Sprintf("File not found: %s", filename), err)
	default:
		return errors.NewIOError("INVALID_INPUT_FILE",
			fmt.Sprintf("Invalid file %s", filename), err)
	}
}

func openError(filename string, err error) error {
	if stderrors.Is(err, os.ErrNotExist) {
		return errors.NewIOError(errors.ErrCodeFileNotFound,
			fmt.Sprintf("File not found: %s", filename), err)
	}
	return errors.NewIOError(errors.ErrCodeFileNotReadable,
		fmt.Sprintf("Cannot read file: %s", filename), err)
}
