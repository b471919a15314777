package common

import (
	"fmt"
	"io"
	"os"

	"resumatch/internal/errors"
	"resumatch/internal/formatters"
)

// CommandConfig holds the output settings shared by file-based commands.
type CommandConfig struct {
	OutputFile   string
	OutputFormat string
	MaxFileSize  int64

	// Stdout receives output when OutputFile is empty; nil means os.Stdout
	Stdout io.Writer
}

func (c CommandConfig) stdout() io.Writer {
	if c.Stdout == nil {
		return os.Stdout
	}
	return c.Stdout
}

// OutputHandler renders a result and delivers it to a file or stdout.
type OutputHandler struct {
	files    *FileProcessor
	registry *formatters.FormatterRegistry
	logger   *errors.Logger
}

// NewOutputHandler creates an output handler backed by the global formatter registry.
func NewOutputHandler(logger *errors.Logger) *OutputHandler {
	return &OutputHandler{
		files:    NewFileProcessor(logger, 0),
		registry: formatters.GlobalRegistry,
		logger:   logger,
	}
}

// HandleOutput renders data in config.OutputFormat and writes it out.
func (oh *OutputHandler) HandleOutput(data any, config CommandConfig) error {
	output, err := oh.registry.Format(data, config.OutputFormat)
	if err != nil {
		return errors.NewValidationError(errors.ErrCodeInvalidFormat,
			fmt.Sprintf("Failed to format output as %s", config.OutputFormat), err)
	}

	if config.OutputFile == "" {
		if _, err := io.WriteString(config.stdout(), output); err != nil {
			return errors.NewIOError("FILE_WRITE_FAILED", "Cannot write output", err)
		}
		return nil
	}

	if err := oh.files.WriteFile(config.OutputFile, output); err != nil {
		return err
	}
	oh.logger.Info("Output written successfully",
		"file", config.OutputFile, "format", config.OutputFormat)
	return nil
}
