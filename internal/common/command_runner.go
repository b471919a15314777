package common

import (
	"context"
	"fmt"

	"resumatch/internal/errors"
)

// CreateInputFunc defines how to create the operation input from file contents.
type CreateInputFunc[Input any] func(contents []string) (Input, error)

// LogDetailsFunc defines how to log the start of an operation.
type LogDetailsFunc[Input any] func(input Input, cfg CommandConfig)

// OperationFunc is a generic function signature for any operation run by a command.
type OperationFunc[Input, Output any] func(context.Context, Input) (Output, error)

// RunCommand encapsulates the common logic for file-based CLI commands:
// read and validate the files, build the input, run the operation and write
// the formatted result.
func RunCommand[Input, Output any](
	ctx context.Context,
	logger *errors.Logger,
	cmdConfig CommandConfig,
	args []string,
	createInput CreateInputFunc[Input],
	operation OperationFunc[Input, Output],
	logDetails LogDetailsFunc[Input],
) error {
	files := NewFileProcessor(logger, cmdConfig.MaxFileSize)

	contents, err := files.ReadDocuments(args...)
	if err != nil {
		return err
	}
	// Fail on an unusable output path before doing any work.
	if err := files.PrepareOutput(cmdConfig.OutputFile); err != nil {
		return err
	}

	input, err := createInput(contents)
	if err != nil {
		return fmt.Errorf("failed to create input from file contents: %w", err)
	}

	if logDetails != nil {
		logDetails(input, cmdConfig)
	}

	result, err := operation(ctx, input)
	if err != nil {
		return err
	}

	return NewOutputHandler(logger).HandleOutput(result, cmdConfig)
}
