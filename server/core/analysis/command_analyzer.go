package analysis

import (
	"bufio"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/nvr-labs/crashwatch/server/core/ccc/logging"
)

// CommandAnalyzer runs an external detector process per video. The detector
// is expected to write one line per progress report to stdout:
//
//	PROGRESS <percent> <accidents>
//
// and a final line when done:
//
//	RESULT <accidents>
//
// Any other output is logged and ignored.
type CommandAnalyzer struct {
	logger  logging.Logger
	command string
	args    []string
}

// NewCommandAnalyzer creates an analyzer that invokes the given command with
// the configured args followed by the video path.
func NewCommandAnalyzer(logger logging.Logger, command string, args ...string) *CommandAnalyzer {
	if logger == nil {
		logger = logging.NopLogger
	}

	return &CommandAnalyzer{
		logger:  logger,
		command: command,
		args:    args,
	}
}

// Analyze runs the detector process and streams its progress reports.
func (a *CommandAnalyzer) Analyze(ctx context.Context, path string, onProgress func(ProgressUpdate)) (*Result, error) {
	args := append(append([]string{}, a.args...), path)
	cmd := exec.CommandContext(ctx, a.command, args...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to open detector stdout: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start detector: %w", err)
	}

	var result *Result

	scanner := bufio.NewScanner(stdout)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "PROGRESS":
			if len(fields) < 3 {
				a.logger.Warn("Malformed progress line from detector", "line", line)
				continue
			}
			percent, err1 := strconv.Atoi(fields[1])
			accidents, err2 := strconv.Atoi(fields[2])
			if err1 != nil || err2 != nil {
				a.logger.Warn("Malformed progress line from detector", "line", line)
				continue
			}
			if onProgress != nil {
				onProgress(ProgressUpdate{Progress: percent, Accidents: accidents})
			}
		case "RESULT":
			if len(fields) < 2 {
				a.logger.Warn("Malformed result line from detector", "line", line)
				continue
			}
			accidents, err := strconv.Atoi(fields[1])
			if err != nil {
				a.logger.Warn("Malformed result line from detector", "line", line)
				continue
			}
			result = &Result{Accidents: accidents}
		default:
			a.logger.Debug("Detector output", "line", line)
		}
	}

	if err := cmd.Wait(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("detector failed: %w", err)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read detector output: %w", err)
	}

	if result == nil {
		return nil, fmt.Errorf("detector produced no result")
	}

	return result, nil
}
