package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zjrosen/camel/internal/codec"
	"github.com/zjrosen/camel/internal/log"
	"github.com/zjrosen/camel/internal/presentation"
	"github.com/zjrosen/camel/internal/watcher"
)

// ErrCheckFailed is returned when at least one checked input fails to load.
var ErrCheckFailed = errors.New("check failed")

var checkWatch bool

var checkCmd = &cobra.Command{
	Use:   "check [files...]",
	Short: "Verify that documents load",
	Long: `Load every document of each file with the configured registries and
report ok or the first error per file. Exits non-zero when any file fails.

Reads stdin when no file is given.

Examples:
  camel check game.yaml rules.yaml

  # Re-check whenever a file is saved
  camel check --watch game.yaml`,
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().BoolVar(&checkWatch, "watch", false, "keep running and re-check files when they change")
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	if checkWatch && len(args) == 0 {
		return errors.New("--watch needs at least one file")
	}

	c, shutdown, err := newCodec()
	if err != nil {
		return err
	}
	defer func() { _ = shutdown(cmd.Context()) }()

	formatter := presentation.NewFormatter(cmd.OutOrStdout())

	inputs, err := readInputs(cmd, args)
	if err != nil {
		return err
	}

	failed := 0
	for _, in := range inputs {
		result := check(cmd.Context(), c, in)
		if !result.OK() {
			failed++
		}
		if err := formatter.FormatCheckResult(result); err != nil {
			return err
		}
	}

	if checkWatch {
		return watchAndCheck(cmd.Context(), c, formatter, args)
	}

	if failed > 0 {
		return fmt.Errorf("%w: %d of %d inputs", ErrCheckFailed, failed, len(inputs))
	}
	return nil
}

func check(ctx context.Context, c *codec.Codec, in input) presentation.CheckResultDTO {
	result := presentation.CheckResultDTO{Path: in.path}
	docs, err := c.LoadAllContext(ctx, in.text)
	if err != nil {
		result.Error = err.Error()
		return result
	}
	result.Documents = len(docs)
	return result
}

// watchAndCheck re-checks each file after it is written until ctx is done.
func watchAndCheck(ctx context.Context, c *codec.Codec, formatter *presentation.Formatter, paths []string) error {
	w, err := watcher.New(watcher.DefaultConfig(paths...))
	if err != nil {
		return err
	}
	defer func() { _ = w.Stop() }()

	changes, err := w.Start()
	if err != nil {
		return err
	}
	log.Info(log.CatCLI, "watching files", "count", len(paths))

	for {
		select {
		case <-ctx.Done():
			return nil
		case path := <-changes:
			var result presentation.CheckResultDTO
			if in, err := readInput(path); err != nil {
				result = presentation.CheckResultDTO{Path: path, Error: err.Error()}
			} else {
				result = check(ctx, c, in)
			}
			if err := formatter.FormatCheckResult(result); err != nil {
				return err
			}
		}
	}
}
