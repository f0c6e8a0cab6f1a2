package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/zjrosen/camel/internal/codec"
	"github.com/zjrosen/camel/internal/config"
	"github.com/zjrosen/camel/internal/log"
	"github.com/zjrosen/camel/internal/presentation"
)

const stdinName = "<stdin>"

var (
	fmtWrite bool
	fmtDiff  bool
)

var fmtCmd = &cobra.Command{
	Use:   "fmt [files...]",
	Short: "Print documents in normalized form",
	Long: `Load every document of each file and dump it again, printing the
normalized YAML. Tags are rewritten to the newest registered version of
their type, mappings are sorted and indentation follows the config.

Reads stdin when no file is given.

Examples:
  # Normalize a file to stdout
  camel fmt game.yaml

  # Rewrite files in place
  camel fmt -w game.yaml rules.yaml

  # Show what would change
  camel fmt --diff game.yaml`,
	RunE: runFmt,
}

func init() {
	fmtCmd.Flags().BoolVarP(&fmtWrite, "write", "w", false, "write the result back to the file instead of stdout")
	fmtCmd.Flags().BoolVarP(&fmtDiff, "diff", "d", false, "print a diff against the normalized form instead")
	rootCmd.AddCommand(fmtCmd)
}

func runFmt(cmd *cobra.Command, args []string) error {
	if fmtWrite && fmtDiff {
		return errors.New("--write and --diff are mutually exclusive")
	}
	if fmtWrite && len(args) == 0 {
		return errors.New("--write needs at least one file")
	}

	c, shutdown, err := newCodec()
	if err != nil {
		return err
	}
	defer func() { _ = shutdown(cmd.Context()) }()

	out := cmd.OutOrStdout()
	formatter := presentation.NewFormatter(out)

	inputs, err := readInputs(cmd, args)
	if err != nil {
		return err
	}

	for _, in := range inputs {
		normalized, err := normalize(cmd, c, in.text)
		if err != nil {
			return fmt.Errorf("%s: %w", in.path, err)
		}

		switch {
		case fmtWrite:
			if normalized == in.text {
				continue
			}
			if err := config.WriteFileAtomic(in.path, []byte(normalized), in.mode); err != nil {
				return fmt.Errorf("writing %s: %w", in.path, err)
			}
			log.Info(log.CatCLI, "rewrote file", "path", in.path)
		case fmtDiff:
			if err := formatter.FormatDiff(in.path, in.text, normalized); err != nil {
				return err
			}
		default:
			if _, err := io.WriteString(out, normalized); err != nil {
				return err
			}
		}
	}
	return nil
}

func normalize(cmd *cobra.Command, c *codec.Codec, text string) (string, error) {
	docs, err := c.LoadAllContext(cmd.Context(), text)
	if err != nil {
		return "", err
	}
	if len(docs) == 0 {
		return "", nil
	}
	return c.DumpAllContext(cmd.Context(), docs...)
}

type input struct {
	path string
	text string
	mode os.FileMode
}

// readInputs reads every named file, or stdin when none is named.
func readInputs(cmd *cobra.Command, args []string) ([]input, error) {
	if len(args) == 0 {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("reading stdin: %w", err)
		}
		return []input{{path: stdinName, text: string(data)}}, nil
	}

	inputs := make([]input, 0, len(args))
	for _, path := range args {
		in, err := readInput(path)
		if err != nil {
			return nil, err
		}
		inputs = append(inputs, in)
	}
	return inputs, nil
}

func readInput(path string) (input, error) {
	info, err := os.Stat(path)
	if err != nil {
		return input{}, err
	}
	data, err := os.ReadFile(path) //nolint:gosec // G304: user-named input file
	if err != nil {
		return input{}, err
	}
	return input{path: path, text: string(data), mode: info.Mode().Perm()}, nil
}
