package main

import (
	"fmt"
	"os"

	"github.com/gookit/color"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/timewinder-dev/apirecord/runner"
)

var (
	traceModule string
	outputFile  string
	formatFlag  string
	entryFlag   string
	callFlag    string
	sqlitePath  string
	dedupeFlag  bool
	maxLength   int
)

var runCmd = &cobra.Command{
	Use:   "run [SPECFILE]",
	Short: "Run a script and record its calls into the traced module",
	Long: `Run loads SPECFILE if given, applies the API_RECORD_* environment
variables and then any flags, and runs the entry point under trace.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCommand,
}

func init() {
	runCmd.Flags().StringVarP(&traceModule, "module", "m", "", "Module prefix to trace")
	runCmd.Flags().StringVarP(&outputFile, "output", "o", "", "File to write records to")
	runCmd.Flags().StringVar(&formatFlag, "format", "", "Record format (jsonl, msgpack, cbor)")
	runCmd.Flags().StringVarP(&entryFlag, "entry", "e", "", "Module name or .star file to run")
	runCmd.Flags().StringVar(&callFlag, "call", "", "Function of the entry point to call after it loads")
	runCmd.Flags().StringVar(&sqlitePath, "sqlite", "", "Also store records in this SQLite database")
	runCmd.Flags().BoolVar(&dedupeFlag, "dedupe", false, "Drop records already written recently")
	runCmd.Flags().IntVar(&maxLength, "max-length", 0, "Longest string or container kept in a record")
}

func runCommand(cmd *cobra.Command, args []string) error {
	spec := &runner.Spec{}
	if len(args) == 1 {
		var err error
		spec, err = runner.LoadSpecFromFile(args[0])
		if err != nil {
			return fmt.Errorf("loading spec: %w", err)
		}
	}
	err := spec.ApplyEnv(os.Getenv)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("module") {
		spec.Trace.Module = traceModule
	}
	if flags.Changed("output") {
		spec.Trace.Output = outputFile
	}
	if flags.Changed("format") {
		spec.Trace.Format = formatFlag
	}
	if flags.Changed("entry") {
		spec.Run.Entrypoint = entryFlag
	}
	if flags.Changed("call") {
		spec.Run.Call = callFlag
	}
	if flags.Changed("sqlite") {
		spec.Trace.SQLite = sqlitePath
	}
	if flags.Changed("dedupe") {
		spec.Trace.Dedupe = dedupeFlag
	}
	if flags.Changed("max-length") {
		spec.Trace.MaxLength = maxLength
	}

	exec, err := spec.BuildExecutor()
	if err != nil {
		return err
	}
	defer func() {
		if err := exec.Close(); err != nil {
			log.Error().Err(err).Msg("closing sinks")
		}
	}()

	fmt.Fprintln(os.Stderr, color.Cyan.Sprint("Tracing ", spec.Run.Entrypoint, "..."))
	result, err := exec.Run()
	if result != nil {
		fmt.Fprint(os.Stderr, runner.FormatResult(result))
	}
	return err
}
