package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/diwise/jsonapi/internal/pkg/application/inspector"
	"github.com/diwise/service-chassis/pkg/infrastructure/buildinfo"
	"github.com/diwise/service-chassis/pkg/infrastructure/env"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y"
	"github.com/spf13/cobra"
)

const serviceName string = "jsonapi-inspect"

var errReportHasErrors = errors.New("document is an error response")

func defaultFlags() FlagMap {
	return FlagMap{
		configPath: "/opt/diwise/config/jsonapi-inspect.yaml",
		inputPath:  "",
		logFormat:  "json",
	}
}

func main() {
	ctx := context.Background()

	err := newRootCommand(ctx, defaultFlags()).ExecuteContext(ctx)
	if errors.Is(err, errReportHasErrors) {
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand(ctx context.Context, flags FlagMap) *cobra.Command {

	// Allow environment variables to override certain defaults
	envOrDef := env.GetVariableOrDefault
	flags[configPath] = envOrDef(ctx, "JSONAPI_INSPECT_CONFIG", flags[configPath])
	flags[logFormat] = envOrDef(ctx, "LOG_FORMAT", flags[logFormat])

	cmd := &cobra.Command{
		Use:           serviceName,
		Short:         "Decode a JSON:API document and summarise its resources",
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), flags, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	// Allow command line arguments to override defaults and environment variables
	cmd.Flags().Var(flagValue{flags, configPath}, "config", "path to a yaml file listing the resource types to accept")
	cmd.Flags().Var(flagValue{flags, inputPath}, "file", "path to the document to inspect (reads stdin if omitted)")
	cmd.Flags().Var(flagValue{flags, logFormat}, "log-format", "log format (json or text)")

	return cmd
}

func run(ctx context.Context, flags FlagMap, stdin io.Reader, stdout io.Writer) error {
	serviceVersion := buildinfo.SourceVersion()

	ctx, log, cleanup := o11y.Init(ctx, serviceName, serviceVersion, flags[logFormat])
	defer cleanup()

	cfg, err := loadConfig(flags[configPath])
	if err != nil {
		log.Error("failed to load configuration", "path", flags[configPath], "err", err.Error())
		return err
	}

	body, err := readInput(flags[inputPath], stdin)
	if err != nil {
		log.Error("failed to read document", "err", err.Error())
		return err
	}

	report, err := inspector.New(*cfg).Inspect(ctx, body)
	if err != nil {
		log.Error("failed to decode document", "err", err.Error())
		return err
	}

	err = writeReport(stdout, report)
	if err != nil {
		log.Error("failed to write report", "err", err.Error())
		return err
	}

	if len(report.Errors) > 0 {
		return errReportHasErrors
	}

	return nil
}

func loadConfig(path string) (*inspector.Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open configuration file: %w", err)
	}
	defer f.Close()

	return inspector.LoadConfiguration(f)
}

func readInput(path string, stdin io.Reader) ([]byte, error) {
	if path == "" {
		return io.ReadAll(stdin)
	}

	return os.ReadFile(path)
}

func writeReport(w io.Writer, report *inspector.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
