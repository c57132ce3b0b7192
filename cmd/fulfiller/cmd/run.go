package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/onflow/drand-fulfiller/module/metrics"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a single invocation and print its result as JSON",
	Long: `Scans the adapter for new randomness requests since the stored checkpoint,
resolves their beacons and prints the resulting fulfillment calls. The checkpoint
is advanced only when calls are ready to be executed.`,
	RunE: run,
}

func run(cmd *cobra.Command, _ []string) error {
	cfg, err := readConfig(cmd, true)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	engine, closer, err := buildEngine(ctx, cfg, metrics.NewNoopCollector())
	if err != nil {
		return err
	}
	defer func() {
		if err := closer.Close(); err != nil {
			log.Error().Err(err).Msg("could not close checkpoint store")
		}
	}()

	result, execErr := engine.Execute(ctx)

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("could not encode result: %w", err)
	}
	_, _ = fmt.Fprintln(os.Stdout, string(out))

	return execErr
}
