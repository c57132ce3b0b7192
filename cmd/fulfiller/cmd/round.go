package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var (
	flagTimestamp int64
	flagRound     uint64
)

var roundCmd = &cobra.Command{
	Use:   "round",
	Short: "Print the drand round published at a time, or the time of a round",
	RunE:  round,
}

func init() {
	roundCmd.Flags().Int64Var(&flagTimestamp, "timestamp", 0, "unix time in milliseconds, defaults to now")
	roundCmd.Flags().Uint64Var(&flagRound, "round", 0, "print the publication time of this round instead")
}

func round(cmd *cobra.Command, _ []string) error {
	cfg, err := readConfig(cmd, false)
	if err != nil {
		return err
	}
	info, err := cfg.ChainInfo()
	if err != nil {
		return err
	}
	if err := info.Validate(); err != nil {
		return err
	}

	if flagRound != 0 {
		fmt.Printf("round %d is published at %s\n", flagRound, info.TimeOfRound(flagRound).UTC().Format(time.RFC3339))
		return nil
	}

	at := time.Now()
	if flagTimestamp != 0 {
		at = time.UnixMilli(flagTimestamp)
	}
	fmt.Printf("%d\n", info.RoundAt(at))
	return nil
}
