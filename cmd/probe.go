// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Thermoquad/syconlink/pkg/dictionary"
	"github.com/Thermoquad/syconlink/pkg/multidrop"
	"github.com/spf13/cobra"
)

var (
	probeCount    int
	probeInterval time.Duration
	probeHash     string
	probeIndex    uint8
)

var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Measure link quality with repeated reads",
	Long: `Read one variable repeatedly and report error and latency statistics.

Every failed read is printed with its timestamp and error class. Press Ctrl+C
to stop early; the summary is printed either way.

Exit codes:
  0 - All reads succeeded
  1 - At least one read failed
  2 - Connection error

Useful for checking cabling, baud rate issues and controller responsiveness.`,
	RunE: runProbe,
}

func init() {
	rootCmd.AddCommand(probeCmd)
	probeCmd.Flags().IntVarP(&probeCount, "count", "n", 20, "Number of reads (0 = until interrupted)")
	probeCmd.Flags().DurationVar(&probeInterval, "interval", 0, "Extra delay between reads")
	probeCmd.Flags().StringVar(&probeHash, "hash", "5F95", "Hash code of the variable to read")
	probeCmd.Flags().Uint8VarP(&probeIndex, "index", "i", 0, "Array index of the variable")
}

func runProbe(cmd *cobra.Command, args []string) error {
	hash, err := multidrop.ParseHashCode(probeHash)
	if err != nil {
		return err
	}

	stats := dictionary.NewStatistics()
	client, connInfo, err := OpenClient(dictionary.WithStatistics(stats))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Connection error: %v\n", err)
		os.Exit(2)
	}

	reservation, err := client.Reserve()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Connection error: %v\n", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Printf("Syconlink - Probe\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Variable: %s[%d]\n\n", multidrop.FormatHash(hash), probeIndex)

	portLost := probeLoop(ctx, client, hash)
	reservation.Release()

	fmt.Println()
	fmt.Print(stats.String())

	switch {
	case portLost:
		os.Exit(2)
	case stats.Errors() > 0:
		os.Exit(1)
	}
	return nil
}

// probeLoop runs the reads and reports whether the port was lost
func probeLoop(ctx context.Context, client *dictionary.Client, hash [2]byte) bool {
	for i := 0; probeCount == 0 || i < probeCount; i++ {
		if ctx.Err() != nil {
			return false
		}

		value, err := client.ReadVariable(hash, probeIndex)
		now := time.Now().Format("15:04:05.000")
		if err != nil {
			fmt.Printf("[%s] #%d %s\n", now, i+1, errorStyle.Render(err.Error()))
			// Line errors are worth counting; anything else means the port is gone
			if !multidrop.IsProtocolError(err) {
				return true
			}
		} else {
			fmt.Printf("[%s] #%d %s\n", now, i+1, okStyle.Render(fmt.Sprintf("%d", value)))
		}

		if probeInterval > 0 {
			select {
			case <-ctx.Done():
				return false
			case <-time.After(probeInterval):
			}
		}
	}
	return false
}
