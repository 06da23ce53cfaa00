// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Thermoquad/syconlink/pkg/multidrop"
	"github.com/spf13/cobra"
)

var (
	readIndex   uint8
	readRetries int
	readBackoff time.Duration
)

var readCmd = &cobra.Command{
	Use:   "read HASH[/INDEX]...",
	Short: "Read dictionary variables",
	Long: `Read one or more 32-bit dictionary variables from the controller.

Each variable is named by its two-byte hash code in hex, optionally followed
by an array index:

  syconlink read -p /dev/ttyUSB0 5F95 5F95/1 0x1234/3

All variables are read while holding the port open, so the batch pays the
open and rate limit cost once. Protocol errors (timeouts, checksum and
correlation failures) are retried up to --retries times.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRead,
}

func init() {
	rootCmd.AddCommand(readCmd)
	readCmd.Flags().Uint8VarP(&readIndex, "index", "i", 0, "Array index for variables given without one")
	readCmd.Flags().IntVar(&readRetries, "retries", 0, "Retries per variable on protocol errors")
	readCmd.Flags().DurationVar(&readBackoff, "backoff", 200*time.Millisecond, "Wait between retries")
}

// target is one variable named on the command line
type target struct {
	hash  [2]byte
	index uint8
}

func (t target) String() string {
	return fmt.Sprintf("%s[%d]", multidrop.FormatHash(t.hash), t.index)
}

// parseTarget parses "HASH" or "HASH/INDEX"
func parseTarget(s string, defaultIndex uint8) (target, error) {
	hashPart, indexPart, hasIndex := strings.Cut(s, "/")

	hash, err := multidrop.ParseHashCode(hashPart)
	if err != nil {
		return target{}, err
	}

	t := target{hash: hash, index: defaultIndex}
	if hasIndex {
		idx, err := strconv.ParseUint(strings.TrimSpace(indexPart), 0, 8)
		if err != nil {
			return target{}, fmt.Errorf("invalid index %q: %w", indexPart, err)
		}
		t.index = uint8(idx)
	}
	return t, nil
}

func runRead(cmd *cobra.Command, args []string) error {
	targets := make([]target, 0, len(args))
	for _, arg := range args {
		t, err := parseTarget(arg, readIndex)
		if err != nil {
			return err
		}
		targets = append(targets, t)
	}

	client, _, err := OpenClient()
	if err != nil {
		return err
	}

	reservation, err := client.Reserve()
	if err != nil {
		return err
	}
	defer reservation.Release()

	out := cmd.OutOrStdout()
	failed := 0
	for _, t := range targets {
		value, err := client.ReadVariableRetry(cmd.Context(), t.hash, t.index, readRetries+1, readBackoff)
		if err != nil {
			failed++
			fmt.Fprintf(out, "%s %s\n", labelStyle.Render(t.String()), errorStyle.Render(err.Error()))
			continue
		}
		fmt.Fprintf(out, "%s %s\n", labelStyle.Render(t.String()), okStyle.Render(fmt.Sprintf("%d (0x%08X)", value, uint32(value))))
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d reads failed", failed, len(targets))
	}
	return nil
}
