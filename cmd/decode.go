// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"strings"

	"github.com/Thermoquad/syconlink/pkg/multidrop"
	"github.com/spf13/cobra"
)

var decodeSerial string

var decodeCmd = &cobra.Command{
	Use:   "decode HEX...",
	Short: "Decode a captured frame",
	Long: `Decode a raw frame given as hex bytes and print its fields.

The bytes may be separated by spaces or colons and split across several
arguments:

  syconlink decode 02 10 80 41 5F 95 00 01 00 00 00 10 4D 46 0D

With --serial, the frame is also checked as the response to a request with
that serial number.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runDecode,
}

func init() {
	rootCmd.AddCommand(decodeCmd)
	decodeCmd.Flags().StringVar(&decodeSerial, "serial", "", "Expected serial number (hex) to correlate against")
}

func runDecode(cmd *cobra.Command, args []string) error {
	raw, err := multidrop.ParseHex(strings.Join(args, " "))
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	f, err := multidrop.ParseFrame(raw)
	if err != nil {
		return err
	}
	fmt.Fprint(out, multidrop.FormatFrame(f))

	if decodeSerial == "" {
		return nil
	}

	serial, err := parseSerial(decodeSerial)
	if err != nil {
		return err
	}
	want := multidrop.Exchange{Hash: f.Hash(), Index: f.Index(), Serial: serial}
	value, err := multidrop.DecodeResponse(raw, want)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, okStyle.Render(fmt.Sprintf("correlated: value %d", value)))
	return nil
}
