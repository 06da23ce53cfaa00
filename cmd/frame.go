// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Thermoquad/syconlink/pkg/multidrop"
	"github.com/spf13/cobra"
)

var (
	frameIndex  uint8
	frameSerial string
	frameValue  int32
	frameReply  bool
)

var frameCmd = &cobra.Command{
	Use:   "frame HASH",
	Short: "Encode a request or response frame",
	Long: `Print the wire bytes of a dictionary read request, or with --response
the matching acknowledgement carrying --value.

Useful for crafting test vectors and for driving a device by hand with a
terminal program.`,
	Args: cobra.ExactArgs(1),
	RunE: runFrame,
}

func init() {
	rootCmd.AddCommand(frameCmd)
	frameCmd.Flags().Uint8VarP(&frameIndex, "index", "i", 0, "Array index")
	frameCmd.Flags().StringVarP(&frameSerial, "serial", "s", "10", "Serial number (hex, 10-FF)")
	frameCmd.Flags().Int32Var(&frameValue, "value", 0, "Data value for --response")
	frameCmd.Flags().BoolVar(&frameReply, "response", false, "Encode a response instead of a request")
}

// parseSerial parses a hex serial number and checks it lies in the window
// the correlator draws from
func parseSerial(s string) (uint8, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(strings.TrimSpace(s), "0x"), "0X")
	v, err := strconv.ParseUint(s, 16, 8)
	if err != nil {
		return 0, fmt.Errorf("invalid serial %q: %w", s, err)
	}
	if v < multidrop.SerialMin {
		return 0, fmt.Errorf("serial 0x%02X below minimum 0x%02X", v, multidrop.SerialMin)
	}
	return uint8(v), nil
}

func runFrame(cmd *cobra.Command, args []string) error {
	hash, err := multidrop.ParseHashCode(args[0])
	if err != nil {
		return err
	}
	serial, err := parseSerial(frameSerial)
	if err != nil {
		return err
	}

	var raw []byte
	if frameReply {
		raw = multidrop.EncodeResponse(hash, frameIndex, frameValue, serial)
	} else {
		raw = multidrop.EncodeRequest(hash, frameIndex, serial)
	}

	fmt.Fprintln(cmd.OutOrStdout(), multidrop.FormatHex(raw))
	return nil
}
