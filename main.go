// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad
//
// Syconlink - Sycon Multidrop Dictionary Client
//
// A CLI tool for reading dictionary variables from controllers speaking the
// Sycon Multidrop serial protocol, and for diagnosing the link to them.

package main

import (
	"os"

	"github.com/Thermoquad/syconlink/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
