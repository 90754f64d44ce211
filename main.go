// Copyright 2026 The VisitMap Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"github.com/jcodagnone/visitmap/cmd"
)

var Version = "development"

func main() {
	cmd.Execute(Version)
}
