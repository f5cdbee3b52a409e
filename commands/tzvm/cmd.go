// Copyright (c) 2018 ContentBox Authors.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package tzvm

import (
	"fmt"
	"os"

	_ "github.com/BOXFoundation/tzvm/commands/tzvm/bigmap" // init bigmap cmd
	_ "github.com/BOXFoundation/tzvm/commands/tzvm/demo"   // init demo cmd
	root "github.com/BOXFoundation/tzvm/commands/tzvm/root"
)

// Execute is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := root.RootCmd.Execute(); err != nil {
		fmt.Print(err)
		os.Exit(1)
	}
}
