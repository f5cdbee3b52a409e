// Copyright (c) 2018 ContentBox Authors.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package bigmapcmd

import (
	"fmt"
	"io"
	"os"
	"strconv"

	root "github.com/BOXFoundation/tzvm/commands/tzvm/root"
	"github.com/BOXFoundation/tzvm/lazystorage"
	"github.com/BOXFoundation/tzvm/micheline"
	"github.com/BOXFoundation/tzvm/state"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "bigmap [command]",
	Short: "Inspect the big maps persisted in the database",
}

func init() {
	root.RootCmd.AddCommand(rootCmd)
	rootCmd.AddCommand(
		&cobra.Command{
			Use:   "ls",
			Short: "list the allocated big maps with their types and sizes",
			RunE:  list,
		},
		&cobra.Command{
			Use:   "show [id]",
			Short: "dump the bindings of a big map",
			Args:  cobra.ExactArgs(1),
			RunE:  show,
		},
	)
}

func withContext(fn func(c *state.Context) error) error {
	cfg, err := root.LoadConfig()
	if err != nil {
		return err
	}
	db, err := root.OpenDatabase(cfg)
	if err != nil {
		return err
	}
	defer db.Close()
	return fn(state.New(db))
}

func list(cmd *cobra.Command, args []string) error {
	return withContext(func(c *state.Context) error {
		return List(os.Stdout, c)
	})
}

func show(cmd *cobra.Command, args []string) error {
	n, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid big map id %s", args[0])
	}
	return withContext(func(c *state.Context) error {
		return Show(os.Stdout, c, lazystorage.ID(n))
	})
}

// List prints one line per allocated big map.
func List(w io.Writer, c *state.Context) error {
	ids, err := lazystorage.IDs(c, lazystorage.BigMap)
	if err != nil {
		return err
	}
	for _, id := range ids {
		kt, vt, err := lazystorage.BigMapTypes(c, id)
		if err != nil {
			return err
		}
		size, err := lazystorage.TotalBytes(c, lazystorage.BigMap, id)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s\tbig_map %s %s\t%d bytes\n", id, micheline.Format(kt), micheline.Format(vt), size)
	}
	return nil
}

// Show prints the bindings of big map id ordered by key hash.
func Show(w io.Writer, c *state.Context, id lazystorage.ID) error {
	entries, err := lazystorage.BigMapEntries(c, id)
	if err != nil {
		return err
	}
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s => %s\n", lazystorage.KeyHashString(e.KeyHash),
			micheline.Format(e.Key), micheline.Format(e.Value))
	}
	return nil
}
