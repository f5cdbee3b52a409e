// Copyright (c) 2018 ContentBox Authors.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package democmd

import (
	"fmt"
	"io"
	"os"

	bigmapcmd "github.com/BOXFoundation/tzvm/commands/tzvm/bigmap"
	root "github.com/BOXFoundation/tzvm/commands/tzvm/root"
	"github.com/BOXFoundation/tzvm/crypto"
	"github.com/BOXFoundation/tzvm/lazystorage"
	"github.com/BOXFoundation/tzvm/log"
	"github.com/BOXFoundation/tzvm/micheline"
	"github.com/BOXFoundation/tzvm/state"
	"github.com/BOXFoundation/tzvm/storage"
	"github.com/BOXFoundation/tzvm/storage/memdb"
	"github.com/BOXFoundation/tzvm/vm"
	"github.com/spf13/cobra"
)

var logger = log.NewLogger("demo")

var persist bool

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Run the sample contracts and print their results",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := root.LoadConfig()
		if err != nil {
			return err
		}
		var table storage.Table
		if persist {
			db, err := root.OpenDatabase(cfg)
			if err != nil {
				return err
			}
			defer db.Close()
			table = db
		} else {
			if table, err = memdb.NewMemoryDB("", nil); err != nil {
				return err
			}
		}
		c, err := Run(os.Stdout, state.New(table), cfg.VM)
		if err != nil {
			return err
		}
		if _, err := c.Commit(table); err != nil {
			return err
		}
		fmt.Println("big maps:")
		return bigmapcmd.List(os.Stdout, state.New(table))
	},
}

func init() {
	root.RootCmd.AddCommand(demoCmd)
	demoCmd.Flags().BoolVar(&persist, "persist", false, "write the results to the configured database")
}

// Contract is a sample script with the calls the demo makes to it.
type Contract struct {
	Name    string
	Script  *vm.Script
	Storage vm.Value
	Calls   []Call
}

// Call is one invocation of a contract.
type Call struct {
	Entrypoint string
	Param      vm.Value
	Amount     vm.Mutez
}

// Registry binds names to numbers in a big map.
func Registry() (*Contract, error) {
	param, err := vm.NewPairT(0, vm.NatT, vm.StringT)
	if err != nil {
		return nil, err
	}
	bm, err := vm.NewBigMapT(0, vm.NatT, vm.StringT)
	if err != nil {
		return nil, err
	}
	script, err := vm.NewScript(param, bm, func(b *vm.Builder) {
		b.Unpair().Unpair().
			Dip(func(b *vm.Builder) { b.Some() }).
			Update().Nil(vm.OperationT).Pair()
	})
	if err != nil {
		return nil, err
	}
	return &Contract{
		Name:    "registry",
		Script:  script,
		Storage: vm.NewBigMap(vm.NatT, vm.StringT),
		Calls: []Call{
			{Param: vm.NewPair(vm.NewNat(1), vm.String("one"))},
			{Param: vm.NewPair(vm.NewNat(2), vm.String("two"))},
			{Param: vm.NewPair(vm.NewNat(1), vm.String("uno"))},
		},
	}, nil
}

// Counter adds to or subtracts from an int.
func Counter() (*Contract, error) {
	param, err := vm.NewOrT(0, vm.IntT.WithAnnot("increment"), vm.IntT.WithAnnot("decrement"))
	if err != nil {
		return nil, err
	}
	script, err := vm.NewScript(param, vm.IntT, func(b *vm.Builder) {
		b.Unpair().IfLeft(
			func(b *vm.Builder) { b.Add() },
			func(b *vm.Builder) { b.Swap().Sub() }).
			Nil(vm.OperationT).Pair()
	})
	if err != nil {
		return nil, err
	}
	return &Contract{
		Name:    "counter",
		Script:  script,
		Storage: vm.NewInt(0),
		Calls: []Call{
			{Entrypoint: "increment", Param: vm.NewInt(5)},
			{Entrypoint: "decrement", Param: vm.NewInt(2)},
		},
	}, nil
}

// Bounce sends the mutez amount of its parameter back to itself.
func Bounce() (*Contract, error) {
	script, err := vm.NewScript(vm.MutezT, vm.UnitT, func(b *vm.Builder) {
		b.Unpair().Dup().Self("").Dug(2).TransferTokens().
			Nil(vm.OperationT).Swap().Cons().Pair()
	})
	if err != nil {
		return nil, err
	}
	return &Contract{
		Name:    "bounce",
		Script:  script,
		Storage: vm.Unit{},
		Calls:   []Call{{Param: vm.Mutez(1000), Amount: 1000}},
	}, nil
}

// Contracts returns the sample contracts.
func Contracts() ([]*Contract, error) {
	var out []*Contract
	for _, mk := range []func() (*Contract, error){Registry, Counter, Bounce} {
		ct, err := mk()
		if err != nil {
			return nil, err
		}
		out = append(out, ct)
	}
	return out, nil
}

// Run executes the calls of every sample contract in turn, each on the
// storage left by the previous one, and returns the context holding the
// resulting lazy storage.
func Run(w io.Writer, c *state.Context, cfg vm.Config) (*state.Context, error) {
	contracts, err := Contracts()
	if err != nil {
		return nil, err
	}
	seed := crypto.Blake2b256([]byte("tzvm demo"))
	for i, ct := range contracts {
		self := vm.OriginatedAddress(vm.ContractHash(seed, uint32(i)))
		st := ct.Storage
		for _, call := range ct.Calls {
			step := &vm.StepConstants{
				Source:        self,
				Payer:         self,
				Sender:        self,
				Self:          self,
				Amount:        call.Amount,
				Balance:       call.Amount,
				OperationHash: seed,
			}
			res, err := vm.Execute(c.WithMeter(nil), step, nil, ct.Script, call.Entrypoint, call.Param, st, cfg)
			if err != nil {
				logger.Errorf("Call to %s failed: %v", ct.Name, err)
				return nil, err
			}
			fmt.Fprintf(w, "%s %s(%s): storage %s, %d operations, %d lazy storage items, %d bytes, %v gas\n",
				ct.Name, entrypointName(call.Entrypoint), micheline.Format(vm.Unparse(call.Param, vm.Readable)),
				micheline.Format(vm.Unparse(res.Storage, vm.Readable)), len(res.Operations),
				len(res.LazyStorageDiff), res.SizeDelta, res.GasConsumed)
			for _, op := range res.Operations {
				fmt.Fprintf(w, "  %s\n", op)
			}
			for _, it := range res.LazyStorageDiff {
				fmt.Fprintf(w, "  %s\n", it)
			}
			c = lazystorage.CleanupTemporaries(res.Ctxt)
			st = res.Storage
		}
	}
	return c.WithMeter(nil), nil
}

func entrypointName(ep string) string {
	if ep == "" {
		return "default"
	}
	return ep
}
