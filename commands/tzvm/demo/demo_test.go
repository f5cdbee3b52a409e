// Copyright (c) 2018 ContentBox Authors.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package democmd

import (
	"bytes"
	"strings"
	"testing"

	bigmapcmd "github.com/BOXFoundation/tzvm/commands/tzvm/bigmap"
	"github.com/BOXFoundation/tzvm/lazystorage"
	"github.com/BOXFoundation/tzvm/state"
	"github.com/BOXFoundation/tzvm/storage/memdb"
	"github.com/BOXFoundation/tzvm/vm"
	"github.com/facebookgo/ensure"
)

func TestRunSampleContracts(t *testing.T) {
	db, err := memdb.NewMemoryDB("", nil)
	ensure.Nil(t, err)

	var out bytes.Buffer
	c, err := Run(&out, state.New(db), vm.DefaultConfig())
	ensure.Nil(t, err)
	ensure.StringContains(t, out.String(), "counter increment(5): storage 5")
	ensure.StringContains(t, out.String(), "counter decrement(2): storage 3")
	ensure.StringContains(t, out.String(), "bounce default(1000): storage Unit, 1 operations")

	_, err = c.Commit(db)
	ensure.Nil(t, err)
	persisted := state.New(db)
	ids, err := lazystorage.IDs(persisted, lazystorage.BigMap)
	ensure.Nil(t, err)
	ensure.DeepEqual(t, ids, []lazystorage.ID{0})

	out.Reset()
	ensure.Nil(t, bigmapcmd.Show(&out, persisted, 0))
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	ensure.DeepEqual(t, len(lines), 2)
	ensure.StringContains(t, out.String(), `1 => "uno"`)
	ensure.StringContains(t, out.String(), `2 => "two"`)

	out.Reset()
	ensure.Nil(t, bigmapcmd.List(&out, persisted))
	ensure.StringContains(t, out.String(), "big_map nat string")
}
