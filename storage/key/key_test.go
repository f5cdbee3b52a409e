// Copyright (c) 2018 ContentBox Authors.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package key

import (
	"sort"
	"testing"

	"github.com/facebookgo/ensure"
)

func TestKeyAncestry(t *testing.T) {
	k1 := NewKey("/big_maps/index/4")
	k2 := NewKey("big_maps/index/4/total_bytes")

	ensure.DeepEqual(t, k2.String(), "/big_maps/index/4/total_bytes")
	ensure.True(t, k1.IsAncestorOf(k2))
	ensure.True(t, k2.IsDescendantOf(k1))
	ensure.False(t, k1.IsAncestorOf(k1))
	ensure.False(t, k2.IsAncestorOf(k1))
	ensure.False(t, k1.IsAncestorOf(NewKey("/big_maps/index/40")))
	ensure.DeepEqual(t, k1.ChildString("total_bytes"), k2)
	ensure.DeepEqual(t, k1.Child(NewKey("total_bytes")), k2)
	ensure.DeepEqual(t, k2.Parent(), k1)
	ensure.DeepEqual(t, k2.BaseName(), "total_bytes")
	ensure.DeepEqual(t, NewKeyWithPaths("big_maps", "index").ChildInt(-3).String(), "/big_maps/index/-3")
}

func TestKeyPrefix(t *testing.T) {
	ensure.DeepEqual(t, NewKey("/a/1").Prefix(), []byte("/a/1/"))
	ensure.DeepEqual(t, NewKey("").Prefix(), []byte("/"))
	ensure.DeepEqual(t, NewKey("").List(), []string(nil))
}

func TestLess(t *testing.T) {
	checkLess := func(a, b string) {
		ak := NewKey(a)
		bk := NewKey(b)
		ensure.True(t, ak.Less(bk))
		ensure.False(t, bk.Less(ak))
	}

	checkLess("/a/b/c", "/a/b/c/d")
	checkLess("/a", "/a/b/c/d")
	checkLess("/a/a/d", "/a/b/c")
	checkLess("/a/b/c/d/e/f/g/h", "/b")
	checkLess("/", "/a")

	keys := Slice{NewKey("/b"), NewKey("/a/z"), NewKey("/a")}
	sort.Sort(keys)
	ensure.DeepEqual(t, keys, Slice{NewKey("/a"), NewKey("/a/z"), NewKey("/b")})
}
