// Copyright (c) 2018 ContentBox Authors.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package key

import (
	"path"
	"strconv"
	"strings"
)

// A Key addresses an entry of the persistent context.
// Key schema likes file name of a file system,
//     Key("/big_maps/index/4/total_bytes")
//     Key("/big_maps/index/4/contents/3b6f...")
//     Key("/sapling/index/7/roots")
type Key struct {
	string
}

// NewKey constructs a key from string. it will clean the value.
func NewKey(s string) Key {
	switch {
	case len(s) == 0:
		return Key{"/"}
	case s[0] == '/':
		return Key{path.Clean(s)}
	default:
		return Key{path.Clean("/" + s)}
	}
}

// NewKeyFromBytes constructs a key from byte slice. it will clean the value.
func NewKeyFromBytes(s []byte) Key {
	return NewKey(string(s))
}

// NewKeyWithPaths constructs a key out of path segments.
func NewKeyWithPaths(p ...string) Key {
	return NewKey(strings.Join(p, "/"))
}

// String is the string value of Key
func (k Key) String() string {
	return k.string
}

// Bytes returns the string value of Key as a []byte
func (k Key) Bytes() []byte {
	return []byte(k.string)
}

// Prefix returns the byte prefix shared by all descendants of the key.
// Unlike Bytes it ends with a separator so that /a/1 does not cover /a/10.
func (k Key) Prefix() []byte {
	if k.string == "/" {
		return []byte("/")
	}
	return []byte(k.string + "/")
}

// Equal checks equality of two keys
func (k Key) Equal(k2 Key) bool {
	return k.string == k2.string
}

// Less compares keys segment by segment.
func (k Key) Less(k2 Key) bool {
	list1, list2 := k.List(), k2.List()
	for i, c1 := range list1 {
		if i >= len(list2) {
			return false
		}
		if c1 != list2[i] {
			return c1 < list2[i]
		}
	}
	return len(list1) < len(list2)
}

// List returns the segments of this Key.
//   NewKey("/big_maps/index/4").List()
//   ["big_maps", "index", "4"]
func (k Key) List() []string {
	if k.string == "/" {
		return nil
	}
	return strings.Split(k.string, "/")[1:]
}

// BaseName returns the last segment of this key like path.Base(filename)
func (k Key) BaseName() string {
	return path.Base(k.string)
}

// Parent returns the `parent` Key of this Key.
func (k Key) Parent() Key {
	return NewKey(path.Dir(k.string))
}

// Child returns the `child` Key of this Key.
func (k Key) Child(k2 Key) Key {
	switch {
	case k.string == "/":
		return k2
	case k2.string == "/":
		return k
	default:
		return Key{k.string + k2.string}
	}
}

// ChildString appends one or more segments to the key.
func (k Key) ChildString(s string) Key {
	if len(s) == 0 {
		return k
	}
	return NewKey(k.string + "/" + s)
}

// ChildInt appends a decimal segment to the key.
func (k Key) ChildInt(i int64) Key {
	return k.ChildString(strconv.FormatInt(i, 10))
}

// IsAncestorOf returns whether `other` lives below this key
//   NewKey("/big_maps/index/4").IsAncestorOf("/big_maps/index/4/total_bytes")
//   true
func (k Key) IsAncestorOf(other Key) bool {
	if other.string == k.string {
		return false
	}
	return strings.HasPrefix(other.string, string(k.Prefix()))
}

// IsDescendantOf returns whether this key lives below `other`.
func (k Key) IsDescendantOf(other Key) bool {
	return other.IsAncestorOf(k)
}

// Slice attaches the methods of sort.Interface to []Key,
// sorting in increasing order.
type Slice []Key

func (p Slice) Len() int           { return len(p) }
func (p Slice) Less(i, j int) bool { return p[i].Less(p[j]) }
func (p Slice) Swap(i, j int)      { p[i], p[j] = p[j], p[i] }
