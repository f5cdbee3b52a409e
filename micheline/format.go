// Copyright (c) 2018 ContentBox Authors.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package micheline

import (
	"encoding/hex"
	"strconv"
	"strings"
)

// Format renders n in the textual michelson notation, on one line.
func Format(n Node) string {
	var sb strings.Builder
	format(&sb, n, false)
	return sb.String()
}

func format(sb *strings.Builder, n Node, nested bool) {
	switch n := n.(type) {
	case Int:
		sb.WriteString(n.V.String())
	case String:
		sb.WriteString(strconv.Quote(n.V))
	case Bytes:
		sb.WriteString("0x")
		sb.WriteString(hex.EncodeToString(n.V))
	case Seq:
		if len(n) == 0 {
			sb.WriteString("{}")
			return
		}
		sb.WriteString("{ ")
		for i, item := range n {
			if i > 0 {
				sb.WriteString(" ; ")
			}
			format(sb, item, false)
		}
		sb.WriteString(" }")
	case *Prim:
		wrap := nested && (len(n.Args) > 0 || len(n.Annots) > 0)
		if wrap {
			sb.WriteByte('(')
		}
		sb.WriteString(n.Prim.String())
		for _, a := range n.Annots {
			sb.WriteByte(' ')
			sb.WriteString(a)
		}
		for _, a := range n.Args {
			sb.WriteByte(' ')
			format(sb, a, true)
		}
		if wrap {
			sb.WriteByte(')')
		}
	}
}
