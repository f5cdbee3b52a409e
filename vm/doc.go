// Copyright (c) 2018 ContentBox Authors.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

/*
Package vm implements the typed michelson virtual machine.

Code is a tree of Instr nodes. Every node records the type of the stack it
expects, and the Builder refuses to link two nodes whose stack types do not
compose, so the interpreter only ever runs well typed code. The interpreter
walks the tree with an explicit stack of continuations instead of native
recursion, charging gas before every instruction. Big maps and sapling
states are lazy: their changes are collected as overlays on the values and
turned into lazystorage diffs once the execution is over.
*/
package vm
