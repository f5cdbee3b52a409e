// Copyright (c) 2018 ContentBox Authors.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package vm

import (
	"fmt"
	"io"
	"strings"

	"github.com/BOXFoundation/tzvm/gas"
	"github.com/BOXFoundation/tzvm/log/types"
	"github.com/BOXFoundation/tzvm/micheline"
)

// Logger is used to collect execution traces. Hooks observe the execution
// and must not modify the stack.
type Logger interface {
	// Entry is called before an instruction runs, with the gas left and the
	// number of lambdas and views being run.
	Entry(i *Instr, st *Stack, remaining gas.Cost, depth int)
	// Exit is called after an instruction ran, err is its failure if any.
	Exit(i *Instr, st *Stack, remaining gas.Cost, err error)
	// Control is called when a continuation frame is resumed.
	Control(k Cont, st *Stack)
}

// LogConfig are the configuration options for structured logger the VM
type LogConfig struct {
	DisableStack bool // disable stack capture
	Limit        int  // maximum length of output, but zero means unlimited
}

// StructLog is emitted to the VM each cycle and lists information about the current internal state
// prior to the execution of the statement.
type StructLog struct {
	Loc     Loc              `json:"loc"`
	Op      OpCode           `json:"op"`
	Gas     gas.Cost         `json:"gas"`
	GasCost gas.Cost         `json:"gasCost"`
	Stack   []micheline.Node `json:"-"`
	Depth   int              `json:"depth"`
	Err     error            `json:"-"`
}

// OpName formats the operand name in a human-readable format.
func (s *StructLog) OpName() string {
	return s.Op.String()
}

// ErrorString formats the log's error as a string.
func (s *StructLog) ErrorString() string {
	if s.Err != nil {
		return s.Err.Error()
	}
	return ""
}

// StructLogger is a Logger that captures execution steps, including the
// stack and gas, for later inspection.
type StructLogger struct {
	cfg LogConfig

	logs    []StructLog
	pending *StructLog
	err     error
}

// NewStructLogger returns a new logger
func NewStructLogger(cfg *LogConfig) *StructLogger {
	logger := &StructLogger{}
	if cfg != nil {
		logger.cfg = *cfg
	}
	return logger
}

// Entry captures the state before i runs.
func (l *StructLogger) Entry(i *Instr, st *Stack, remaining gas.Cost, depth int) {
	if l.cfg.Limit != 0 && l.cfg.Limit <= len(l.logs) {
		l.pending = nil
		return
	}
	log := StructLog{Loc: i.Info.Loc, Op: i.Op, Gas: remaining, Depth: depth}
	if !l.cfg.DisableStack {
		for _, v := range st.Data() {
			log.Stack = append(log.Stack, Unparse(v, Readable))
		}
	}
	l.logs = append(l.logs, log)
	l.pending = &l.logs[len(l.logs)-1]
}

// Exit records the gas the instruction consumed and its failure.
func (l *StructLogger) Exit(i *Instr, st *Stack, remaining gas.Cost, err error) {
	if l.pending == nil {
		return
	}
	l.pending.GasCost = l.pending.Gas - remaining
	if err != nil {
		l.pending.Err = err
		l.err = err
	}
	l.pending = nil
}

// Control is a no-op, frames are not captured.
func (l *StructLogger) Control(k Cont, st *Stack) {}

// StructLogs returns the captured log entries.
func (l *StructLogger) StructLogs() []StructLog { return l.logs }

// Error returns the error captured, if any.
func (l *StructLogger) Error() error { return l.err }

// WriteTrace writes a formatted trace to the given writer
func WriteTrace(writer io.Writer, logs []StructLog) {
	for _, log := range logs {
		fmt.Fprintf(writer, "%-16s loc=%04d gas=%v cost=%v", log.OpName(), log.Loc, log.Gas, log.GasCost)
		if log.Err != nil {
			fmt.Fprintf(writer, " ERROR: %v", log.Err)
		}
		fmt.Fprintln(writer)

		if len(log.Stack) > 0 {
			fmt.Fprintln(writer, "Stack:")
			for i, n := range log.Stack {
				fmt.Fprintf(writer, "%08d  %s\n", i, micheline.Format(n))
			}
		}
	}
}

// TraceLogger writes every step to a text logger at debug level.
type TraceLogger struct {
	out types.Logger
}

// NewTraceLogger returns a trace logger writing to out.
func NewTraceLogger(out types.Logger) *TraceLogger {
	return &TraceLogger{out: out}
}

// Entry logs the instruction with the stack it runs on.
func (l *TraceLogger) Entry(i *Instr, st *Stack, remaining gas.Cost, depth int) {
	if !l.out.DebugEnabled() {
		return
	}
	l.out.WithFields(map[string]interface{}{
		"loc":   i.Info.Loc,
		"gas":   remaining.String(),
		"depth": depth,
	}).Debugf("%s %s", i.Op, st)
}

// Exit logs failures.
func (l *TraceLogger) Exit(i *Instr, st *Stack, remaining gas.Cost, err error) {
	if err != nil {
		l.out.Debugf("%s at %d failed: %v", i.Op, i.Info.Loc, err)
	}
}

// Control logs resumed frames.
func (l *TraceLogger) Control(k Cont, st *Stack) {
	if !l.out.DebugEnabled() {
		return
	}
	name := strings.TrimPrefix(fmt.Sprintf("%T", k), "*vm.")
	l.out.Debugf("resume %s on %s", name, st)
}
