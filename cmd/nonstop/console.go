package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/go-logr/logr"
)

// console is a logr sink printing plain lines for a terminal user:
// the message followed by key=value pairs. Levels above verbosity are dropped.
type console struct {
	out       io.Writer
	verbosity int
	name      string
	values    []interface{}
}

var _ logr.LogSink = (*console)(nil)

func newConsole(out io.Writer, verbosity int) logr.Logger {
	return logr.New(&console{out: out, verbosity: verbosity})
}

func (c *console) Init(logr.RuntimeInfo) {}

func (c *console) Enabled(level int) bool {
	return level <= c.verbosity
}

func (c *console) Info(_ int, msg string, keysAndValues ...interface{}) {
	c.write(msg, keysAndValues)
}

func (c *console) Error(err error, msg string, keysAndValues ...interface{}) {
	c.write(msg, append([]interface{}{"error", err}, keysAndValues...))
}

func (c *console) write(msg string, keysAndValues []interface{}) {
	var b strings.Builder
	if c.name != "" {
		b.WriteString(c.name)
		b.WriteString(": ")
	}
	b.WriteString(msg)
	kvs := append(c.values[:len(c.values):len(c.values)], keysAndValues...)
	for i := 0; i+1 < len(kvs); i += 2 {
		fmt.Fprintf(&b, " %v=%v", kvs[i], kvs[i+1])
	}
	fmt.Fprintln(c.out, b.String())
}

func (c *console) WithValues(keysAndValues ...interface{}) logr.LogSink {
	c2 := *c
	c2.values = append(c.values[:len(c.values):len(c.values)], keysAndValues...)
	return &c2
}

// WithName adds a name element, joining successive names with '/'.
func (c *console) WithName(name string) logr.LogSink {
	c2 := *c
	if c.name == "" {
		c2.name = name
	} else {
		c2.name = c.name + "/" + name
	}
	return &c2
}
