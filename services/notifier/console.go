// Package notifysvc provides core.Notifier implementations: a console sink
// for CLI use and a recording sink for tests.
package notifysvc

import (
	"fmt"
	"io"
	"os"

	"github.com/shuleapp/shule/core"
)

type ConsoleNotifier struct {
	out io.Writer
}

var _ core.Notifier = (*ConsoleNotifier)(nil)

func NewConsoleNotifier(out ...io.Writer) *ConsoleNotifier {
	w := io.Writer(os.Stdout)
	if len(out) > 0 {
		w = out[0]
	}
	return &ConsoleNotifier{out: w}
}

func (n *ConsoleNotifier) Success(msg string) { fmt.Fprintln(n.out, "OK:", msg) }
func (n *ConsoleNotifier) Info(msg string)    { fmt.Fprintln(n.out, "--:", msg) }
func (n *ConsoleNotifier) Error(msg string)   { fmt.Fprintln(n.out, "!!:", msg) }
