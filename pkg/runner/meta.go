package runner

import (
	"fmt"
	"strings"
)

// Meta commands are handled by the loop and never reach the engine.
const (
	cmdQuit    = ":quit"
	cmdQ       = ":q"
	cmdExit    = ":exit"
	cmdHelp    = ":help"
	cmdHistory = ":history"
	cmdBackend = ":backend"
	cmdClear   = ":clear"
)

var metaCommands = map[string]bool{
	cmdQuit: true, cmdQ: true, cmdExit: true,
	cmdHelp: true, cmdHistory: true, cmdBackend: true, cmdClear: true,
}

// HelpText is the markdown shown by :help.
const HelpText = `# metta

Type an expression and press enter. Atoms are added to the space;
an atom preceded by **!** is evaluated and its results are printed.

` + "```" + `
(= (double $x) (* 2 $x))
!(double 21)
` + "```" + `

Unbalanced parentheses continue on the next line.

| Command | |
|---|---|
| ` + "`:help`" + ` | show this help |
| ` + "`:history`" + ` | list submitted expressions |
| ` + "`:backend`" + ` | show the engine backend and version |
| ` + "`:clear`" + ` | discard the expression being typed |
| ` + "`:quit`" + `, ` + "`:q`" + `, ` + "`:exit`" + ` | leave the shell |

**Ctrl-C** clears the current input, or interrupts a running evaluation.
Press it again while the evaluation is still running to terminate the shell.
**Ctrl-D** leaves the shell.
`

// metaCommand recognises a meta command line. Known commands work at any
// depth; an unknown ":word" is only a command at depth zero.
func (r *Runner) metaCommand(line string) (string, bool) {
	cmd := strings.ToLower(strings.TrimSpace(line))
	if !strings.HasPrefix(cmd, ":") || strings.ContainsAny(cmd, " \t()\"") {
		return "", false
	}
	if metaCommands[cmd] {
		return cmd, true
	}
	return cmd, !r.acc.Pending() && len(cmd) > 1
}

// runMeta executes cmd and reports whether the session should end.
func (r *Runner) runMeta(cmd string) bool {
	switch cmd {
	case cmdQuit, cmdQ, cmdExit:
		return true
	case cmdHelp:
		text := HelpText
		if r.helpRenderer != nil {
			if rendered, err := r.helpRenderer(HelpText); err == nil {
				text = rendered
			}
		}
		fmt.Fprintln(r.out, strings.TrimRight(text, "\n"))
	case cmdHistory:
		for i, entry := range r.history.Entries() {
			fmt.Fprintf(r.out, "%4d  %s\n", i+1, strings.ReplaceAll(entry, "\n", "\n      "))
		}
	case cmdBackend:
		fmt.Fprintf(r.out, "%s (engine %s)\n", r.engine.Backend(), r.engine.Version())
	case cmdClear:
		r.acc.Reset()
	default:
		r.renderer.Notice(r.out, fmt.Sprintf("unknown command %s, type :help", cmd))
	}
	return false
}
