// Package replcmd is a small line-oriented command loop for driving a
// storectl.Store interactively, adapted from the teacher's pkg/repl: the
// same trigger-word-to-command dispatch and ".help" meta-command, pared
// down to what a single demo CLI needs (no multi-REPL combination, no
// channel-driven variant for a network listener — this module has no
// server to attach one to).
package replcmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
)

// Command is one REPL verb: given the full input line and the session
// it's running in, produce output text or an error.
type Command func(line string, session *Session) (output string, err error)

// TriggerHelp is the built-in meta-command that lists every registered
// command's help text.
const TriggerHelp = ".help"

// ErrorPrefix is written before any error a Command returns.
const ErrorPrefix = "error: "

// ErrCommandNotFound is returned (as displayed text, not a Go error) when
// the input's first word doesn't match any registered trigger.
var ErrCommandNotFound = errors.New("command not found")

// Session carries per-connection state across a sequence of Command
// calls; today that's just an id, kept for parity with the teacher's
// REPLConfig and because a future networked front end would want one per
// client.
type Session struct {
	ID uuid.UUID
}

// REPL dispatches input lines to registered Commands by their first
// whitespace-separated word.
type REPL struct {
	commands map[string]Command
	help     map[string]string
}

// New constructs an empty REPL.
func New() *REPL {
	return &REPL{commands: make(map[string]Command), help: make(map[string]string)}
}

// AddCommand registers action under trigger, along with its one-line help
// text. A second registration under the same trigger replaces the first.
func (r *REPL) AddCommand(trigger string, action Command, help string) {
	if trigger == TriggerHelp {
		return
	}
	r.commands[trigger] = action
	r.help[trigger] = help
}

// HelpString renders every registered command's help text, one per line.
func (r *REPL) HelpString() string {
	var sb strings.Builder
	for trigger, help := range r.help {
		sb.WriteString(fmt.Sprintf("%s: %s\n", trigger, help))
	}
	return sb.String()
}

// Run reads lines from input, dispatches each to a registered Command (or
// prints the help text, or a not-found error), and writes results to
// output, prefixing each prompt until input is exhausted.
func (r *REPL) Run(prompt string, input io.Reader, output io.Writer) {
	if input == nil {
		input = os.Stdin
	}
	if output == nil {
		output = os.Stdout
	}

	session := &Session{ID: uuid.New()}
	scanner := bufio.NewScanner(input)

	fmt.Fprintln(output, "cdcsetctl: type '.help' for a list of commands.")
	io.WriteString(output, prompt)

	for scanner.Scan() {
		line := scanner.Text()
		fields := strings.Fields(line)
		if len(fields) == 0 {
			io.WriteString(output, prompt)
			continue
		}

		trigger := fields[0]
		switch {
		case trigger == TriggerHelp:
			io.WriteString(output, r.HelpString())
		case r.commands[trigger] != nil:
			result, err := r.commands[trigger](line, session)
			if err != nil {
				fmt.Fprintf(output, "%s%s\n", ErrorPrefix, err)
			} else {
				if result != "" && !strings.HasSuffix(result, "\n") {
					result += "\n"
				}
				io.WriteString(output, result)
			}
		default:
			fmt.Fprintf(output, "%s%s\n", ErrorPrefix, ErrCommandNotFound)
		}
		io.WriteString(output, prompt)
	}
	io.WriteString(output, "\n")
}
