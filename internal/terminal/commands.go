package terminal

import (
	"strconv"
	"strings"

	"cinder/internal/klog"
	"cinder/internal/qemuexit"
)

// commandFunc is the Go analogue of the original terminal's
// OnCommandFunction (a bare `fn(&mut Terminal, Vec<&str>)`): a command
// receives the terminal it's running against and its whitespace-split
// argument list.
type commandFunc func(*Terminal, []string)

// shutdown is the indirection the original's `os::shutdown()` call
// provides: a package-level hook so tests can observe the poweroff
// command firing without executing the privileged OUT instruction
// qemuexit.Exit issues (§6 "QEMU exit port").
var shutdown = func() { qemuexit.Exit(qemuexit.Success) }

// initCommands seeds the command table §6 names: poweroff and logs
// <bool>. Go has no FromStr trait to make init_commands generic over
// argument type, so each command parses its own arguments with
// getFirstArg.
func initCommands() map[string]commandFunc {
	return map[string]commandFunc{
		"poweroff": func(*Terminal, []string) {
			shutdown()
		},
		"logs": func(t *Terminal, args []string) {
			t.logs = getFirstArg(args, strconv.ParseBool)
			klog.Debugf("logs are set to: %v", t.logs)
		},
	}
}

// getFirstArg is the Go shape of the original's generic get_first_arg:
// parse the first argument with parse, falling back to T's zero value and
// a warning (§7 "User-recoverable: unknown command, unparseable argument
// — reported via warn!, default value substituted") when it's missing or
// doesn't parse.
func getFirstArg[T any](args []string, parse func(string) (T, error)) T {
	var zero T
	if len(args) == 0 {
		klog.Warnf("value was not specified! setting default value")
		return zero
	}
	v, err := parse(args[0])
	if err != nil {
		klog.Warnf("failed to parse value to target type, setting default value")
		return zero
	}
	return v
}

// parseAndRunCurrentCommand splits the accumulated input line on
// whitespace and dispatches to the matching command, exactly mirroring
// parse_and_run_current_command: an empty line warns and returns, an
// unrecognized command name warns and lists every known command name
// (§6 "Unknown commands print the known set").
func (t *Terminal) parseAndRunCurrentCommand() {
	fields := strings.Fields(t.currentInput)
	if len(fields) == 0 {
		klog.Warnf("you need to specify command name!")
		return
	}

	name, args := fields[0], fields[1:]
	cmd, ok := t.commands[name]
	if !ok {
		klog.Warnf("no command with name: %s was found, all commands: %v", name, t.commandNames())
		return
	}
	cmd(t, args)
}

func (t *Terminal) commandNames() []string {
	names := make([]string, 0, len(t.commands))
	for name := range t.commands {
		names = append(names, name)
	}
	return names
}
