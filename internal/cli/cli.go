// Package cli parses murmur's command line.
package cli

import (
	"errors"
	"fmt"
	"strings"
)

type Command string

const (
	CommandRun     Command = "run"
	CommandToggle  Command = "toggle"
	CommandCancel  Command = "cancel"
	CommandStatus  Command = "status"
	CommandDevices Command = "devices"
	CommandDoctor  Command = "doctor"
	CommandVersion Command = "version"
	CommandHelp    Command = "help"
)

var validCommands = map[Command]struct{}{
	CommandRun:     {},
	CommandToggle:  {},
	CommandCancel:  {},
	CommandStatus:  {},
	CommandDevices: {},
	CommandDoctor:  {},
	CommandVersion: {},
	CommandHelp:    {},
}

// Parsed is the result of Parse.
type Parsed struct {
	Command     Command
	ConfigPath  string
	PostProcess bool
	ShowHelp    bool
}

// Parse reads global flags and at most one command. No arguments means help.
func Parse(args []string) (Parsed, error) {
	parsed := Parsed{Command: CommandHelp, ShowHelp: true}
	haveCommand := false

	for i := 0; i < len(args); i++ {
		arg := args[i]

		switch {
		case arg == "-h" || arg == "--help":
			parsed.Command, parsed.ShowHelp = CommandHelp, true
		case arg == "--version":
			parsed.Command, parsed.ShowHelp = CommandVersion, false
		case arg == "--post-process":
			parsed.PostProcess = true
		case arg == "--config":
			i++
			if i >= len(args) {
				return Parsed{}, errors.New("--config requires a path")
			}
			parsed.ConfigPath = args[i]
		case strings.HasPrefix(arg, "--config="):
			parsed.ConfigPath = strings.TrimPrefix(arg, "--config=")
			if parsed.ConfigPath == "" {
				return Parsed{}, errors.New("--config requires a path")
			}
		case strings.HasPrefix(arg, "-"):
			return Parsed{}, fmt.Errorf("unknown flag: %s", arg)
		default:
			if haveCommand {
				return Parsed{}, fmt.Errorf("unexpected argument %q after command %q", arg, parsed.Command)
			}
			cmd := Command(arg)
			if _, ok := validCommands[cmd]; !ok {
				return Parsed{}, fmt.Errorf("unknown command: %s", arg)
			}
			haveCommand = true
			parsed.Command = cmd
			parsed.ShowHelp = cmd == CommandHelp
		}
	}

	if parsed.PostProcess && parsed.Command != CommandToggle {
		return Parsed{}, errors.New("--post-process is only valid with toggle")
	}
	return parsed, nil
}

// HelpText renders usage for binaryName.
func HelpText(binaryName string) string {
	return fmt.Sprintf(`Usage:
  %[1]s [--config PATH] <command>

Commands:
  run       Start the dictation daemon
  toggle    Start or stop recording in the running daemon
  cancel    Discard the active recording
  status    Print the daemon stage and tray state
  devices   List available input devices
  doctor    Run configuration and environment checks
  version   Print version information
  help      Show this help

Flags:
  --config PATH    Config file path (default: $XDG_CONFIG_HOME/murmur/config.jsonc)
  --post-process   With toggle: refine the transcript with the configured LLM
  -h, --help       Show help
  --version        Show version

Signals (sent to the daemon):
  SIGUSR1          Toggle recording with post-processing
  SIGUSR2          Toggle recording
`, binaryName)
}
