// Package actuate drives the host's pointer and keyboard by running
// configurable commands.
package actuate

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"text/template"

	"github.com/zeebo/errs"
)

// Error is the error class for actuation failures.
var Error = errs.Class("actuate")

type Config struct {
	MoveCommand  string `default:"xdotool mousemove {{.X}} {{.Y}}" help:"command to move the pointer to {{.X}},{{.Y}}"`
	ClickCommand string `default:"xdotool mousemove {{.X}} {{.Y}} click {{.Button}}" help:"command to click {{.Button}} (1 left, 2 middle, 3 right) at {{.X}},{{.Y}}"`
	KeyCommand   string `default:"xdotool key {{.Key}}" help:"command to press {{.Key}} (an X keysym name, already shell-quoted)"`
}

// Actuator runs input commands on the local machine.
type Actuator struct {
	move, click, key *template.Template
	run              func(ctx context.Context, command string) error
}

func New(cfg Config) (*Actuator, error) {
	move, err := template.New("move").Parse(cfg.MoveCommand)
	if err != nil {
		return nil, Error.Wrap(err)
	}
	click, err := template.New("click").Parse(cfg.ClickCommand)
	if err != nil {
		return nil, Error.Wrap(err)
	}
	key, err := template.New("key").Parse(cfg.KeyCommand)
	if err != nil {
		return nil, Error.Wrap(err)
	}
	return &Actuator{move: move, click: click, key: key, run: runShell}, nil
}

// Move moves the pointer to x, y.
func (a *Actuator) Move(ctx context.Context, x, y int) error {
	return a.exec(ctx, a.move, struct{ X, Y int }{x, y})
}

// Click clicks button at x, y. Unknown buttons click the left button.
func (a *Actuator) Click(ctx context.Context, x, y int, button string) error {
	return a.exec(ctx, a.click, struct {
		X, Y   int
		Button int
	}{x, y, buttonNumber(button)})
}

// Press presses and releases key.
func (a *Actuator) Press(ctx context.Context, key string) error {
	sym := keysym(key)
	if sym == "" {
		return Error.New("unsupported key %q", key)
	}
	return a.exec(ctx, a.key, struct{ Key string }{shellQuote(sym)})
}

func (a *Actuator) exec(ctx context.Context, tmpl *template.Template, data interface{}) error {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return Error.Wrap(err)
	}
	return a.run(ctx, buf.String())
}

func runShell(ctx context.Context, command string) error {
	out, err := exec.CommandContext(ctx, "/bin/sh", "-c", command).CombinedOutput()
	if err != nil {
		return Error.Wrap(fmt.Errorf("process error: %q\n%w\n%q", command, err, string(out)))
	}
	return nil
}

// shellQuote quotes s as a single literal sh word.
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

func buttonNumber(b string) int {
	switch strings.ToLower(b) {
	case "right", "r":
		return 3
	case "middle", "center", "m":
		return 2
	default:
		return 1
	}
}

// keysym maps a key name to an X keysym name. Single printable characters
// pass through unchanged, so callers must quote the result before it reaches
// a shell.
func keysym(k string) string {
	switch strings.ToLower(k) {
	case "enter", "return":
		return "Return"
	case "space", " ":
		return "space"
	case "backspace":
		return "BackSpace"
	case "tab":
		return "Tab"
	case "esc", "escape":
		return "Escape"
	case "delete":
		return "Delete"
	case "up", "arrowup":
		return "Up"
	case "down", "arrowdown":
		return "Down"
	case "left", "arrowleft":
		return "Left"
	case "right", "arrowright":
		return "Right"
	}
	if len(k) == 1 && k[0] > ' ' && k[0] < 0x7f {
		return k
	}
	return ""
}
