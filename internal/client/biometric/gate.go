package biometric

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// ErrPromptFailed is returned when the user fails or cancels the local
// re-authentication prompt.
var ErrPromptFailed = errors.New("biometric prompt failed or cancelled")

// Gate is the optional second factor guarding session restoration. A gate
// whose hardware is unavailable reports Available() == false and callers
// treat it as a pass-through.
type Gate interface {
	Available() bool
	Prompt(ctx context.Context, reason string) error
}

// Unavailable is the gate used on hosts without any local authentication
// facility. It never blocks.
type Unavailable struct{}

func (Unavailable) Available() bool                      { return false }
func (Unavailable) Prompt(context.Context, string) error { return nil }

// Terminal stands in for a platform biometric prompt on interactive
// terminals: it asks for an explicit confirmation on stdin. Anything but
// an affirmative answer counts as a cancelled prompt.
type Terminal struct {
	In  io.Reader
	Out io.Writer
}

func NewTerminal() *Terminal {
	return &Terminal{In: os.Stdin, Out: os.Stderr}
}

func (t *Terminal) Available() bool {
	f, ok := t.In.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func (t *Terminal) Prompt(ctx context.Context, reason string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	fmt.Fprintf(t.Out, "%s — confirm it's you [y/N]: ", reason)
	line, err := bufio.NewReader(t.In).ReadString('\n')
	if err != nil {
		return ErrPromptFailed
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return nil
	default:
		return ErrPromptFailed
	}
}
