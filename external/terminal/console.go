package terminal

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/foxseedlab/koetsuki/internal/session"
)

const helpText = "commands: connect, ptt, release, start, stop, disconnect, clear, status, quit"

type Controller interface {
	session.Capturer
	Connect(ctx context.Context) error
	Disconnect(ctx context.Context) error
	ClearTranscript(ctx context.Context) error
	Snapshot() session.Snapshot
}

type Console struct {
	ctrl       Controller
	view       *View
	ptt        session.PushToTalk
	continuous session.Continuous
	in         io.Reader
	out        io.Writer
}

func NewConsole(ctrl Controller, view *View, in io.Reader, out io.Writer) *Console {
	return &Console{
		ctrl:       ctrl,
		view:       view,
		ptt:        session.NewPushToTalk(ctrl),
		continuous: session.NewContinuous(ctrl),
		in:         in,
		out:        out,
	}
}

func (c *Console) Run(ctx context.Context) error {
	lines := make(chan string)
	errCh := make(chan error, 1)
	go func() {
		sc := bufio.NewScanner(c.in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
		errCh <- sc.Err()
	}()

	c.println(helpText)
	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-errCh:
			return err
		case line := <-lines:
			if quit := c.exec(ctx, strings.TrimSpace(line)); quit {
				return nil
			}
		}
	}
}

func (c *Console) exec(ctx context.Context, line string) bool {
	cmd := strings.ToLower(line)
	var err error
	switch cmd {
	case "":
		return false
	case "connect":
		err = c.ctrl.Connect(ctx)
	case "ptt":
		err = c.ptt.Press(ctx)
	case "release":
		err = c.ptt.Release(ctx)
	case "start":
		err = c.continuous.Begin(ctx)
	case "stop":
		err = c.continuous.End(ctx)
	case "disconnect":
		err = c.ctrl.Disconnect(ctx)
	case "clear":
		err = c.ctrl.ClearTranscript(ctx)
	case "status":
		c.println(c.view.Render(c.ctrl.Snapshot()))
		return false
	case "quit", "exit":
		return true
	default:
		c.println(fmt.Sprintf("unknown command %q; %s", line, helpText))
		return false
	}
	if err != nil {
		slog.Debug("console command failed", "command", cmd, "error", err)
		c.println("error: " + err.Error())
	}
	c.println(c.ctrl.Snapshot().Status)
	return false
}

func (c *Console) println(s string) {
	_, _ = fmt.Fprintln(c.out, s)
}

type SyncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func NewSyncWriter(w io.Writer) *SyncWriter {
	return &SyncWriter{w: w}
}

func (s *SyncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}
