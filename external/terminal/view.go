package terminal

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/foxseedlab/koetsuki/internal/session"
)

type theme struct {
	title     lipgloss.Style
	label     lipgloss.Style
	dim       lipgloss.Style
	live      lipgloss.Style
	box       lipgloss.Style
	idle      lipgloss.Style
	connected lipgloss.Style
	capturing lipgloss.Style
	warning   lipgloss.Style
}

func newTheme() theme {
	return theme{
		title:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00ff9f")).Padding(0, 1),
		label:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00ff9f")),
		dim:       lipgloss.NewStyle().Foreground(lipgloss.Color("#6e7681")),
		live:      lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("#6e7681")),
		box:       lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#00ff9f")).Padding(0, 1),
		idle:      lipgloss.NewStyle().Foreground(lipgloss.Color("#6e7681")),
		connected: lipgloss.NewStyle().Foreground(lipgloss.Color("#58a6ff")),
		capturing: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#ff5f87")),
		warning:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#f0883e")),
	}
}

type View struct {
	theme theme
	width int
}

func NewView(width int) *View {
	if width <= 0 {
		width = 72
	}
	return &View{theme: newTheme(), width: width}
}

func (v *View) Render(snap session.Snapshot) string {
	t := v.theme
	lines := []string{
		t.title.Render("koetsuki"),
		fmt.Sprintf("%s %s  %s %s", t.label.Render("State:"), v.renderState(snap), t.label.Render("Mode:"), snap.Mode),
	}
	if snap.SessionID != "" {
		lines = append(lines, fmt.Sprintf("%s %s", t.label.Render("Session:"), snap.SessionID))
	}
	if snap.InRate > 0 {
		lines = append(lines, t.dim.Render(fmt.Sprintf("audio %d Hz -> %d Hz, buffered %d, dropped %d", snap.InRate, snap.OutRate, snap.Buffered, snap.Dropped)))
	}
	lines = append(lines,
		t.dim.Render(fmt.Sprintf("sent %d packets, %d bytes", snap.PacketsSent, snap.BytesSent)),
		fmt.Sprintf("%s %s", t.label.Render("Status:"), snap.Status),
	)

	transcript := strings.TrimRight(snap.Transcript, " \n")
	if snap.Live != "" {
		if transcript != "" {
			transcript += " "
		}
		transcript += t.live.Render(snap.Live)
	}
	if transcript == "" {
		transcript = t.dim.Render("(no transcript yet)")
	}
	lines = append(lines, t.box.Width(v.width).Render(transcript))
	return strings.Join(lines, "\n")
}

func (v *View) renderState(snap session.Snapshot) string {
	t := v.theme
	switch {
	case snap.TransportLost:
		return t.warning.Render(snap.State.String() + " (transport lost)")
	case snap.State == session.StateCapturing:
		return t.capturing.Render(snap.State.String())
	case snap.State == session.StateConnected:
		return t.connected.Render(snap.State.String())
	default:
		return t.idle.Render(snap.State.String())
	}
}

// Watch ignores changes to the traffic counters alone.
func (v *View) Watch(ctx context.Context, interval time.Duration, snapshot func() session.Snapshot, w io.Writer) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	last := ""
	for {
		snap := snapshot()
		key := v.Render(withoutCounters(snap))
		if key != last {
			_, _ = fmt.Fprintln(w, v.Render(snap))
			last = key
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func withoutCounters(snap session.Snapshot) session.Snapshot {
	snap.PacketsSent = 0
	snap.BytesSent = 0
	snap.Buffered = 0
	snap.Dropped = 0
	return snap
}
