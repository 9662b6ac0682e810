package surface

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/livetv-cli/livetv/constant"
	"github.com/livetv-cli/livetv/log"
)

const (
	socketWaitRetries = 10
	socketWaitDelay   = 300 * time.Millisecond
	quitGrace         = 3 * time.Second

	// stdinTarget tells mpv to demux whatever arrives on its standard input.
	stdinTarget = "fd://0"
)

// MPV is a surface backed by an mpv process driven over JSON-IPC.
// Media is either handed to mpv's own HLS demuxer through Load or piped
// to its standard input through Append.
type MPV struct {
	title      string
	socketPath string
	cmd        *exec.Cmd
	stdin      io.WriteCloser
	exited     chan struct{}
	listener   *eventListener
	hub        *hub

	ipcMu sync.Mutex

	mu      sync.Mutex
	owner   string
	feeding bool
	// pending is closed once the last stdin write returns
	pending chan struct{}
	volume  float64
	muted   bool
	closed  bool
}

// NewMPV creates an mpv surface. The process is not started until Open.
func NewMPV(title string) *MPV {
	return &MPV{
		title:  sanitizeTitle(title),
		exited: make(chan struct{}),
		hub:    newHub(),
		volume: 1,
	}
}

// Open starts mpv idle with an empty window and waits for its IPC socket.
func (m *MPV) Open() error {
	if m.socketPath == "" {
		socket, err := socketName()
		if err != nil {
			return err
		}
		m.socketPath = socket
	}

	m.cmd = exec.Command("mpv", mpvArgs(m.socketPath, m.title)...)
	m.cmd.SysProcAttr = sysProcAttr()
	m.cmd.Stdout = nil
	m.cmd.Stderr = nil

	stdin, err := m.cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("stdin pipe: %w", err)
	}
	m.stdin = stdin

	if err := m.cmd.Start(); err != nil {
		return fmt.Errorf("start mpv: %w", err)
	}

	m.exited = make(chan struct{})
	go func() {
		_ = m.cmd.Wait()
		close(m.exited)
		m.hub.publish(Event{Kind: EventEnded})
	}()

	if err := m.waitForSocket(); err != nil {
		select {
		case <-m.exited:
		default:
			log.Warnf("killing mpv: socket never became ready")
			_ = killProcess(m.cmd)
		}
		return fmt.Errorf("mpv socket not ready: %w", err)
	}

	m.listener = newEventListener(m.socketPath, m.handle)
	if err := m.listener.start(); err != nil {
		return err
	}

	return nil
}

// Wait returns a channel that is closed when the mpv process exits.
func (m *MPV) Wait() <-chan struct{} {
	return m.exited
}

func (m *MPV) waitForSocket() error {
	for i := 0; i < socketWaitRetries; i++ {
		time.Sleep(socketWaitDelay)

		select {
		case <-m.exited:
			return fmt.Errorf("mpv exited before socket was ready")
		default:
		}

		conn, err := net.Dial("unix", m.socketPath)
		if err == nil {
			conn.Close()
			return nil
		}
	}
	return fmt.Errorf("socket %s not ready after %d attempts", m.socketPath, socketWaitRetries)
}

func (m *MPV) Attach(owner string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}
	if m.owner != "" && m.owner != owner {
		return fmt.Errorf("attach %s: %w (held by %s)", owner, ErrBusy, m.owner)
	}

	m.owner = owner
	m.feeding = false
	return nil
}

func (m *MPV) Detach(owner string) {
	m.mu.Lock()
	if m.owner != owner {
		m.mu.Unlock()
		return
	}
	m.owner = ""
	m.feeding = false
	closed := m.closed
	m.mu.Unlock()

	if closed {
		return
	}
	if _, err := m.command("stop"); err != nil {
		log.Warnf("mpv: stop after detach: %v", err)
	}
}

func (m *MPV) CanPlayNative() bool {
	return true
}

func (m *MPV) SupportsBuffer() bool {
	return m.stdin != nil
}

func (m *MPV) Load(locator string) error {
	target, err := sanitizeMediaTarget(locator)
	if err != nil {
		return fmt.Errorf("invalid media target: %w", err)
	}

	m.mu.Lock()
	attached := m.owner != ""
	m.feeding = false
	m.mu.Unlock()

	if !attached {
		return fmt.Errorf("load %s: surface is not attached", locator)
	}

	_, err = m.command("loadfile", target, "replace")
	return err
}

func (m *MPV) Append(ctx context.Context, p []byte) error {
	m.mu.Lock()
	if m.owner == "" {
		m.mu.Unlock()
		return fmt.Errorf("%w: surface is not attached", ErrAppend)
	}
	start := !m.feeding
	m.feeding = true
	m.mu.Unlock()

	if start {
		if _, err := m.command("loadfile", stdinTarget, "replace"); err != nil {
			m.mu.Lock()
			m.feeding = false
			m.mu.Unlock()
			return fmt.Errorf("%w: %v", ErrAppend, err)
		}
	}

	// a write given up by a cancelled Append still owns the pipe until mpv reads it
	m.mu.Lock()
	pending := m.pending
	m.mu.Unlock()
	if pending != nil {
		select {
		case <-pending:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	written := make(chan struct{})
	m.mu.Lock()
	m.pending = written
	m.mu.Unlock()

	var err error
	go func() {
		defer close(written)
		_, err = m.stdin.Write(p)
	}()

	select {
	case <-written:
		if err != nil {
			return fmt.Errorf("%w: %v", ErrAppend, err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ResetBuffer makes the next Append reopen the stream so the demuxer starts clean.
func (m *MPV) ResetBuffer() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.feeding = false
	return nil
}

func (m *MPV) Play(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return m.set("pause", false)
}

func (m *MPV) Pause() error {
	return m.set("pause", true)
}

func (m *MPV) SetVolume(volume float64) error {
	return m.set("volume", volume*100)
}

func (m *MPV) SetMuted(muted bool) error {
	return m.set("mute", muted)
}

func (m *MPV) SetFullscreen(on bool) error {
	return m.set("fullscreen", on)
}

// CapBitrate limits the variant mpv's HLS demuxer picks.
func (m *MPV) CapBitrate(bps int) error {
	if bps <= 0 {
		return m.set("hls-bitrate", "max")
	}
	return m.set("hls-bitrate", bps)
}

func (m *MPV) Subscribe() (<-chan Event, func()) {
	return m.hub.subscribe()
}

func (m *MPV) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	m.owner = ""
	m.mu.Unlock()

	defer m.hub.close()

	if m.listener != nil {
		m.listener.stop()
	}
	if m.socketPath == "" || m.cmd == nil {
		return nil
	}

	_, _ = m.command("quit")

	select {
	case <-m.exited:
	case <-time.After(quitGrace):
		_ = killProcess(m.cmd)
	}

	if m.stdin != nil {
		_ = m.stdin.Close()
	}
	_ = os.Remove(m.socketPath)
	return nil
}

func (m *MPV) set(property string, value any) error {
	m.mu.Lock()
	closed := m.closed
	m.mu.Unlock()

	if closed {
		return ErrClosed
	}

	_, err := m.command("set_property", property, value)
	return err
}

// handle turns mpv notifications into surface events.
func (m *MPV) handle(msg ipcMessage) {
	switch msg.Event {
	case "property-change":
		m.handleProperty(msg.Name, msg.Data)
	case "file-loaded":
		m.hub.publish(Event{Kind: EventLoadedMetadata})
	case "playback-restart":
		m.hub.publish(Event{Kind: EventCanPlay})
	case "end-file":
		if msg.Reason == "error" {
			reason := msg.FileError
			if reason == "" {
				reason = "playback failed"
			}
			m.hub.publish(Event{Kind: EventError, Err: errors.New(reason)})
		}
	}
}

func (m *MPV) handleProperty(name string, data any) {
	switch name {
	case "pause":
		if paused, ok := data.(bool); ok {
			if paused {
				m.hub.publish(Event{Kind: EventPause})
			} else {
				m.hub.publish(Event{Kind: EventPlay})
			}
		}
	case "paused-for-cache":
		if waiting, ok := data.(bool); ok {
			if waiting {
				m.hub.publish(Event{Kind: EventWaiting})
			} else {
				m.hub.publish(Event{Kind: EventCanPlay})
			}
		}
	case "volume", "mute":
		m.mu.Lock()
		switch v := data.(type) {
		case float64:
			m.volume = v / 100
		case bool:
			m.muted = v
		}
		ev := Event{Kind: EventVolume, Volume: m.volume, Muted: m.muted}
		m.mu.Unlock()
		m.hub.publish(ev)
	case "fullscreen":
		if on, ok := data.(bool); ok {
			m.hub.publish(Event{Kind: EventFullscreen, Fullscreen: on})
		}
	}
}

func socketName() (string, error) {
	randomBytes := make([]byte, 4)
	if _, err := rand.Read(randomBytes); err != nil {
		return "", fmt.Errorf("generate socket name: %w", err)
	}
	return filepath.Join(os.TempDir(), fmt.Sprintf("%s-%x.sock", constant.App, randomBytes)), nil
}

// mpvArgs leaves rendering options to the viewer's mpv.conf.
func mpvArgs(socketPath, title string) []string {
	args := []string{
		"--no-terminal",
		"--really-quiet",
		"--input-ipc-server=" + socketPath,
		"--force-window=yes",
		"--idle=yes",
		"--keep-open=no",
		"--pause=yes",
		"--user-agent=" + constant.UserAgent,
	}
	if title != "" {
		args = append(args, "--force-media-title="+title, "--title="+title)
	}
	return args
}

// sanitizeMediaTarget keeps locators from being read as mpv flags.
func sanitizeMediaTarget(link string) (string, error) {
	l := strings.TrimSpace(link)
	if l == "" {
		return "", fmt.Errorf("empty locator")
	}
	if strings.ContainsAny(l, "\x00\n\r") {
		return "", fmt.Errorf("invalid control characters in locator")
	}
	if strings.HasPrefix(l, "-") {
		return "", fmt.Errorf("locator must not start with '-'")
	}
	if !strings.HasPrefix(strings.ToLower(l), "http://") && !strings.HasPrefix(strings.ToLower(l), "https://") {
		return "", fmt.Errorf("unsupported locator: %s", l)
	}
	return l, nil
}

func sanitizeTitle(title string) string {
	t := strings.NewReplacer("\n", " ", "\r", " ", "\t", " ", "\x00", "").Replace(title)
	return strings.TrimSpace(t)
}
