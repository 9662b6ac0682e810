package surface

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"sync"

	"github.com/livetv-cli/livetv/log"
)

// observed lists the mpv properties mirrored as surface events.
var observed = []string{
	"pause",
	"volume",
	"mute",
	"fullscreen",
	"paused-for-cache",
}

// eventListener keeps one connection open to mpv and reads its notifications.
// Properties are observed on that same connection since mpv only reports
// changes to the client that asked for them.
type eventListener struct {
	socketPath string
	handle     func(ipcMessage)

	mu   sync.Mutex
	conn net.Conn
	done chan struct{}
}

func newEventListener(socketPath string, handle func(ipcMessage)) *eventListener {
	return &eventListener{
		socketPath: socketPath,
		handle:     handle,
	}
}

func (el *eventListener) start() error {
	el.mu.Lock()
	defer el.mu.Unlock()

	if el.conn != nil {
		return nil
	}

	conn, err := net.Dial("unix", el.socketPath)
	if err != nil {
		return fmt.Errorf("event listener connect: %w", err)
	}

	for i, name := range observed {
		payload, err := json.Marshal(ipcCommand{
			Command:   []any{"observe_property", i + 1, name},
			RequestID: requestIDs.Add(1),
		})
		if err != nil {
			conn.Close()
			return err
		}
		if _, err := conn.Write(append(payload, '\n')); err != nil {
			conn.Close()
			return fmt.Errorf("observe %s: %w", name, err)
		}
	}

	el.conn = conn
	el.done = make(chan struct{})
	go el.readLoop(conn, el.done)

	log.Infof("mpv event listener started on %s", el.socketPath)
	return nil
}

func (el *eventListener) stop() {
	el.mu.Lock()
	conn, done := el.conn, el.done
	el.conn = nil
	el.mu.Unlock()

	if conn == nil {
		return
	}
	// closing the connection unblocks the scanner
	conn.Close()
	<-done
}

func (el *eventListener) readLoop(conn net.Conn, done chan struct{}) {
	defer close(done)

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 4096), ipcLineLimit)
	for scanner.Scan() {
		var msg ipcMessage
		if err := json.Unmarshal(scanner.Bytes(), &msg); err != nil {
			continue
		}
		if msg.Event == "" {
			continue
		}
		el.handle(msg)
	}

	if err := scanner.Err(); err != nil {
		log.Debugf("mpv event listener stopped: %v", err)
	}
}
