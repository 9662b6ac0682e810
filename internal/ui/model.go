// Package ui holds small bubbletea building blocks shared by the terminal interface.
package ui

import (
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/livetv-cli/livetv/style"
)

// NotificationTimeout is how long a notification stays on screen.
const NotificationTimeout = 3 * time.Second

// Model shows one short-lived notification next to the last line of a view.
type Model struct {
	notification string
	notifiedAt   time.Time
}

type notificationMsg string

// ClearNotificationMsg clears the notification shown at At, unless a newer one replaced it.
type ClearNotificationMsg struct {
	At time.Time
}

// Notify returns a command that shows text.
func Notify(text string) tea.Cmd {
	return func() tea.Msg {
		return notificationMsg(text)
	}
}

func clearNotification(at time.Time) tea.Cmd {
	return tea.Tick(NotificationTimeout, func(time.Time) tea.Msg {
		return ClearNotificationMsg{At: at}
	})
}

func (m *Model) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case notificationMsg:
		m.notification = string(msg)
		m.notifiedAt = time.Now()
		return clearNotification(m.notifiedAt)
	case ClearNotificationMsg:
		if msg.At.Equal(m.notifiedAt) {
			m.notification = ""
		}
	}
	return nil
}

// Current returns the visible notification, empty when there is none.
func (m *Model) Current() string {
	return m.notification
}

// View appends the notification to the last line of content.
func (m *Model) View(content string) string {
	if m.notification == "" {
		return content
	}

	lines := strings.Split(content, "\n")
	lines[len(lines)-1] += "  " + style.Faint(m.notification)
	return strings.Join(lines, "\n")
}
