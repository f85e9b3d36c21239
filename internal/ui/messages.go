package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/lookout/internal/state"
)

type tickMsg time.Time

type snapshotMsg state.Snapshot

type serviceResultMsg struct {
	action string
	err    error
}

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func fetchSnapshotCmd(store *state.Store) tea.Cmd {
	return func() tea.Msg {
		if store == nil {
			return nil
		}
		return snapshotMsg(store.Snapshot())
	}
}

func startCmd(service Service) tea.Cmd {
	return func() tea.Msg {
		return serviceResultMsg{action: "start", err: service.Start()}
	}
}

func stopCmd(service Service) tea.Cmd {
	return func() tea.Msg {
		service.Stop()
		return serviceResultMsg{action: "stop"}
	}
}
