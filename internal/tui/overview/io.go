package overview

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/yanorepuser4/dagster/pkg/refresh"
)

// stateMsg carries a refresh state published by the source.
type stateMsg struct {
	state refresh.State
}

// widthSavedMsg is sent after the sidebar width has been persisted.
type widthSavedMsg struct {
	px  int
	err error
}

// waitForState blocks on the subscription until the next state arrives.
func waitForState(ch <-chan refresh.State) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		st, ok := <-ch
		if !ok {
			return nil
		}
		return stateMsg{state: st}
	}
}

func saveWidthCmd(store WidthStore, px int) tea.Cmd {
	if store == nil {
		return nil
	}
	return func() tea.Msg {
		return widthSavedMsg{px: px, err: store.SetSidebarWidth(px)}
	}
}

func requestRefreshCmd(src StateSource) tea.Cmd {
	if src == nil {
		return nil
	}
	return func() tea.Msg {
		src.Request()
		return nil
	}
}
