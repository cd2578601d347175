// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/murmur/internal/config"
	"github.com/jeranaias/murmur/internal/ollama"
	"github.com/jeranaias/murmur/internal/session"
	"github.com/jeranaias/murmur/internal/speech"
)

// =============================================================================
// MESSAGES
// =============================================================================

// sessionActivityMsg signals that the session changed: a transcript delta,
// a gate flip, or a reset.
type sessionActivityMsg struct{}

// renderTickMsg drives the coalesced transcript refresh and the listening
// pulse animation.
type renderTickMsg time.Time

// serverStatusMsg reports the startup reachability probe.
type serverStatusMsg struct {
	err error
}

// modelsLoadedMsg carries the installed model list for the picker.
type modelsLoadedMsg struct {
	models []ollama.ModelInfo
	err    error
}

// voiceEventMsg wraps one recognizer event.
type voiceEventMsg struct {
	event speech.Event
}

// voiceStartResultMsg reports whether capture actually started.
type voiceStartResultMsg struct {
	err error
}

// sendFinishedMsg reports a completed turn. Transport and decode failures
// are already in the transcript as diagnostic entries by the time this
// arrives, so only gate rejections need surfacing here.
type sendFinishedMsg struct {
	err error
}

// ConfigReloadedMsg carries a freshly loaded configuration after the file
// changed on disk. Sent from outside the program loop by the config
// watcher.
type ConfigReloadedMsg struct {
	Cfg *config.Config
}

// =============================================================================
// COMMANDS
// =============================================================================

// renderInterval caps transcript redraws at roughly 30fps. Token deltas
// arrive much faster than that during streaming.
const renderInterval = 33 * time.Millisecond

// probeTimeout bounds the startup reachability check and model listing.
// Chat turns themselves carry no deadline.
const probeTimeout = 5 * time.Second

// waitForActivity blocks on the session's coalesced update channel.
func waitForActivity(sess *session.Session) tea.Cmd {
	return func() tea.Msg {
		<-sess.Updates()
		return sessionActivityMsg{}
	}
}

// renderTick schedules the next coalesced redraw.
func renderTick() tea.Cmd {
	return tea.Tick(renderInterval, func(t time.Time) tea.Msg {
		return renderTickMsg(t)
	})
}

// checkServer probes the inference server once at startup.
func checkServer(client *ollama.Client) tea.Cmd {
	return func() tea.Msg {
		if client == nil {
			return serverStatusMsg{err: errors.New("no server configured")}
		}
		ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
		defer cancel()
		return serverStatusMsg{err: client.CheckRunning(ctx)}
	}
}

// loadModels fetches the installed model list for the picker.
func loadModels(client *ollama.Client) tea.Cmd {
	return func() tea.Msg {
		if client == nil {
			return modelsLoadedMsg{err: errors.New("no server configured")}
		}
		ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
		defer cancel()
		models, err := client.ListModels(ctx)
		return modelsLoadedMsg{models: models, err: err}
	}
}

// sendMessage runs one full turn off the UI goroutine. The turn has no
// deadline and no cancel path; it ends when the stream completes or the
// transport fails.
func sendMessage(sess *session.Session, text string) tea.Cmd {
	return func() tea.Msg {
		return sendFinishedMsg{err: sess.Send(context.Background(), text)}
	}
}

// listenForVoice receives one recognizer event. The handler re-issues it
// after each event so the channel is always drained.
func listenForVoice(rec speech.Recognizer) tea.Cmd {
	if rec == nil {
		return nil
	}
	return func() tea.Msg {
		ev, ok := <-rec.Events()
		if !ok {
			return nil
		}
		return voiceEventMsg{event: ev}
	}
}

// startVoice begins capture off the UI goroutine.
func startVoice(rec speech.Recognizer) tea.Cmd {
	return func() tea.Msg {
		return voiceStartResultMsg{err: rec.Start(context.Background())}
	}
}
