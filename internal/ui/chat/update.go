// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/murmur/internal/commands"
	"github.com/jeranaias/murmur/internal/prefs"
	"github.com/jeranaias/murmur/internal/session"
	"github.com/jeranaias/murmur/internal/speech"
	"github.com/jeranaias/murmur/internal/ui/components"
	"github.com/jeranaias/murmur/internal/util"
)

// =============================================================================
// UPDATE
// =============================================================================

// Update handles all messages for the chat view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.handleResize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case sessionActivityMsg:
		cmds := []tea.Cmd{waitForActivity(m.sess)}
		if cmd := m.markDirty(); cmd != nil {
			cmds = append(cmds, cmd)
		}
		return m, tea.Batch(cmds...)

	case renderTickMsg:
		m.tickPending = false
		if m.listening {
			m.listenTick++
		}
		if m.dirty {
			m.dirty = false
			m.refreshTranscript()
		}
		// Keep ticking while something animates.
		if m.sess.Awaiting() || m.listening {
			m.tickPending = true
			return m, renderTick()
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case serverStatusMsg:
		m.serverUp = msg.err == nil
		if msg.err != nil {
			m.serverErr = msg.err.Error()
			banner := components.NewErrorBanner(
				"Server unreachable",
				msg.err.Error(),
				"Start it with: ollama serve",
				m.theme,
			)
			m.errBox = &banner
		}
		return m, nil

	case modelsLoadedMsg:
		if msg.err != nil {
			m.picker.SetError(msg.err.Error())
			return m, nil
		}
		m.picker.SetModels(msg.models)
		names := make([]string, 0, len(msg.models))
		for _, info := range msg.models {
			names = append(names, info.Name)
		}
		m.modelNames = names
		m.completer.ModelsFn = func() []string { return names }
		return m, nil

	case voiceEventMsg:
		cmds := []tea.Cmd{listenForVoice(m.recognizer)}
		if cmd := m.handleVoiceEvent(msg.event); cmd != nil {
			cmds = append(cmds, cmd)
		}
		return m, tea.Batch(cmds...)

	case voiceStartResultMsg:
		if msg.err == nil {
			// The recognizer reports EventStarted once capture is live.
			return m, nil
		}
		if errors.Is(msg.err, speech.ErrUnavailable) {
			log.Printf("speech: %v", msg.err)
			return m, nil
		}
		m.notice = "voice capture failed: " + msg.err.Error()
		return m, nil

	case sendFinishedMsg:
		// Transport and decode failures are already diagnostic transcript
		// entries; only the busy gate needs a nudge here.
		if errors.Is(msg.err, session.ErrBusy) {
			m.notice = "hold on, a reply is still streaming"
		}
		if cmd := m.markDirty(); cmd != nil {
			return m, cmd
		}
		return m, nil

	case ConfigReloadedMsg:
		if msg.Cfg != nil {
			m.appCfg = msg.Cfg
			m.cmdCtx.Config = msg.Cfg
			m.notice = "configuration reloaded"
		}
		return m, nil

	// --- command results ---

	case commands.ShowHelpMsg:
		return m.showHelpFor(msg.Topic)

	case commands.ClearConversationMsg:
		return m.clearConversation()

	case commands.ModelSwitchMsg:
		return m.switchModel(msg.Model)

	case commands.ShowModelsMsg:
		m.picker.Show(m.sess.Model())
		return m, loadModels(m.client)

	case commands.VoiceSwitchMsg:
		return m.switchVoice(msg.Voice)

	case commands.SpeakToggleMsg:
		return m.applySpeakToggle(msg)

	case commands.ShowStatusMsg:
		m.notice = m.statusSummary()
		return m, nil

	case commands.SystemMessageMsg:
		m.notice = msg.Content
		return m, nil

	case commands.ErrorMsg:
		banner := components.NewErrorBanner(msg.Title, msg.Message, msg.Tip, m.theme)
		m.errBox = &banner
		return m, nil
	}

	// Everything else (mouse wheel and friends) goes to the viewport.
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// =============================================================================
// KEY HANDLING
// =============================================================================

// handleKey routes a keypress. Overlays swallow input while visible.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		return m, tea.Quit
	}

	if m.errBox != nil {
		if key.Matches(msg, m.keys.Dismiss) || key.Matches(msg, m.keys.Send) {
			m.errBox = nil
		}
		return m, nil
	}

	if m.showHelp {
		if key.Matches(msg, m.keys.Dismiss) || key.Matches(msg, m.keys.Help) {
			m.showHelp = false
		}
		return m, nil
	}

	if m.picker.IsVisible() {
		return m.handlePickerKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Send):
		return m.submit()

	case key.Matches(msg, m.keys.Complete):
		if m.compState.Visible {
			m.compState.Next()
		} else {
			m.updateCompletions()
		}
		return m, nil

	case key.Matches(msg, m.keys.CompletePrev):
		if m.compState.Visible {
			m.compState.Prev()
		}
		return m, nil

	case key.Matches(msg, m.keys.Dismiss):
		if m.compState.Visible {
			m.compState.Clear()
		} else {
			m.notice = ""
		}
		return m, nil

	case key.Matches(msg, m.keys.Clear):
		return m.clearConversation()

	case key.Matches(msg, m.keys.Talk):
		return m.toggleVoice()

	case key.Matches(msg, m.keys.Speak):
		return m.applySpeakToggle(commands.SpeakToggleMsg{})

	case key.Matches(msg, m.keys.Models):
		m.picker.Show(m.sess.Model())
		return m, loadModels(m.client)

	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil

	case key.Matches(msg, m.keys.PageUp):
		m.viewport.HalfViewUp()
		return m, nil

	case key.Matches(msg, m.keys.PageDown):
		m.viewport.HalfViewDown()
		return m, nil
	}

	// Arrow keys move the completion selection while the popup is open.
	if m.compState.Visible {
		switch msg.String() {
		case "up":
			m.compState.Prev()
			return m, nil
		case "down":
			m.compState.Next()
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.updateCompletions()
	return m, cmd
}

// handlePickerKey drives the model picker while it is open.
func (m Model) handlePickerKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.picker.Hide()
	case "up", "k":
		m.picker.MoveUp()
	case "down", "j":
		m.picker.MoveDown()
	case "enter":
		if info, ok := m.picker.Selected(); ok {
			m.picker.Hide()
			return m.switchModel(info.Name)
		}
		m.picker.Hide()
	}
	return m, nil
}

// =============================================================================
// SUBMIT
// =============================================================================

// submit dispatches the input line: a slash command runs through the
// registry, anything else becomes a chat turn. Sending is gated while a
// reply is streaming; the input keeps its text so nothing is lost.
func (m Model) submit() (tea.Model, tea.Cmd) {
	if m.compState.Visible {
		m.acceptCompletion()
		return m, nil
	}

	text := strings.TrimSpace(m.input.Value())
	if text == "" {
		return m, nil
	}

	// Close the mic before the text goes anywhere.
	if m.listening && m.recognizer != nil {
		if err := m.recognizer.Stop(); err != nil {
			log.Printf("speech: stop capture: %v", err)
		}
		m.listening = false
		m.partial = ""
	}

	if commands.IsCommand(text) {
		m.input.Reset()
		m.compState.Clear()
		return m, commands.Execute(m.parser, m.cmdCtx, text)
	}

	if m.sess.Awaiting() {
		m.notice = "hold on, a reply is still streaming"
		return m, nil
	}

	m.input.Reset()
	m.notice = ""
	cmds := []tea.Cmd{sendMessage(m.sess, text)}
	if cmd := m.markDirty(); cmd != nil {
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

// =============================================================================
// COMPLETION
// =============================================================================

// updateCompletions recomputes suggestions from the current input.
func (m *Model) updateCompletions() {
	val := m.input.Value()
	if !strings.HasPrefix(strings.TrimLeft(val, " \t"), "/") {
		m.compState.Clear()
		return
	}
	m.compState.Update(val, m.completer.Complete(val, m.input.Position()))
}

// acceptCompletion splices the selected suggestion into the input. Command
// completions replace the whole line; argument completions replace only
// the partial token.
func (m *Model) acceptCompletion() {
	value := m.compState.Accept()
	if value == "" {
		return
	}
	cur := m.input.Value()
	if strings.HasPrefix(value, "/") {
		m.input.SetValue(value + " ")
	} else if idx := strings.LastIndexAny(cur, " \t"); idx >= 0 {
		m.input.SetValue(cur[:idx+1] + value + " ")
	} else {
		m.input.SetValue(value + " ")
	}
	m.input.CursorEnd()
	m.compState.Clear()
}

// =============================================================================
// VOICE
// =============================================================================

// toggleVoice starts or stops speech capture. A missing recognizer is a
// logged no-op. Capture cannot start while a reply is streaming.
func (m Model) toggleVoice() (tea.Model, tea.Cmd) {
	if m.recognizer == nil {
		log.Printf("speech: capture unavailable: no recognizer configured")
		return m, nil
	}
	if m.listening {
		if err := m.recognizer.Stop(); err != nil {
			log.Printf("speech: stop capture: %v", err)
		}
		m.listening = false
		m.partial = ""
		return m, nil
	}
	if m.sess.Awaiting() {
		m.notice = "wait for the reply to finish before talking"
		return m, nil
	}
	return m, startVoice(m.recognizer)
}

// handleVoiceEvent applies one recognizer event. Transcripts only ever
// land in the input field; the conversation is never touched from here.
func (m *Model) handleVoiceEvent(ev speech.Event) tea.Cmd {
	switch ev.Type {
	case speech.EventStarted:
		m.listening = true
		m.partial = ""
		m.listenTick = 0
		m.notice = ""
		return m.markDirty()

	case speech.EventTranscript:
		if ev.Final {
			m.appendTranscript(ev.Text)
			m.partial = ""
		} else {
			m.partial = ev.Text
		}
		return nil

	case speech.EventStopped:
		m.listening = false
		m.partial = ""
		return nil

	case speech.EventError:
		m.listening = false
		m.partial = ""
		if ev.Err != nil {
			log.Printf("speech: capture error: %v", ev.Err)
			m.notice = "voice capture stopped: " + ev.Err.Error()
		}
		return nil
	}
	return nil
}

// appendTranscript adds a final transcript to the pending input. The user
// still reviews and sends it themselves.
func (m *Model) appendTranscript(text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	cur := m.input.Value()
	if cur != "" && !strings.HasSuffix(cur, " ") {
		cur += " "
	}
	m.input.SetValue(cur + text)
	m.input.CursorEnd()
}

// =============================================================================
// COMMAND ACTIONS
// =============================================================================

// showHelpFor opens the help overlay, or puts one command's usage in the
// notice line when a topic was given.
func (m Model) showHelpFor(topic string) (tea.Model, tea.Cmd) {
	if topic == "" {
		m.showHelp = true
		return m, nil
	}
	name := topic
	if !strings.HasPrefix(name, "/") {
		name = "/" + name
	}
	if cmd := m.registry.Get(name); cmd != nil {
		m.notice = cmd.Usage + "  " + cmd.Description
	} else {
		m.notice = "no such command: " + name
	}
	return m, nil
}

// clearConversation resets the session unless a reply is streaming.
func (m Model) clearConversation() (tea.Model, tea.Cmd) {
	if err := m.sess.Reset(); err != nil {
		m.notice = err.Error()
		return m, nil
	}
	m.notice = "conversation cleared"
	m.refreshTranscript()
	return m, nil
}

// switchModel points the session at a different model and persists the
// choice.
func (m Model) switchModel(name string) (tea.Model, tea.Cmd) {
	if name == "" {
		return m, nil
	}
	m.sess.SetModel(name)
	m.welcome.ModelName = name
	m.notice = "model set to " + name
	m.refreshTranscript()
	return m, persistModel(m.prefs, name)
}

// switchVoice changes the synthesis voice.
func (m Model) switchVoice(voice string) (tea.Model, tea.Cmd) {
	if m.player == nil {
		m.notice = "speech playback is unavailable on this host"
		return m, nil
	}
	m.player.SetVoice(voice)
	m.notice = "voice set to " + voice
	return m, persistVoice(m.prefs, voice)
}

// applySpeakToggle flips or sets spoken replies.
func (m Model) applySpeakToggle(msg commands.SpeakToggleMsg) (tea.Model, tea.Cmd) {
	if m.player == nil {
		m.notice = "speech playback is unavailable on this host"
		return m, nil
	}
	on := !m.player.Enabled()
	if msg.Explicit {
		on = msg.On
	}
	m.player.SetEnabled(on)
	m.speakOn = on
	m.welcome.SpeakOn = on
	if on {
		m.notice = "spoken replies on"
	} else {
		m.notice = "spoken replies off"
	}
	m.refreshTranscript()
	return m, persistSpeak(m.prefs, on)
}

// statusSummary builds the one-line session status.
func (m Model) statusSummary() string {
	st := m.sess.GetStatus()
	parts := []string{"model " + st.Model}
	if m.client != nil {
		parts = append(parts, "server "+m.client.BaseURL())
	}
	parts = append(parts, util.IntToString(st.MessageCount)+" messages")
	if m.speakOn {
		parts = append(parts, "speaking replies")
	} else {
		parts = append(parts, "speech off")
	}
	if st.Awaiting {
		parts = append(parts, "reply streaming")
	}
	return strings.Join(parts, " | ")
}

// =============================================================================
// PREFERENCE PERSISTENCE
// =============================================================================

const persistTimeout = 2 * time.Second

// persistModel saves the model choice off the UI goroutine.
func persistModel(mgr *prefs.Manager, name string) tea.Cmd {
	if mgr == nil {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()
		if err := mgr.SetModel(ctx, name); err != nil {
			log.Printf("prefs: persist model: %v", err)
		}
		return nil
	}
}

// persistVoice saves the voice choice off the UI goroutine.
func persistVoice(mgr *prefs.Manager, voice string) tea.Cmd {
	if mgr == nil {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()
		if err := mgr.SetVoice(ctx, voice); err != nil {
			log.Printf("prefs: persist voice: %v", err)
		}
		return nil
	}
}

// persistSpeak saves the spoken-replies switch off the UI goroutine.
func persistSpeak(mgr *prefs.Manager, on bool) tea.Cmd {
	if mgr == nil {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()
		if err := mgr.SetSpeakReplies(ctx, on); err != nil {
			log.Printf("prefs: persist speak: %v", err)
		}
		return nil
	}
}
