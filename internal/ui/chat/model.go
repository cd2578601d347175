// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/murmur/internal/commands"
	"github.com/jeranaias/murmur/internal/config"
	"github.com/jeranaias/murmur/internal/ollama"
	"github.com/jeranaias/murmur/internal/prefs"
	"github.com/jeranaias/murmur/internal/session"
	"github.com/jeranaias/murmur/internal/speech"
	"github.com/jeranaias/murmur/internal/ui/components"
	"github.com/jeranaias/murmur/internal/ui/styles"
)

// =============================================================================
// LAYOUT CONSTANTS
// =============================================================================

// Conservative reserved heights. The view measures actual chrome and
// corrects, but the viewport must never be sized optimistically or the
// terminal scrolls.
const (
	headerHeight    = 1
	inputAreaHeight = 3 // border/listening line + input line + hint line
	statusBarHeight = 1
)

// =============================================================================
// MODEL
// =============================================================================

// Config carries the dependencies for a chat Model. Session is required;
// everything else degrades gracefully when nil.
type Config struct {
	Session    *session.Session
	Client     *ollama.Client
	AppConfig  *config.Config
	Prefs      *prefs.Manager
	Player     *speech.Player
	Recognizer speech.Recognizer
	Version    string
}

// Model is the Bubble Tea model for the chat view.
type Model struct {
	// Dependencies
	sess       *session.Session
	client     *ollama.Client
	appCfg     *config.Config
	prefs      *prefs.Manager
	player     *speech.Player
	recognizer speech.Recognizer
	version    string

	// Command plumbing
	registry  *commands.Registry
	parser    *commands.Parser
	completer *commands.Completer
	compState *commands.CompletionState
	cmdCtx    *commands.Context

	// Widgets
	theme    *styles.Theme
	keys     KeyMap
	viewport viewport.Model
	input    textinput.Model
	spin     spinner.Model
	list     *components.MessageList
	picker   *components.ModelPicker
	welcome  components.Welcome

	// Layout
	width  int
	height int
	ready  bool

	// Redraw throttle. Session activity sets dirty; the next render tick
	// rebuilds the transcript once, however many deltas arrived meanwhile.
	dirty       bool
	tickPending bool

	// Overlays and notices
	showHelp bool
	errBox   *components.ErrorBanner
	notice   string

	// Voice state
	listening  bool
	partial    string
	listenTick int
	speakOn    bool

	// Server state from the startup probe
	serverUp  bool
	serverErr string

	// Cached model names for argument completion
	modelNames []string
}

// New creates a chat model wired to the given dependencies.
func New(cfg Config) Model {
	theme := styles.NewTheme()

	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Type a message or /command..."
	ti.CharLimit = 4096
	ti.Focus()

	vp := viewport.New(80, 20)
	vp.SetContent("")

	spinCfg := styles.SpinnerForProfile(theme)
	sp := spinner.New()
	sp.Spinner = spinner.Spinner{
		Frames: spinCfg.Frames,
		FPS:    time.Second / time.Duration(spinCfg.FPS),
	}
	sp.Style = theme.Spinner

	registry := commands.NewRegistry()

	welcome := components.NewWelcome(theme)
	welcome.Version = cfg.Version
	if cfg.Session != nil {
		welcome.ModelName = cfg.Session.Model()
	}
	if cfg.Client != nil {
		welcome.ServerURL = cfg.Client.BaseURL()
	}
	welcome.VoiceOK = cfg.Recognizer != nil
	speakOn := false
	if cfg.Player != nil {
		speakOn = cfg.Player.Enabled()
	}
	welcome.SpeakOn = speakOn

	return Model{
		sess:       cfg.Session,
		client:     cfg.Client,
		appCfg:     cfg.AppConfig,
		prefs:      cfg.Prefs,
		player:     cfg.Player,
		recognizer: cfg.Recognizer,
		version:    cfg.Version,

		registry:  registry,
		parser:    commands.NewParser(registry),
		completer: commands.NewCompleter(registry),
		compState: commands.NewCompletionState(),
		cmdCtx:    commands.NewContext(cfg.AppConfig, cfg.Client, cfg.Session, cfg.Prefs),

		theme:    theme,
		keys:     DefaultKeyMap(),
		viewport: vp,
		input:    ti,
		spin:     sp,
		list:     components.NewMessageList(theme),
		picker:   components.NewModelPicker(theme),
		welcome:  welcome,

		speakOn:  speakOn,
		serverUp: true,
	}
}

// Init starts the background listeners.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		textinput.Blink,
		m.spin.Tick,
		checkServer(m.client),
		waitForActivity(m.sess),
	}
	if cmd := listenForVoice(m.recognizer); cmd != nil {
		cmds = append(cmds, cmd)
	}
	return tea.Batch(cmds...)
}

// =============================================================================
// LAYOUT
// =============================================================================

// handleResize recomputes widget dimensions for a new terminal size.
func (m *Model) handleResize(width, height int) {
	m.width = width
	m.height = height
	m.ready = true

	m.theme.SetSize(width, height)
	m.picker.SetSize(width, height)

	viewportHeight := height - headerHeight - inputAreaHeight - statusBarHeight
	if viewportHeight < 1 {
		viewportHeight = 1
	}
	m.viewport.Width = width
	m.viewport.Height = viewportHeight
	m.welcome.SetSize(width, viewportHeight)

	// The input line wraps the textinput in a Padding(0,1) border box, and
	// the prompt "> " eats two more cells.
	inputWidth := width - 6 - len(m.input.Prompt)
	if inputWidth < 10 {
		inputWidth = 10
	}
	m.input.Width = inputWidth

	m.list.SetWidth(width - 2)
	m.refreshTranscript()
}

// =============================================================================
// TRANSCRIPT
// =============================================================================

// refreshTranscript rebuilds the viewport content from the session
// snapshot. Scroll position is preserved unless the user was already at
// the bottom, in which case the view follows the stream.
func (m *Model) refreshTranscript() {
	msgs := m.sess.Conversation().Messages()
	m.list.SetMessages(msgs)
	m.list.SetStreaming(m.sess.Awaiting())

	atBottom := m.viewport.AtBottom()
	if m.list.Len() == 0 {
		m.viewport.SetContent(m.welcome.View())
	} else {
		m.viewport.SetContent(m.list.View())
	}
	if atBottom {
		m.viewport.GotoBottom()
	}
}

// markDirty schedules a coalesced redraw.
func (m *Model) markDirty() tea.Cmd {
	m.dirty = true
	if m.tickPending {
		return nil
	}
	m.tickPending = true
	return renderTick()
}
