// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// chat.go - Interactive chat command handler for murmur CLI.
//
// Handles the "murmur chat" command which provides a readline-style REPL
// for conversing with the model server. The REPL shares the slash-command
// set with the TUI, so /model, /voice, and friends behave identically in
// both surfaces.
//
// Command: chat
// Short:   Start an interactive chat session in the terminal
// Aliases: (none)
//
// Examples:
//   murmur chat                       Start chatting (saved or default model)
//   murmur chat --model llama3.2:3b   Use a specific model
//   murmur chat --no-speech           Disable spoken replies for this run
//
// Flags:
//   -m, --model NAME    Use specific model (overrides saved preference)
//   --no-speech         Disable speech output
//   -q, --quiet         Minimal output
//
// Interactive Commands (during chat):
//   /help, /h           Show available commands
//   /clear, /c          Clear the conversation
//   /model [name]       Show or switch model
//   /models             List models on the server
//   /voice [name]       Show or switch synthesis voice
//   /speak [on|off]     Toggle spoken replies
//   /status             Show session status
//   /history            Show conversation history
//   /quit, /q           Exit chat
//   Ctrl+D              Exit chat
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/peterh/liner"

	"github.com/jeranaias/murmur/internal/commands"
	"github.com/jeranaias/murmur/internal/config"
	"github.com/jeranaias/murmur/internal/model"
	"github.com/jeranaias/murmur/internal/ollama"
	"github.com/jeranaias/murmur/internal/prefs"
	"github.com/jeranaias/murmur/internal/session"
	"github.com/jeranaias/murmur/internal/speech"
)

// =============================================================================
// STYLES
// =============================================================================

var (
	// Prompt style
	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("45")).
			Bold(true)

	// Welcome banner style
	welcomeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")).
			Bold(true)

	// Info style
	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))

	// Command style
	commandStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("82"))

	// Warning style
	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("220"))

	// Session summary header
	summaryHeaderStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("39")).
				Bold(true)
)

// =============================================================================
// INPUT HISTORY
// =============================================================================

// ChatCLI provides input history, line editing, and tab completion for
// interactive chat. Arrow keys navigate history; Tab completes slash
// commands and model names.
type ChatCLI struct {
	line        *liner.State
	historyFile string
}

// NewChatCLI creates a new ChatCLI with input history and completion.
func NewChatCLI(completer *commands.Completer) *ChatCLI {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	if completer != nil {
		line.SetCompleter(func(text string) []string {
			return completeLine(completer, text)
		})
	}

	// History lives next to the config file
	configDir, err := config.ConfigDir()
	if err != nil {
		configDir = os.TempDir()
	}
	historyFile := filepath.Join(configDir, "chat_history")

	cli := &ChatCLI{
		line:        line,
		historyFile: historyFile,
	}

	cli.LoadHistory()

	return cli
}

// completeLine adapts slash-command completions to liner's whole-line
// contract: each returned string replaces the entire input line.
func completeLine(completer *commands.Completer, text string) []string {
	comps := completer.Complete(text, len(text))
	if len(comps) == 0 {
		return nil
	}

	// Completions replace the trailing token only.
	head := text
	if !strings.HasSuffix(text, " ") && !strings.HasSuffix(text, "\t") {
		if i := strings.LastIndexAny(text, " \t"); i >= 0 {
			head = text[:i+1]
		} else {
			head = ""
		}
	}

	out := make([]string, 0, len(comps))
	for _, comp := range comps {
		out = append(out, head+comp.Value)
	}
	return out
}

// LoadHistory loads command history from file.
func (c *ChatCLI) LoadHistory() {
	if f, err := os.Open(c.historyFile); err == nil {
		c.line.ReadHistory(f)
		f.Close()
	}
}

// ReadInput reads a line of input with the given prompt.
// Supports history navigation with arrow keys.
func (c *ChatCLI) ReadInput(prompt string) (string, error) {
	input, err := c.line.Prompt(prompt)
	if err != nil {
		return "", err
	}

	if strings.TrimSpace(input) != "" {
		c.line.AppendHistory(input)
	}

	return input, nil
}

// SaveHistory persists command history to file with owner-only permissions.
func (c *ChatCLI) SaveHistory() {
	if err := config.EnsureConfigDir(); err != nil {
		return
	}

	f, err := os.OpenFile(c.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return
	}
	defer f.Close()

	c.line.WriteHistory(f)
}

// Close saves history and closes the liner.
func (c *ChatCLI) Close() {
	c.SaveHistory()
	c.line.Close()
}

// =============================================================================
// SESSION STATE
// =============================================================================

// ChatSession holds the state for an interactive chat session.
type ChatSession struct {
	// Configuration
	Config *config.Config

	// Clients and state
	Client  *ollama.Client
	Session *session.Session

	// Prefs persists selections across restarts; nil when the store is
	// held by another murmur process.
	Prefs *prefs.Manager

	// Player speaks completed replies; nil when speech output is
	// disabled or the playback binary is missing.
	Player *speech.Player

	// Slash command machinery shared with the TUI
	registry *commands.Registry
	parser   *commands.Parser
	cmdCtx   *commands.Context

	// Options
	Quiet bool

	// Input history handler
	InputCLI *ChatCLI
}

// NewChatSession creates a new chat session.
func NewChatSession(args Args) *ChatSession {
	cfg, err := config.Load()
	if err != nil {
		cfg = config.Default()
	}
	if args.NoSpeech {
		cfg.Speech.Enabled = false
	}

	client := serverClient(cfg)

	// Saved preferences survive restarts. The store is busy when another
	// murmur process holds it; this session then runs on defaults and
	// selections are not persisted.
	var prefMgr *prefs.Manager
	if dir, err := config.ConfigDir(); err == nil {
		if store, err := prefs.OpenBadger(prefs.BadgerOptions{Dir: filepath.Join(dir, "prefs")}); err == nil {
			mgr, err := prefs.NewManager(context.Background(), store)
			if err != nil {
				store.Close()
			} else {
				prefMgr = mgr
			}
		}
	}
	if prefMgr == nil && !args.Quiet {
		fmt.Fprintln(os.Stderr, warningStyle.Render("[Note]")+
			" preferences unavailable; selections will not be saved")
	}

	var saved prefs.Preferences
	if prefMgr != nil {
		saved = prefMgr.Current()
	}

	// Determine model to use (CLI arg > saved preference > config > client default)
	modelName := args.Model
	if modelName == "" {
		modelName = saved.Model
	}
	if modelName == "" {
		modelName = cfg.DefaultModel
	}
	if modelName == "" {
		modelName = client.DefaultModel()
	}

	player := buildPlayer(cfg, saved)

	sessCfg := session.Config{Client: client, Model: modelName}
	if player != nil {
		sessCfg.Speaker = player
	}
	sess := session.New(sessCfg)

	registry := commands.NewRegistry()
	completer := commands.NewCompleter(registry)
	completer.ModelsFn = func() []string {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()

		models, err := client.ListModels(ctx)
		if err != nil {
			return nil
		}
		names := make([]string, 0, len(models))
		for _, m := range models {
			names = append(names, m.Name)
		}
		return names
	}

	return &ChatSession{
		Config:   cfg,
		Client:   client,
		Session:  sess,
		Prefs:    prefMgr,
		Player:   player,
		registry: registry,
		parser:   commands.NewParser(registry),
		cmdCtx:   commands.NewContext(cfg, client, sess, prefMgr),
		Quiet:    args.Quiet,
		InputCLI: NewChatCLI(completer),
	}
}

// buildPlayer wires the synthesizer and playback pipeline. Returns nil when
// speech output is disabled or the playback binary is missing; replies then
// stay text-only.
func buildPlayer(cfg *config.Config, saved prefs.Preferences) *speech.Player {
	if !cfg.Speech.Enabled {
		return nil
	}

	voice := saved.Voice
	if voice == "" {
		voice = cfg.Speech.Voice
	}

	synth := speech.NewHTTPSynthesizer(speech.SynthesizerConfig{
		BaseURL: cfg.Speech.SynthesizerURL,
	})

	player, err := speech.NewPlayer(speech.PlayerConfig{
		Synth:   synth,
		Command: cfg.Speech.Player,
		Voice:   voice,
		Enabled: saved.SpeakReplies,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s speech output unavailable: %v\n",
			warningStyle.Render("[Speech]"), err)
		return nil
	}
	return player
}

// Close releases session resources: input history, playback, preferences.
func (s *ChatSession) Close() {
	s.InputCLI.Close()
	if s.Player != nil {
		s.Player.Close()
	}
	if s.Prefs != nil {
		s.Prefs.Close()
	}
}

// =============================================================================
// CHAT HANDLER
// =============================================================================

// HandleChatCommand handles the "chat" command with full interactive support.
func HandleChatCommand(args Args) error {
	chat := NewChatSession(args)
	defer chat.Close()

	// Check if Ollama is running
	ctx := context.Background()
	if err := chat.Client.CheckRunning(ctx); err != nil {
		return fmt.Errorf("Ollama is not running. Start it with: ollama serve")
	}

	if !chat.Quiet {
		printWelcome(chat)
	}

	// A SIGINT that lands while a reply is streaming must not kill the
	// process; the turn runs to natural completion or transport failure.
	// At the prompt, liner handles Ctrl+C itself (ErrPromptAborted).
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		for range sigChan {
			if chat.Session.Awaiting() {
				fmt.Fprintln(os.Stderr, "\n"+warningStyle.Render("[Busy]")+
					" reply still streaming; it will finish on its own")
			}
		}
	}()

	// Main REPL loop using liner for input history
	for {
		input, err := chat.InputCLI.ReadInput(promptStyle.Render("murmur> "))
		if err != nil {
			if err == liner.ErrPromptAborted {
				// Ctrl+C pressed - exit gracefully
				fmt.Println()
				printExitSummary(chat)
				return nil
			}
			// EOF (Ctrl+D) or other error - exit gracefully
			fmt.Println()
			printExitSummary(chat)
			return nil
		}

		input = strings.TrimSpace(input)

		// Skip empty input
		if input == "" {
			continue
		}

		// /history is REPL-only; the TUI shows the transcript inline
		if strings.EqualFold(input, "/history") {
			printHistory(chat)
			continue
		}

		// Slash commands go through the shared registry
		if cmd := commands.Execute(chat.parser, chat.cmdCtx, input); cmd != nil {
			if !applyCommand(chat, cmd) {
				printExitSummary(chat)
				return nil
			}
			continue
		}

		// Handle exit/quit without slash
		if strings.EqualFold(input, "exit") || strings.EqualFold(input, "quit") {
			printExitSummary(chat)
			return nil
		}

		// Process the message
		if err := processMessage(chat, input); err != nil {
			fmt.Fprintf(os.Stderr, "%s %v\n",
				errorStyle.Render("[Error]"),
				err)
		}
	}
}

// =============================================================================
// MESSAGE PROCESSING
// =============================================================================

// processMessage runs one chat turn, echoing the reply as it streams.
func processMessage(s *ChatSession, input string) error {
	if s.Session.Awaiting() {
		fmt.Fprintln(os.Stderr, warningStyle.Render("[Busy]")+
			" still waiting for the previous reply")
		return nil
	}

	startTime := time.Now()
	fmt.Println() // Space before response

	// The printer follows session updates while Send blocks. It drains
	// once more after Send returns so the final update is never lost.
	turnStart := s.Session.Conversation().Len()
	stop := make(chan struct{})
	printerDone := make(chan struct{})
	go func() {
		defer close(printerDone)
		echoTurn(s.Session, turnStart, stop)
	}()

	err := s.Session.Send(context.Background(), input)
	close(stop)
	<-printerDone

	if errors.Is(err, session.ErrBusy) {
		fmt.Fprintln(os.Stderr, warningStyle.Render("[Busy]")+
			" still waiting for the previous reply")
		return nil
	}

	fmt.Println()
	fmt.Println() // Extra space after response

	// Transport failures are already in the transcript as diagnostic
	// entries; the printer has echoed them.
	if !s.Quiet && err == nil {
		showBriefStats(s, time.Since(startTime))
	}

	return nil
}

// echoTurn prints transcript entries appended after turnStart while a turn
// streams. Reply text is printed as a growing suffix so deltas appear as
// they arrive; diagnostic entries are printed in error style.
func echoTurn(sess *session.Session, turnStart int, stop <-chan struct{}) {
	next := turnStart + 1 // position after the echoed user message
	printed := 0

	flush := func() {
		msgs := sess.Conversation().Messages()
		for next < len(msgs) {
			msg := msgs[next]
			if msg.Sender != model.SenderAssistant {
				// Not part of the reply; skip without echoing
				next++
				printed = 0
				continue
			}

			if len(msg.Text) > printed {
				chunk := msg.Text[printed:]
				if msg.Diagnostic {
					fmt.Print(errorStyle.Render(chunk))
				} else {
					fmt.Print(chunk)
				}
				printed = len(msg.Text)
			}

			if next == len(msgs)-1 {
				// The last entry may still be growing
				return
			}
			fmt.Println()
			next++
			printed = 0
		}
	}

	for {
		select {
		case <-sess.Updates():
			flush()
		case <-stop:
			flush()
			return
		}
	}
}

// showBriefStats shows brief stats after a response.
func showBriefStats(s *ChatSession, duration time.Duration) {
	fmt.Fprintf(os.Stderr, "%s %s | %s | ~%d tokens in context\n",
		infoStyle.Render("[Stats]"),
		commandStyle.Render(s.Session.Model()),
		duration.Round(time.Millisecond),
		s.Session.Conversation().EstimateTokens())
}

// =============================================================================
// COMMAND DISPATCH
// =============================================================================

// applyCommand runs one command message against REPL state. Reports false
// when the command asks to exit.
func applyCommand(s *ChatSession, cmd tea.Cmd) bool {
	switch msg := cmd().(type) {
	case tea.QuitMsg:
		return false

	case commands.ShowHelpMsg:
		printHelp(s, msg.Topic)

	case commands.ClearConversationMsg:
		if err := s.Session.Reset(); err != nil {
			fmt.Fprintf(os.Stderr, "%s %v\n", errorStyle.Render("[Error]"), err)
			return true
		}
		fmt.Println(commandStyle.Render("[Conversation cleared]"))

	case commands.ModelSwitchMsg:
		switchModel(s, msg.Model)

	case commands.ShowModelsMsg:
		printModels(s)

	case commands.VoiceSwitchMsg:
		switchVoice(s, msg.Voice)

	case commands.SpeakToggleMsg:
		toggleSpeak(s, msg)

	case commands.ShowStatusMsg:
		printStatus(s)

	case commands.SystemMessageMsg:
		fmt.Println(infoStyle.Render(msg.Content))

	case commands.ErrorMsg:
		fmt.Fprintf(os.Stderr, "%s %s\n",
			errorStyle.Render("["+msg.Title+"]"),
			msg.Message)
		if msg.Tip != "" {
			fmt.Fprintln(os.Stderr, infoStyle.Render(msg.Tip))
		}
	}

	return true
}

// switchModel applies a model switch to the session and persists the choice.
func switchModel(s *ChatSession, name string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Warn when the model is not installed, but switch anyway; the server
	// reports the real error on the next send.
	if models, err := s.Client.ListModels(ctx); err == nil {
		found := false
		for _, m := range models {
			if m.Name == name || strings.HasPrefix(m.Name, name+":") {
				found = true
				break
			}
		}
		if !found {
			fmt.Fprintf(os.Stderr, "%s model %q not found on the server, using it anyway\n",
				warningStyle.Render("[Warning]"), name)
		}
	}

	s.Session.SetModel(name)
	persistPref(s, "model", func(ctx context.Context) error {
		return s.Prefs.SetModel(ctx, name)
	})

	fmt.Printf("%s Switched to model: %s\n",
		commandStyle.Render("[OK]"),
		name)
}

// switchVoice applies a synthesis voice change and persists it.
func switchVoice(s *ChatSession, voice string) {
	if s.Player == nil {
		fmt.Fprintln(os.Stderr, warningStyle.Render("[Speech]")+
			" speech output is not available in this session")
		return
	}

	s.Player.SetVoice(voice)
	persistPref(s, "voice", func(ctx context.Context) error {
		return s.Prefs.SetVoice(ctx, voice)
	})

	fmt.Printf("%s Voice set to: %s\n",
		commandStyle.Render("[OK]"),
		voice)
}

// toggleSpeak flips or sets the spoken-replies state and persists it.
func toggleSpeak(s *ChatSession, msg commands.SpeakToggleMsg) {
	if s.Player == nil {
		fmt.Fprintln(os.Stderr, warningStyle.Render("[Speech]")+
			" speech output is not available in this session")
		return
	}

	on := !s.Player.Enabled()
	if msg.Explicit {
		on = msg.On
	}

	s.Player.SetEnabled(on)
	persistPref(s, "speak", func(ctx context.Context) error {
		return s.Prefs.SetSpeakReplies(ctx, on)
	})

	state := "off"
	if on {
		state = "on"
	}
	fmt.Printf("%s spoken replies %s\n",
		commandStyle.Render("[Speak]"),
		state)
}

// persistPref writes one preference change through the manager, warning
// instead of failing when the store is unavailable.
func persistPref(s *ChatSession, what string, write func(ctx context.Context) error) {
	if s.Prefs == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := write(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "%s could not save %s preference: %v\n",
			warningStyle.Render("[Warning]"), what, err)
	}
}

// printModels lists the models installed on the server.
func printModels(s *ChatSession) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	models, err := s.Client.ListModels(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", errorStyle.Render("[Error]"), err)
		return
	}
	if len(models) == 0 {
		fmt.Println(infoStyle.Render("[No models installed. Pull one with: ollama pull llama3.2]"))
		return
	}

	current := s.Session.Model()

	fmt.Println()
	fmt.Println(summaryHeaderStyle.Render("Installed Models"))
	fmt.Println(infoStyle.Render(strings.Repeat("─", 20)))
	fmt.Println()

	for _, m := range models {
		marker := "  "
		name := fmt.Sprintf("%-30s", m.Name)
		if m.Name == current {
			marker = commandStyle.Render("* ")
			name = commandStyle.Render(name)
		}
		fmt.Printf("  %s%s %s\n", marker, name, infoStyle.Render(ollama.FormatSize(m.Size)))
	}

	fmt.Println()
	fmt.Println(infoStyle.Render("Switch with: /model <name>"))
	fmt.Println()
}

// =============================================================================
// DISPLAY FUNCTIONS
// =============================================================================

// printWelcome prints the welcome banner.
func printWelcome(s *ChatSession) {
	fmt.Println()
	fmt.Println(welcomeStyle.Render("murmur interactive chat"))
	fmt.Println(infoStyle.Render(strings.Repeat("─", 30)))
	fmt.Printf("%s %s\n",
		infoStyle.Render("Model:"),
		commandStyle.Render(s.Session.Model()))
	fmt.Printf("%s %s\n",
		infoStyle.Render("Server:"),
		commandStyle.Render(s.Config.Server.URL))

	if s.Player != nil {
		state := "off"
		if s.Player.Enabled() {
			state = "on"
			if v := s.Player.Voice(); v != "" {
				state = "on (" + v + ")"
			}
		}
		fmt.Printf("%s %s\n",
			infoStyle.Render("Speak:"),
			commandStyle.Render(state))
	} else if s.Config.Speech.Enabled {
		fmt.Printf("%s %s\n",
			infoStyle.Render("Speak:"),
			warningStyle.Render("unavailable"))
	}

	fmt.Println()
	fmt.Println(infoStyle.Render("Type your message and press Enter. Commands: /help, /quit"))
	fmt.Println()
}

// printHelp prints available commands, or detail for one command when a
// topic is given.
func printHelp(s *ChatSession, topic string) {
	if topic != "" {
		printCommandHelp(s, topic)
		return
	}

	fmt.Println()
	fmt.Println(summaryHeaderStyle.Render("Available Commands"))
	fmt.Println(infoStyle.Render(strings.Repeat("─", 20)))
	fmt.Println()

	for _, cmd := range s.registry.All() {
		if cmd.Hidden {
			continue
		}
		usage := cmd.Name
		if len(cmd.Aliases) > 0 {
			usage += ", " + strings.Join(cmd.Aliases, ", ")
		}
		fmt.Printf("  %s  %s\n",
			commandStyle.Render(fmt.Sprintf("%-18s", usage)),
			infoStyle.Render(cmd.Description))
	}
	fmt.Printf("  %s  %s\n",
		commandStyle.Render(fmt.Sprintf("%-18s", "/history")),
		infoStyle.Render("Show conversation history"))

	fmt.Println()
	fmt.Println(infoStyle.Render("Tip: Tab completes commands and model names, Ctrl+D exits"))
	fmt.Println()
}

// printCommandHelp prints usage detail for a single command.
func printCommandHelp(s *ChatSession, topic string) {
	if !strings.HasPrefix(topic, "/") {
		topic = "/" + topic
	}

	cmd := s.registry.Get(topic)
	if cmd == nil {
		fmt.Fprintf(os.Stderr, "%s unknown command: %s\n",
			errorStyle.Render("[Error]"), topic)
		return
	}

	usage := cmd.Usage
	if usage == "" {
		usage = cmd.Name
	}

	fmt.Println()
	fmt.Printf("  %s  %s\n",
		commandStyle.Render(usage),
		infoStyle.Render(cmd.Description))
	if len(cmd.Aliases) > 0 {
		fmt.Printf("  %s %s\n",
			infoStyle.Render("Aliases:"),
			strings.Join(cmd.Aliases, ", "))
	}
	fmt.Println()
}

// printStatus prints session statistics.
func printStatus(s *ChatSession) {
	status := s.Session.GetStatus()
	elapsed := time.Since(status.StartTime).Round(time.Second)

	fmt.Println()
	fmt.Println(summaryHeaderStyle.Render("Session Status"))
	fmt.Println(infoStyle.Render(strings.Repeat("─", 20)))
	fmt.Println()

	fmt.Printf("  %s %s\n",
		infoStyle.Render("Model:"),
		commandStyle.Render(status.Model))
	fmt.Printf("  %s %s\n",
		infoStyle.Render("Server:"),
		commandStyle.Render(s.Config.Server.URL))
	fmt.Printf("  %s %s\n",
		infoStyle.Render("Session:"),
		status.SessionID)
	fmt.Printf("  %s %s\n",
		infoStyle.Render("Duration:"),
		elapsed.String())
	fmt.Printf("  %s %d messages (~%d tokens)\n",
		infoStyle.Render("History:"),
		status.MessageCount,
		s.Session.Conversation().EstimateTokens())

	speak := "unavailable"
	if s.Player != nil {
		speak = "off"
		if s.Player.Enabled() {
			speak = "on"
			if v := s.Player.Voice(); v != "" {
				speak = "on (" + v + ")"
			}
		}
	}
	fmt.Printf("  %s %s\n",
		infoStyle.Render("Speak:"),
		speak)

	fmt.Println()
}

// printHistory prints conversation history.
func printHistory(s *ChatSession) {
	msgs := s.Session.Conversation().Messages()
	if len(msgs) == 0 {
		fmt.Println(infoStyle.Render("[No messages yet]"))
		return
	}

	fmt.Println()
	fmt.Println(summaryHeaderStyle.Render("Conversation History"))
	fmt.Println(infoStyle.Render(strings.Repeat("─", 25)))
	fmt.Println()

	for i, msg := range msgs {
		who := msg.Sender.DisplayName()
		switch {
		case msg.Diagnostic:
			who = errorStyle.Render(who)
		case msg.Sender == model.SenderUser:
			who = promptStyle.Render(who)
		default:
			who = commandStyle.Render(who)
		}

		preview := strings.ReplaceAll(msg.Preview(100), "\n", " ")
		fmt.Printf("  %d. %s: %s\n", i+1, who, preview)
	}

	fmt.Println()
}

// printExitSummary prints the session summary on exit.
func printExitSummary(s *ChatSession) {
	status := s.Session.GetStatus()

	// Skip if nothing happened
	if status.MessageCount == 0 {
		fmt.Println(infoStyle.Render("Goodbye!"))
		return
	}

	elapsed := time.Since(status.StartTime).Round(time.Second)

	fmt.Println()
	fmt.Println(summaryHeaderStyle.Render("Session Summary"))
	fmt.Println(infoStyle.Render(strings.Repeat("─", 15)))

	fmt.Printf("  %s %d\n",
		infoStyle.Render("Messages:"),
		status.MessageCount)
	fmt.Printf("  %s ~%d tokens\n",
		infoStyle.Render("Context:"),
		s.Session.Conversation().EstimateTokens())
	fmt.Printf("  %s %s\n",
		infoStyle.Render("Duration:"),
		elapsed.String())

	fmt.Println()
	fmt.Println(infoStyle.Render("Goodbye!"))
}
