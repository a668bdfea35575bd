package main

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/jwebster45206/adventure-engine/pkg/session"
)

const (
	NarratorName    = "Narrator"
	PlaceHolderText = "What do you do?"
	MaxPartySize    = 6
)

// setupStep tracks where the pre-game modal is in the setup flow.
type setupStep int

const (
	stepPlayerCount setupStep = iota
	stepScenario
	stepCharacter
	stepDone
)

// ConsoleUI is the BubbleTea model that runs the UI.
// https://github.com/charmbracelet/bubbletea
type ConsoleUI struct {
	config       *ConsoleConfig
	client       *http.Client
	sess         *session.AdventureSession
	chatViewport viewport.Model
	metaViewport viewport.Model
	textarea     textarea.Model
	ready        bool
	width        int
	height       int
	err          error
	loading      bool

	// Setup modal state
	showSetupModal bool
	step           setupStep
	selected       int

	// Quit confirmation state
	showQuitModal bool

	// Progress bar state
	progressTick int

	statusLine string
}

type sessionMsg struct {
	sess *session.AdventureSession
	err  error
}

type progressTickMsg struct{}

var (
	chatPanelStyle = lipgloss.NewStyle().
			PaddingTop(2).
			PaddingBottom(1).
			PaddingLeft(3).
			PaddingRight(0)

	metaPanelStyle = lipgloss.NewStyle().
			PaddingTop(2).
			PaddingBottom(0).
			PaddingLeft(0).
			PaddingRight(2)

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")). // pink
			Bold(true)

	speakerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("212")). // purple
			Bold(true)

	narratorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")) // green

	userStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")) // teal

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")) // red

	loadingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")) // yellow

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey

	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 2).
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("255"))

	modalTitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true).
			Align(lipgloss.Center)

	modalItemStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255"))

	modalSelectedItemStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("0")).
				Background(lipgloss.Color("205")).
				Bold(true)

	separatorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey
)

func NewConsoleUI(cfg *ConsoleConfig, client *http.Client) ConsoleUI {
	ta := textarea.New()
	ta.Placeholder = PlaceHolderText
	ta.Focus()
	ta.Prompt = promptStyle.Render(":: ")
	ta.CharLimit = 1000
	ta.SetWidth(50)
	ta.SetHeight(3)
	ta.ShowLineNumbers = false

	chatVp := viewport.New(50, 20)
	chatVp.MouseWheelEnabled = true

	metaVp := viewport.New(20, 20)

	return ConsoleUI{
		config:         cfg,
		client:         client,
		textarea:       ta,
		chatViewport:   chatVp,
		metaViewport:   metaVp,
		ready:          false,
		showSetupModal: true,
		step:           stepPlayerCount,
		selected:       0,
	}
}

func (m ConsoleUI) Init() tea.Cmd {
	return nil
}

func (m ConsoleUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.showQuitModal {
		return m.updateQuitModal(msg)
	}
	if m.showSetupModal {
		return m.updateSetupModal(msg)
	}

	var (
		tiCmd tea.Cmd
		vpCmd tea.Cmd
		mvCmd tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.MouseMsg:
		m.chatViewport, vpCmd = m.chatViewport.Update(msg)
		m.textarea, tiCmd = m.textarea.Update(msg)
		m.metaViewport, mvCmd = m.metaViewport.Update(msg)
		return m, tea.Batch(tiCmd, vpCmd, mvCmd)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resizePanels()
		m.writeChatContent()
		m.metaViewport.SetContent(m.writeMetadata())
		m.ready = true

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.showQuitModal = true
			return m, nil
		case tea.KeyCtrlY:
			if m.sess != nil {
				if err := clipboard.WriteAll(m.sess.ID.String()); err == nil {
					m.statusLine = "Adventure ID copied to clipboard"
				} else {
					m.statusLine = "Clipboard unavailable"
				}
				m.metaViewport.SetContent(m.writeMetadata())
			}
			return m, nil
		case tea.KeyEnter:
			if m.loading || m.sess == nil || m.sess.Phase != session.PhaseAwaitingAction {
				return m, nil
			}

			input := strings.TrimSpace(m.textarea.Value())
			if input == "" {
				return m, nil
			}

			m.textarea.Reset()
			m.loading = true
			m.progressTick = 0
			m.err = nil
			m.writeChatContent()

			return m, tea.Batch(m.submitAction(m.sess.PromptedCharacter, input), progressTick())
		}

	case sessionMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
		} else {
			m.sess = msg.sess
		}
		m.writeChatContent()
		m.metaViewport.SetContent(m.writeMetadata())
		m.chatViewport.GotoBottom()
		return m, nil

	case progressTickMsg:
		if m.loading {
			m.progressTick++
			m.writeChatContent()
			return m, progressTick()
		}
	}

	m.textarea, tiCmd = m.textarea.Update(msg)
	m.chatViewport, vpCmd = m.chatViewport.Update(msg)
	m.metaViewport, mvCmd = m.metaViewport.Update(msg)

	return m, tea.Batch(tiCmd, vpCmd, mvCmd)
}

func (m *ConsoleUI) resizePanels() {
	chatWidth := int(float64(m.width)*0.75) - 4
	metaWidth := m.width - chatWidth - 6

	m.chatViewport.Width = chatWidth - 2
	m.chatViewport.Height = m.height - 7
	m.metaViewport.Width = metaWidth - 2
	m.metaViewport.Height = m.height - 4
	m.textarea.SetWidth(chatWidth - 4)
}

// writeChatContent rebuilds the chat panel from the scene history for the
// current viewport width.
func (m *ConsoleUI) writeChatContent() {
	chatWidth := m.chatViewport.Width - 6

	var content strings.Builder
	content.WriteString(titleStyle.Render("ADVENTURE ENGINE") + "\n\n")
	if m.sess != nil && m.sess.Story.Initialized() {
		content.WriteString(m.sess.Story.ScenarioTitle + "\n")
	}
	content.WriteString(separatorStyle.Render(strings.Repeat("─", max(chatWidth-6, 10))) + "\n\n")

	if m.sess != nil {
		for _, scene := range m.sess.SceneHistory {
			if scene.Action != "" {
				name := "You"
				if scene.ActingCharacter >= 0 && scene.ActingCharacter < len(m.sess.Party) {
					name = m.sess.Party[scene.ActingCharacter].Spec.Name
				}
				content.WriteString(userStyle.Render(name+": ") + wordwrap.String(scene.Action, chatWidth-6) + "\n\n")
			}
			content.WriteString(formatSceneText(scene.Text, chatWidth) + "\n\n")
			if scene.Prompt != nil && scene.PromptingCharacter >= 0 && scene.PromptingCharacter < len(m.sess.Party) {
				turn := m.sess.Party[scene.PromptingCharacter].Spec.Name
				content.WriteString(speakerStyle.Render(turn+", ") + scene.Prompt.Text + "\n\n")
			}
		}

		switch m.sess.Phase {
		case session.PhaseCompleted:
			content.WriteString(titleStyle.Render("THE END") + "\n")
		case session.PhaseFailed:
			content.WriteString(errorStyle.Render("The adventure could not continue. Start a new one.") + "\n")
		}
	}

	if m.err != nil {
		content.WriteString(errorStyle.Render("Error: "+m.err.Error()) + "\n\n")
	}

	if m.loading {
		content.WriteString(m.renderProgressBar())
	}

	m.chatViewport.SetContent(content.String())
	m.chatViewport.GotoBottom()
}

func (m *ConsoleUI) writeMetadata() string {
	var content strings.Builder
	content.WriteString(titleStyle.Render("ADVENTURE") + "\n\n")

	if m.sess == nil {
		content.WriteString("Not started\n")
		return content.String()
	}

	content.WriteString("ID:\n")
	content.WriteString(m.sess.ID.String()[:8] + "...\n\n")

	content.WriteString("Phase:\n")
	content.WriteString(string(m.sess.Phase) + "\n\n")

	if m.sess.Story.MainQuest != "" {
		content.WriteString("Quest:\n")
		content.WriteString(m.sess.Story.MainQuest + "\n\n")
	}

	if len(m.sess.Party) > 0 {
		content.WriteString("Party:\n")
		for i, c := range m.sess.Party {
			marker := "  "
			if m.sess.Phase == session.PhaseAwaitingAction && i == m.sess.PromptedCharacter {
				marker = "▶ "
			}
			content.WriteString(fmt.Sprintf("%s%s (%d/%d HP)\n", marker, c.Spec.Name, c.Spec.Health, c.Spec.MaxHealth))
		}
		content.WriteString("\n")
	}

	content.WriteString(fmt.Sprintf("Scenes:\n%d total\n\n", len(m.sess.SceneHistory)))

	if m.statusLine != "" {
		content.WriteString(m.statusLine + "\n\n")
	}

	content.WriteString("Commands:\n")
	content.WriteString("• Ctrl+C: Quit\n")
	content.WriteString("• Enter: Send\n")
	content.WriteString("• Ctrl+Y: Copy ID\n")

	return content.String()
}

// formatSceneText wraps narration and highlights "Speaker:" prefixes.
func formatSceneText(text string, width int) string {
	narratorPrefix := NarratorName + ": "
	wrapped := wordwrap.String(text, width-len(narratorPrefix))
	lines := strings.Split(wrapped, "\n")
	var formattedLines []string

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			formattedLines = append(formattedLines, "")
			continue
		}

		if idx := strings.Index(trimmed, ":"); idx > 0 && idx <= 20 {
			speaker := trimmed[:idx]
			rest := trimmed[idx+1:]
			if len(strings.Fields(speaker)) <= 2 {
				formattedLines = append(formattedLines, speakerStyle.Render(speaker+":")+rest)
				continue
			}
		}

		formattedLines = append(formattedLines, line)
	}

	return narratorStyle.Render(narratorPrefix) + strings.Join(formattedLines, "\n")
}

func (m ConsoleUI) submitAction(characterIndex int, action string) tea.Cmd {
	return func() tea.Msg {
		sess, err := submitAction(m.client, m.config.APIBaseURL, m.sess.ID, characterIndex, action)
		return sessionMsg{sess, err}
	}
}

func (m ConsoleUI) createAdventure(players int) tea.Cmd {
	return func() tea.Msg {
		sess, err := createAdventure(m.client, m.config.APIBaseURL, players)
		return sessionMsg{sess, err}
	}
}

func (m ConsoleUI) chooseScenario(choice int) tea.Cmd {
	return func() tea.Msg {
		sess, err := chooseScenario(m.client, m.config.APIBaseURL, m.sess.ID, choice)
		return sessionMsg{sess, err}
	}
}

func (m ConsoleUI) chooseCharacter(player, choice int) tea.Cmd {
	return func() tea.Msg {
		sess, err := chooseCharacter(m.client, m.config.APIBaseURL, m.sess.ID, player, choice)
		return sessionMsg{sess, err}
	}
}

// setupOptions returns the list presented by the setup modal for the
// current step.
func (m ConsoleUI) setupOptions() []string {
	switch m.step {
	case stepPlayerCount:
		options := make([]string, MaxPartySize)
		for i := range options {
			label := fmt.Sprintf("%d players", i+1)
			if i == 0 {
				label = "1 player"
			}
			options[i] = label
		}
		return options
	case stepScenario:
		if m.sess != nil && m.sess.ScenarioChoices != nil {
			labels := make([]string, 0, len(m.sess.ScenarioChoices.Options))
			for _, opt := range m.sess.ScenarioChoices.Options {
				labels = append(labels, fmt.Sprintf("%s — %s", opt.Label, opt.Value.Hook))
			}
			return labels
		}
	case stepCharacter:
		if m.sess != nil && m.sess.CharacterChoices != nil {
			labels := make([]string, 0, len(m.sess.CharacterChoices.Options))
			for _, opt := range m.sess.CharacterChoices.Options {
				labels = append(labels, fmt.Sprintf("%s — %s", opt.Label, opt.Value.Description))
			}
			return labels
		}
	}
	return nil
}

func (m ConsoleUI) setupTitle() string {
	switch m.step {
	case stepPlayerCount:
		return "How many players?"
	case stepScenario:
		return "Choose Your Adventure"
	case stepCharacter:
		if m.sess != nil {
			return fmt.Sprintf("Player %d: Choose Your Character", m.sess.CurrentPlayer+1)
		}
		return "Choose Your Character"
	}
	return ""
}

func (m ConsoleUI) updateSetupModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case sessionMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.sess = msg.sess
		m.selected = 0

		switch m.sess.Phase {
		case session.PhaseAwaitingScenarioChoice:
			m.step = stepScenario
		case session.PhaseAwaitingCharacterChoice:
			m.step = stepCharacter
		case session.PhaseAwaitingAction, session.PhaseCompleted:
			// Opening scene has arrived; switch to the main view.
			m.step = stepDone
			m.showSetupModal = false
			m.resizePanels()
			m.writeChatContent()
			m.metaViewport.SetContent(m.writeMetadata())
			m.textarea.Focus()
			m.ready = true
			return m, textarea.Blink
		case session.PhaseFailed:
			m.err = fmt.Errorf("adventure generation failed, start a new adventure")
		}
		return m, nil

	case progressTickMsg:
		if m.loading {
			m.progressTick++
			return m, progressTick()
		}

	case tea.KeyMsg:
		if m.loading {
			if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyEsc {
				return m, tea.Quit
			}
			return m, nil
		}

		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.showQuitModal = true
			return m, nil
		case tea.KeyUp:
			if m.selected > 0 {
				m.selected--
			}
		case tea.KeyDown:
			if m.selected < len(m.setupOptions())-1 {
				m.selected++
			}
		case tea.KeyEnter:
			if m.err != nil {
				return m, nil
			}
			m.loading = true
			m.progressTick = 0
			switch m.step {
			case stepPlayerCount:
				return m, tea.Batch(m.createAdventure(m.selected+1), progressTick())
			case stepScenario:
				return m, tea.Batch(m.chooseScenario(m.selected), progressTick())
			case stepCharacter:
				return m, tea.Batch(m.chooseCharacter(m.sess.CurrentPlayer, m.selected), progressTick())
			}
		}
	}

	return m, nil
}

func (m ConsoleUI) updateQuitModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc, tea.KeyEnter:
			return m, tea.Quit
		default:
			switch msg.String() {
			case "y", "Y":
				return m, tea.Quit
			case "n", "N":
				m.showQuitModal = false
				if !m.showSetupModal {
					m.textarea.Focus()
					return m, textarea.Blink
				}
				return m, nil
			}
		}
	}

	return m, nil
}

func (m ConsoleUI) renderQuitModal() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var content strings.Builder
	content.WriteString(modalTitleStyle.Render("Quit Adventure?"))
	content.WriteString("\n\n")
	content.WriteString("Are you sure you want to leave your adventure?")
	content.WriteString("\n\n")
	content.WriteString(promptStyle.Render("Press Y to quit, N to continue, or Ctrl+C to force quit"))

	modal := modalStyle.Width(50).Render(content.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m ConsoleUI) renderSetupModal() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var content strings.Builder

	switch {
	case m.loading:
		content.WriteString(modalTitleStyle.Render("Generating..."))
		content.WriteString("\n\n")
		content.WriteString(loadingStyle.Render("The narrator is preparing your adventure..."))
	case m.err != nil:
		content.WriteString(modalTitleStyle.Render("Error"))
		content.WriteString("\n\n")
		content.WriteString(errorStyle.Render(m.err.Error()))
		content.WriteString("\n\n")
		content.WriteString("Press Ctrl+C to exit")
	default:
		content.WriteString(modalTitleStyle.Render(m.setupTitle()))
		content.WriteString("\n\n")

		for i, option := range m.setupOptions() {
			wrapped := wordwrap.String(option, 66)
			if i == m.selected {
				content.WriteString(modalSelectedItemStyle.Render("▶ " + wrapped))
			} else {
				content.WriteString(modalItemStyle.Render("  " + wrapped))
			}
			content.WriteString("\n")
		}

		content.WriteString("\n")
		content.WriteString(promptStyle.Render("Use ↑/↓ to navigate, Enter to select, Ctrl+C to exit"))
	}

	modal := modalStyle.Width(72).Render(content.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m ConsoleUI) View() string {
	if m.showQuitModal {
		return m.renderQuitModal()
	}

	if m.showSetupModal {
		return m.renderSetupModal()
	}

	if !m.ready {
		return "\n  Initializing..."
	}

	chatWidth := int(float64(m.width)*0.75) - 4
	metaWidth := m.width - chatWidth - 6

	chatPanel := chatPanelStyle.Width(chatWidth).Height(m.height - 3).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			m.chatViewport.View(),
			"",
			separatorStyle.Render(strings.Repeat("─", chatWidth-4)),
			m.textarea.View(),
		),
	)

	metaPanel := metaPanelStyle.Width(metaWidth).Height(m.height - 2).Render(
		m.metaViewport.View(),
	)

	return lipgloss.JoinHorizontal(lipgloss.Top, chatPanel, metaPanel)
}

// renderProgressBar creates an animated progress bar for loading states.
func (m ConsoleUI) renderProgressBar() string {
	usable := m.chatViewport.Width - 6
	if usable <= 0 {
		usable = 30
	}
	if usable > 80 {
		usable = 80
	} else if usable < 10 {
		usable = 10
	}

	const totalFrames = 40
	frame := m.progressTick % totalFrames
	filled := (frame * usable) / totalFrames

	var bar strings.Builder
	for i := 0; i < usable; i++ {
		if i < filled {
			bar.WriteString("█")
		} else if i == filled && frame%4 < 2 {
			bar.WriteString("▓")
		} else {
			bar.WriteString("░")
		}
	}
	return separatorStyle.Render(bar.String())
}

// progressTick creates a command that sends a progress tick message.
func progressTick() tea.Cmd {
	return tea.Tick(time.Millisecond*200, func(time.Time) tea.Msg {
		return progressTickMsg{}
	})
}
