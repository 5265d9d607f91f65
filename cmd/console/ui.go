package main

import (
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/saberlights/maimai-SillyTavern-plugin/pkg/preset"
)

const PlaceHolderText = "Type your base prompt here..."

// ConsoleUI is the BubbleTea model that runs the UI.
// https://github.com/charmbracelet/bubbletea
type ConsoleUI struct {
	config         *ConsoleConfig
	client         *http.Client
	preset         *preset.Preset
	activeStyle    *preset.ActiveStyle
	promptViewport viewport.Model
	metaViewport   viewport.Model
	textarea       textarea.Model
	assembled      *AssembleResponse
	ready          bool
	width          int
	height         int
	err            error
	loading        bool
	status         string

	// Assembly toggles, flipped from the keyboard.
	includeGuidelines bool
	includeStyle      bool

	// Preset selection state
	showPresetModal bool
	presets         []string
	selectedPreset  int
	loadingPresets  bool

	// Quit confirmation state
	showQuitModal bool
}

type assembledMsg struct {
	response *AssembleResponse
	err      error
}

type presetsLoadedMsg struct {
	presets []string
	err     error
}

type presetLoadedMsg struct {
	preset *preset.Preset
	style  *preset.ActiveStyle
	err    error
}

type copiedMsg struct {
	err error
}

var (
	promptPanelStyle = lipgloss.NewStyle().
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

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("212")). // purple
			Bold(true)

	promptTextStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")) // green

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")) // red

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")) // yellow

	hintStyle = lipgloss.NewStyle().
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
	ta.Prompt = hintStyle.Render(":: ")
	ta.CharLimit = 4000
	ta.SetWidth(50)
	ta.SetHeight(3)
	ta.ShowLineNumbers = false

	promptVp := viewport.New(50, 20)
	promptVp.MouseWheelEnabled = true

	metaVp := viewport.New(20, 20)

	return ConsoleUI{
		config:            cfg,
		client:            client,
		textarea:          ta,
		promptViewport:    promptVp,
		metaViewport:      metaVp,
		includeGuidelines: true,
		includeStyle:      true,
		showPresetModal:   true,
		loadingPresets:    true,
	}
}

func (m ConsoleUI) Init() tea.Cmd {
	if m.showPresetModal {
		return m.loadPresets()
	}
	return textarea.Blink
}

func (m ConsoleUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.showPresetModal {
		return m.updatePresetModal(msg)
	}
	if m.showQuitModal {
		return m.updateQuitModal(msg)
	}

	var (
		tiCmd tea.Cmd
		vpCmd tea.Cmd
		mvCmd tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.MouseMsg:
		m.promptViewport, vpCmd = m.promptViewport.Update(msg)
		m.textarea, tiCmd = m.textarea.Update(msg)
		return m, tea.Batch(tiCmd, vpCmd)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		m.writePromptContent()
		m.metaViewport.SetContent(m.writeMetadata())
		m.ready = true

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.showQuitModal = true
			return m, nil
		case tea.KeyEnter:
			if m.loading {
				return m, nil
			}
			m.loading = true
			m.status = "Assembling..."
			m.writePromptContent()
			return m, m.assemble()
		case tea.KeyCtrlG:
			m.includeGuidelines = !m.includeGuidelines
			m.metaViewport.SetContent(m.writeMetadata())
			return m, nil
		case tea.KeyCtrlS:
			m.includeStyle = !m.includeStyle
			m.metaViewport.SetContent(m.writeMetadata())
			return m, nil
		case tea.KeyCtrlY:
			if m.assembled != nil {
				return m, m.copyToClipboard(m.assembled.Prompt)
			}
			return m, nil
		}

	case assembledMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			m.status = ""
		} else {
			m.err = nil
			m.assembled = msg.response
			m.status = fmt.Sprintf("Assembled in %s mode (%d chars)", msg.response.Mode, len(msg.response.Prompt))
		}
		m.writePromptContent()
		m.metaViewport.SetContent(m.writeMetadata())
		m.promptViewport.GotoTop()
		return m, nil

	case copiedMsg:
		if msg.err != nil {
			m.status = "Clipboard copy failed: " + msg.err.Error()
		} else {
			m.status = "Copied assembled prompt to clipboard"
		}
		m.writePromptContent()
		return m, nil
	}

	m.textarea, tiCmd = m.textarea.Update(msg)
	m.promptViewport, vpCmd = m.promptViewport.Update(msg)
	m.metaViewport, mvCmd = m.metaViewport.Update(msg)

	return m, tea.Batch(tiCmd, vpCmd, mvCmd)
}

func (m *ConsoleUI) resize() {
	promptWidth := int(float64(m.width)*0.75) - 4
	metaWidth := m.width - promptWidth - 6

	m.promptViewport.Width = promptWidth - 2
	m.promptViewport.Height = m.height - 7
	m.metaViewport.Width = metaWidth - 2
	m.metaViewport.Height = m.height - 4
	m.textarea.SetWidth(promptWidth - 4)
}

func (m *ConsoleUI) writePromptContent() {
	width := m.promptViewport.Width - 6
	if width < 20 {
		width = 20
	}

	var content strings.Builder
	content.WriteString(titleStyle.Render("PRESET ASSEMBLY") + "\n\n")
	if m.preset != nil {
		content.WriteString("Preset: " + m.preset.Name + "\n\n")
	}
	content.WriteString(separatorStyle.Render(strings.Repeat("─", width)) + "\n\n")

	switch {
	case m.err != nil:
		content.WriteString(errorStyle.Render("Error: "+m.err.Error()) + "\n")
	case m.assembled != nil:
		content.WriteString(promptTextStyle.Render(wordwrap.String(m.assembled.Prompt, width)) + "\n")
	default:
		content.WriteString(hintStyle.Render("Type a base prompt below and press Enter to assemble.") + "\n")
	}

	if m.status != "" {
		content.WriteString("\n" + statusStyle.Render(m.status) + "\n")
	}

	m.promptViewport.SetContent(content.String())
}

func (m *ConsoleUI) writeMetadata() string {
	var content strings.Builder
	content.WriteString(titleStyle.Render("PRESET") + "\n\n")

	if m.preset != nil {
		content.WriteString("Name:\n" + m.preset.Name + "\n\n")
		content.WriteString(fmt.Sprintf("Fragments:\n%d total\n\n", len(m.preset.Fragments)))
	}

	if m.activeStyle != nil {
		content.WriteString("Active style:\n" + m.activeStyle.Name + "\n\n")
	} else {
		content.WriteString("Active style:\nNone\n\n")
	}

	content.WriteString("Toggles:\n")
	content.WriteString(fmt.Sprintf("• guidelines: %s\n", onOff(m.includeGuidelines)))
	content.WriteString(fmt.Sprintf("• style: %s\n\n", onOff(m.includeStyle)))

	if m.assembled != nil {
		content.WriteString("Last assembly:\n")
		content.WriteString("mode: " + m.assembled.Mode + "\n")
		roles := make([]string, 0, len(m.assembled.Counts))
		for role := range m.assembled.Counts {
			roles = append(roles, role)
		}
		sort.Strings(roles)
		for _, role := range roles {
			content.WriteString(fmt.Sprintf("• %s: %d\n", role, m.assembled.Counts[role]))
		}
		content.WriteString("\n")
	}

	content.WriteString("Commands:\n")
	content.WriteString("• Enter: Assemble\n")
	content.WriteString("• Ctrl+G: Guidelines\n")
	content.WriteString("• Ctrl+S: Style\n")
	content.WriteString("• Ctrl+Y: Copy\n")
	content.WriteString("• Ctrl+C: Quit\n")

	return content.String()
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}

func (m ConsoleUI) assemble() tea.Cmd {
	return func() tea.Msg {
		req := AssembleRequest{
			PresetName:        m.preset.Name,
			BasePrompt:        strings.TrimSpace(m.textarea.Value()),
			IncludeGuidelines: &m.includeGuidelines,
			IncludeStyle:      &m.includeStyle,
		}
		resp, err := assemblePrompt(m.client, m.config.APIBaseURL, req)
		return assembledMsg{resp, err}
	}
}

func (m ConsoleUI) copyToClipboard(text string) tea.Cmd {
	return func() tea.Msg {
		return copiedMsg{clipboard.WriteAll(text)}
	}
}

func (m ConsoleUI) loadPresets() tea.Cmd {
	return func() tea.Msg {
		names, err := listPresets(m.client, m.config.APIBaseURL)
		return presetsLoadedMsg{names, err}
	}
}

func (m ConsoleUI) loadPreset(name string) tea.Cmd {
	return func() tea.Msg {
		p, err := getPreset(m.client, m.config.APIBaseURL, name)
		if err != nil {
			return presetLoadedMsg{nil, nil, err}
		}
		style, err := getActiveStyle(m.client, m.config.APIBaseURL)
		if err != nil {
			return presetLoadedMsg{p, nil, err}
		}
		return presetLoadedMsg{p, style, nil}
	}
}

func (m ConsoleUI) updatePresetModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case presetsLoadedMsg:
		m.loadingPresets = false
		if msg.err != nil {
			m.err = msg.err
		} else if len(msg.presets) == 0 {
			m.err = fmt.Errorf("no presets stored; import one via POST /v1/presets/{name}")
		} else {
			m.presets = msg.presets
		}

	case presetLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
		} else {
			m.preset = msg.preset
			m.activeStyle = msg.style
			m.showPresetModal = false
			m.resize()
			m.writePromptContent()
			m.metaViewport.SetContent(m.writeMetadata())
			m.textarea.Focus()
			m.ready = true
		}
		return m, textarea.Blink

	case tea.KeyMsg:
		if m.loadingPresets || m.err != nil {
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
			if m.selectedPreset > 0 {
				m.selectedPreset--
			}
		case tea.KeyDown:
			if m.selectedPreset < len(m.presets)-1 {
				m.selectedPreset++
			}
		case tea.KeyEnter:
			if len(m.presets) > 0 {
				m.loading = true
				return m, m.loadPreset(m.presets[m.selectedPreset])
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
				if !m.showPresetModal {
					m.textarea.Focus()
					return m, textarea.Blink
				}
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
	content.WriteString(modalTitleStyle.Render("Quit?"))
	content.WriteString("\n\n")
	content.WriteString("Leave the preset console?")
	content.WriteString("\n\n")
	content.WriteString(hintStyle.Render("Press Y to quit, N to continue, or Ctrl+C to force quit"))

	modal := modalStyle.Width(50).Render(content.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m ConsoleUI) renderPresetModal() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var content strings.Builder

	if m.loadingPresets {
		content.WriteString(modalTitleStyle.Render("Loading Presets..."))
		content.WriteString("\n\n")
		content.WriteString(statusStyle.Render("Fetching stored presets from the API..."))
	} else if m.err != nil {
		content.WriteString(modalTitleStyle.Render("Error"))
		content.WriteString("\n\n")
		content.WriteString(errorStyle.Render(fmt.Sprintf("Failed to load presets: %v", m.err)))
		content.WriteString("\n\n")
		content.WriteString("Press Ctrl+C to exit")
	} else if m.loading {
		content.WriteString(modalTitleStyle.Render("Loading Preset..."))
	} else {
		content.WriteString(modalTitleStyle.Render("Select a Preset"))
		content.WriteString("\n\n")

		for i, name := range m.presets {
			if i == m.selectedPreset {
				content.WriteString(modalSelectedItemStyle.Render(fmt.Sprintf("▶ %s", name)))
			} else {
				content.WriteString(modalItemStyle.Render(fmt.Sprintf("  %s", name)))
			}
			content.WriteString("\n")
		}

		content.WriteString("\n")
		content.WriteString(hintStyle.Render("Use ↑/↓ to navigate, Enter to select, Ctrl+C to exit"))
	}

	modal := modalStyle.Width(60).Render(content.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m ConsoleUI) View() string {
	if m.showPresetModal {
		return m.renderPresetModal()
	}
	if m.showQuitModal {
		return m.renderQuitModal()
	}
	if !m.ready {
		return "\n  Initializing..."
	}

	promptWidth := int(float64(m.width)*0.75) - 4
	metaWidth := m.width - promptWidth - 6

	promptPanel := promptPanelStyle.Width(promptWidth).Height(m.height - 3).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			m.promptViewport.View(),
			"",
			separatorStyle.Render(strings.Repeat("─", promptWidth-4)),
			m.textarea.View(),
		),
	)

	metaPanel := metaPanelStyle.Width(metaWidth).Height(m.height - 2).Render(
		m.metaViewport.View(),
	)

	return lipgloss.JoinHorizontal(lipgloss.Top, promptPanel, metaPanel)
}
