// ABOUTME: Interactive TUI wizard for configuring the postgate bot.
// ABOUTME: Five-step bubbletea model for the token, admin, store, channels, and Instagram link.
package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// DefaultMongoURI is used when the store step is left empty.
const DefaultMongoURI = "mongodb://localhost:27017"

// Step represents the current wizard step.
type Step int

const (
	StepBotToken Step = iota
	StepAdminID
	StepMongoURI
	StepChannels
	StepInstagram
	StepValidating
	StepDone
	StepFailed
)

const inputCount = int(StepInstagram) + 1

// SetupValues are the settings the wizard collects.
type SetupValues struct {
	BotToken         string
	BotUsername      string
	AdminChatID      int64
	MongoURI         string
	Channels         string
	InstagramProfile string
}

// validationResultMsg carries the result of an async validation attempt.
type validationResultMsg struct {
	username string
	err      error
}

// ValidateFn checks a bot token and returns the bot's username.
type ValidateFn func(ctx context.Context, token string) (string, error)

// cancelHolder shares a cancel function across bubbletea model copies.
// This MUST be stored as a pointer field on SetupModel so that value-receiver
// methods (required by tea.Model) can store the cancel func and have it
// visible to all copies of the model.
type cancelHolder struct {
	cancel context.CancelFunc
}

// SetupModel is the bubbletea model for the setup wizard.
type SetupModel struct {
	step          Step
	inputs        [inputCount]textinput.Model
	spinner       spinner.Model
	validateFn    ValidateFn
	cancelCtx     *cancelHolder
	botUsername   string
	inputErr      string
	validationErr error
	quitting      bool
}

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("99"))
	brandStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	stepStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	promptStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

var stepLabels = [inputCount]string{
	"Bot token",
	"Admin chat ID",
	"MongoDB URI",
	"Channel usernames",
	"Instagram profile",
}

// NewSetupModel creates a new setup wizard model, pre-filling with existing config values.
func NewSetupModel(existing SetupValues) SetupModel {
	placeholders := [inputCount]string{
		"123456:ABC-DEF...",
		"123456789",
		DefaultMongoURI,
		"@channel_one, @channel_two",
		"https://instagram.com/you",
	}
	values := [inputCount]string{
		existing.BotToken,
		"",
		existing.MongoURI,
		existing.Channels,
		existing.InstagramProfile,
	}
	if existing.AdminChatID != 0 {
		values[StepAdminID] = strconv.FormatInt(existing.AdminChatID, 10)
	}

	var inputs [inputCount]textinput.Model
	for i := range inputs {
		in := textinput.New()
		in.Placeholder = placeholders[i]
		in.Width = 50
		if values[i] != "" {
			in.SetValue(values[i])
		}
		inputs[i] = in
	}
	inputs[StepBotToken].EchoMode = textinput.EchoPassword
	inputs[StepBotToken].Focus()

	s := spinner.New()
	s.Spinner = spinner.Dot

	return SetupModel{
		step:        StepBotToken,
		inputs:      inputs,
		spinner:     s,
		validateFn:  ValidateConnection,
		cancelCtx:   &cancelHolder{},
		botUsername: existing.BotUsername,
	}
}

// Init implements tea.Model.
func (m SetupModel) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model.
func (m SetupModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEscape:
			m.quitting = true
			if m.cancelCtx.cancel != nil {
				m.cancelCtx.cancel()
			}
			return m, tea.Quit
		}

		switch {
		case m.step <= StepInstagram:
			return m.updateInput(msg)
		case m.step == StepFailed:
			return m.updateFailed(msg)
		}

	case validationResultMsg:
		m.cancelCtx.cancel = nil
		if msg.err == nil {
			m.botUsername = msg.username
			m.step = StepDone
			return m, tea.Quit
		}
		m.validationErr = msg.err
		m.step = StepFailed
		return m, nil

	case spinner.TickMsg:
		if m.step == StepValidating {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
	}

	return m, nil
}

func (m SetupModel) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	idx := int(m.step)
	if msg.Type == tea.KeyEnter {
		val := strings.TrimSpace(m.inputs[idx].Value())
		m.inputErr = ""

		switch m.step {
		case StepBotToken, StepChannels, StepInstagram:
			if val == "" {
				return m, nil
			}
		case StepAdminID:
			if id, err := strconv.ParseInt(val, 10, 64); err != nil || id == 0 {
				m.inputErr = "admin chat ID must be a non-zero number"
				return m, nil
			}
		case StepMongoURI:
			if val == "" {
				m.inputs[idx].SetValue(DefaultMongoURI)
			}
		}

		m.inputs[idx].Blur()
		if m.step == StepInstagram {
			m.step = StepValidating
			return m, tea.Batch(m.startValidation(), m.spinner.Tick)
		}
		m.step++
		m.inputs[m.step].Focus()
		return m, textinput.Blink
	}

	// Forward to the active input
	var cmd tea.Cmd
	m.inputs[idx], cmd = m.inputs[idx].Update(msg)
	return m, cmd
}

func (m SetupModel) updateFailed(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyRunes {
		switch msg.Runes[0] {
		case 'r':
			m.step = StepValidating
			m.validationErr = nil
			return m, tea.Batch(m.startValidation(), m.spinner.Tick)
		case 's':
			m.step = StepDone
			return m, tea.Quit
		case 'q':
			m.quitting = true
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m SetupModel) startValidation() tea.Cmd {
	ctx, cancel := context.WithCancel(context.Background())
	m.cancelCtx.cancel = cancel
	token := strings.TrimSpace(m.inputs[StepBotToken].Value())
	fn := m.validateFn
	return func() tea.Msg {
		username, err := fn(ctx, token)
		return validationResultMsg{username: username, err: err}
	}
}

// View implements tea.Model.
func (m SetupModel) View() string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(brandStyle.Render("   POSTGATE"))
	b.WriteString(titleStyle.Render(" - Setup"))
	b.WriteString("\n\n")
	b.WriteString("Configure your Telegram bot, post store, and channels.\n\n")

	switch {
	case m.step <= StepInstagram:
		m.writeSummary(&b, int(m.step))
		if m.step > StepBotToken {
			b.WriteString("\n")
		}
		b.WriteString(stepStyle.Render(fmt.Sprintf("Step %d of %d: %s", int(m.step)+1, inputCount, stepLabels[m.step])))
		b.WriteString("\n")
		if m.step == StepMongoURI {
			b.WriteString(promptStyle.Render("(press Enter for default)"))
			b.WriteString("\n")
		}
		b.WriteString(m.inputs[m.step].View())
		b.WriteString("\n")
		if m.inputErr != "" {
			b.WriteString(errorStyle.Render(m.inputErr))
			b.WriteString("\n")
		}

	case m.step == StepValidating:
		m.writeSummary(&b, inputCount)
		b.WriteString("\n")
		b.WriteString(m.spinner.View())
		b.WriteString(" Validating bot token...")
		b.WriteString("\n")

	case m.step == StepDone:
		msg := "✓ Connected!"
		if m.botUsername != "" {
			msg = fmt.Sprintf("✓ Connected as @%s", m.botUsername)
		}
		b.WriteString(successStyle.Render(msg))
		b.WriteString("\n")

	case m.step == StepFailed:
		errMsg := "unknown error"
		if m.validationErr != nil {
			errMsg = m.validationErr.Error()
		}
		b.WriteString(errorStyle.Render(fmt.Sprintf("✗ Validation failed: %s", errMsg)))
		b.WriteString("\n\n")
		b.WriteString(promptStyle.Render("[r]etry  [s]ave anyway  [q]uit"))
		b.WriteString("\n")
	}

	return b.String()
}

// writeSummary prints the values entered in the first n steps. The token is masked.
func (m SetupModel) writeSummary(b *strings.Builder, n int) {
	for i := 0; i < n; i++ {
		val := m.inputs[i].Value()
		if Step(i) == StepBotToken {
			val = strings.Repeat("*", len(val))
		}
		b.WriteString(fmt.Sprintf("  %s: %s\n", stepLabels[i], val))
	}
}

// Result returns the entered values.
func (m SetupModel) Result() SetupValues {
	adminID, _ := strconv.ParseInt(strings.TrimSpace(m.inputs[StepAdminID].Value()), 10, 64)
	return SetupValues{
		BotToken:         strings.TrimSpace(m.inputs[StepBotToken].Value()),
		BotUsername:      m.botUsername,
		AdminChatID:      adminID,
		MongoURI:         strings.TrimSpace(m.inputs[StepMongoURI].Value()),
		Channels:         strings.TrimSpace(m.inputs[StepChannels].Value()),
		InstagramProfile: strings.TrimSpace(m.inputs[StepInstagram].Value()),
	}
}

// ShouldSave returns true if the wizard completed (via validation success or
// "save anyway") and the user did not cancel with Ctrl+C, Escape, or 'q'.
func (m SetupModel) ShouldSave() bool {
	return m.step == StepDone && !m.quitting
}
