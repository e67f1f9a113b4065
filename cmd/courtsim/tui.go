package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	courtroom "github.com/justix/courtsim-core/core"
	"github.com/justix/courtsim-core/core/events"
)

const tickInterval = 50 * time.Millisecond

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	statusStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	userStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	lawyerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	judgeStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	reportStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	emphasisStyle = lipgloss.NewStyle().Bold(true)
)

// hearingState accumulates everything the courtroom reports. Its callbacks
// only ever run inside court.Tick, which the model calls from Update, so no
// locking is needed.
type hearingState struct {
	status     string
	lastError  string
	caseTitle  string
	summary    string
	lines      []string
	lawyer     events.ActorState
	emotion    float64
	evidence   int
	recording  bool
	report     *events.SessionEnded
	joined     bool
	endPending bool
}

func (s *hearingState) courtroomCallbacks() []courtroom.CourtroomOption {
	return []courtroom.CourtroomOption{
		courtroom.WithSessionJoinedCallback(func(e events.SessionJoined) {
			s.joined = true
			s.report = nil
			s.caseTitle = e.CaseTitle
			s.summary = e.CaseSummary
			s.lines = nil
			s.lastError = ""
			s.status = "Joined. Hold your argument with space."
		}),
		courtroom.WithSessionEndedCallback(func(e events.SessionEnded) {
			s.joined = false
			s.endPending = false
			s.report = &e
			s.status = "Hearing ended. Press enter to join another meeting."
		}),
		courtroom.WithSessionEndFailedCallback(func(e events.SessionEndFailed) {
			s.endPending = false
			s.lastError = fmt.Sprintf("failed to end the hearing: %v", e.Err)
		}),
		courtroom.WithEvidenceUpdatedCallback(func(e events.EvidenceUpdated) {
			s.evidence = e.Pages
		}),
		courtroom.WithReplyCallback(func(e events.CounterpartReply) {
			if e.Text != "" {
				s.lines = append(s.lines, renderLine(e.Speaker, e.Text))
			}
		}),
		courtroom.WithActorStateCallback(func(e events.ActorStateChanged) {
			s.lawyer = e.State
			s.emotion = e.Emotion
		}),
		courtroom.WithRecordingStartedCallback(func(events.RecordingStarted) {
			s.recording = true
			s.status = "Recording. Press space again to submit."
		}),
		courtroom.WithRecordingStoppedCallback(func(events.RecordingStopped) {
			s.recording = false
			s.status = "Utterance sent."
			s.lines = append(s.lines, renderLine(events.SpeakerUser, "(spoken argument)"))
		}),
		courtroom.WithConnectedCallback(func(events.ChannelConnected) {
			s.lastError = ""
		}),
		courtroom.WithDisconnectedCallback(func(events.ChannelDisconnected) {
			s.lastError = "realtime channel dropped, rejoin to continue"
		}),
	}
}

func renderLine(speaker events.Speaker, text string) string {
	style := judgeStyle
	switch speaker {
	case events.SpeakerUser:
		style = userStyle
	case events.SpeakerOpposingLawyer:
		style = lawyerStyle
	}
	name := string(speaker)
	if name == "" {
		name = "Unknown"
	}
	return style.Render(name+":") + " " + text
}

type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

type model struct {
	court *courtroom.Courtroom
	state *hearingState

	codeInput textinput.Model
	width     int
	height    int
	quitting  bool
}

func newModel(court *courtroom.Courtroom, state *hearingState) model {
	input := textinput.New()
	input.Placeholder = "meeting code"
	input.CharLimit = 16
	input.Focus()

	return model{
		court:     court,
		state:     state,
		codeInput: input,
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, tick())
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		m.court.Tick(time.Time(msg))
		return m, tick()

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit

		case "enter":
			if !m.state.joined {
				return m.join()
			}

		case " ":
			if m.state.joined {
				return m.toggleSpeaking()
			}

		case "e":
			if m.state.joined && !m.state.endPending {
				m.state.endPending = true
				m.state.status = "Requesting the closing report..."
				if err := m.court.End(context.Background()); err != nil {
					m.state.endPending = false
					m.state.lastError = err.Error()
				}
				return m, nil
			}
		}
	}

	if !m.state.joined {
		var cmd tea.Cmd
		m.codeInput, cmd = m.codeInput.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m model) join() (tea.Model, tea.Cmd) {
	code := strings.TrimSpace(m.codeInput.Value())
	if code == "" {
		m.state.lastError = "a meeting code is required"
		return m, nil
	}

	m.state.status = "Joining..."
	if err := m.court.Join(context.Background(), code); err != nil {
		m.state.lastError = err.Error()
		m.state.status = "Enter a meeting code to join."
		return m, nil
	}

	m.codeInput.Reset()
	return m, nil
}

func (m model) toggleSpeaking() (tea.Model, tea.Cmd) {
	var err error
	if m.court.IsRecording() {
		err = m.court.StopSpeaking(context.Background())
	} else {
		err = m.court.StartSpeaking(context.Background())
	}
	if err != nil {
		m.state.lastError = err.Error()
	}
	return m, nil
}

func (m model) View() string {
	if m.quitting {
		return ""
	}

	width := m.width
	if width <= 0 {
		width = 80
	}

	var b strings.Builder

	if m.state.joined {
		b.WriteString(titleStyle.Render(m.state.caseTitle) + "\n")
		if m.state.summary != "" {
			b.WriteString(wordwrap.String(m.state.summary, width) + "\n")
		}
		if m.state.evidence > 0 {
			b.WriteString(statusStyle.Render(fmt.Sprintf("%d evidence pages fetched", m.state.evidence)) + "\n")
		}
		b.WriteString("\n")

		for _, line := range m.state.lines {
			b.WriteString(wordwrap.String(line, width) + "\n")
		}
		b.WriteString("\n")

		b.WriteString(m.lawyerLine() + "\n")
		b.WriteString(statusStyle.Render(m.state.status) + "\n")
		b.WriteString(statusStyle.Render("space: talk  e: end hearing  esc: quit") + "\n")
	} else {
		b.WriteString(titleStyle.Render("Courtroom Simulator") + "\n\n")
		if m.state.report != nil {
			b.WriteString(m.reportView(width) + "\n\n")
		}
		b.WriteString(m.codeInput.View() + "\n")
		b.WriteString(statusStyle.Render(m.state.status) + "\n")
		b.WriteString(statusStyle.Render("enter: join  esc: quit") + "\n")
	}

	if m.state.lastError != "" {
		b.WriteString(errorStyle.Render(wordwrap.String(m.state.lastError, width)) + "\n")
	}

	return b.String()
}

func (m model) lawyerLine() string {
	state := m.state.lawyer
	if state == "" {
		state = events.ActorIdle
	}
	line := fmt.Sprintf("Opposing lawyer: %s", state)
	if m.state.emotion >= 1.0 {
		line += " " + emphasisStyle.Render("(aggressive)")
	}
	if m.state.recording {
		line += "  " + errorStyle.Render("● recording")
	}
	return line
}

func (m model) reportView(width int) string {
	report := m.state.report
	body := fmt.Sprintf(
		"%s\n\nScore: %d\n%s",
		wordwrap.String(report.Summary, width-4),
		report.Score,
		wordwrap.String(report.Feedback, width-4),
	)
	return reportStyle.Render(body)
}
