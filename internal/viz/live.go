package viz

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/hoverlab/internal/config"
	"github.com/san-kum/hoverlab/internal/dynamo"
	"github.com/san-kum/hoverlab/internal/trainer"
)

const (
	historyCapacity = 600
	sparkWidth      = 40
)

// StepMsg carries one transition and the running episode score.
type StepMsg struct {
	Transition dynamo.Transition
	Score      float64
}

type EpisodeMsg trainer.Episode

// DoneMsg ends the run; Err is nil when every episode finished.
type DoneMsg struct {
	Err error
}

// Model is the live training monitor.
type Model struct {
	title    string
	episodes int
	target   float64
	offset   float64
	cancel   func()

	theme Theme
	st    styles

	last     dynamo.Transition
	score    float64
	quantity []float64
	scores   []float64
	averages []float64
	episode  trainer.Episode
	finished int

	done     bool
	err      error
	showHelp bool
}

// NewModel builds the monitor for a run of cfg. cancel stops the run when
// the user quits.
func NewModel(title string, cfg *config.Config, cancel func()) Model {
	if cancel == nil {
		cancel = func() {}
	}
	return Model{
		title:    title,
		episodes: cfg.Episodes,
		target:   cfg.TargetQuantity,
		offset:   cfg.TargetOffset,
		cancel:   cancel,
		theme:    ThemeFlight,
		st:       newStyles(ThemeFlight),
		quantity: make([]float64, 0, historyCapacity),
	}
}

func (m Model) Init() tea.Cmd { return nil }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.cancel()
			return m, tea.Quit
		case "t":
			m.theme = nextTheme(m.theme.Name)
			m.st = newStyles(m.theme)
		case "?":
			m.showHelp = !m.showHelp
		}
	case StepMsg:
		m.last = msg.Transition
		m.score = msg.Score
		if len(msg.Transition.Next) > 1 {
			if len(m.quantity) == historyCapacity {
				m.quantity = m.quantity[1:]
			}
			m.quantity = append(m.quantity, msg.Transition.Next[1])
		}
	case EpisodeMsg:
		m.episode = trainer.Episode(msg)
		m.finished++
		m.scores = append(m.scores, msg.Score)
		m.averages = append(m.averages, msg.Average)
		m.quantity = m.quantity[:0]
	case DoneMsg:
		m.done = true
		m.err = msg.Err
	}
	return m, nil
}

func (m Model) status() string {
	switch {
	case m.err != nil:
		return m.st.bad.Render("FAILED: " + m.err.Error())
	case m.done:
		return m.st.good.Render("DONE")
	default:
		return m.st.warn.Render("TRAINING")
	}
}

func (m Model) row(label, value string) string {
	return m.st.label.Render(label) + m.st.value.Render(value) + "\n"
}

func (m Model) View() string {
	var s strings.Builder
	s.WriteString(m.st.header.Render(strings.ToUpper(m.title)) + "\n")
	s.WriteString(m.status() + "\n\n")

	progress := 0.0
	if m.episodes > 0 {
		progress = float64(m.finished) / float64(m.episodes)
	}
	s.WriteString(m.st.ProgressBar(progress, 30) + fmt.Sprintf(" %d/%d\n\n", m.finished, m.episodes))

	s.WriteString(m.row("Episode", fmt.Sprintf("%d", m.last.Episode)))
	s.WriteString(m.row("Tick", fmt.Sprintf("%d", m.last.Tick)))
	s.WriteString(m.row("dt", fmt.Sprintf("%.1fms", m.last.Dt*1000)))
	s.WriteString(m.row("Action", m.last.Action.String()))
	s.WriteString(m.row("Reward", fmt.Sprintf("%.0f", m.last.Reward)))
	s.WriteString(m.row("Score", fmt.Sprintf("%.0f", m.score)))
	s.WriteString(m.row("Obs", formatObservation(m.last.Next)))

	band := fmt.Sprintf("%.0f ± %.0f", m.target, m.offset)
	s.WriteString(m.row("Target", band))
	s.WriteString(m.st.muted.Render(Sparkline(m.quantity, sparkWidth)) + "\n")

	if m.finished > 0 {
		s.WriteString("\n")
		s.WriteString(m.row("Last", fmt.Sprintf("%.0f (%s)", m.episode.Score, m.episode.Reason)))
		s.WriteString(m.row("Average", fmt.Sprintf("%.1f", m.episode.Average)))
		if d := m.episode.Duration; d > 0 {
			s.WriteString(m.row("Duration", d.Round(time.Millisecond).String()))
		}
	}
	if len(m.scores) > 1 {
		chart := asciigraph.Plot(m.averages, asciigraph.Height(6), asciigraph.Width(40), asciigraph.Caption("Average score"))
		s.WriteString(m.st.graph.Render(chart) + "\n")
	}

	s.WriteString(m.st.help.Render("Q:Quit T:Theme ?:Help"))
	view := m.st.panel.Render(s.String())

	if m.showHelp {
		help := lipgloss.JoinVertical(lipgloss.Left,
			"Q        - Stop training and quit",
			"T        - Cycle themes ("+strings.Join(ThemeNames(), ", ")+")",
			"?        - Toggle this help",
		)
		return m.st.panel.Render(help) + "\n" + view
	}
	return view
}

func formatObservation(obs dynamo.Observation) string {
	if len(obs) == 0 {
		return "-"
	}
	parts := make([]string, len(obs))
	for i, v := range obs {
		parts[i] = fmt.Sprintf("%.2f", v)
	}
	return "[" + strings.Join(parts, " ") + "]"
}

// Feed forwards trainer events to a running program. Step messages are
// throttled to one per Interval; terminal steps and episodes always go
// through.
type Feed struct {
	Interval time.Duration
	send     func(tea.Msg)
	score    float64
	lastSent time.Time
}

func NewFeed(p *tea.Program) *Feed {
	return newFeed(p.Send)
}

func newFeed(send func(tea.Msg)) *Feed {
	return &Feed{
		Interval: 50 * time.Millisecond,
		send:     send,
	}
}

func (f *Feed) OnStep(t dynamo.Transition) {
	if t.Tick == 0 {
		f.score = 0
	}
	f.score += t.Reward
	if !t.Done && time.Since(f.lastSent) < f.Interval {
		return
	}
	f.lastSent = time.Now()
	f.send(StepMsg{Transition: t, Score: f.score})
}

func (f *Feed) OnEpisode(e trainer.Episode) {
	f.send(EpisodeMsg(e))
}

// Finish reports the end of the run.
func (f *Feed) Finish(err error) {
	f.send(DoneMsg{Err: err})
}
