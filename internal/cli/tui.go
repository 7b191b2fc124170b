package cli

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/stepflow/pkg/render/gantt"
	"github.com/matzehuels/stepflow/pkg/simulate"
)

// Replay styles
var (
	replayBusyStyle = lipgloss.NewStyle().Foreground(colorCyan)
	replayIdleStyle = lipgloss.NewStyle().Foreground(colorDim)
	replayBarStyle  = lipgloss.NewStyle().Foreground(colorGreen)
)

const (
	// barWidth is the width of a worker's progress bar.
	barWidth = 20

	minInterval = 10 * time.Millisecond
	maxInterval = 2 * time.Second
)

// =============================================================================
// ReplayModel - tick-by-tick schedule playback
// =============================================================================

// replayTickMsg advances playback by one tick.
type replayTickMsg struct{}

// ReplayModel is the bubbletea model for stepping through a schedule. Tick
// t shows what every worker does during [t, t+1); at the makespan all
// workers are idle and every task is complete.
type ReplayModel struct {
	Result   *simulate.Result
	Critical map[string]bool
	Tick     int
	Playing  bool
	Interval time.Duration
}

// NewReplayModel creates a model positioned at tick 0. With autoplay the
// replay advances every interval.
func NewReplayModel(res *simulate.Result, critical []string, interval time.Duration, autoplay bool) ReplayModel {
	set := make(map[string]bool, len(critical))
	for _, id := range critical {
		set[id] = true
	}
	return ReplayModel{
		Result:   res,
		Critical: set,
		Playing:  autoplay && res.Makespan > 0,
		Interval: clampInterval(interval),
	}
}

func clampInterval(d time.Duration) time.Duration {
	return min(max(d, minInterval), maxInterval)
}

func (m ReplayModel) tick() tea.Cmd {
	return tea.Tick(m.Interval, func(time.Time) tea.Msg { return replayTickMsg{} })
}

func (m ReplayModel) Init() tea.Cmd {
	if m.Playing {
		return m.tick()
	}
	return nil
}

func (m ReplayModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case replayTickMsg:
		if !m.Playing {
			return m, nil
		}
		m.Tick++
		if m.Tick >= m.Result.Makespan {
			m.Tick = m.Result.Makespan
			m.Playing = false
			return m, nil
		}
		return m, m.tick()

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case " ", "p":
			if m.Playing {
				m.Playing = false
				return m, nil
			}
			if m.Result.Makespan == 0 {
				return m, nil
			}
			if m.Tick >= m.Result.Makespan {
				m.Tick = 0
			}
			m.Playing = true
			return m, m.tick()
		case "right", "l":
			m.Playing = false
			m.Tick = min(m.Tick+1, m.Result.Makespan)
		case "left", "h":
			m.Playing = false
			m.Tick = max(m.Tick-1, 0)
		case "home", "g":
			m.Playing = false
			m.Tick = 0
		case "end", "G":
			m.Playing = false
			m.Tick = m.Result.Makespan
		case "+", "=":
			m.Interval = clampInterval(m.Interval / 2)
		case "-":
			m.Interval = clampInterval(m.Interval * 2)
		}
	}
	return m, nil
}

func (m ReplayModel) View() string {
	var b strings.Builder

	state := "paused"
	if m.Playing {
		state = "playing"
	}
	b.WriteString(StyleTitle.Render("Replay"))
	b.WriteString(StyleDim.Render(fmt.Sprintf("  tick %d/%d  %s  %s/tick", m.Tick, m.Result.Makespan, state, m.Interval)))
	b.WriteString("\n\n")

	for _, slot := range gantt.Frame(m.Result, m.Tick) {
		label := fmt.Sprintf("w%-3d", slot.Worker)
		if slot.Task == "" {
			b.WriteString(replayIdleStyle.Render(label + "idle"))
			b.WriteString("\n")
			continue
		}
		name := replayBusyStyle.Render(fmt.Sprintf("%-4s", slot.Task))
		if m.Critical[slot.Task] {
			name = StyleCritical.Render(fmt.Sprintf("%-4s", slot.Task))
		}
		b.WriteString(label + name + " " + progressBar(slot.Elapsed, slot.Total))
		b.WriteString(StyleDim.Render(fmt.Sprintf(" %d/%d", slot.Elapsed, slot.Total)))
		b.WriteString("\n")
	}

	done := gantt.Completed(m.Result, m.Tick)
	b.WriteString("\n")
	b.WriteString(StyleDim.Render(fmt.Sprintf("completed %d/%d  ", len(done), len(m.Result.Order))))
	b.WriteString(strings.Join(done, " "))
	b.WriteString("\n\n")
	b.WriteString(StyleDim.Render("space play/pause  ←/→ step  g/G start/end  +/- speed  q quit"))
	b.WriteString("\n")
	return b.String()
}

// progressBar draws elapsed/total as a fixed-width bar.
func progressBar(elapsed, total int) string {
	filled := 0
	if total > 0 {
		filled = elapsed * barWidth / total
	}
	return replayBarStyle.Render(strings.Repeat("█", filled)) +
		replayIdleStyle.Render(strings.Repeat("░", barWidth-filled))
}
