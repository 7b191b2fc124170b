// Package gantt draws simulation schedules as plain-text timelines.
//
// Each worker gets one row; each column covers Scale ticks. A task occupies
// the columns of its run, starting with its identity and padded with '=':
//
//	    0         10
//	w0  C==F=====.E====
//	w1  ...AD===B=.....
//
// Idle columns are drawn as '.'. Colouring is left to the caller.
package gantt

import (
	"strconv"
	"strings"

	"github.com/matzehuels/stepflow/pkg/simulate"
)

const (
	idle   = '.'
	fill   = '='
	ruler  = 10
	margin = 2
)

// Options controls the timeline resolution.
type Options struct {
	// Scale is the number of ticks per column. Zero picks the smallest
	// scale that fits Width, or 1 when Width is zero as well.
	Scale int
	// Width caps the number of timeline columns when Scale is zero.
	Width int
}

func (o Options) scale(makespan int) int {
	if o.Scale > 0 {
		return o.Scale
	}
	if o.Width > 0 && makespan > o.Width {
		return (makespan + o.Width - 1) / o.Width
	}
	return 1
}

// Render draws res as a text timeline. An empty schedule renders as an
// empty string.
func Render(res *simulate.Result, opts Options) string {
	if res == nil || res.Makespan == 0 {
		return ""
	}
	scale := opts.scale(res.Makespan)
	cols := (res.Makespan + scale - 1) / scale

	rows := make([][]rune, res.Lanes())
	for i := range rows {
		rows[i] = []rune(strings.Repeat(string(idle), cols))
	}
	for _, a := range res.Timeline {
		if a.Worker < 0 || a.Worker >= len(rows) {
			continue
		}
		paint(rows[a.Worker], a, scale)
	}

	labelWidth := len("w"+strconv.Itoa(len(rows)-1)) + margin
	var b strings.Builder
	b.WriteString(header(cols, scale, labelWidth))
	for i, row := range rows {
		label := "w" + strconv.Itoa(i)
		b.WriteString(label)
		b.WriteString(strings.Repeat(" ", labelWidth-len(label)))
		b.WriteString(string(row))
		b.WriteByte('\n')
	}
	return b.String()
}

func paint(row []rune, a simulate.Assignment, scale int) {
	from := a.Start / scale
	to := max((a.End+scale-1)/scale, from+1)
	to = min(to, len(row))

	label := []rune(a.Task)
	for c := from; c < to; c++ {
		if i := c - from; i < len(label) {
			row[c] = label[i]
		} else {
			row[c] = fill
		}
	}
}

func header(cols, scale, indent int) string {
	line := []rune(strings.Repeat(" ", indent+cols))
	for c := 0; c < cols; c += ruler {
		mark := strconv.Itoa(c * scale)
		if indent+c+len(mark) > len(line) {
			break
		}
		copy(line[indent+c:], []rune(mark))
	}
	return strings.TrimRight(string(line), " ") + "\n"
}

// Slot is one worker's state at a given tick.
type Slot struct {
	Worker int
	Task   string // empty when idle
	// Elapsed counts the ticks the task has already run; Total is its
	// duration.
	Elapsed int
	Total   int
}

// Frame reports what every lane is doing during the tick starting at t.
// Ticks at or beyond the makespan show all workers idle.
func Frame(res *simulate.Result, t int) []Slot {
	slots := make([]Slot, res.Lanes())
	for i := range slots {
		slots[i].Worker = i
	}
	for _, a := range res.Timeline {
		if a.Start <= t && t < a.End && a.Worker >= 0 && a.Worker < len(slots) {
			slots[a.Worker] = Slot{Worker: a.Worker, Task: a.Task, Elapsed: t - a.Start, Total: a.Ticks()}
		}
	}
	return slots
}

// Completed returns the tasks finished at or before tick t, in completion
// order.
func Completed(res *simulate.Result, t int) []string {
	ends := make(map[string]int, len(res.Timeline))
	for _, a := range res.Timeline {
		ends[a.Task] = a.End
	}
	var done []string
	for _, id := range res.Order {
		if ends[id] <= t {
			done = append(done, id)
		}
	}
	return done
}
