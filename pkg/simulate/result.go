package simulate

import "slices"

// Assignment is one task's stay on a worker: it started at tick Start and
// finished at tick End.
type Assignment struct {
	Task   string `json:"task" yaml:"task" bson:"task"`
	Worker int    `json:"worker" yaml:"worker" bson:"worker"`
	Start  int    `json:"start" yaml:"start" bson:"start"`
	End    int    `json:"end" yaml:"end" bson:"end"`
}

// Ticks returns how long the task occupied its worker.
func (a Assignment) Ticks() int { return a.End - a.Start }

// Result is the schedule produced by a simulation.
type Result struct {
	// Makespan is the tick at which the last task completed.
	Makespan int `json:"makespan" yaml:"makespan" bson:"makespan"`
	// Workers is the pool size the schedule was produced for.
	Workers int `json:"workers" yaml:"workers" bson:"workers"`
	// CriticalPath is the longest duration-weighted chain, a lower bound on
	// Makespan.
	CriticalPath int `json:"critical_path" yaml:"critical_path" bson:"critical_path"`
	// Order lists tasks by completion; simultaneous completions follow
	// worker slot order.
	Order []string `json:"order" yaml:"order" bson:"order"`
	// Timeline holds one entry per task in dispatch order.
	Timeline []Assignment `json:"timeline" yaml:"timeline" bson:"timeline"`
}

// Utilization is the share of worker ticks spent busy, between 0 and 1.
func (r *Result) Utilization() float64 {
	if r.Makespan == 0 || r.Workers == 0 {
		return 0
	}
	busy := 0
	for _, a := range r.Timeline {
		busy += a.Ticks()
	}
	return float64(busy) / float64(r.Workers*r.Makespan)
}

// Lanes is the number of worker slots that can appear in the timeline: the
// pool size, capped by the number of tasks. Workers beyond it never run
// anything.
func (r *Result) Lanes() int {
	n := len(r.Timeline)
	for _, a := range r.Timeline {
		n = max(n, a.Worker+1)
	}
	return min(r.Workers, n)
}

// ByWorker groups the timeline per lane, each sorted by start tick.
func (r *Result) ByWorker() [][]Assignment {
	rows := make([][]Assignment, r.Lanes())
	for _, a := range r.Timeline {
		if a.Worker >= 0 && a.Worker < len(rows) {
			rows[a.Worker] = append(rows[a.Worker], a)
		}
	}
	for _, row := range rows {
		slices.SortFunc(row, func(a, b Assignment) int { return a.Start - b.Start })
	}
	return rows
}

// Running returns what each lane is doing during the tick starting at t.
// An idle worker has an empty string.
func (r *Result) Running(t int) []string {
	out := make([]string, r.Lanes())
	for _, a := range r.Timeline {
		if a.Start <= t && t < a.End && a.Worker < len(out) {
			out[a.Worker] = a.Task
		}
	}
	return out
}
