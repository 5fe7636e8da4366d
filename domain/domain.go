// Package domain holds the immutable Task and Goal records that the rest of
// the scheduler is built on. Nothing here knows about states, solvers, or
// time budgets; it is pure value modeling plus the validation rules a caller
// must satisfy before handing goals to the todolist/mdp packages.
package domain

import (
	"fmt"
	"sort"
)

// ValidationError names the offending entity and what was wrong with it.
// Callers should treat this as a single, first-failure report, not a
// collection (per the error handling design: validation surfaces the first
// offending entity, not every one).
type ValidationError struct {
	Entity string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Entity, e.Reason)
}

// Task is an atomic unit of work belonging to a Goal. Immutable after
// construction.
type Task struct {
	Description string
	TimeEst     int
	Prob        float64
	Completed   bool
}

// NewTask validates and constructs a Task. Prob defaults to 1 when zero is
// passed, matching the domain default of "always succeeds".
func NewTask(description string, timeEst int, prob float64, completed bool) (Task, error) {
	if description == "" {
		return Task{}, &ValidationError{Entity: "task", Reason: "description must not be empty"}
	}
	if timeEst <= 0 {
		return Task{}, &ValidationError{Entity: fmt.Sprintf("task %q", description), Reason: "time_est must be positive"}
	}
	if prob == 0 {
		prob = 1
	}
	if prob <= 0 || prob > 1 {
		return Task{}, &ValidationError{Entity: fmt.Sprintf("task %q", description), Reason: "prob must be in (0, 1]"}
	}
	return Task{Description: description, TimeEst: timeEst, Prob: prob, Completed: completed}, nil
}

// Goal is a user-level objective: an ordered list of Tasks, a deadline ->
// reward schedule, and a lateness penalty collected if the goal is never
// completed by its latest deadline.
type Goal struct {
	Description string
	GoalID      string
	Tasks       []Task
	Rewards     map[int]float64
	Penalty     float64

	deadlines []int // sorted ascending, cached at construction
}

// NewGoal validates and constructs a Goal. rewards maps a deadline, in
// minutes from day zero, to the reward earned for completing the goal by
// that deadline (or earlier).
func NewGoal(description, goalID string, tasks []Task, rewards map[int]float64, penalty float64) (Goal, error) {
	if len(tasks) == 0 {
		return Goal{}, &ValidationError{Entity: fmt.Sprintf("goal %q", description), Reason: "tasks must be nonempty"}
	}
	if len(rewards) == 0 {
		return Goal{}, &ValidationError{Entity: fmt.Sprintf("goal %q", description), Reason: "rewards must be nonempty"}
	}
	if penalty > 0 {
		return Goal{}, &ValidationError{Entity: fmt.Sprintf("goal %q", description), Reason: "penalty must be <= 0"}
	}
	deadlines := make([]int, 0, len(rewards))
	for d := range rewards {
		if d <= 0 {
			return Goal{}, &ValidationError{Entity: fmt.Sprintf("goal %q", description), Reason: "deadline must be positive"}
		}
		deadlines = append(deadlines, d)
	}
	sort.Ints(deadlines)

	g := Goal{
		Description: description,
		GoalID:      goalID,
		Tasks:       tasks,
		Rewards:     rewards,
		Penalty:     penalty,
		deadlines:   deadlines,
	}
	return g, nil
}

// EarliestDeadline returns the smallest deadline key in the reward schedule.
func (g Goal) EarliestDeadline() int {
	return g.deadlines[0]
}

// LatestDeadline returns the largest deadline key in the reward schedule.
func (g Goal) LatestDeadline() int {
	return g.deadlines[len(g.deadlines)-1]
}

// GetReward returns the reward for completing the goal at elapsed time t:
// the value of the smallest deadline >= t, or the lateness penalty if t
// exceeds every deadline.
func (g Goal) GetReward(t int) float64 {
	for _, d := range g.deadlines {
		if d >= t {
			return g.Rewards[d]
		}
	}
	return g.Penalty
}

// ByEarliestDeadline sorts goals by earliest deadline, ascending, for
// stable downstream tie-breaking.
type ByEarliestDeadline []Goal

func (b ByEarliestDeadline) Len() int      { return len(b) }
func (b ByEarliestDeadline) Swap(i, j int) { b[i], b[j] = b[j], b[i] }
func (b ByEarliestDeadline) Less(i, j int) bool {
	return b[i].EarliestDeadline() < b[j].EarliestDeadline()
}
