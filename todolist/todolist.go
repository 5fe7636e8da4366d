// Package todolist flattens a user's goal hierarchy into the indexed task
// list the mdp package builds states over.
package todolist

import (
	"fmt"

	"github.com/niceyeti/todolist-mdp/domain"
)

// noGoal is the sentinel goal index for tasks passed in as non_goal_tasks:
// tasks that exist in the day's schedule but are not owned by any goal
// (no deadline reward, no penalty).
const noGoal = -1

// ToDoList is the flattened, indexed view of a user's goals and tasks that
// the MDP is built from. Index order is assigned once at construction and
// is stable for the lifetime of the MDP.
type ToDoList struct {
	goals         []domain.Goal
	tasks         []domain.Task
	indexToGoal   []int // -1 for non-goal tasks
	goalToIndices [][]int
	startTime     int
}

// New flattens goals (and any standalone non_goal_tasks) into a ToDoList,
// filtering out tasks already marked completed. Task indices are assigned
// in goal order, then task order within each goal, then non-goal tasks
// last.
func New(goals []domain.Goal, startTime int, nonGoalTasks []domain.Task) (*ToDoList, error) {
	tdl := &ToDoList{
		goals:         goals,
		goalToIndices: make([][]int, len(goals)),
		startTime:     startTime,
	}

	for gi, g := range goals {
		for _, task := range g.Tasks {
			if task.Completed {
				continue
			}
			idx := len(tdl.tasks)
			tdl.tasks = append(tdl.tasks, task)
			tdl.indexToGoal = append(tdl.indexToGoal, gi)
			tdl.goalToIndices[gi] = append(tdl.goalToIndices[gi], idx)
		}
	}
	for _, task := range nonGoalTasks {
		if task.Completed {
			continue
		}
		tdl.tasks = append(tdl.tasks, task)
		tdl.indexToGoal = append(tdl.indexToGoal, noGoal)
	}

	return tdl, nil
}

// GetTasks returns the flattened, indexed task list.
func (t *ToDoList) GetTasks() []domain.Task {
	return t.tasks
}

// GetGoals returns the goals backing this list, in their original order.
func (t *ToDoList) GetGoals() []domain.Goal {
	return t.goals
}

// NumTasks returns the total number of (non-completed) tasks.
func (t *ToDoList) NumTasks() int {
	return len(t.tasks)
}

// StartTime returns the solve's start time, in minutes from day zero.
func (t *ToDoList) StartTime() int {
	return t.startTime
}

// TaskAt returns the task at a given flattened index.
func (t *ToDoList) TaskAt(i int) domain.Task {
	return t.tasks[i]
}

// GoalIndexOf returns the owning goal's index for a task index, or noGoal
// if the task is not owned by any goal.
func (t *ToDoList) GoalIndexOf(taskIdx int) int {
	return t.indexToGoal[taskIdx]
}

// GoalOf returns the owning Goal for a task index; ok is false for
// non-goal tasks.
func (t *ToDoList) GoalOf(taskIdx int) (goal domain.Goal, ok bool) {
	gi := t.indexToGoal[taskIdx]
	if gi == noGoal {
		return domain.Goal{}, false
	}
	return t.goals[gi], true
}

// IndicesOf returns the flattened task indices belonging to goal index gi.
func (t *ToDoList) IndicesOf(gi int) []int {
	return t.goalToIndices[gi]
}

// IndexOfDescription returns the flattened index of the task whose
// description matches id, or an error if none is found.
func (t *ToDoList) IndexOfDescription(id string) (int, error) {
	for i, task := range t.tasks {
		if task.Description == id {
			return i, nil
		}
	}
	return 0, fmt.Errorf("todolist: no task with description %q", id)
}

// EarliestDeadline returns the smallest earliest-deadline across all goals.
func (t *ToDoList) EarliestDeadline() int {
	min := 0
	for i, g := range t.goals {
		if i == 0 || g.EarliestDeadline() < min {
			min = g.EarliestDeadline()
		}
	}
	return min
}

// LatestDeadline returns the largest latest-deadline across all goals.
func (t *ToDoList) LatestDeadline() int {
	max := 0
	for i, g := range t.goals {
		if i == 0 || g.LatestDeadline() > max {
			max = g.LatestDeadline()
		}
	}
	return max
}
