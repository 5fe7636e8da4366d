// Package heuristics implements the non-MDP point-assignment alternatives:
// constant, random, and length-proportional value assignment. These never
// touch the solve machinery; they are alternates to it, kept at the
// interface the core exposes rather than reimplemented in it.
package heuristics

import (
	"math/rand"

	"github.com/niceyeti/todolist-mdp/domain"
)

// TaskValue pairs a task's description with an assigned display value.
type TaskValue struct {
	Description string
	Value       float64
}

// AssignConstant gives every task the same fixed value.
func AssignConstant(tasks []domain.Task, defaultValue float64) []TaskValue {
	out := make([]TaskValue, len(tasks))
	for i, task := range tasks {
		out[i] = TaskValue{Description: task.Description, Value: defaultValue}
	}
	return out
}

// AssignRandom samples a Gaussian value per task with math/rand's
// NormFloat64, using a fixed-seed source when rng is nil.
func AssignRandom(tasks []domain.Task, mean, stddev float64, rng *rand.Rand) []TaskValue {
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	out := make([]TaskValue, len(tasks))
	for i, task := range tasks {
		out[i] = TaskValue{Description: task.Description, Value: mean + stddev*rng.NormFloat64()}
	}
	return out
}

// AssignLengthProportional splits a goal's total reward across its tasks
// in proportion to each task's time estimate.
func AssignLengthProportional(goal domain.Goal) []TaskValue {
	totalReward := goal.GetReward(goal.LatestDeadline())
	totalTime := 0
	for _, task := range goal.Tasks {
		totalTime += task.TimeEst
	}

	out := make([]TaskValue, len(goal.Tasks))
	if totalTime == 0 {
		return out
	}
	for i, task := range goal.Tasks {
		share := float64(task.TimeEst) / float64(totalTime)
		out[i] = TaskValue{Description: task.Description, Value: totalReward * share}
	}
	return out
}
