package daypacker

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/niceyeti/todolist-mdp/domain"
	"github.com/niceyeti/todolist-mdp/mdp"
	"github.com/niceyeti/todolist-mdp/solve"
	"github.com/niceyeti/todolist-mdp/todolist"
)

func mustTask(description string, est int, prob float64) domain.Task {
	task, err := domain.NewTask(description, est, prob, false)
	if err != nil {
		panic(err)
	}
	return task
}

func mustGoal(description string, tasks []domain.Task, rewards map[int]float64, penalty float64) domain.Goal {
	g, err := domain.NewGoal(description, description, tasks, rewards, penalty)
	if err != nil {
		panic(err)
	}
	return g
}

// sixGoalBenchmark builds Scenario A: six goals A..F, each with two
// tasks, the canonical deterministic ordering benchmark.
func sixGoalBenchmark(t *testing.T) *todolist.ToDoList {
	goalSpecs := []struct {
		name     string
		deadline int
		reward   float64
		penalty  float64
	}{
		{"A", 10, 100, -10},
		{"B", 10, 10, 0},
		{"C", 6, 100, -1},
		{"D", 40, 10, -10},
		{"E", 70, 10, -110},
		{"F", 70, 10, -110},
	}

	var goals []domain.Goal
	for _, spec := range goalSpecs {
		t1 := mustTask(spec.name+"1", 1, 1)
		t2 := mustTask(spec.name+"2", 1, 1)
		goal := mustGoal(spec.name, []domain.Task{t1, t2}, map[int]float64{spec.deadline: spec.reward}, spec.penalty)
		goals = append(goals, goal)
	}

	list, err := todolist.New(goals, 0, nil)
	if err != nil {
		t.Fatal(err)
	}
	return list
}

func TestPackDayRespectsBudgetUnlessPinned(t *testing.T) {
	Convey("Given the six-goal benchmark solved by backward induction", t, func() {
		list := sixGoalBenchmark(t)
		m, err := mdp.New(list, 1.0)
		So(err, ShouldBeNil)
		sol, err := solve.BackwardInduction(m)
		So(err, ShouldBeNil)

		Convey("When packed with a pinned task and a small budget", func() {
			items, err := Pack(m, sol, 10, []string{"A1"})
			So(err, ShouldBeNil)

			Convey("Then the output begins with the pinned task", func() {
				So(len(items), ShouldBeGreaterThan, 0)
				So(int(items[0].Action), ShouldEqual, 0) // A1 is index 0
			})

			Convey("Then no unpinned task pushes cumulative time past duration", func() {
				cumulative := 0
				for i, item := range items {
					cumulative += m.List().TaskAt(int(item.Action)).TimeEst
					if i == 0 {
						continue // pinned task may legally overrun
					}
					So(cumulative, ShouldBeLessThanOrEqualTo, 10)
				}
			})
		})

		Convey("When a pinned task id does not exist", func() {
			_, err := Pack(m, sol, 10, []string{"nonexistent"})
			Convey("Then packing fails with a contract error", func() {
				So(err, ShouldNotBeNil)
			})
		})
	})
}

func TestPackDayGreedyOrdering(t *testing.T) {
	Convey("Given the six-goal benchmark with a generous budget", t, func() {
		list := sixGoalBenchmark(t)
		m, err := mdp.New(list, 1.0)
		So(err, ShouldBeNil)
		sol, err := solve.BackwardInduction(m)
		So(err, ShouldBeNil)

		Convey("When packed with no pins and enough time for everything", func() {
			items, err := Pack(m, sol, 1000, nil)
			So(err, ShouldBeNil)

			Convey("Then every task is scheduled exactly once", func() {
				So(len(items), ShouldEqual, 12)
			})

			Convey("Then C's tasks are scheduled before A's, per the canonical ordering", func() {
				indexOf := func(action mdp.Action) int {
					for i, item := range items {
						if item.Action == action {
							return i
						}
					}
					return -1
				}
				// C1/C2 are indices 4/5, A1/A2 are indices 0/1 in the
				// flattened list (goals in order A,B,C,D,E,F).
				So(indexOf(mdp.Action(4)), ShouldBeLessThan, indexOf(mdp.Action(0)))
			})
		})
	})
}
