// Command schedule is the CLI entrypoint wiring config, the domain model,
// the MDP, a chosen solver, and the day packer into one run: load a
// projects file, solve, pack today's list, print it.
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/niceyeti/todolist-mdp/config"
	"github.com/niceyeti/todolist-mdp/daypacker"
	"github.com/niceyeti/todolist-mdp/domain"
	"github.com/niceyeti/todolist-mdp/mdp"
	"github.com/niceyeti/todolist-mdp/rewardscale"
	"github.com/niceyeti/todolist-mdp/solve"
	"github.com/niceyeti/todolist-mdp/todolist"
)

// wireTask and wireGoal mirror the "Input projects" external interface:
// the structured JSON a client sends, not the free-text parsing that
// remains out of scope.
type wireTask struct {
	ID        string `json:"id"`
	Nm        string `json:"nm"`
	Est       int    `json:"est"`
	Completed bool   `json:"completed"`
	Deadline  *int   `json:"deadline,omitempty"`
	Today     bool   `json:"today,omitempty"`
}

type wireGoal struct {
	ID       string     `json:"id"`
	Nm       string     `json:"nm"`
	Deadline int        `json:"deadline"`
	Value    float64    `json:"value"`
	Penalty  float64    `json:"penalty"`
	Ch       []wireTask `json:"ch"`
}

func loadProjects(path string) ([]wireGoal, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var goals []wireGoal
	if err := json.Unmarshal(data, &goals); err != nil {
		return nil, err
	}
	return goals, nil
}

// buildGoals converts the wire representation to domain.Goal and collects
// the description of every non-completed task flagged "today" (pinned).
// Completed tasks are kept in the domain model.
func buildGoals(wireGoals []wireGoal) ([]domain.Goal, []string, error) {
	goals := make([]domain.Goal, 0, len(wireGoals))
	var pinned []string

	for _, wg := range wireGoals {
		tasks := make([]domain.Task, 0, len(wg.Ch))
		for _, wt := range wg.Ch {
			task, err := domain.NewTask(wt.Nm, wt.Est, 1, wt.Completed)
			if err != nil {
				return nil, nil, err
			}
			tasks = append(tasks, task)
			if wt.Today && !wt.Completed {
				pinned = append(pinned, wt.Nm)
			}
		}

		goal, err := domain.NewGoal(wg.Nm, wg.ID, tasks, map[int]float64{wg.Deadline: wg.Value}, wg.Penalty)
		if err != nil {
			return nil, nil, err
		}
		goals = append(goals, goal)
	}

	return goals, pinned, nil
}

// outputRow is the "Output today-list" external interface: one scheduled
// task, with its scaled display value.
type outputRow struct {
	ID       string `json:"id"`
	Nm       string `json:"nm"`
	ParentID string `json:"parentId"`
	Est      int    `json:"est"`
	Val      string `json:"val"`
}

func run(cmd *cobra.Command, args []string) error {
	logger, err := zap.NewProduction()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	solveID := uuid.NewString()
	logger = logger.With(zap.String("solve_id", solveID))

	projectsPath, _ := cmd.Flags().GetString("projects")
	configPath, _ := cmd.Flags().GetString("config")
	solverName, _ := cmd.Flags().GetString("solver")
	durationFlag, _ := cmd.Flags().GetInt("duration")
	pins, _ := cmd.Flags().GetStringSlice("today")
	workers, _ := cmd.Flags().GetInt("workers")

	cfg := config.Defaults()
	if configPath != "" {
		loaded, err := config.FromYaml(configPath)
		if err != nil {
			logger.Error("failed to load config", zap.Error(err))
			return err
		}
		cfg = *loaded
	}
	cfg.WithDefaults()
	if durationFlag > 0 {
		cfg.Duration = durationFlag
	}

	wireGoals, err := loadProjects(projectsPath)
	if err != nil {
		logger.Error("failed to load projects", zap.Error(err))
		return err
	}

	goals, todayPins, err := buildGoals(wireGoals)
	if err != nil {
		logger.Error("failed to build domain model", zap.Error(err))
		return err
	}
	if len(pins) > 0 {
		todayPins = pins
	}

	list, err := todolist.New(goals, 0, nil)
	if err != nil {
		logger.Error("failed to flatten goals", zap.Error(err))
		return err
	}

	m, err := mdp.New(list, cfg.Gamma)
	if err != nil {
		logger.Error("failed to build mdp", zap.Error(err))
		return err
	}

	logger.Info("solving", zap.String("solver", solverName), zap.Int("task_count", m.NumTasks()))

	var sol *solve.Solution
	switch solverName {
	case "backward":
		sol, err = solve.BackwardInduction(m)
	case "policy":
		sol, err = solve.PolicyIteration(m)
	case "value":
		sol, err = solve.ValueIteration(m, cfg.Epsilon, workers, func(iteration int, maxDelta float64) {
			logger.Debug("value iteration sweep", zap.Int("iteration", iteration), zap.Float64("max_delta", maxDelta))
		})
	default:
		return fmt.Errorf("unknown solver %q (want backward, policy, or value)", solverName)
	}
	if err != nil {
		logger.Error("solve failed", zap.Error(err))
		return err
	}

	items, err := daypacker.Pack(m, sol, cfg.Duration, todayPins)
	if err != nil {
		logger.Error("day packing failed", zap.Error(err))
		return err
	}

	rewards := make([]float64, len(items))
	for i, item := range items {
		rewards[i] = item.PseudoReward
	}
	scaled := rewardscale.Scale(rewards, 0, 100)

	for i, item := range items {
		task := list.TaskAt(int(item.Action))
		val := fmt.Sprintf("%.*f", cfg.RoundParam, rewardscale.Round(scaled[i], cfg.RoundParam))
		if cfg.PointsPerHour {
			val = fmt.Sprintf("%.*f/h", cfg.RoundParam, rewardscale.PointsPerHour(scaled[i], task.TimeEst))
		}
		row := outputRow{Nm: task.Description, Est: task.TimeEst, Val: val}
		fmt.Printf("%d. %s (%d min) -> %s\n", i+1, row.Nm, row.Est, row.Val)
	}

	return nil
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Solve today's task schedule from a goal hierarchy",
		RunE:  run,
	}
	cmd.Flags().String("projects", "", "path to a projects JSON file")
	cmd.Flags().String("config", "", "path to a solver config YAML file")
	cmd.Flags().String("solver", "value", "solver to use: backward, policy, or value")
	cmd.Flags().Int("duration", 0, "today's time budget in minutes (overrides config)")
	cmd.Flags().StringSlice("today", nil, "pinned task descriptions, in order")
	cmd.Flags().Int("workers", 4, "worker goroutines for value iteration's sweep")
	_ = cmd.MarkFlagRequired("projects")
	return cmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
