package main

import (
	"os"
	"path/filepath"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

const sampleProjects = `[
  {
    "id": "g1",
    "nm": "CS Homework",
    "deadline": 10,
    "value": 100,
    "penalty": -20,
    "ch": [
      {"id": "t1", "nm": "Write proof", "est": 30, "today": true},
      {"id": "t2", "nm": "Submit", "est": 5, "completed": true}
    ]
  }
]`

func TestLoadProjects(t *testing.T) {
	Convey("Given a projects JSON file on disk", t, func() {
		dir := t.TempDir()
		path := filepath.Join(dir, "projects.json")
		So(os.WriteFile(path, []byte(sampleProjects), 0o644), ShouldBeNil)

		Convey("When it is loaded", func() {
			goals, err := loadProjects(path)

			Convey("Then it parses into the wire representation", func() {
				So(err, ShouldBeNil)
				So(len(goals), ShouldEqual, 1)
				So(goals[0].Nm, ShouldEqual, "CS Homework")
				So(len(goals[0].Ch), ShouldEqual, 2)
			})
		})
	})

	Convey("Given a path that does not exist", t, func() {
		Convey("When it is loaded", func() {
			_, err := loadProjects("/nonexistent/path.json")

			Convey("Then it returns an error", func() {
				So(err, ShouldNotBeNil)
			})
		})
	})
}

func TestBuildGoalsFiltersCompletedAndCollectsPins(t *testing.T) {
	Convey("Given wire goals with a completed task and a pinned task", t, func() {
		wireGoals, err := loadProjects(writeTempProjects(t, sampleProjects))
		So(err, ShouldBeNil)

		Convey("When converted to domain goals", func() {
			goals, pinned, err := buildGoals(wireGoals)

			Convey("Then completed tasks still appear in the domain model", func() {
				So(err, ShouldBeNil)
				So(len(goals), ShouldEqual, 1)
				So(len(goals[0].Tasks), ShouldEqual, 2)
			})

			Convey("Then only the non-completed pinned task is collected", func() {
				So(pinned, ShouldResemble, []string{"Write proof"})
			})
		})
	})
}

func writeTempProjects(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "projects.json")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}
