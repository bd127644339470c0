package editor_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/okian/pelada/internal/adapters/repository"
	"github.com/okian/pelada/internal/domain/editor"
	"github.com/okian/pelada/internal/domain/lifecycle"
	"github.com/okian/pelada/internal/domain/model"
	"github.com/okian/pelada/internal/domain/persist"
	"github.com/okian/pelada/internal/domain/types"
	"github.com/okian/pelada/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

type fakeWriter struct {
	mu       sync.Mutex
	payloads []types.ResultPayload
	err      error
}

func (f *fakeWriter) SaveResult(_ context.Context, _ model.MatchID, p types.ResultPayload) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.payloads = append(f.payloads, p)
	return f.err
}

func (f *fakeWriter) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.payloads)
}

func (f *fakeWriter) fail(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

func sequentialIDs() func() string {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("g%d", n)
	}
}

func scenarioMatch(official *model.Score) *model.Match {
	return &model.Match{
		ID:            "m1",
		Home:          model.Team{ID: "A", Name: "Azul"},
		Away:          model.Team{ID: "B", Name: "Branco"},
		OfficialScore: official,
		Presences: []model.Presence{
			{Athlete: model.Athlete{ID: "p1", Name: "Pedro"}, TeamID: "A", Goals: 2, Status: model.ParticipationStarter},
			{Athlete: model.Athlete{ID: "p3", Name: "Caio"}, TeamID: "A", Status: model.ParticipationStarter},
			{Athlete: model.Athlete{ID: "p2", Name: "Rui"}, TeamID: "B", Assists: 1, Status: model.ParticipationStarter},
		},
	}
}

func emptyMatch() *model.Match {
	m := scenarioMatch(nil)
	for i := range m.Presences {
		m.Presences[i].Goals, m.Presences[i].Assists = 0, 0
	}
	return m
}

func open(m *model.Match, store lifecycle.OverrideStore, w persist.Writer) *editor.Session {
	s, err := editor.Open(context.Background(), m, store, w,
		editor.WithIDGenerator(sequentialIDs()),
		editor.WithPersistOptions(persist.WithClock(clockwork.NewFakeClock()), persist.WithDebounce(time.Second)),
	)
	So(err, ShouldBeNil)
	return s
}

func TestOpen(t *testing.T) {
	Convey("Given A: p1 with 2 goals, B: p2 with 1 assist, official 3-0", t, func() {
		ctx := context.Background()
		store := repository.NewInMemoryStore()
		So(store.Put(ctx, "m1", model.StatusInProgress), ShouldBeNil)
		w := &fakeWriter{}
		s := open(scenarioMatch(&model.Score{Home: 3, Away: 0}), store, w)

		Convey("When the session is opened", func() {
			st := s.State()

			Convey("Then the log reproduces the official score with one placeholder", func() {
				So(st.Score, ShouldResemble, model.Score{Home: 3, Away: 0})
				So(st.Events, ShouldHaveLength, 3)
				So(st.Placeholders, ShouldEqual, 1)
				So(st.Status, ShouldEqual, model.StatusInProgress)
				So(st.Unsaved, ShouldBeFalse)
				So(st.CanUndo, ShouldBeFalse)
				So(st.Rosters["A"], ShouldHaveLength, 2)
				So(st.Warnings, ShouldHaveLength, 1)
				So(st.Warnings[0], ShouldContainSubstring, "p2")
			})
		})
	})

	Convey("Given stored aggregates above the official score", t, func() {
		s := open(scenarioMatch(&model.Score{Home: 1, Away: 0}), repository.NewInMemoryStore(), &fakeWriter{})

		Convey("Then the excess is reported and the log is not clamped", func() {
			st := s.State()
			So(st.Score.Home, ShouldEqual, 2)
			So(st.Warnings, ShouldContain, "team A: stored goals (2) exceed the official score (1)")
		})
	})

	Convey("Given an override already read by the caller", t, func() {
		s, err := editor.Open(context.Background(), emptyMatch(), repository.NewInMemoryStore(), &fakeWriter{},
			editor.WithStatusOverride(model.StatusFinished, true))

		Convey("Then it is used as the opening status", func() {
			So(err, ShouldBeNil)
			So(s.State().Locked, ShouldBeTrue)
		})
	})
}

func TestEditing(t *testing.T) {
	Convey("Given a not-started match with no goals", t, func() {
		ctx := context.Background()
		store := repository.NewInMemoryStore()
		w := &fakeWriter{}
		s := open(emptyMatch(), store, w)
		So(s.State().Status, ShouldEqual, model.StatusNotStarted)

		Convey("When the operator adds a goal", func() {
			g, err := s.AddGoal(ctx, model.GoalEvent{Team: "A", Scorer: model.AthleteScorer("p1"), Assist: model.AthleteAssist("p3")})
			So(err, ShouldBeNil)

			Convey("Then the match moves into progress on its own", func() {
				st := s.State()
				So(st.Status, ShouldEqual, model.StatusInProgress)
				So(g.Provenance, ShouldEqual, model.ProvenanceNew)
				So(g.ID, ShouldNotBeEmpty)
				So(st.Score, ShouldResemble, model.Score{Home: 1})
				So(st.Unsaved, ShouldBeTrue)
				So(st.SavePending, ShouldBeTrue)

				stored, ok, _ := store.Get(ctx, "m1")
				So(ok, ShouldBeTrue)
				So(stored, ShouldEqual, model.StatusInProgress)
			})
		})

		Convey("When an own goal is added for team A", func() {
			_, err := s.AddGoal(ctx, model.GoalEvent{Team: "A", Scorer: model.OwnGoalScorer(), OwnGoal: true})
			So(err, ShouldBeNil)

			Convey("Then team B scores and no athlete of A is credited", func() {
				st := s.State()
				So(st.Score, ShouldResemble, model.Score{Home: 0, Away: 1})
				for _, line := range st.Stats {
					So(line.Goals, ShouldEqual, 0)
				}
			})
		})

		Convey("When a goal is invalid", func() {
			_, foreign := s.AddGoal(ctx, model.GoalEvent{Team: "A", Scorer: model.AthleteScorer("p2")})
			_, unknownTeam := s.AddGoal(ctx, model.GoalEvent{Team: "Z", Scorer: model.UnknownScorer()})
			_, selfAssist := s.AddGoal(ctx, model.GoalEvent{Team: "A", Scorer: model.AthleteScorer("p1"), Assist: model.AthleteAssist("p1")})

			Convey("Then it is rejected and nothing changes", func() {
				So(errors.Is(foreign, model.ErrInvalidGoal), ShouldBeTrue)
				So(errors.Is(unknownTeam, model.ErrUnknownTeam), ShouldBeTrue)
				So(errors.Is(selfAssist, model.ErrInvalidGoal), ShouldBeTrue)
				So(s.State().Events, ShouldBeEmpty)
				So(s.State().Status, ShouldEqual, model.StatusNotStarted)
			})
		})

		Convey("When goals are added, removed and undone", func() {
			g1, _ := s.AddGoal(ctx, model.GoalEvent{Team: "A", Scorer: model.AthleteScorer("p1")})
			_, _ = s.AddGoal(ctx, model.GoalEvent{Team: "B", Scorer: model.AthleteScorer("p2")})
			So(s.RemoveGoal(ctx, g1.ID), ShouldBeNil)
			So(s.State().Score, ShouldResemble, model.Score{Home: 0, Away: 1})

			Convey("Then undo restores the removed goal", func() {
				So(s.Undo(ctx), ShouldBeNil)
				So(s.State().Score, ShouldResemble, model.Score{Home: 1, Away: 1})
				So(s.Undo(ctx), ShouldBeNil)
				So(s.Undo(ctx), ShouldBeNil)
				So(s.State().Events, ShouldBeEmpty)
				So(errors.Is(s.Undo(ctx), editor.ErrNothingToUndo), ShouldBeTrue)
			})

			Convey("Then removing an unknown goal fails", func() {
				So(errors.Is(s.RemoveGoal(ctx, "nope"), editor.ErrGoalNotFound), ShouldBeTrue)
			})
		})

		Convey("When the match is reset", func() {
			_, _ = s.AddGoal(ctx, model.GoalEvent{Team: "A", Scorer: model.AthleteScorer("p1")})
			So(errors.Is(s.Reset(ctx, false), lifecycle.ErrConfirmationRequired), ShouldBeTrue)
			So(s.Reset(ctx, true), ShouldBeNil)

			Convey("Then the log and history are cleared", func() {
				st := s.State()
				So(st.Events, ShouldBeEmpty)
				So(st.Status, ShouldEqual, model.StatusNotStarted)
				So(st.CanUndo, ShouldBeFalse)
			})
		})

		Convey("When the operator selects not_started", func() {
			_, _ = s.AddGoal(ctx, model.GoalEvent{Team: "A", Scorer: model.AthleteScorer("p1")})
			So(s.SetStatus(ctx, model.StatusNotStarted), ShouldBeNil)

			Convey("Then the events are cleared", func() {
				So(s.State().Events, ShouldBeEmpty)
			})
		})

		Convey("When the operator selects an unknown status", func() {
			err := s.SetStatus(ctx, model.Status("halftime"))

			Convey("Then it is rejected", func() {
				So(errors.Is(err, model.ErrInvalidStatus), ShouldBeTrue)
			})
		})
	})
}

func TestFinalizeAndUnlock(t *testing.T) {
	Convey("Given a match in progress with one goal", t, func() {
		ctx := context.Background()
		w := &fakeWriter{}
		s := open(emptyMatch(), repository.NewInMemoryStore(), w)
		_, err := s.AddGoal(ctx, model.GoalEvent{Team: "A", Scorer: model.AthleteScorer("p1")})
		So(err, ShouldBeNil)

		Convey("When finalize is not confirmed", func() {
			err := s.Finalize(ctx, false)

			Convey("Then nothing is written", func() {
				So(errors.Is(err, lifecycle.ErrConfirmationRequired), ShouldBeTrue)
				So(w.calls(), ShouldEqual, 0)
			})
		})

		Convey("When the finalize write fails", func() {
			w.fail(errors.New("backend down"))
			err := s.Finalize(ctx, true)

			Convey("Then the error surfaces and the match stays editable", func() {
				So(errors.Is(err, persist.ErrWriteFailed), ShouldBeTrue)
				So(err.Error(), ShouldContainSubstring, "backend down")
				So(s.State().Locked, ShouldBeFalse)
			})
		})

		Convey("When finalized", func() {
			So(s.Finalize(ctx, true), ShouldBeNil)

			Convey("Then the match is locked and mutations are rejected", func() {
				st := s.State()
				So(st.Locked, ShouldBeTrue)
				So(st.Unsaved, ShouldBeFalse)
				So(st.SavePending, ShouldBeFalse)
				So(w.calls(), ShouldEqual, 1)

				_, err := s.AddGoal(ctx, model.GoalEvent{Team: "A", Scorer: model.AthleteScorer("p1")})
				So(errors.Is(err, lifecycle.ErrMatchLocked), ShouldBeTrue)
				So(errors.Is(s.RemoveGoal(ctx, "g1"), lifecycle.ErrMatchLocked), ShouldBeTrue)
				So(errors.Is(s.Reset(ctx, true), lifecycle.ErrMatchLocked), ShouldBeTrue)
				So(errors.Is(s.Undo(ctx), lifecycle.ErrMatchLocked), ShouldBeTrue)
			})

			Convey("Then after unlock the same mutations succeed", func() {
				So(errors.Is(s.Unlock(ctx, false), lifecycle.ErrConfirmationRequired), ShouldBeTrue)
				So(s.Unlock(ctx, true), ShouldBeNil)
				_, err := s.AddGoal(ctx, model.GoalEvent{Team: "A", Scorer: model.AthleteScorer("p1")})
				So(err, ShouldBeNil)
				So(s.RemoveGoal(ctx, "g1"), ShouldBeNil)
				So(s.Reset(ctx, true), ShouldBeNil)
			})
		})

		Convey("When saved manually", func() {
			So(s.Save(ctx), ShouldBeNil)

			Convey("Then the state is persisted and nothing is pending", func() {
				st := s.State()
				So(st.Unsaved, ShouldBeFalse)
				So(st.SavePending, ShouldBeFalse)
				So(w.calls(), ShouldEqual, 1)
			})
		})
	})
}

func TestClearStatusOverride(t *testing.T) {
	Convey("Given a match held in progress by an override although the log matches the official score", t, func() {
		ctx := context.Background()
		store := repository.NewInMemoryStore()
		So(store.Put(ctx, "m1", model.StatusInProgress), ShouldBeNil)
		w := &fakeWriter{}
		s := open(scenarioMatch(&model.Score{Home: 3, Away: 0}), store, w)
		So(s.State().Status, ShouldEqual, model.StatusInProgress)

		Convey("When the override is cleared", func() {
			So(s.ClearStatusOverride(ctx), ShouldBeNil)

			Convey("Then the status is derived from the data and the override is gone", func() {
				st := s.State()
				So(st.Status, ShouldEqual, model.StatusFinished)
				So(st.Locked, ShouldBeTrue)
				So(st.SavePending, ShouldBeTrue)
				_, ok, err := store.Get(ctx, "m1")
				So(err, ShouldBeNil)
				So(ok, ShouldBeFalse)
			})
		})
	})

	Convey("Given an override store that fails", t, func() {
		ctx := context.Background()
		store := &failingStore{}
		s := open(emptyMatch(), store, &fakeWriter{})

		Convey("When the override is cleared", func() {
			err := s.ClearStatusOverride(ctx)

			Convey("Then the failure is returned and the status is unchanged", func() {
				So(err, ShouldNotBeNil)
				So(s.State().Status, ShouldEqual, model.StatusNotStarted)
			})
		})
	})
}

type failingStore struct{}

func (failingStore) Get(context.Context, model.MatchID) (model.Status, bool, error) {
	return "", false, nil
}

func (failingStore) Put(context.Context, model.MatchID, model.Status) error { return nil }

func (failingStore) Delete(context.Context, model.MatchID) error {
	return errors.New("override store offline")
}
