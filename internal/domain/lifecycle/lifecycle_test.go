package lifecycle_test

import (
	"context"
	"errors"
	"testing"

	"github.com/okian/pelada/internal/domain/lifecycle"
	"github.com/okian/pelada/internal/domain/model"
	"github.com/okian/pelada/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

type fakeStore struct {
	data map[model.MatchID]model.Status
	err  error
	puts int
}

func newFakeStore() *fakeStore {
	return &fakeStore{data: make(map[model.MatchID]model.Status)}
}

func (f *fakeStore) Get(_ context.Context, id model.MatchID) (model.Status, bool, error) {
	if f.err != nil {
		return "", false, f.err
	}
	st, ok := f.data[id]
	return st, ok, nil
}

func (f *fakeStore) Put(_ context.Context, id model.MatchID, st model.Status) error {
	f.puts++
	if f.err != nil {
		return f.err
	}
	f.data[id] = st
	return nil
}

func (f *fakeStore) Delete(_ context.Context, id model.MatchID) error {
	if f.err != nil {
		return f.err
	}
	delete(f.data, id)
	return nil
}

func match(official *model.Score) *model.Match {
	return &model.Match{
		ID:            "m1",
		Home:          model.Team{ID: "A"},
		Away:          model.Team{ID: "B"},
		OfficialScore: official,
	}
}

func TestDerive(t *testing.T) {
	Convey("Given matches in different data states", t, func() {
		goal := []model.GoalEvent{{Team: "A", Scorer: model.AthleteScorer("p1")}}

		Convey("When nothing is recorded", func() {
			So(lifecycle.Derive(match(nil), nil), ShouldEqual, model.StatusNotStarted)
			So(lifecycle.Derive(match(&model.Score{}), nil), ShouldEqual, model.StatusNotStarted)
		})

		Convey("When goals exist but no official score", func() {
			So(lifecycle.Derive(match(nil), goal), ShouldEqual, model.StatusInProgress)
		})

		Convey("When goals disagree with the official score", func() {
			So(lifecycle.Derive(match(&model.Score{Home: 2}), goal), ShouldEqual, model.StatusInProgress)
		})

		Convey("When goals match the official score", func() {
			So(lifecycle.Derive(match(&model.Score{Home: 1}), goal), ShouldEqual, model.StatusFinished)
		})
	})
}

func TestInitial(t *testing.T) {
	Convey("Given an override store", t, func() {
		ctx := context.Background()
		store := newFakeStore()
		m := match(&model.Score{Home: 1})
		events := []model.GoalEvent{{Team: "A", Scorer: model.AthleteScorer("p1")}}

		Convey("When no override exists the status is derived", func() {
			st, overridden, err := lifecycle.Initial(ctx, store, m, events)
			So(err, ShouldBeNil)
			So(overridden, ShouldBeFalse)
			So(st, ShouldEqual, model.StatusFinished)
		})

		Convey("When an override exists it wins", func() {
			store.data["m1"] = model.StatusInProgress
			st, overridden, err := lifecycle.Initial(ctx, store, m, events)
			So(err, ShouldBeNil)
			So(overridden, ShouldBeTrue)
			So(st, ShouldEqual, model.StatusInProgress)
		})

		Convey("When the store fails the error is returned", func() {
			store.err = errors.New("disk gone")
			_, _, err := lifecycle.Initial(ctx, store, m, events)
			So(err, ShouldNotBeNil)
		})
	})
}

func TestMachine(t *testing.T) {
	Convey("Given a not-started machine", t, func() {
		ctx := context.Background()
		store := newFakeStore()
		m := lifecycle.New("m1", model.StatusNotStarted, store)

		Convey("When a goal is added", func() {
			changed, err := m.GoalAdded(ctx)

			Convey("Then it moves to in_progress and records the override", func() {
				So(err, ShouldBeNil)
				So(changed, ShouldBeTrue)
				So(m.Status(), ShouldEqual, model.StatusInProgress)
				So(store.data["m1"], ShouldEqual, model.StatusInProgress)
			})

			Convey("And another goal does not transition again", func() {
				changed, err := m.GoalAdded(ctx)
				So(err, ShouldBeNil)
				So(changed, ShouldBeFalse)
			})
		})

		Convey("When finalize is not confirmed", func() {
			err := m.CheckFinalize(false)

			Convey("Then confirmation is required", func() {
				So(errors.Is(err, lifecycle.ErrConfirmationRequired), ShouldBeTrue)
			})
		})

		Convey("When finalized", func() {
			So(m.CheckFinalize(true), ShouldBeNil)
			m.Finalized(ctx)

			Convey("Then it is locked", func() {
				So(m.Status(), ShouldEqual, model.StatusFinished)
				So(errors.Is(m.Guard(), lifecycle.ErrMatchLocked), ShouldBeTrue)
				_, err := m.GoalAdded(ctx)
				So(errors.Is(err, lifecycle.ErrMatchLocked), ShouldBeTrue)
				So(errors.Is(m.Reset(ctx, true), lifecycle.ErrMatchLocked), ShouldBeTrue)
				So(errors.Is(m.CheckFinalize(true), lifecycle.ErrInvalidTransition), ShouldBeTrue)
			})

			Convey("And unlocking requires confirmation", func() {
				So(errors.Is(m.Unlock(ctx, false), lifecycle.ErrConfirmationRequired), ShouldBeTrue)
				So(m.Unlock(ctx, true), ShouldBeNil)
				So(m.Status(), ShouldEqual, model.StatusInProgress)
				So(m.Guard(), ShouldBeNil)
			})
		})

		Convey("When unlocking a match that is not finished", func() {
			err := m.Unlock(ctx, true)
			So(errors.Is(err, lifecycle.ErrInvalidTransition), ShouldBeTrue)
		})

		Convey("When the operator selects a status", func() {
			prev, err := m.Select(ctx, model.StatusFinished)
			So(err, ShouldBeNil)
			So(prev, ShouldEqual, model.StatusNotStarted)
			So(m.Status(), ShouldEqual, model.StatusFinished)

			prev, err = m.Select(ctx, model.StatusNotStarted)
			So(err, ShouldBeNil)
			So(prev, ShouldEqual, model.StatusFinished)

			_, err = m.Select(ctx, "paused")
			So(errors.Is(err, model.ErrInvalidStatus), ShouldBeTrue)
		})

		Convey("When the override store fails", func() {
			store.err = errors.New("disk gone")
			_, err := m.GoalAdded(ctx)

			Convey("Then the in-memory transition still applies", func() {
				So(err, ShouldBeNil)
				So(m.Status(), ShouldEqual, model.StatusInProgress)
				So(store.puts, ShouldEqual, 1)
			})
		})
	})
}

func TestMachine_ClearOverride(t *testing.T) {
	Convey("Given a machine whose status was overridden by the operator", t, func() {
		ctx := context.Background()
		store := newFakeStore()
		m := lifecycle.New("m1", model.StatusNotStarted, store)
		_, err := m.Select(ctx, model.StatusFinished)
		So(err, ShouldBeNil)
		So(store.data["m1"], ShouldEqual, model.StatusFinished)

		Convey("When the override is cleared", func() {
			prev, err := m.ClearOverride(ctx, model.StatusInProgress)

			Convey("Then the stored override is gone and the derived status applies", func() {
				So(err, ShouldBeNil)
				So(prev, ShouldEqual, model.StatusFinished)
				So(m.Status(), ShouldEqual, model.StatusInProgress)
				_, ok := store.data["m1"]
				So(ok, ShouldBeFalse)
				So(store.puts, ShouldEqual, 1)
			})
		})

		Convey("When the store cannot delete", func() {
			store.err = errors.New("disk full")
			_, err := m.ClearOverride(ctx, model.StatusInProgress)

			Convey("Then the error surfaces and the status is kept", func() {
				So(err, ShouldNotBeNil)
				So(err.Error(), ShouldContainSubstring, "disk full")
				So(m.Status(), ShouldEqual, model.StatusFinished)
			})
		})

		Convey("When the derived status is not a known status", func() {
			_, err := m.ClearOverride(ctx, model.Status("halftime"))
			So(err, ShouldNotBeNil)
			So(m.Status(), ShouldEqual, model.StatusFinished)
		})
	})

	Convey("Given a machine without an override store", t, func() {
		m := lifecycle.New("m1", model.StatusFinished, nil)
		prev, err := m.ClearOverride(context.Background(), model.StatusNotStarted)
		So(err, ShouldBeNil)
		So(prev, ShouldEqual, model.StatusFinished)
		So(m.Status(), ShouldEqual, model.StatusNotStarted)
	})
}
