package service_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	service "github.com/okian/pelada/internal/app"
	"github.com/okian/pelada/internal/adapters/repository"
	"github.com/okian/pelada/internal/domain/model"
	"github.com/okian/pelada/internal/domain/types"
	"github.com/okian/pelada/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	err := logger.Init()
	if err != nil {
		panic(err)
	}
}

var errNoMatch = errors.New("no such match")

type fakeSource struct{}

func (fakeSource) FetchMatch(_ context.Context, id model.MatchID) (*model.Match, error) {
	if id != "m1" {
		return nil, errNoMatch
	}
	return &model.Match{
		ID:   "m1",
		Home: model.Team{ID: "A", Name: "Azul"},
		Away: model.Team{ID: "B", Name: "Branco"},
		Presences: []model.Presence{
			{Athlete: model.Athlete{ID: "p1"}, TeamID: "A", Status: model.ParticipationStarter},
			{Athlete: model.Athlete{ID: "p2"}, TeamID: "B", Status: model.ParticipationStarter},
		},
	}, nil
}

type fakeWriter struct {
	mu    sync.Mutex
	calls int
	err   error
	done  chan struct{}
}

func (f *fakeWriter) SaveResult(context.Context, model.MatchID, types.ResultPayload) error {
	f.mu.Lock()
	f.calls++
	err := f.err
	f.mu.Unlock()
	select {
	case f.done <- struct{}{}:
	default:
	}
	return err
}

func (f *fakeWriter) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func ids() func() string {
	n := 0
	var mu sync.Mutex
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("g%d", n)
	}
}

func TestService_Lifecycle(t *testing.T) {
	Convey("Given a service without a source", t, func() {
		svc := service.New()

		Convey("Then start fails", func() {
			So(errors.Is(svc.Start(context.Background()), service.ErrNotConfigured), ShouldBeTrue)
			_, err := svc.Open(context.Background(), "m1")
			So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
		})
	})

	Convey("Given a started service", t, func() {
		ctx := context.Background()
		clock := clockwork.NewFakeClock()
		w := &fakeWriter{done: make(chan struct{}, 8)}
		store := repository.NewInMemoryStore()
		svc := service.New(
			service.WithSource(fakeSource{}),
			service.WithWriter(w),
			service.WithOverrideStore(store),
			service.WithDebounce(time.Second),
			service.WithClock(clock),
			service.WithIDGenerator(ids()),
		)
		So(svc.Start(ctx), ShouldBeNil)
		Reset(func() { svc.Stop(ctx) })

		Convey("When a match is opened twice", func() {
			a, err := svc.Open(ctx, "m1")
			So(err, ShouldBeNil)
			b, err := svc.Open(ctx, "m1")
			So(err, ShouldBeNil)

			Convey("Then the same session is returned", func() {
				So(a, ShouldEqual, b)
				So(svc.OpenMatches(), ShouldResemble, []model.MatchID{"m1"})
				So(svc.GetStats()["openSessions"], ShouldEqual, 1)
			})
		})

		Convey("When an unknown match is opened", func() {
			_, err := svc.Open(ctx, "zz")

			Convey("Then the source error is returned", func() {
				So(errors.Is(err, errNoMatch), ShouldBeTrue)
				_, err := svc.Session("zz")
				So(errors.Is(err, service.ErrSessionNotFound), ShouldBeTrue)
			})
		})

		Convey("When a stored override exists", func() {
			So(store.Put(ctx, "m1", model.StatusFinished), ShouldBeNil)
			sess, err := svc.Open(ctx, "m1")
			So(err, ShouldBeNil)

			Convey("Then the session opens locked", func() {
				So(sess.State().Locked, ShouldBeTrue)
			})
		})

		Convey("When an edit is pending and the match is closed without saving", func() {
			sess, err := svc.Open(ctx, "m1")
			So(err, ShouldBeNil)
			_, err = sess.AddGoal(ctx, model.GoalEvent{Team: "A", Scorer: model.AthleteScorer("p1")})
			So(err, ShouldBeNil)
			So(svc.Close(ctx, "m1", false), ShouldBeNil)

			Convey("Then the pending silent save is flushed", func() {
				So(w.count(), ShouldEqual, 1)
				_, err := svc.Session("m1")
				So(errors.Is(err, service.ErrSessionNotFound), ShouldBeTrue)
			})
		})

		Convey("When save-and-close fails", func() {
			_, err := svc.Open(ctx, "m1")
			So(err, ShouldBeNil)
			w.mu.Lock()
			w.err = errors.New("boom")
			w.mu.Unlock()
			err = svc.Close(ctx, "m1", true)

			Convey("Then the session stays open", func() {
				So(err, ShouldNotBeNil)
				_, err := svc.Session("m1")
				So(err, ShouldBeNil)
			})
		})

		Convey("When the service stops with a pending edit", func() {
			sess, err := svc.Open(ctx, "m1")
			So(err, ShouldBeNil)
			_, err = sess.AddGoal(ctx, model.GoalEvent{Team: "B", Scorer: model.UnknownScorer()})
			So(err, ShouldBeNil)
			svc.Stop(ctx)

			Convey("Then the edit is flushed and sessions are dropped", func() {
				So(w.count(), ShouldEqual, 1)
				So(svc.OpenMatches(), ShouldBeEmpty)
			})
		})
	})
}
