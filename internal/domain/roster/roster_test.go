package roster_test

import (
	"testing"

	"github.com/okian/pelada/internal/domain/model"
	"github.com/okian/pelada/internal/domain/roster"
	. "github.com/smartystreets/goconvey/convey"
)

func newMatch() *model.Match {
	return &model.Match{
		ID:   "m1",
		Home: model.Team{ID: "a", Name: "São Cristóvão"},
		Away: model.Team{ID: "b", Name: "Vila Operária"},
		Presences: []model.Presence{
			{Athlete: model.Athlete{ID: "p1", Name: "Pedro", Nickname: "Pedrinho"}, TeamID: "a"},
			{Athlete: model.Athlete{ID: "p2", Name: "João"}, TeamName: "  VILA  operaria "},
			{Athlete: model.Athlete{ID: "p3", Name: "Zé"}, TeamName: "sao cristovao"},
			{Athlete: model.Athlete{ID: "p4", Name: "Visitante"}, TeamName: "Outro Time"},
			{Athlete: model.Athlete{ID: "p5", Name: "Perdido"}, TeamID: "z"},
			{Athlete: model.Athlete{ID: "p1", Name: "Pedro"}, TeamID: "a"},
		},
	}
}

func TestNormalize(t *testing.T) {
	Convey("Given names with accents, case and spacing differences", t, func() {
		So(roster.Normalize("São  Cristóvão"), ShouldEqual, "sao cristovao")
		So(roster.Normalize(" VILA operária "), ShouldEqual, "vila operaria")
		So(roster.Normalize(""), ShouldEqual, "")
	})
}

func TestResolveTeam(t *testing.T) {
	Convey("Given a match with mixed presence records", t, func() {
		m := newMatch()

		Convey("When the presence carries a team id", func() {
			team, ok := roster.ResolveTeam(m, m.Presences[0])
			So(ok, ShouldBeTrue)
			So(team, ShouldEqual, model.TeamID("a"))
		})

		Convey("When the presence only carries a team name", func() {
			team, ok := roster.ResolveTeam(m, m.Presences[1])
			So(ok, ShouldBeTrue)
			So(team, ShouldEqual, model.TeamID("b"))

			team, ok = roster.ResolveTeam(m, m.Presences[2])
			So(ok, ShouldBeTrue)
			So(team, ShouldEqual, model.TeamID("a"))
		})

		Convey("When the presence matches neither team", func() {
			_, ok := roster.ResolveTeam(m, m.Presences[3])
			So(ok, ShouldBeFalse)
			_, ok = roster.ResolveTeam(m, m.Presences[4])
			So(ok, ShouldBeFalse)
		})
	})
}

func TestBuild(t *testing.T) {
	Convey("Given a match with duplicates and strangers", t, func() {
		rs := roster.Build(newMatch())

		Convey("Then each team gets a de-duplicated pool", func() {
			So(len(rs["a"]), ShouldEqual, 2)
			So(rs["a"][0].AthleteID, ShouldEqual, model.AthleteID("p1"))
			So(rs["a"][0].DisplayName, ShouldEqual, "Pedrinho")
			So(rs["a"][1].AthleteID, ShouldEqual, model.AthleteID("p3"))
			So(len(rs["b"]), ShouldEqual, 1)
		})

		Convey("Then unresolved presences are excluded", func() {
			_, ok := rs.TeamOf("p4")
			So(ok, ShouldBeFalse)
			team, ok := rs.TeamOf("p2")
			So(ok, ShouldBeTrue)
			So(team, ShouldEqual, model.TeamID("b"))
			So(rs.Contains("a", "p2"), ShouldBeFalse)
		})
	})
}
