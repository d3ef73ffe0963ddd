package server

import (
	"testing"

	"github.com/hardhatgames/scopecreep/game"

	"github.com/stretchr/testify/require"
)

type fixedDice struct{ n int }

func (d fixedDice) Roll() int { return d.n }

func testGame(t *testing.T) game.Game {
	t.Helper()
	data := game.GameData{
		Settings: game.Settings{StartMoney: 100},
		Spaces: []game.SpaceConfig{
			{SpaceName: "A", Starting: true, MaxPlayers: 4, RequiresDiceRoll: true},
			{SpaceName: "B"},
		},
		Movement: []game.MovementRow{
			{SpaceName: "A", VisitType: game.VisitFirst, MovementType: game.MoveFixed,
				Destinations: []game.Destination{{Space: "B"}}},
			{SpaceName: "B", VisitType: game.VisitFirst, MovementType: game.MoveFixed,
				Destinations: []game.Destination{{Space: "A"}}},
			{SpaceName: "A", VisitType: game.VisitSubsequent, MovementType: game.MoveFixed,
				Destinations: []game.Destination{{Space: "B"}}},
			{SpaceName: "B", VisitType: game.VisitSubsequent, MovementType: game.MoveFixed,
				Destinations: []game.Destination{{Space: "A"}}},
		},
	}
	g, err := game.New(game.NewRules(data), game.Options{Dice: fixedDice{n: 3}})
	require.NoError(t, err)
	return g
}

func newTestServer(t *testing.T) *server {
	t.Helper()
	return NewServer(testGame(t), Options{}).(*server)
}

func TestServer_joinAndStart(t *testing.T) {
	s := newTestServer(t)

	rep := make(chan joinReply, 1)
	news, dirty := s.processMessage(joinMsg{Name: "alice", Colour: "red", Rep: rep})
	r := <-rep
	require.NoError(t, r.Err)
	require.Equal(t, "p1", r.ID)
	require.True(t, dirty)
	require.Len(t, news, 1)

	srep := make(chan startReply, 1)
	news, dirty = s.processMessage(startMsg{Rep: srep})
	sr := <-srep
	require.NoError(t, sr.Err)
	require.Equal(t, "p1", sr.Turn.Player)
	require.True(t, dirty)
	require.NotEmpty(t, news)
}

func TestServer_rejoinKeepsID(t *testing.T) {
	s := newTestServer(t)

	rep := make(chan joinReply, 1)
	s.processMessage(joinMsg{Name: "alice", Colour: "red", Rep: rep})
	<-rep

	rep = make(chan joinReply, 1)
	news, dirty := s.processMessage(joinMsg{Name: "alice", Colour: "red", Rep: rep})
	r := <-rep
	require.NoError(t, r.Err)
	require.Equal(t, "p1", r.ID)
	require.False(t, dirty)
	require.Equal(t, "reconnects", news[0].What)
}

func TestServer_intents(t *testing.T) {
	s := newTestServer(t)

	rep := make(chan joinReply, 1)
	s.processMessage(joinMsg{Name: "alice", Colour: "red", Rep: rep})
	<-rep
	srep := make(chan startReply, 1)
	s.processMessage(startMsg{Rep: srep})
	<-srep

	irep := make(chan intentReply, 1)
	news, dirty := s.processMessage(intentMsg{Who: "p1", Intent: Intent{Cmd: "roll"}, Rep: irep})
	ir := <-irep
	require.NoError(t, ir.Err)
	require.True(t, dirty)
	require.NotEmpty(t, news)
	require.Equal(t, "B", s.game.GetGameState().Players[0].Space)

	// errors come back on the reply channel and change nothing
	irep = make(chan intentReply, 1)
	_, dirty = s.processMessage(intentMsg{Who: "p1", Intent: Intent{Cmd: "roll"}, Rep: irep})
	ir = <-irep
	require.ErrorIs(t, ir.Err, game.ErrNotNow)
	require.False(t, dirty)

	irep = make(chan intentReply, 1)
	s.processMessage(intentMsg{Who: "p1", Intent: Intent{Cmd: "frobnicate"}, Rep: irep})
	ir = <-irep
	require.Error(t, ir.Err)
}

func TestServer_queries(t *testing.T) {
	s := newTestServer(t)

	rep := make(chan joinReply, 1)
	s.processMessage(joinMsg{Name: "alice", Colour: "red", Rep: rep})
	<-rep

	qrep := make(chan game.GameState, 1)
	s.processMessage(queryStateMsg{Rep: qrep})
	gs := <-qrep
	require.Len(t, gs.Players, 1)
	require.Equal(t, game.StatusSetup, gs.Status)
}
