package server

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/hardhatgames/scopecreep/game"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Server serves just one game, that's enough.
type Server interface {
	Run(ctx context.Context) error
}

// Options for one server.
type Options struct {
	Addr     string
	SaveFile string
	WebRoot  string
}

// NewServer wraps a game. If the save file already holds a state, the
// caller should have restored the game from it before handing it over.
func NewServer(g game.Game, opts Options) Server {
	if opts.Addr == "" {
		opts.Addr = "0.0.0.0:1235"
	}
	return &server{
		game:    g,
		opts:    opts,
		clients: map[string]*clientBundle{},
		coreCh:  make(chan interface{}, 100),
		log:     log.With().Str("cmp", "server").Logger(),
	}
}

type server struct {
	game    game.Game
	opts    Options
	clients map[string]*clientBundle
	coreCh  chan interface{}
	log     zerolog.Logger
}

func (s *server) Run(ctx context.Context) error {
	s.log.Info().Msg("server running")
	defer s.log.Info().Msg("server stopping")

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return runWebGateway(ctx, s, s.opts.Addr)
	})

	g.Go(func() error {
		// this is the server's main loop
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case in := <-s.coreCh:
				news, dirty := s.processMessage(in)
				if dirty {
					s.saveGame()
				}
				if len(news) > 0 {
					s.broadcastUpdate(news)
				}
			}
		}
	})

	return g.Wait()
}

func (s *server) processMessage(in interface{}) ([]game.Change, bool) {
	switch msg := in.(type) {
	case joinMsg:
		id, err := s.game.AddPlayer(msg.Name, msg.Colour)
		if err == game.ErrPlayerExists || err == game.ErrAlreadyStarted {
			// assume this is the same player rejoining
			if p := s.findPlayer(msg.Name); p != "" {
				s.clients[msg.Name] = &msg.Client
				msg.Rep <- joinReply{ID: p}
				return []game.Change{{Who: msg.Name, What: "reconnects"}}, false
			}
			msg.Rep <- joinReply{Err: err}
			return nil, false
		} else if err != nil {
			msg.Rep <- joinReply{Err: err}
			return nil, false
		}
		s.clients[msg.Name] = &msg.Client
		msg.Rep <- joinReply{ID: id}
		return []game.Change{{Who: msg.Name, What: "joins"}}, true
	case startMsg:
		turn, err := s.game.Start()
		msg.Rep <- startReply{Turn: turn, Err: err}
		if err != nil {
			return nil, false
		}
		return []game.Change{{What: "the game starts"}}, true
	case intentMsg:
		res, err := s.handleIntent(msg.Who, msg.Intent)
		msg.Rep <- intentReply{Res: res, Err: err}
		if err != nil {
			return nil, false
		}
		return res.News, true
	case queryStateMsg:
		msg.Rep <- s.game.GetGameState()
		return nil, false
	case queryTurnMsg:
		msg.Rep <- s.game.GetTurnState()
		return nil, false
	case disconnectMsg:
		s.log.Info().Msgf("client gone: %s", msg.Name)
		delete(s.clients, msg.Name)
		return []game.Change{{Who: msg.Name, What: "disconnects"}}, false
	default:
		s.log.Warn().Msgf("nonsense in core: %#v", in)
	}
	return nil, false
}

func (s *server) handleIntent(who string, in Intent) (game.PlayResult, error) {
	switch in.Cmd {
	case "roll":
		return s.game.RollDice(who)
	case "play":
		return s.game.PlayCard(who, in.Card)
	case "act":
		return s.game.DoAction(who, in.Action)
	case "choose":
		return s.game.ResolveChoice(who, in.Choice, in.Option)
	case "end":
		return s.game.EndTurn(who)
	case "tryagain":
		return s.game.TryAgain(who)
	}
	return game.PlayResult{}, fmt.Errorf("unknown intent: %s", in.Cmd)
}

// findPlayer maps a client name back to a player id, for rejoins.
func (s *server) findPlayer(name string) string {
	state := s.game.GetGameState()
	for _, p := range state.Players {
		if p.Name == name {
			return p.ID
		}
	}
	return ""
}

func (s *server) broadcastUpdate(news []game.Change) {
	state := s.game.GetGameState()
	update := GameUpdate{
		News:    news,
		Status:  state.Status,
		Winner:  state.Winner,
		Players: state.Players,
		Turn:    s.game.GetTurnState(),
	}

	data, err := json.Marshal(update)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to encode update")
		return
	}
	msg := WsJSONMessage{Head: "update", Data: data}

	for n, c := range s.clients {
		select {
		case c.downCh <- msg:
		default:
			// client lagging
			s.log.Info().Msgf("client lagging: %s", n)
		}
	}
}

func (s *server) saveGame() {
	if s.opts.SaveFile == "" {
		return
	}
	outFile, err := os.Create(s.opts.SaveFile)
	if err != nil {
		s.log.Error().Err(err).Msg("can't save")
		return
	}
	defer outFile.Close()

	if err := s.game.WriteOut(outFile); err != nil {
		s.log.Error().Err(err).Msg("can't save")
	}
}

// synchronous fronts over the core channel, for the gateways

func (s *server) Join(name, colour string, client clientBundle) (string, error) {
	rep := make(chan joinReply)
	s.coreCh <- joinMsg{Name: name, Colour: colour, Client: client, Rep: rep}
	r := <-rep
	return r.ID, r.Err
}

func (s *server) Start() (game.TurnState, error) {
	rep := make(chan startReply)
	s.coreCh <- startMsg{Rep: rep}
	r := <-rep
	return r.Turn, r.Err
}

func (s *server) Play(who string, in Intent) (game.PlayResult, error) {
	rep := make(chan intentReply)
	s.coreCh <- intentMsg{Who: who, Intent: in, Rep: rep}
	r := <-rep
	return r.Res, r.Err
}

func (s *server) QueryState() game.GameState {
	rep := make(chan game.GameState)
	s.coreCh <- queryStateMsg{Rep: rep}
	return <-rep
}

func (s *server) QueryTurn() game.TurnState {
	rep := make(chan game.TurnState)
	s.coreCh <- queryTurnMsg{Rep: rep}
	return <-rep
}
