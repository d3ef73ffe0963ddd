package main

import (
	"fmt"
	"io"
	"math/rand"
	"os"
	"strings"
	"time"

	"github.com/hardhatgames/scopecreep/game"

	rl "github.com/chzyer/readline"
)

const (
	RED    = "[31m"
	GREEN  = "[32m"
	YELLOW = "[33m"
	BLUE   = "[34m"
	PLAIN  = "[0m"
)

func col(s string) string {
	switch s {
	case "red":
		return RED
	case "green":
		return GREEN
	case "yellow":
		return YELLOW
	case "blue":
		return BLUE
	default:
		return PLAIN
	}
}

func main() {
	dataFile := "data.json"
	if len(os.Args) > 1 {
		dataFile = os.Args[1]
	}

	data, err := game.LoadJSON(dataFile)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	g, err := game.New(game.NewRules(data), game.Options{Rand: rng})
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	completer := rl.NewPrefixCompleter(
		rl.PcItem("addplayer"),
		rl.PcItem("start"),
		rl.PcItem("roll"),
		rl.PcItem("play"),
		rl.PcItem("act"),
		rl.PcItem("choose"),
		rl.PcItem("end"),
		rl.PcItem("tryagain"),
		rl.PcItem("turn"),
		rl.PcItem("player"),
		rl.PcItem("save"),
	)

	l, err := rl.NewEx(&rl.Config{
		Prompt:            "» ",
		HistoryFile:       "hist.txt",
		AutoComplete:      completer,
		InterruptPrompt:   "^C",
		EOFPrompt:         "exit",
		HistorySearchFold: true,
	})
	if err != nil {
		panic(err)
	}
	defer l.Close()

	gameRepl(l, g)
}

func printNews(news []game.Change) {
	for _, n := range news {
		if n.Who != "" {
			fmt.Printf("* %s %s\n", n.Who, n.What)
		} else {
			fmt.Printf("* %s\n", n.What)
		}
	}
}

func printTurn(ts game.TurnState) {
	fmt.Printf("Turn:   %d\n", ts.Number)
	fmt.Printf("Player: %s (%s)\n", ts.Name, ts.Player)
	fmt.Printf("Phase:  %s\n", ts.Phase)
	if ts.Roll > 0 {
		fmt.Printf("Roll:   %d\n", ts.Roll)
	}
	if len(ts.Must) > 0 {
		fmt.Printf("Must:   %v\n", ts.Must)
	}
	if len(ts.Can) > 0 {
		fmt.Printf("Can:    %v\n", ts.Can)
	}
	if ts.Choice != nil {
		fmt.Printf("Choose: %s %v\n", ts.Choice.Prompt, ts.Choice.Options)
	}
}

func printPlayer(p *game.Player) {
	fmt.Printf("Player: %s\n", p.Name)
	fmt.Printf("Space:  %s\n", p.Space)
	fmt.Printf("Money:  $%d\n", p.Money)
	fmt.Printf("Time:   %d days\n", p.Time)
	fmt.Printf("Scope:  $%d\n", p.Scope)
	fmt.Printf("Hand:   %v\n", p.Available)
	if len(p.Active) > 0 {
		fmt.Printf("Active: %v\n", p.Active)
	}
}

func gameRepl(l *rl.Instance, g game.Game) {
	acting := ""

	updatePrompt := func() {
		gs := g.GetGameState()
		ts := g.GetTurnState()
		if gs.Status != game.StatusPlaying {
			l.SetPrompt("» ")
			return
		}
		acting = ts.Player
		must := ""
		if len(ts.Must) > 0 {
			must = " !"
		}
		colour := PLAIN
		if p := gs.PlayerByID(ts.Player); p != nil {
			colour = col(p.Colour)
		}
		prompt := fmt.Sprintf("%d \033%s%s|%s%s»\033[0m ", ts.Number, colour, ts.Name, ts.Phase, must)
		l.SetPrompt(prompt)
	}

	show := func(res game.PlayResult, err error) {
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}
		printNews(res.News)
		if res.Turn.Choice != nil {
			fmt.Printf("Choose: %s %v\n", res.Turn.Choice.Prompt, res.Turn.Choice.Options)
		}
		gs := g.GetGameState()
		if gs.Status == game.StatusFinished {
			fmt.Printf("*** %s wins ***\n", gs.PlayerByID(gs.Winner).Name)
		}
	}

	for {
		updatePrompt()

		line, err := l.Readline()
		if err == rl.ErrInterrupt {
			if len(line) == 0 {
				break
			}
			continue
		} else if err == io.EOF {
			break
		}

		parts := strings.SplitN(strings.TrimSpace(line), " ", 2)
		cmd := parts[0]
		rest := ""
		if len(parts) == 2 {
			rest = parts[1]
		}

		switch cmd {
		case "":
		case "addplayer":
			var name, colour string
			if _, err := fmt.Sscan(rest, &name, &colour); err != nil {
				fmt.Printf("addplayer <name> <colour>\n")
				continue
			}
			id, err := g.AddPlayer(name, colour)
			if err != nil {
				fmt.Printf("Error: %v\n", err)
				continue
			}
			fmt.Printf("%s is %s\n", name, id)
		case "start":
			ts, err := g.Start()
			if err != nil {
				fmt.Printf("Error: %v\n", err)
				continue
			}
			printTurn(ts)
		case "roll":
			show(g.RollDice(acting))
		case "play":
			var card string
			if _, err := fmt.Sscan(rest, &card); err != nil {
				fmt.Printf("play <cardid>\n")
				continue
			}
			show(g.PlayCard(acting, card))
		case "act":
			var action string
			if _, err := fmt.Sscan(rest, &action); err != nil {
				fmt.Printf("act <actionid>\n")
				continue
			}
			show(g.DoAction(acting, action))
		case "choose":
			var option string
			if _, err := fmt.Sscan(rest, &option); err != nil {
				fmt.Printf("choose <option>\n")
				continue
			}
			ts := g.GetTurnState()
			if ts.Choice == nil {
				fmt.Printf("nothing to choose\n")
				continue
			}
			show(g.ResolveChoice(ts.Choice.Player, ts.Choice.ID, option))
		case "end":
			show(g.EndTurn(acting))
		case "tryagain":
			show(g.TryAgain(acting))
		case "turn":
			printTurn(g.GetTurnState())
		case "player":
			var id string
			if _, err := fmt.Sscan(rest, &id); err != nil {
				id = acting
			}
			gs := g.GetGameState()
			p := gs.PlayerByID(id)
			if p == nil {
				fmt.Printf("no player %s\n", id)
				continue
			}
			printPlayer(p)
		case "save":
			var fname string
			if _, err := fmt.Sscan(rest, &fname); err != nil {
				fmt.Printf("save <file>\n")
				continue
			}
			f, err := os.Create(fname)
			if err != nil {
				fmt.Printf("Error: %v\n", err)
				continue
			}
			err = g.WriteOut(f)
			f.Close()
			if err != nil {
				fmt.Printf("Error: %v\n", err)
				continue
			}
			fmt.Printf("saved to %s\n", fname)
		case "exit":
			return
		default:
			fmt.Printf("unknown command: %s\n", cmd)
		}
	}
}
