package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/hardhatgames/scopecreep/game"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"nhooyr.io/websocket"
)

func runWebGateway(ctx context.Context, server *server, addr string) error {
	log := log.With().Str("gw", "web").Logger()

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}

	log.Info().Msgf("web listening on http://%v", ln.Addr())

	rh := restHandler{
		server: server,
		log:    log,
	}

	ch := commsHandler{
		server: server,
		log:    log,
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.Default()
	a := r.Group("/api")
	a.GET("/state", rh.getState)
	a.GET("/turn", rh.getTurn)
	a.POST("/players", rh.addPlayer)
	a.POST("/start", rh.start)
	a.POST("/play", rh.play)
	r.GET("/ws", ch.serveWS)
	if server.opts.WebRoot != "" {
		r.NoRoute(gin.WrapH(http.FileServer(http.Dir(server.opts.WebRoot))))
	}

	s := &http.Server{
		Handler:      r,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
	}
	go func() {
		<-ctx.Done()
		_ = s.Close()
	}()

	err = s.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

type restHandler struct {
	server *server
	log    zerolog.Logger
}

type addPlayerInput struct {
	Name   string `json:"name"`
	Colour string `json:"colour"`
}

func (rh *restHandler) addPlayer(c *gin.Context) {
	var in addPlayerInput
	if err := c.BindJSON(&in); err != nil {
		return
	}
	if in.Name == "" {
		c.String(http.StatusBadRequest, "missing name")
		return
	}

	id, err := rh.server.Join(in.Name, in.Colour, clientBundle{name: in.Name})
	if err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"id": id})
}

func (rh *restHandler) start(c *gin.Context) {
	turn, err := rh.server.Start()
	if err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, turn)
}

type playInput struct {
	Player string `json:"player"`
	Intent
}

func (rh *restHandler) play(c *gin.Context) {
	var in playInput
	if err := c.BindJSON(&in); err != nil {
		return
	}
	if in.Player == "" {
		c.String(http.StatusBadRequest, "missing player")
		return
	}

	res, err := rh.server.Play(in.Player, in.Intent)
	if err != nil {
		status := http.StatusConflict
		var de *game.DataError
		if errors.As(err, &de) {
			status = http.StatusInternalServerError
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, res)
}

func (rh *restHandler) getState(c *gin.Context) {
	c.JSON(http.StatusOK, rh.server.QueryState())
}

func (rh *restHandler) getTurn(c *gin.Context) {
	c.JSON(http.StatusOK, rh.server.QueryTurn())
}

type commsHandler struct {
	server *server
	log    zerolog.Logger
}

func (ch *commsHandler) serveWS(c *gin.Context) {
	addr := c.Request.RemoteAddr

	log := ch.log.With().Str("client", addr).Logger()
	log.Info().Msg("connecting")

	name := c.Query("name")
	colour := c.Query("colour")
	if name == "" {
		c.String(http.StatusBadRequest, "missing params")
		return
	}

	server := ch.server

	socket, err := websocket.Accept(c.Writer, c.Request, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		log.Info().Err(err).Msg("websocket accept error")
		return
	}
	defer socket.Close(websocket.StatusInternalError, "the sky is falling")

	downCh := make(chan WsJSONMessage, 100)

	id, err := server.Join(name, colour, clientBundle{name: name, downCh: downCh})
	if err != nil {
		log.Info().Msgf("refusing: %s", addr)
		sendDownWs(socket, errorMessage(err))
		socket.Close(websocket.StatusNormalClosure, "cannot connect")
		return
	}

	sendDownWs(socket, connectedMessage(id))

	go func() {
		// read downCh, write to conn
		for down := range downCh {
			if err := sendDownWs(socket, down); err != nil {
				log.Info().Err(err).Msg("send error")
				break
			}
		}
	}()

	for {
		// read conn, despatch into server
		in, err := readMessageWs(socket)
		if websocket.CloseStatus(err) == websocket.StatusNormalClosure {
			server.coreCh <- disconnectMsg{Name: name}
			return
		}
		if err != nil {
			log.Info().Err(err).Msgf("client read error: %v", addr)
			server.coreCh <- disconnectMsg{Name: name}
			return
		}

		switch in.Head {
		case "play":
			var intent Intent
			if err := json.Unmarshal(in.Data, &intent); err != nil {
				log.Info().Err(err).Msg("decode intent error")
				continue
			}
			res, err := server.Play(id, intent)
			if err != nil {
				sendDownWs(socket, errorMessage(err))
				continue
			}
			data, _ := json.Marshal(res)
			sendDownWs(socket, WsJSONMessage{Head: "result", Data: data})
		default:
			log.Info().Msgf("junk from client: %v", in.Head)
		}
	}
}

func errorMessage(err error) WsJSONMessage {
	data, _ := json.Marshal(gin.H{"error": err.Error()})
	return WsJSONMessage{Head: "error", Data: data}
}

func connectedMessage(id string) WsJSONMessage {
	data, _ := json.Marshal(gin.H{"id": id})
	return WsJSONMessage{Head: "connected", Data: data}
}

func sendDownWs(ws *websocket.Conn, msg WsJSONMessage) error {
	w, err := ws.Writer(context.TODO(), websocket.MessageText)
	if err != nil {
		return err
	}
	defer w.Close()

	tmsg, _ := json.Marshal(msg)
	_, err = w.Write(tmsg)
	if err != nil {
		return err
	}

	return w.Close()
}

func readMessageWs(c *websocket.Conn) (WsJSONMessage, error) {
	typ, r, err := c.Reader(context.TODO())
	if err != nil {
		return WsJSONMessage{}, err
	}

	if typ != websocket.MessageText {
		return WsJSONMessage{}, errors.New("client sent a binary message")
	}

	bytes, err := io.ReadAll(r)
	if err != nil {
		return WsJSONMessage{}, err
	}
	msg := WsJSONMessage{}
	err = json.Unmarshal(bytes, &msg)
	if err != nil {
		return WsJSONMessage{}, err
	}
	return msg, nil
}
