package ws

import (
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	socketio "github.com/googollee/go-socket.io"
	"github.com/rs/zerolog/log"

	"github.com/Mr-Stark-RDJ/mr-guess-who/internal/config"
	"github.com/Mr-Stark-RDJ/mr-guess-who/internal/game"
)

// ConnCtx is the per-connection socket context: the room this
// connection joined and the durable participant id bound to it. The
// socket id itself is routing-only and never keys game state.
type ConnCtx struct {
	Code     string
	PlayerID string
}

type Server struct {
	Registry *game.Registry

	cfg config.Config
	io  *socketio.Server

	mu       sync.Mutex
	members  map[string]map[string]socketio.Conn // roomCode -> socketID -> conn
	byPlayer map[string]map[string]string        // roomCode -> participantID -> socketID
}

func New(reg *game.Registry, cfg config.Config) *Server {
	return &Server{
		Registry: reg,
		cfg:      cfg,
		members:  make(map[string]map[string]socketio.Conn),
		byPlayer: make(map[string]map[string]string),
	}
}

// Mount attaches the Socket.IO server with all game handlers to the
// given Gin engine.
func (srv *Server) Mount(r *gin.Engine) *socketio.Server {
	io := socketio.NewServer(nil)
	srv.io = io

	io.OnConnect("/", func(s socketio.Conn) error {
		s.SetContext(&ConnCtx{})
		log.Info().Str("sid", s.ID()).Msg("socket connected")
		return nil
	})

	io.OnEvent("/", "join", func(s socketio.Conn, payload struct {
		RoomCode      string `json:"roomCode"`
		ParticipantID string `json:"participantId"`
		Name          string `json:"name"`
	}) {
		if payload.RoomCode == "" {
			log.Warn().Str("sid", s.ID()).Msg("join without room code dropped")
			return
		}
		code := game.Canonical(payload.RoomCode)
		room := srv.Registry.Room(code)
		id, rejoined := room.Join(payload.ParticipantID, payload.Name)

		s.SetContext(&ConnCtx{Code: code, PlayerID: id})
		s.Join(code)
		srv.bind(code, id, s)

		log.Info().Str("room", code).Str("player", id).Bool("rejoined", rejoined).Msg("join")
		s.Emit("joined", map[string]any{"room": code, "participantId": id})
		srv.broadcast(code, "presence", map[string]any{"type": "join", "id": id, "name": room.Name(id)})
		srv.emitPlayers(code, room)
	})

	io.OnEvent("/", "name:set", func(s socketio.Conn, payload struct {
		Room string `json:"room"`
		Name string `json:"name"`
	}) {
		ctx, room := srv.roomFor(s)
		if room == nil || payload.Name == "" {
			return
		}
		name, ok := room.SetName(ctx.PlayerID, payload.Name)
		if !ok {
			return
		}
		log.Info().Str("room", ctx.Code).Str("player", ctx.PlayerID).Msg("name:set")
		srv.broadcast(ctx.Code, "presence", map[string]any{"type": "name", "id": ctx.PlayerID, "name": name})
		srv.emitPlayers(ctx.Code, room)
	})

	// chat is pure fan-out; the server adds a timestamp and keeps no state.
	io.OnEvent("/", "chat", func(s socketio.Conn, payload struct {
		Room string `json:"room"`
		User string `json:"user"`
		Text string `json:"text"`
	}) {
		ctx, room := srv.roomFor(s)
		if room == nil || payload.Text == "" {
			return
		}
		srv.broadcast(ctx.Code, "chat", map[string]any{
			"user": payload.User,
			"text": payload.Text,
			"ts":   time.Now().UnixMilli(),
		})
	})

	io.OnEvent("/", "secret:commit", func(s socketio.Conn, payload struct {
		Room       string `json:"room"`
		CommitHash string `json:"commitHash"`
	}) {
		ctx, room := srv.roomFor(s)
		if room == nil {
			return
		}
		u := room.Commit(ctx.PlayerID, payload.CommitHash)
		if !u.OK {
			log.Debug().Str("room", ctx.Code).Str("player", ctx.PlayerID).Msg("commit dropped")
			return
		}
		log.Info().Str("room", ctx.Code).Str("player", ctx.PlayerID).Msg("secret:commit")
		srv.applyUpdate(ctx.Code, room, u)
	})

	io.OnEvent("/", "guess:submit", func(s socketio.Conn, payload struct {
		Room    string `json:"room"`
		GuessID string `json:"guessId"`
	}) {
		ctx, room := srv.roomFor(s)
		if room == nil {
			return
		}
		u := room.SubmitGuess(ctx.PlayerID, payload.GuessID)
		if !u.OK {
			log.Debug().Str("room", ctx.Code).Str("player", ctx.PlayerID).Msg("guess dropped")
			return
		}
		log.Info().Str("room", ctx.Code).Str("player", ctx.PlayerID).Msg("guess:submit")
		srv.applyUpdate(ctx.Code, room, u)
	})

	io.OnEvent("/", "secret:reveal", func(s socketio.Conn, payload struct {
		Room     string `json:"room"`
		SecretID string `json:"secretId"`
		Nonce    string `json:"nonce"`
	}) {
		ctx, room := srv.roomFor(s)
		if room == nil {
			return
		}
		u := room.Reveal(ctx.PlayerID, payload.SecretID, payload.Nonce)
		if !u.OK {
			// Invalid reveals drop with no reply so clients cannot
			// probe the commitment.
			log.Debug().Str("room", ctx.Code).Str("player", ctx.PlayerID).Msg("reveal dropped")
			return
		}
		log.Info().Str("room", ctx.Code).Str("player", ctx.PlayerID).Msg("secret:reveal")
		srv.applyUpdate(ctx.Code, room, u)
	})

	io.OnEvent("/", "round:new", func(s socketio.Conn, payload struct {
		Room string `json:"room"`
	}) {
		ctx, room := srv.roomFor(s)
		if room == nil {
			return
		}
		round := room.ResetRound()
		log.Info().Str("room", ctx.Code).Int("round", round).Msg("round:new")
		srv.broadcast(ctx.Code, "round:reset", map[string]any{})
	})

	io.OnError("/", func(s socketio.Conn, e error) {
		log.Error().Str("sid", s.ID()).Err(e).Msg("socket error")
	})

	io.OnDisconnect("/", func(s socketio.Conn, reason string) {
		if ctx, ok := s.Context().(*ConnCtx); ok && ctx.Code != "" {
			srv.unbind(ctx.Code, ctx.PlayerID, s)
			if room, found := srv.Registry.Lookup(ctx.Code); found {
				if name, offline := room.SetOffline(ctx.PlayerID); offline {
					srv.broadcast(ctx.Code, "presence", map[string]any{"type": "leave", "id": ctx.PlayerID, "name": name})
					srv.emitPlayers(ctx.Code, room)
				}
			}
		}
		log.Info().Str("sid", s.ID()).Str("reason", reason).Msg("socket disconnected")
	})

	go io.Serve()

	r.GET("/socket.io/*any", gin.WrapH(io))
	r.POST("/socket.io/*any", gin.WrapH(io))

	return io
}

// applyUpdate turns a game-state update into wire traffic: a reveal
// request on entering AwaitingReveal, and on resolution the refreshed
// score list plus one personalized result per pair member. Results go
// out as unicasts only; spectators never see either secret.
func (srv *Server) applyUpdate(code string, room *game.Room, u game.Update) {
	if u.EnteredAwaitingReveal {
		srv.broadcast(code, "reveal:request", map[string]any{})
		srv.armRevealDeadline(code, room.Round())
	}
	if u.Resolution == nil {
		return
	}
	log.Info().Str("room", code).Int("round", u.Resolution.Round).Msg("round resolved")
	srv.emitPlayers(code, room)
	for playerID, result := range u.Resolution.Results {
		if c := srv.connFor(code, playerID); c != nil {
			c.Emit("round:result", result)
		}
	}
}

func (srv *Server) roomFor(s socketio.Conn) (*ConnCtx, *game.Room) {
	ctx, ok := s.Context().(*ConnCtx)
	if !ok || ctx.Code == "" || ctx.PlayerID == "" {
		return nil, nil
	}
	room, found := srv.Registry.Lookup(ctx.Code)
	if !found {
		return nil, nil
	}
	return ctx, room
}

func (srv *Server) emitPlayers(code string, room *game.Room) {
	srv.broadcast(code, "players", map[string]any{"participants": room.Players()})
}

func (srv *Server) broadcast(code, event string, payload any) {
	srv.io.BroadcastToRoom("/", code, event, payload)
}

func (srv *Server) bind(code, playerID string, c socketio.Conn) {
	srv.mu.Lock()
	defer srv.mu.Unlock()
	if srv.members[code] == nil {
		srv.members[code] = make(map[string]socketio.Conn)
	}
	srv.members[code][c.ID()] = c
	if srv.byPlayer[code] == nil {
		srv.byPlayer[code] = make(map[string]string)
	}
	// latest connection wins the routing slot for this participant
	srv.byPlayer[code][playerID] = c.ID()
}

func (srv *Server) unbind(code, playerID string, c socketio.Conn) {
	srv.mu.Lock()
	defer srv.mu.Unlock()
	if m := srv.members[code]; m != nil {
		delete(m, c.ID())
	}
	if m := srv.byPlayer[code]; m != nil && m[playerID] == c.ID() {
		delete(m, playerID)
	}
}

func (srv *Server) connFor(code, playerID string) socketio.Conn {
	srv.mu.Lock()
	defer srv.mu.Unlock()
	sid, ok := srv.byPlayer[code][playerID]
	if !ok {
		return nil
	}
	return srv.members[code][sid]
}
