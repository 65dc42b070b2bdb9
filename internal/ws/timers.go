package ws

import (
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Mr-Stark-RDJ/mr-guess-who/internal/game"
)

// armRevealDeadline bounds the AwaitingReveal wait for one round. On
// the first expiry the reveal request is re-broadcast; on the second
// the round is forfeited and a fresh one opens. Both callbacks
// re-check the room's round and phase first, so a round that resolved
// or was reset in the meantime is left alone.
func (srv *Server) armRevealDeadline(code string, round int) {
	if srv.cfg.RevealTimeout <= 0 {
		return
	}
	time.AfterFunc(srv.cfg.RevealTimeout, func() {
		srv.onRevealDeadline(code, round, false)
	})
}

func (srv *Server) onRevealDeadline(code string, round int, final bool) {
	room, ok := srv.Registry.Lookup(code)
	if !ok {
		return
	}
	if room.Round() != round || room.Phase() != game.PhaseAwaitingReveal {
		return
	}

	if !final {
		log.Info().Str("room", code).Int("round", round).Msg("reveal deadline passed, re-requesting")
		srv.broadcast(code, "reveal:request", map[string]any{})
		time.AfterFunc(srv.cfg.RevealTimeout, func() {
			srv.onRevealDeadline(code, round, true)
		})
		return
	}

	if room.ForfeitRound(round) {
		log.Warn().Str("room", code).Int("round", round).Msg("round forfeited, reveal never arrived")
		srv.broadcast(code, "round:reset", map[string]any{})
	}
}
