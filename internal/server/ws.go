package server

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// Predictions carry no credentials and no state mutation.
	CheckOrigin: func(r *http.Request) bool { return true },
}

const (
	wsReadLimit     = 64 * 1024
	wsReadDeadline  = 60 * time.Second
	wsWriteDeadline = 10 * time.Second
)

// wsError is sent in place of a PredictResponse when a frame fails.
// The connection stays open; only malformed websocket traffic closes it.
type wsError struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

// handlePredictStream upgrades to a websocket and answers each
// PredictRequest frame with a PredictResponse frame.
func (s *Server) handlePredictStream(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	conn.SetReadLimit(wsReadLimit)
	conn.SetReadDeadline(time.Now().Add(wsReadDeadline))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(wsReadDeadline))
		return nil
	})

	log.Debug().Str("remote", conn.RemoteAddr().String()).Msg("prediction stream opened")

	for {
		var req PredictRequest
		conn.SetReadDeadline(time.Now().Add(wsReadDeadline))
		if err := conn.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Warn().Err(err).Msg("prediction stream closed unexpectedly")
			}
			return
		}

		start := time.Now()
		var payload interface{}
		if len(req.Features) == 0 {
			payload = wsError{Error: "features cannot be empty", RequestID: req.RequestID}
		} else if resp, _, err := s.predict(req); err != nil {
			payload = wsError{Error: err.Error(), RequestID: req.RequestID}
		} else {
			resp.Latency = float64(time.Since(start).Microseconds()) / 1000
			resp.Timestamp = time.Now()
			payload = resp
		}

		conn.SetWriteDeadline(time.Now().Add(wsWriteDeadline))
		if err := conn.WriteJSON(payload); err != nil {
			log.Warn().Err(err).Msg("prediction stream write failed")
			return
		}
	}
}
