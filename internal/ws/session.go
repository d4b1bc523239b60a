package ws

import (
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

var (
	ErrSessionClosed = errors.New("session closed")
	ErrOutboxFull    = errors.New("session outbox full")
)

// wsSession is a Session backed by a websocket connection. Payloads are queued on a FIFO
// outbox and written by a single writer goroutine, so per-session order matches Send order.
type wsSession struct {
	conn         *websocket.Conn
	info         ConnInfo
	outbox       chan []byte
	done         chan struct{}
	stopOnce     sync.Once
	writeTimeout time.Duration
}

func newSession(conn *websocket.Conn, info ConnInfo, outboxSize int, writeTimeout time.Duration) *wsSession {
	return &wsSession{
		conn:         conn,
		info:         info,
		outbox:       make(chan []byte, outboxSize),
		done:         make(chan struct{}),
		writeTimeout: writeTimeout,
	}
}

func (s *wsSession) ID() string { return s.info.ConnID }

// Send never blocks. A full outbox means the client is not keeping up and is reported as a
// failed delivery.
func (s *wsSession) Send(payload []byte) error {
	select {
	case <-s.done:
		return ErrSessionClosed
	default:
	}
	select {
	case s.outbox <- payload:
		return nil
	default:
		return ErrOutboxFull
	}
}

// writeLoop drains the outbox until the session stops or a write fails. onFailure is called
// once with the write error.
func (s *wsSession) writeLoop(onFailure func(error)) {
	for {
		select {
		case <-s.done:
			return
		case payload := <-s.outbox:
			if s.writeTimeout > 0 {
				_ = s.conn.SetWriteDeadline(time.Now().Add(s.writeTimeout))
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				s.stop()
				onFailure(err)
				return
			}
		}
	}
}

func (s *wsSession) stop() {
	s.stopOnce.Do(func() { close(s.done) })
}
