package server

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/particula/pkg/errors"
	"github.com/matzehuels/particula/pkg/interaction"
	"github.com/matzehuels/particula/pkg/render"
	"github.com/matzehuels/particula/pkg/scene"
	"github.com/matzehuels/particula/pkg/session"
)

// Message types exchanged over the session WebSocket.
const (
	// Server to client.
	MsgCloud  = "cloud"
	MsgFrame  = "frame"
	MsgStatus = "status"
	MsgError  = "error"

	// Client to server.
	MsgSample  = "sample"
	MsgShape   = "shape"
	MsgPointer = "pointer"
	MsgEnable  = "enable"
)

const (
	wsWriteWait  = 5 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = wsPongWait * 9 / 10
	wsReadLimit  = 256 << 10
)

// errClientGone ends the read loop when the peer closes the socket.
var errClientGone = stderrors.New("client disconnected")

// Message is the envelope of every WebSocket message. Only the fields of
// the given Type are set.
type Message struct {
	Type string `json:"type"`

	Cloud  *render.CloudDoc    `json:"cloud,omitempty"`
	Frame  *scene.Frame        `json:"frame,omitempty"`
	Status *session.Status     `json:"status,omitempty"`
	Error  *errorBody          `json:"error,omitempty"`
	Sample *interaction.Sample `json:"sample,omitempty"`

	Shape   string  `json:"shape,omitempty"`
	X       float64 `json:"x,omitempty"`
	Y       float64 `json:"y,omitempty"`
	Enabled *bool   `json:"enabled,omitempty"`
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		s.logger.Debug("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	frames, stop := sess.Subscribe()
	defer stop()

	s.logger.Info("client attached", "session", sess.ID)
	replies := make(chan Message, 8)

	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error { return s.readPump(conn, sess, replies) })
	g.Go(func() error {
		err := s.writePump(ctx, conn, sess, frames, replies)
		// Unblock the reader.
		_ = conn.Close()
		return err
	})
	if err := g.Wait(); err != nil && !stderrors.Is(err, errClientGone) && !stderrors.Is(err, context.Canceled) {
		s.logger.Debug("websocket closed", "session", sess.ID, "error", err)
	}
	s.logger.Info("client detached", "session", sess.ID)
}

// readPump applies client messages until the connection fails. It always
// returns a non-nil error so the write side stops too.
func (s *Server) readPump(conn *websocket.Conn, sess *session.Session, replies chan<- Message) error {
	conn.SetReadLimit(wsReadLimit)
	_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	for {
		typ, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return errClientGone
			}
			return err
		}
		_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
		if typ != websocket.TextMessage {
			continue
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			reply(replies, errorMessage(errors.Wrap(errors.ErrCodeInvalidInput, err, "decode message")))
			continue
		}
		if err := s.apply(sess, msg, replies); err != nil {
			reply(replies, errorMessage(err))
		}
	}
}

// apply executes one client command.
func (s *Server) apply(sess *session.Session, msg Message, replies chan<- Message) error {
	switch msg.Type {
	case MsgSample:
		if msg.Sample == nil {
			return errors.New(errors.ErrCodeInvalidSample, "sample message without sample")
		}
		sess.Offer(msg.Sample)
	case MsgShape:
		return sess.SetShape(msg.Shape)
	case MsgPointer:
		sess.SetPointer(msg.X, msg.Y)
	case MsgEnable:
		if msg.Enabled == nil {
			return errors.New(errors.ErrCodeInvalidInput, "enable message without enabled")
		}
		sess.SetEnabled(*msg.Enabled)
	case MsgStatus:
		st := sess.Status()
		reply(replies, Message{Type: MsgStatus, Status: &st})
	default:
		return errors.New(errors.ErrCodeInvalidInput, "unknown message type %q", msg.Type)
	}
	return nil
}

// writePump sends the cloud, then frames and replies, until ctx is done,
// the session closes or a write fails. The cloud is resent whenever the
// shape changes.
func (s *Server) writePump(ctx context.Context, conn *websocket.Conn, sess *session.Session, frames <-chan scene.Frame, replies <-chan Message) error {
	ping := time.NewTicker(wsPingPeriod)
	defer ping.Stop()

	doc := cloudDoc(sess)
	if err := writeMessage(conn, Message{Type: MsgCloud, Cloud: &doc}); err != nil {
		return err
	}
	shown := doc.Shape

	for {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
				time.Now().Add(wsWriteWait))
			return ctx.Err()
		case <-sess.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session closed"),
				time.Now().Add(wsWriteWait))
			return errClientGone
		case f := <-frames:
			if f.Shape != shown {
				doc := cloudDoc(sess)
				if doc.Shape == f.Shape {
					if err := writeMessage(conn, Message{Type: MsgCloud, Cloud: &doc}); err != nil {
						return err
					}
					shown = doc.Shape
				}
			}
			if err := writeMessage(conn, Message{Type: MsgFrame, Frame: &f}); err != nil {
				return err
			}
		case msg := <-replies:
			if err := writeMessage(conn, msg); err != nil {
				return err
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait)); err != nil {
				return err
			}
		}
	}
}

func writeMessage(conn *websocket.Conn, msg Message) error {
	_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	return conn.WriteJSON(msg)
}

// reply queues msg for the writer, dropping it if the queue is full.
func reply(replies chan<- Message, msg Message) {
	select {
	case replies <- msg:
	default:
	}
}

func errorMessage(err error) Message {
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	return Message{Type: MsgError, Error: &errorBody{Error: code, Message: errors.UserMessage(err)}}
}
