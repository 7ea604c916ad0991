package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/dgallion1/bookflow/internal/address"
	"github.com/dgallion1/bookflow/internal/booktree"
	"github.com/dgallion1/bookflow/internal/pipeline"
)

const (
	sessionReadTimeout = 60 * time.Second
	sessionPingPeriod  = 54 * time.Second
	sessionWriteWait   = 10 * time.Second
	sessionMaxMessage  = 64 * 1024
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// clientMessage is a reader request. Which fields apply depends on Type:
// "scroll" (Address), "scroll_to" (Path), "selection" (Start, End, Text)
// and "ref" (Ref).
type clientMessage struct {
	Type    string `json:"type"`
	Address string `json:"address,omitempty"`
	Path    string `json:"path,omitempty"`
	Start   string `json:"start,omitempty"`
	End     string `json:"end,omitempty"`
	Text    string `json:"text,omitempty"`
	Ref     string `json:"ref,omitempty"`
}

type serverMessage struct {
	Type      string                `json:"type"`
	Address   *address.BlockAddress `json:"address,omitempty"`
	Path      *booktree.Path        `json:"path,omitempty"`
	Selection *address.Selection    `json:"selection,omitempty"`
	Error     string                `json:"error,omitempty"`
}

// session answers translation requests for one reader of one document.
// Every request is a pure lookup against the path table built on connect.
type session struct {
	doc *pipeline.Document
	tr  *address.Translator
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	doc, ok := s.document(w, r)
	if !ok {
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", "doc_id", doc.ID, "error", err)
		return
	}
	defer conn.Close()

	s.metrics.ActiveSessions.Inc()
	defer s.metrics.ActiveSessions.Dec()

	log := s.log.With("doc_id", doc.ID, "remote", r.RemoteAddr)
	log.Info("session opened")

	sess := &session{doc: doc, tr: s.translator(doc)}

	conn.SetReadLimit(sessionMaxMessage)
	conn.SetReadDeadline(time.Now().Add(sessionReadTimeout))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(sessionReadTimeout))
		return nil
	})

	done := make(chan struct{})
	defer close(done)
	go func() {
		ticker := time.NewTicker(sessionPingPeriod)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(sessionWriteWait)); err != nil {
					return
				}
			}
		}
	}()

	for {
		var msg clientMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn("session closed unexpectedly", "error", err)
			}
			break
		}
		conn.SetReadDeadline(time.Now().Add(sessionReadTimeout))
		s.metrics.SessionMessages.WithLabelValues(messageLabel(msg.Type)).Inc()

		reply := sess.handle(msg)
		conn.SetWriteDeadline(time.Now().Add(sessionWriteWait))
		if err := conn.WriteJSON(reply); err != nil {
			log.Warn("session write failed", "error", err)
			break
		}
	}
	log.Info("session closed")
}

func (sess *session) handle(msg clientMessage) serverMessage {
	switch msg.Type {
	case "scroll":
		return sess.position(msg.Address)
	case "scroll_to":
		path, err := booktree.ParsePath(msg.Path)
		if err != nil {
			return errorMessage(err)
		}
		return sess.scrollTo(path)
	case "ref":
		path, ok := booktree.FindReference(sess.doc.Book, msg.Ref)
		if !ok {
			return errorMessage(errors.New("unknown reference " + msg.Ref))
		}
		return sess.scrollTo(path)
	case "selection":
		return sess.selection(msg)
	default:
		return errorMessage(errors.New("unknown message type " + msg.Type))
	}
}

// position reports the structural path of the block address the reader is at.
func (sess *session) position(raw string) serverMessage {
	addr, err := parseAnyAddress(raw)
	if err != nil {
		return errorMessage(err)
	}
	path, ok := sess.tr.ToPath(addr)
	if !ok {
		return errorMessage(errors.New("address out of range"))
	}
	return serverMessage{Type: "position", Address: &addr, Path: &path}
}

// scrollTo tells the reader which block address shows path.
func (sess *session) scrollTo(path booktree.Path) serverMessage {
	addr, ok := sess.tr.ToAddress(path)
	if !ok {
		return errorMessage(errors.New("path not rendered"))
	}
	return serverMessage{Type: "scroll", Address: &addr, Path: &path}
}

func (sess *session) selection(msg clientMessage) serverMessage {
	start, err := parseAnyAddress(msg.Start)
	if err != nil {
		return errorMessage(err)
	}
	end, err := parseAnyAddress(msg.End)
	if err != nil {
		return errorMessage(err)
	}
	sel, ok := address.MapSelection(sess.tr, address.RenderSelection{Start: start, End: end, Text: msg.Text})
	if !ok {
		return errorMessage(errors.New("selection out of range"))
	}
	return serverMessage{Type: "selection", Selection: &sel}
}

func messageLabel(t string) string {
	switch t {
	case "scroll", "scroll_to", "ref", "selection":
		return t
	}
	return "unknown"
}

func errorMessage(err error) serverMessage {
	return serverMessage{Type: "error", Error: err.Error()}
}
