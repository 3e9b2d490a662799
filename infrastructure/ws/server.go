package ws

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"chatter-box/auth"
	"chatter-box/contract"
	"chatter-box/domain"
	"chatter-box/domain/event"
	"chatter-box/errors"
	"chatter-box/observability"
	"chatter-box/services"
)

const (
	// CookieName carries the session token issued at login.
	CookieName     = "jwt"
	maxMessageSize = 64 * 1024
)

// Server upgrades HTTP requests to websocket connections and dispatches
// their frames. Authentication happens once at the handshake; the resulting
// identity is pinned to the connection and re-attached to every frame.
type Server struct {
	log        *slog.Logger
	upgrader   websocket.Upgrader
	verifier   contract.IdentityVerifier
	authority  contract.MembershipAuthority
	router     contract.TopicRouter
	messages   services.IMessageService
	monitor    *observability.Monitor
	bufferSize int
}

func NewServer(
	log *slog.Logger,
	verifier contract.IdentityVerifier,
	authority contract.MembershipAuthority,
	router contract.TopicRouter,
	messages services.IMessageService,
	monitor *observability.Monitor,
	allowedOrigin string,
	bufferSize int,
) *Server {
	return &Server{
		log: log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				if allowedOrigin == "*" {
					return true
				}
				return r.Header.Get("Origin") == allowedOrigin
			},
		},
		verifier:   verifier,
		authority:  authority,
		router:     router,
		messages:   messages,
		monitor:    monitor,
		bufferSize: bufferSize,
	}
}

// ServeWS is the websocket handshake endpoint. A missing jwt cookie admits
// the connection anonymously (every authorized operation will then fail);
// a present but invalid token rejects the handshake outright.
func (s *Server) ServeWS(w http.ResponseWriter, r *http.Request) {
	identity, err := s.identityFromRequest(r)
	if err != nil {
		s.log.Warn("Rejected websocket handshake", "err", err)
		http.Error(w, "invalid or expired token", http.StatusUnauthorized)
		return
	}
	identity.ConnectionID = uuid.New()

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("Websocket upgrade failed", "err", err)
		return
	}

	client := NewClient(conn, identity, s.log, s.bufferSize)
	s.monitor.ConnectionOpened()
	s.log.Info("Connection opened",
		"connection_id", identity.ConnectionID,
		"subject", identity.SubjectName,
		"anonymous", identity.Anonymous(),
	)

	go client.writePump()
	s.readLoop(client)
}

func (s *Server) identityFromRequest(r *http.Request) (domain.SessionIdentity, error) {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		// No cookie at all: anonymous connection.
		return domain.SessionIdentity{}, nil
	}
	return s.verifier.Verify(cookie.Value)
}

func (s *Server) readLoop(client *Client) {
	defer func() {
		s.router.DropConnection(client.ID())
		s.monitor.ConnectionClosed()
		client.close()
		s.log.Info("Connection closed", "connection_id", client.ID())
	}()

	client.conn.SetReadLimit(maxMessageSize)
	_ = client.conn.SetReadDeadline(time.Now().Add(pongWait))
	client.conn.SetPongHandler(func(string) error {
		return client.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := client.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.log.Warn("Websocket read error", "connection_id", client.ID(), "err", err)
			}
			return
		}

		var frame Frame
		if err := json.Unmarshal(raw, &frame); err != nil {
			client.reply(ErrorReply{Error: ErrorDetail{
				Code:    "VALIDATION_ERROR",
				Message: "malformed frame",
			}})
			continue
		}
		s.dispatch(client, frame)
	}
}

// dispatch routes one frame. The connection's identity is re-attached to a
// fresh context here: frames of one connection may be handled on different
// goroutines over its lifetime, so nothing is assumed to survive between
// frames.
func (s *Server) dispatch(client *Client, frame Frame) {
	ctx := auth.ContextWithIdentity(context.Background(), client.Identity())

	var err error
	switch frame.Destination {
	case DestSendMessage:
		err = s.handleSend(ctx, frame)
	case DestEditMessage:
		err = s.handleEdit(ctx, frame)
	case DestDeleteMessage:
		err = s.handleDelete(ctx, frame)
	case DestSubscribe:
		err = s.handleSubscribe(client, frame)
	case DestUnsubscribe:
		err = s.handleUnsubscribe(client, frame)
	default:
		err = errors.ErrValidation
	}

	if err != nil {
		client.reply(ErrorReply{Error: ErrorDetail{
			Code:        errorCode(err),
			Destination: frame.Destination,
			Message:     err.Error(),
		}})
	}
}

func (s *Server) handleSend(ctx context.Context, frame Frame) error {
	body, err := decodeBody[SendBody](frame.Body)
	if err != nil {
		return err
	}
	_, err = s.messages.Send(ctx, domain.RoomID(body.RoomID), body.Content)
	return err
}

func (s *Server) handleEdit(ctx context.Context, frame Frame) error {
	body, err := decodeBody[EditBody](frame.Body)
	if err != nil {
		return err
	}
	_, err = s.messages.Edit(ctx, domain.MessageID(body.MessageID), body.NewContent)
	return err
}

func (s *Server) handleDelete(ctx context.Context, frame Frame) error {
	body, err := decodeBody[DeleteBody](frame.Body)
	if err != nil {
		return err
	}
	return s.messages.Delete(ctx, domain.MessageID(body.MessageID))
}

// handleSubscribe gates the subscription on current membership of the room
// the topic belongs to, then registers the connection's sink.
func (s *Server) handleSubscribe(client *Client, frame Frame) error {
	body, err := decodeBody[SubscribeBody](frame.Body)
	if err != nil {
		return err
	}

	roomID, _, err := event.ParseTopic(body.Topic)
	if err != nil {
		return errors.ErrValidation
	}

	identity := client.Identity()
	if identity.Anonymous() {
		return errors.ErrUnauthenticated
	}
	if err := s.authority.RequireMember(identity.SubjectID, roomID); err != nil {
		return err
	}

	s.router.Subscribe(client.ID(), identity.SubjectID, body.Topic, client)
	client.reply(Receipt{Receipt: "subscribed", Topic: body.Topic})
	return nil
}

func (s *Server) handleUnsubscribe(client *Client, frame Frame) error {
	body, err := decodeBody[SubscribeBody](frame.Body)
	if err != nil {
		return err
	}
	s.router.Unsubscribe(client.ID(), body.Topic)
	client.reply(Receipt{Receipt: "unsubscribed", Topic: body.Topic})
	return nil
}

func errorCode(err error) string {
	switch {
	case stderrors.Is(err, errors.ErrUnauthenticated):
		return "UNAUTHENTICATED"
	case stderrors.Is(err, errors.ErrUnauthorized):
		return "UNAUTHORIZED"
	case stderrors.Is(err, errors.ErrNotFound):
		return "NOT_FOUND"
	case stderrors.Is(err, errors.ErrValidation):
		return "VALIDATION_ERROR"
	default:
		return "INTERNAL"
	}
}
