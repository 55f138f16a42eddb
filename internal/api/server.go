package api

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/matheus3301/mockchat/internal/bus"
	"github.com/matheus3301/mockchat/internal/chat"
	"github.com/matheus3301/mockchat/internal/session"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	grpcstatus "google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// Server implements ChatServer on top of a session.
type Server struct {
	sess      *session.Session
	bus       *bus.Bus
	profile   string
	startedAt time.Time
	logger    *zap.Logger
}

// NewServer creates the chat service of one daemon.
func NewServer(sess *session.Session, b *bus.Bus, profile string, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{sess: sess, bus: b, profile: profile, startedAt: time.Now(), logger: logger}
}

func reply(fields map[string]any) (*structpb.Struct, error) {
	s, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, grpcstatus.Errorf(codes.Internal, "encode reply: %v", err)
	}
	return s, nil
}

func (s *Server) userReply(u chat.User, err error) (*structpb.Struct, error) {
	if err != nil {
		return nil, toStatus(err)
	}
	return reply(map[string]any{"user": userFields(u)})
}

func (s *Server) Login(_ context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return s.userReply(s.sess.Login(str(req, "email"), str(req, "password")))
}

func (s *Server) Register(_ context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return s.userReply(s.sess.Register(str(req, "name"), str(req, "email"), str(req, "password")))
}

func (s *Server) Logout(_ context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	if err := s.sess.Logout(); err != nil {
		return nil, toStatus(err)
	}
	return reply(map[string]any{"success": true})
}

func (s *Server) Whoami(_ context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	out := map[string]any{
		"profile":   s.profile,
		"uptime_ms": time.Since(s.startedAt).Milliseconds(),
		"signed_in": false,
	}
	if u, ok := s.sess.CurrentUser(); ok {
		out["signed_in"] = true
		out["user"] = userFields(u)
		if cur, ok, err := s.sess.CurrentConversation(); err == nil && ok {
			out["active_chat_id"] = cur.Chat.ID
		}
	}
	return reply(out)
}

func (s *Server) ListChats(_ context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	views, err := s.sess.Conversations(str(req, "query"))
	if err != nil {
		return nil, toStatus(err)
	}
	chats := make([]any, len(views))
	for i, v := range views {
		chats[i] = chatFields(v)
	}
	return reply(map[string]any{"chats": chats})
}

func (s *Server) SelectChat(_ context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if err := s.sess.SelectConversation(str(req, "chat_id")); err != nil {
		return nil, toStatus(err)
	}
	cur, _, err := s.sess.CurrentConversation()
	if err != nil {
		return nil, toStatus(err)
	}
	return reply(map[string]any{"chat": chatFields(cur)})
}

func (s *Server) ListMessages(_ context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var msgs []chat.Message
	var err error
	if id := str(req, "chat_id"); id != "" {
		msgs, err = s.sess.Messages(id)
	} else {
		msgs, err = s.sess.CurrentMessages()
	}
	if err != nil {
		return nil, toStatus(err)
	}
	out := make([]any, len(msgs))
	for i, m := range msgs {
		out[i] = messageFields(m, s.sess.Lookup)
	}
	return reply(map[string]any{"messages": out})
}

func (s *Server) Send(_ context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	kind, err := chat.ParseMessageKind(str(req, "kind"))
	if err != nil {
		return nil, toStatus(err)
	}
	m, ok, err := s.sess.Send(str(req, "content"), kind, attachment(req))
	if err != nil {
		return nil, toStatus(err)
	}
	out := map[string]any{"sent": ok}
	if ok {
		out["message"] = messageFields(m, s.sess.Lookup)
	}
	return reply(out)
}

func (s *Server) SetTyping(_ context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if err := s.sess.SetTyping(flag(req, "typing")); err != nil {
		return nil, toStatus(err)
	}
	return reply(map[string]any{"success": true})
}

func (s *Server) SetPresence(_ context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return s.userReply(s.sess.SetPresence(chat.Presence(str(req, "status"))))
}

func (s *Server) Receive(_ context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	kind, err := chat.ParseMessageKind(str(req, "kind"))
	if err != nil {
		return nil, toStatus(err)
	}
	m, err := s.sess.Receive(str(req, "chat_id"), str(req, "sender_id"), str(req, "content"), kind, attachment(req))
	if err != nil {
		return nil, toStatus(err)
	}
	return reply(map[string]any{"message": messageFields(m, s.sess.Lookup)})
}

// Watch streams bus events whose kind starts with the requested prefix until
// the client goes away.
func (s *Server) Watch(req *structpb.Struct, stream EventStream) error {
	ch, unsub := s.bus.Subscribe(str(req, "prefix"), 256)
	defer unsub()

	for {
		select {
		case evt := <-ch:
			out, err := reply(eventFields(uuid.NewString(), evt))
			if err != nil {
				return err
			}
			if err := stream.Send(out); err != nil {
				return err
			}
		case <-stream.Context().Done():
			return nil
		}
	}
}
