package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/structpb"
)

// Client is a typed client of the chat service.
type Client struct {
	conn *grpc.ClientConn
}

// Dial connects to the daemon's Unix domain socket. The connection is lazy;
// the first call reports an unreachable daemon.
func Dial(socketPath string) (*Client, error) {
	conn, err := grpc.NewClient(
		"unix://"+socketPath,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		return nil, fmt.Errorf("dial daemon: %w", err)
	}
	return &Client{conn: conn}, nil
}

// Close closes the gRPC connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) call(ctx context.Context, method string, fields map[string]any) (*structpb.Struct, error) {
	req, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, fmt.Errorf("encode %s request: %w", method, err)
	}
	resp := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, FullMethod(method), req, resp); err != nil {
		return nil, FromStatus(err)
	}
	return resp, nil
}

func (c *Client) callUser(ctx context.Context, method string, fields map[string]any) (User, error) {
	resp, err := c.call(ctx, method, fields)
	if err != nil {
		return User{}, err
	}
	return decodeUser(sub(resp, "user")), nil
}

func (c *Client) Login(ctx context.Context, email, password string) (User, error) {
	return c.callUser(ctx, MethodLogin, map[string]any{"email": email, "password": password})
}

func (c *Client) Register(ctx context.Context, name, email, password string) (User, error) {
	return c.callUser(ctx, MethodRegister, map[string]any{"name": name, "email": email, "password": password})
}

func (c *Client) Logout(ctx context.Context) error {
	_, err := c.call(ctx, MethodLogout, nil)
	return err
}

func (c *Client) Whoami(ctx context.Context) (Whoami, error) {
	resp, err := c.call(ctx, MethodWhoami, nil)
	if err != nil {
		return Whoami{}, err
	}
	w := Whoami{
		Profile:      str(resp, "profile"),
		SignedIn:     flag(resp, "signed_in"),
		ActiveChatID: str(resp, "active_chat_id"),
		Uptime:       time.Duration(num(resp, "uptime_ms")) * time.Millisecond,
	}
	if u := sub(resp, "user"); u != nil {
		w.User = decodeUser(u)
	}
	return w, nil
}

// ListChats returns the signed-in user's chats whose name contains query.
func (c *Client) ListChats(ctx context.Context, query string) ([]Chat, error) {
	resp, err := c.call(ctx, MethodListChats, map[string]any{"query": query})
	if err != nil {
		return nil, err
	}
	var out []Chat
	for _, v := range list(resp, "chats") {
		out = append(out, decodeChat(v.GetStructValue()))
	}
	return out, nil
}

func (c *Client) SelectChat(ctx context.Context, chatID string) (Chat, error) {
	resp, err := c.call(ctx, MethodSelectChat, map[string]any{"chat_id": chatID})
	if err != nil {
		return Chat{}, err
	}
	return decodeChat(sub(resp, "chat")), nil
}

// ListMessages returns a chat's log. An empty chatID means the active chat.
func (c *Client) ListMessages(ctx context.Context, chatID string) ([]Message, error) {
	resp, err := c.call(ctx, MethodListMessages, map[string]any{"chat_id": chatID})
	if err != nil {
		return nil, err
	}
	var out []Message
	for _, v := range list(resp, "messages") {
		m, err := decodeMessage(v.GetStructValue())
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

// Outgoing is a message to send to the active chat.
type Outgoing struct {
	Content  string
	Kind     string
	FileName string
	FileSize int64
	FileURL  string
}

func (o Outgoing) fields() map[string]any {
	f := map[string]any{"content": o.Content, "kind": o.Kind}
	if o.FileName != "" {
		f["file_name"] = o.FileName
	}
	if o.FileSize > 0 {
		f["file_size"] = o.FileSize
	}
	if o.FileURL != "" {
		f["file_url"] = o.FileURL
	}
	return f
}

// Send posts to the active chat. It reports false when no chat is active.
func (c *Client) Send(ctx context.Context, o Outgoing) (Message, bool, error) {
	resp, err := c.call(ctx, MethodSend, o.fields())
	if err != nil {
		return Message{}, false, err
	}
	if !flag(resp, "sent") {
		return Message{}, false, nil
	}
	m, err := decodeMessage(sub(resp, "message"))
	if err != nil {
		return Message{}, false, err
	}
	return m, true, nil
}

func (c *Client) SetTyping(ctx context.Context, typing bool) error {
	_, err := c.call(ctx, MethodSetTyping, map[string]any{"typing": typing})
	return err
}

func (c *Client) SetPresence(ctx context.Context, presence string) (User, error) {
	return c.callUser(ctx, MethodSetPresence, map[string]any{"status": presence})
}

// Receive injects a message from another participant, as if it arrived
// over the network.
func (c *Client) Receive(ctx context.Context, chatID, senderID string, o Outgoing) (Message, error) {
	f := o.fields()
	f["chat_id"] = chatID
	f["sender_id"] = senderID
	resp, err := c.call(ctx, MethodReceive, f)
	if err != nil {
		return Message{}, err
	}
	return decodeMessage(sub(resp, "message"))
}

var watchDesc = &grpc.StreamDesc{StreamName: MethodWatch, ServerStreams: true}

// Watch streams events whose kind starts with prefix until ctx is done.
// The channel is closed when the stream ends; the error func reports why.
func (c *Client) Watch(ctx context.Context, prefix string) (<-chan Event, func() error, error) {
	stream, err := c.conn.NewStream(ctx, watchDesc, FullMethod(MethodWatch))
	if err != nil {
		return nil, nil, FromStatus(err)
	}
	req, err := structpb.NewStruct(map[string]any{"prefix": prefix})
	if err != nil {
		return nil, nil, err
	}
	if err := stream.SendMsg(req); err != nil {
		return nil, nil, FromStatus(err)
	}
	if err := stream.CloseSend(); err != nil {
		return nil, nil, FromStatus(err)
	}

	out := make(chan Event, 64)
	var streamErr error
	done := make(chan struct{})
	go func() {
		defer close(done)
		defer close(out)
		for {
			msg := new(structpb.Struct)
			if err := stream.RecvMsg(msg); err != nil {
				if !errors.Is(err, io.EOF) && ctx.Err() == nil {
					streamErr = FromStatus(err)
				}
				return
			}
			ev, err := decodeEvent(msg)
			if err != nil {
				streamErr = err
				return
			}
			select {
			case out <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, func() error { <-done; return streamErr }, nil
}
