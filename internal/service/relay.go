package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cwrk-planet/presence-relay/internal/domain"
)

var ErrRelayStopped = errors.New("relay stopped")

const defaultInboxSize = 256

type RelayOptions struct {
	// BindSender replaces the sender name claimed by a chat message with the
	// name the channel joined under, and rejects chat from channels that never joined.
	BindSender bool
	InboxSize  int
}

// Relay owns the participant registry and fans presence and chat events out
// to every joined channel. All registry access happens on the goroutine
// running Run; the exported methods hand work to it and wait for the result.
type Relay struct {
	memberSvc *MemberService
	chatSvc   *ChatService
	transport Transport

	bindSender bool

	inbox chan command
	done  chan struct{}
}

type command struct {
	name  string
	run   func() error
	reply chan error
}

func NewRelay(member *MemberService, chat *ChatService, transport Transport, opts RelayOptions) *Relay {
	size := opts.InboxSize
	if size <= 0 {
		size = defaultInboxSize
	}
	return &Relay{
		memberSvc:  member,
		chatSvc:    chat,
		transport:  transport,
		bindSender: opts.BindSender,
		inbox:      make(chan command, size),
		done:       make(chan struct{}),
	}
}

// Run processes one event at a time until ctx is done.
func (r *Relay) Run(ctx context.Context) error {
	defer close(r.done)
	slog.Info("relay started", "bind_sender", r.bindSender)

	for {
		select {
		case cmd := <-r.inbox:
			err := cmd.run()
			if err != nil {
				slog.Debug("relay event rejected", "event", cmd.name, "err", err)
			}
			cmd.reply <- err
		case <-ctx.Done():
			r.drain()
			slog.Info("relay stopped", "participants", len(r.memberSvc.ListParticipants()))
			return nil
		}
	}
}

// drain fails every command still queued when the loop stops.
func (r *Relay) drain() {
	for {
		select {
		case cmd := <-r.inbox:
			if cmd.reply != nil {
				cmd.reply <- ErrRelayStopped
			}
		default:
			return
		}
	}
}

func (r *Relay) do(ctx context.Context, name string, fn func() error) error {
	cmd := command{name: name, run: fn, reply: make(chan error, 1)}

	select {
	case r.inbox <- cmd:
	case <-r.done:
		return ErrRelayStopped
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-cmd.reply:
		return err
	case <-r.done:
		// the loop may have replied just before stopping
		select {
		case err := <-cmd.reply:
			return err
		default:
			return ErrRelayStopped
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}

// OnConnect only records the channel in the log: it is not a participant until it joins.
func (r *Relay) OnConnect(_ context.Context, channelID string) {
	slog.Info("channel connected", "channel", channelID)
}

func (r *Relay) Join(ctx context.Context, channelID, displayName string) error {
	return r.do(ctx, "join", func() error {
		return r.join(channelID, displayName)
	})
}

func (r *Relay) SendMessage(ctx context.Context, channelID, sender, content string) error {
	return r.do(ctx, "sendMessage", func() error {
		return r.sendMessage(channelID, sender, content)
	})
}

// Disconnect is a no-op for channels that never joined or already left.
func (r *Relay) Disconnect(ctx context.Context, channelID string) error {
	return r.do(ctx, "disconnect", func() error {
		r.disconnect(channelID)
		return nil
	})
}

func (r *Relay) Participants(ctx context.Context) ([]domain.Participant, error) {
	var out []domain.Participant
	err := r.do(ctx, "participants", func() error {
		out = r.memberSvc.ListParticipants()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Relay) join(channelID, displayName string) error {
	if !r.transport.Connected(channelID) {
		return fmt.Errorf("join %s: %w", channelID, domain.ErrUnknownChannel)
	}
	p, err := r.memberSvc.Join(channelID, displayName)
	if err != nil {
		return fmt.Errorf("join %s: %w", channelID, err)
	}

	online := r.memberSvc.ListParticipants()
	r.broadcast("", domain.Event{Type: domain.EventUserJoined, User: p.DisplayName, Online: online})

	welcome := r.chatSvc.System(fmt.Sprintf("Welcome %s to the chat room!", p.DisplayName))
	r.deliver(channelID, domain.Event{Type: domain.EventMessage, Message: welcome})

	joined := r.chatSvc.System(fmt.Sprintf("%s joined the chat room", p.DisplayName))
	r.broadcast(channelID, domain.Event{Type: domain.EventMessage, Message: joined})

	slog.Info("participant joined", "channel", channelID, "name", p.DisplayName, "online", len(online))
	return nil
}

func (r *Relay) sendMessage(channelID, sender, content string) error {
	if r.bindSender {
		p, ok := r.memberSvc.Get(channelID)
		if !ok {
			return fmt.Errorf("send from %s: %w", channelID, domain.ErrUnknownChannel)
		}
		sender = p.DisplayName
	}

	msg := r.chatSvc.User(sender, content)
	n := r.broadcast("", domain.Event{Type: domain.EventMessage, Message: msg})

	slog.Debug("chat message relayed", "channel", channelID, "sender", sender, "msg_id", msg.ID, "delivered", n)
	return nil
}

func (r *Relay) disconnect(channelID string) {
	p, ok := r.memberSvc.Leave(channelID)
	if !ok {
		slog.Debug("channel closed before joining", "channel", channelID)
		return
	}

	online := r.memberSvc.ListParticipants()
	r.broadcast("", domain.Event{Type: domain.EventUserLeft, User: p.DisplayName, Online: online})

	left := r.chatSvc.System(fmt.Sprintf("%s left the chat room", p.DisplayName))
	r.broadcast("", domain.Event{Type: domain.EventMessage, Message: left})

	slog.Info("participant left", "channel", channelID, "name", p.DisplayName, "online", len(online))
}

// broadcast delivers evt to every joined channel except skip and returns the
// number of successful deliveries.
func (r *Relay) broadcast(skip string, evt domain.Event) int {
	n := 0
	for _, p := range r.memberSvc.ListParticipants() {
		if p.ChannelID == skip {
			continue
		}
		if r.deliver(p.ChannelID, evt) {
			n++
		}
	}
	return n
}

// deliver is best-effort: a failing recipient is logged and skipped.
func (r *Relay) deliver(channelID string, evt domain.Event) bool {
	if err := r.transport.Send(channelID, evt); err != nil {
		if !errors.Is(err, domain.ErrDeliveryFailure) {
			err = fmt.Errorf("%w: %w", domain.ErrDeliveryFailure, err)
		}
		slog.Warn("relay delivery failed", "channel", channelID, "event", string(evt.Type), "err", err)
		return false
	}
	return true
}
