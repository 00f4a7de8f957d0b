package memory

import (
	"github.com/cwrk-planet/presence-relay/internal/domain"

	"github.com/samber/lo"
)

// ParticipantRepository keeps the participants of the running relay in join order.
// It has no locking: the relay loop is its only user.
type ParticipantRepository struct {
	byChannel map[string]domain.Participant
	order     []string
}

func NewParticipantRepository() *ParticipantRepository {
	return &ParticipantRepository{byChannel: make(map[string]domain.Participant)}
}

func (r *ParticipantRepository) Count() int {
	return len(r.order)
}

func (r *ParticipantRepository) Exists(channelID string) bool {
	_, ok := r.byChannel[channelID]
	return ok
}

func (r *ParticipantRepository) Get(channelID string) (domain.Participant, bool) {
	p, ok := r.byChannel[channelID]
	return p, ok
}

func (r *ParticipantRepository) Join(p domain.Participant) error {
	if r.Exists(p.ChannelID) {
		return domain.ErrAlreadyJoined
	}
	r.byChannel[p.ChannelID] = p
	r.order = append(r.order, p.ChannelID)
	return nil
}

func (r *ParticipantRepository) Leave(channelID string) (domain.Participant, error) {
	p, ok := r.byChannel[channelID]
	if !ok {
		return domain.Participant{}, domain.ErrUnknownChannel
	}
	delete(r.byChannel, channelID)
	r.order = lo.Without(r.order, channelID)
	return p, nil
}

// List returns a copy, safe to hand out after the registry moves on.
func (r *ParticipantRepository) List() []domain.Participant {
	return lo.Map(r.order, func(id string, _ int) domain.Participant {
		return r.byChannel[id]
	})
}
