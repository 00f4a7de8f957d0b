package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cwrk-planet/presence-relay/internal/domain"
	"github.com/cwrk-planet/presence-relay/internal/memory"

	"github.com/go-playground/validator/v10"
)

const defaultMaxNameLength = 64

type MemberService struct {
	participantRepo *memory.ParticipantRepository
	validate        *validator.Validate

	nameRule string
	now      func() time.Time
}

func NewMemberService(participantRepo *memory.ParticipantRepository) *MemberService {
	s := &MemberService{
		participantRepo: participantRepo,
		validate:        validator.New(),
		now:             time.Now,
	}
	s.SetMaxNameLength(defaultMaxNameLength)
	return s
}

func (s *MemberService) SetMaxNameLength(n int) {
	if n <= 0 {
		n = defaultMaxNameLength
	}
	s.nameRule = fmt.Sprintf("required,max=%d", n)
}

// Join registers the channel under a trimmed display name.
func (s *MemberService) Join(channelID, displayName string) (domain.Participant, error) {
	name := strings.TrimSpace(displayName)
	if err := s.validate.Var(name, s.nameRule); err != nil {
		return domain.Participant{}, fmt.Errorf("%w: display name: %s", domain.ErrInvalidJoinPayload, validationReason(err))
	}

	p := domain.Participant{
		ChannelID:   channelID,
		DisplayName: name,
		Status:      domain.StatusOnline,
		JoinedAt:    s.now(),
	}
	if err := s.participantRepo.Join(p); err != nil {
		return domain.Participant{}, err
	}

	return p, nil
}

// Leave reports false when the channel never joined.
func (s *MemberService) Leave(channelID string) (domain.Participant, bool) {
	p, err := s.participantRepo.Leave(channelID)
	if err != nil {
		return domain.Participant{}, false
	}
	return p, true
}

func (s *MemberService) Get(channelID string) (domain.Participant, bool) {
	return s.participantRepo.Get(channelID)
}

func (s *MemberService) ListParticipants() []domain.Participant {
	return s.participantRepo.List()
}

func validationReason(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		if verrs[0].Tag() == "required" {
			return "empty"
		}
		return fmt.Sprintf("longer than %s characters", verrs[0].Param())
	}
	return err.Error()
}
