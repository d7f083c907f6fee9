package usecases

import (
	"context"
	"fmt"
	"strings"

	"project_outreach/internal/apperrors"
	"project_outreach/internal/entities"
	"project_outreach/internal/interfaces"
	"project_outreach/internal/segments"

	"go.uber.org/zap"
)

// ChatVerifier confirms the bot can post to a chat and returns its title.
type ChatVerifier interface {
	ChatTitle(ctx context.Context, chat string) (string, error)
}

// ChannelUsecase manages the segment to Telegram chat bindings.
type ChannelUsecase struct {
	mappings interfaces.ChannelMappingStore
	policy   *SegmentPolicy
	verifier ChatVerifier
	log      *zap.Logger
}

func NewChannelUsecase(mappings interfaces.ChannelMappingStore, policy *SegmentPolicy, verifier ChatVerifier, log *zap.Logger) *ChannelUsecase {
	return &ChannelUsecase{mappings: mappings, policy: policy, verifier: verifier, log: log}
}

func (u *ChannelUsecase) List(ctx context.Context, acc *entities.Account) ([]entities.ChannelMapping, error) {
	return u.mappings.List(ctx, acc.ID)
}

// Upsert binds segment to chatID. When a verifier is configured the bot
// must be able to see the chat; an empty title is filled from it.
func (u *ChannelUsecase) Upsert(ctx context.Context, acc *entities.Account, segment, chatID, title string) (*entities.ChannelMapping, error) {
	segment = strings.ToUpper(strings.TrimSpace(segment))
	chatID = strings.TrimSpace(chatID)
	if chatID == "" {
		return nil, apperrors.Validation("chat_id is required")
	}

	c, err := u.policy.Classifier(ctx, acc)
	if err != nil {
		return nil, err
	}
	// a chat receives the whole segment
	if err := (AudienceSelector{Segment: segment, Filter: segments.FilterAll}).Validate(c); err != nil {
		return nil, err
	}

	if u.verifier != nil {
		chatTitle, err := u.verifier.ChatTitle(ctx, chatID)
		if err != nil {
			u.log.Info("telegram chat not reachable", zap.String("chat_id", chatID), zap.Error(err))
			return nil, apperrors.Validation(fmt.Sprintf("The bot cannot reach chat %s. Add it to the chat first.", chatID))
		}
		if title == "" {
			title = chatTitle
		}
	}

	m := &entities.ChannelMapping{AccountID: acc.ID, Segment: segment, ChatID: chatID, Title: title}
	if err := u.mappings.Upsert(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}
