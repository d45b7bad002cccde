package usecase

import (
	"context"

	"github.com/samber/lo"
	"github.com/shandysiswandi/goverify/internal/verification/entity"
)

type ChannelInfo struct {
	Name     string
	Provider string
	Enabled  bool
}

type ChannelsOutput struct {
	Channels []ChannelInfo
}

// Channels returns the delivery-channel catalogue with each channel's
// configured provider and availability.
func (s *Usecase) Channels(ctx context.Context) (*ChannelsOutput, error) {
	_, span := s.startSpan(ctx, "Channels")
	defer span.End()

	channels := lo.Map(entity.Channels(), func(ch entity.Channel, _ int) ChannelInfo {
		prefix := "modules.verification.channels." + ch.String()

		return ChannelInfo{
			Name:     ch.String(),
			Provider: s.cfg.GetString(prefix + ".provider"),
			Enabled:  s.cfg.GetBool(prefix + ".enabled"),
		}
	})

	return &ChannelsOutput{Channels: channels}, nil
}
