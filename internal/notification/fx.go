package notification

import (
	"context"
	"errors"

	"github.com/smallbiznis/storefront/internal/config"
	"github.com/smallbiznis/storefront/internal/observability/metrics"
	"github.com/smallbiznis/storefront/internal/providers/email"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("notification",
	fx.Provide(NewAsyncFromConfig),
	fx.Provide(func(a *Async) Dispatcher { return a }),
)

type Params struct {
	fx.In

	Lifecycle fx.Lifecycle
	Cfg       config.Config
	Log       *zap.Logger
	Email     email.Provider
	Metrics   *metrics.Metrics `optional:"true"`
}

// NewAsyncFromConfig builds the channels listed in NOTIFY_CHANNELS behind an Async wrapper
// that is drained on shutdown.
func NewAsyncFromConfig(p Params) *Async {
	log := p.Log.Named("notification")
	channels := make([]Channel, 0, len(p.Cfg.Notify.Channels))

	for _, name := range p.Cfg.Notify.Channels {
		switch name {
		case "whatsapp":
			wa, err := NewWhatsApp(WhatsAppConfig{
				URL:         p.Cfg.Notify.FonnteURL,
				Token:       p.Cfg.Notify.FonnteToken,
				CountryCode: p.Cfg.Notify.CountryCode,
				AdminPhone:  p.Cfg.Notify.AdminPhone,
				Title:       p.Cfg.Notify.MessageTitle,
				StoreName:   p.Cfg.StoreName,
				Timeout:     p.Cfg.Notify.Timeout,
			}, nil)
			if err != nil {
				log.Warn("whatsapp channel disabled", zap.Error(err))
				continue
			}
			channels = append(channels, wa)
		case "email":
			channels = append(channels, NewEmail(p.Email, p.Cfg.StoreName))
		case "none", "noop":
		default:
			log.Warn("unknown notification channel", zap.String("channel", name))
		}
	}

	var next Dispatcher = NoOp{}
	if len(channels) > 0 {
		next = NewMulti(func(ctx context.Context, channel string, err error) {
			outcome := "sent"
			switch {
			case errors.Is(err, ErrNoRecipient):
				outcome = "skipped"
			case err != nil:
				outcome = "failed"
			}
			p.Metrics.RecordNotification(ctx, channel, outcome)
		}, channels...)
	}

	async := NewAsync(next, p.Cfg.Notify.Timeout, log)
	p.Lifecycle.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return async.Close(ctx)
		},
	})
	return async
}
