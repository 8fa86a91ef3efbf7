package email

import (
	"github.com/smallbiznis/storefront/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("providers.email",
	fx.Provide(NewFromConfig),
)

// NewFromConfig builds the SMTP sender used by the email notification channel.
func NewFromConfig(cfg config.Config, log *zap.Logger) Provider {
	smtpCfg := Config{
		Host:     cfg.Email.SMTPHost,
		Port:     cfg.Email.SMTPPort,
		Username: cfg.Email.SMTPUsername,
		Password: cfg.Email.SMTPPassword,
		From:     cfg.Email.SMTPFrom,
	}
	log.Named("email").Debug("smtp sender configured",
		zap.String("host", smtpCfg.Host),
		zap.Int("port", smtpCfg.Port),
		zap.Bool("auth", smtpCfg.Username != ""),
	)
	return NewSMTP(smtpCfg)
}
