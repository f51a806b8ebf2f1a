package telegram

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gotd/td/session"
	tdclient "github.com/gotd/td/telegram"
	"github.com/gotd/td/tg"

	"github.com/applygate/applybot/pkg/config"
)

// MTProto owns the raw Telegram client session used for history reads.
type MTProto struct {
	client   *tdclient.Client
	botToken string
	log      *slog.Logger
}

// NewMTProto configures the MTProto client. A Telethon-format session string
// takes precedence; otherwise the session persists to the configured file.
func NewMTProto(cfg config.TelegramConfig, botToken string, log *slog.Logger) (*MTProto, error) {
	if log == nil {
		log = slog.Default()
	}

	var storage tdclient.SessionStorage

	if cfg.SessionString != "" {
		data, err := session.TelethonSession(cfg.SessionString)
		if err != nil {
			return nil, fmt.Errorf("decode telethon session: %w", err)
		}

		mem := new(session.StorageMemory)
		loader := session.Loader{Storage: mem}
		if err := loader.Save(context.Background(), data); err != nil {
			return nil, fmt.Errorf("seed session storage: %w", err)
		}
		storage = mem
	} else if cfg.SessionFile != "" {
		storage = &session.FileStorage{Path: cfg.SessionFile}
	} else {
		storage = new(session.StorageMemory)
	}

	client := tdclient.NewClient(cfg.APIID, cfg.APIHash, tdclient.Options{
		SessionStorage: storage,
	})

	return &MTProto{
		client:   client,
		botToken: botToken,
		log:      log,
	}, nil
}

// Run opens the session, authorizes when needed, and hands the raw API to
// ready. It blocks until ready returns or ctx is canceled.
func (m *MTProto) Run(ctx context.Context, ready func(api *tg.Client) error) error {
	return m.client.Run(ctx, func(ctx context.Context) error {
		status, err := m.client.Auth().Status(ctx)
		if err != nil {
			return fmt.Errorf("auth status: %w", err)
		}

		if !status.Authorized {
			if _, err := m.client.Auth().Bot(ctx, m.botToken); err != nil {
				return fmt.Errorf("bot login: %w", err)
			}
			m.log.Info("mtproto session authorized")
		}

		return ready(m.client.API())
	})
}
