// Package bot wires the Telegram Bot API surface: the membership gate,
// batch capture conversation, and the router/middleware chain around them.
package bot

import (
	"fmt"
	"log/slog"

	telebot "gopkg.in/telebot.v3"

	"github.com/applygate/applybot/internal/bot/handlers"
	"github.com/applygate/applybot/internal/bot/keyboard"
	errors "github.com/applygate/applybot/internal/errors"
	"github.com/applygate/applybot/internal/idempotency"
	"github.com/applygate/applybot/internal/jobs"
	"github.com/applygate/applybot/internal/membership"
	"github.com/applygate/applybot/internal/middleware"
	"github.com/applygate/applybot/internal/repository"
	"github.com/applygate/applybot/internal/state"
	"github.com/applygate/applybot/internal/telegram"
	"github.com/applygate/applybot/internal/user"
	"github.com/applygate/applybot/pkg/config"
)

// Bot wraps telebot.Bot with application dependencies required for handling updates.
type Bot struct {
	telebot            *telebot.Bot
	log                *slog.Logger
	cfg                config.Config
	fsm                state.StateMachine
	router             *Router
	dispatcher         *Dispatcher
	keyboard           *keyboard.Builder
	errHandler         *errors.Handler
	idempotencyManager idempotency.Manager
}

// New builds a telegram bot instance configured according to the application settings.
func New(
	cfg config.Config,
	log *slog.Logger,
	fsm state.StateMachine,
	idempotencyManager idempotency.Manager,
	jobManager jobs.Manager,
	userRepo repository.UserRepository,
	userService *user.Service,
) (*Bot, error) {
	settings := telebot.Settings{
		Token: cfg.Bot.Token,
		Poller: &telebot.LongPoller{
			Timeout: cfg.Bot.PollTimeout,
		},
	}

	tb, err := telebot.NewBot(settings)
	if err != nil {
		return nil, fmt.Errorf("initialize telebot: %w", err)
	}

	// The membership directory rides the same Bot API connection.
	directory := telegram.NewDirectory(tb, log)
	verifier := membership.NewVerifier(directory, cfg.Bot.Channel, cfg.Bot.Group, log)

	kb := keyboard.NewBuilder(log)
	dispatcher := NewDispatcher(fsm, log)
	router := NewRouter(dispatcher, log)
	errHandler := errors.NewHandler(log, cfg.Sentry.Enabled)

	b := &Bot{
		telebot:            tb,
		log:                log,
		cfg:                cfg,
		fsm:                fsm,
		router:             router,
		dispatcher:         dispatcher,
		keyboard:           kb,
		errHandler:         errHandler,
		idempotencyManager: idempotencyManager,
	}

	b.setupRouter(verifier, jobManager, userRepo, userService)
	b.registerTelebotHandlers()

	return b, nil
}

// Start runs the telegram bot event loop.
func (b *Bot) Start() {
	if b.telebot != nil {
		b.telebot.Start()
	}
}

// Stop gracefully stops the telegram bot.
func (b *Bot) Stop() {
	if b.telebot == nil {
		return
	}

	if b.log != nil {
		b.log.Info("stopping telegram bot...")
	}

	b.telebot.Stop()
}

// Telebot exposes the underlying telebot.Bot instance for integrations such
// as health checks and the outbound messenger.
func (b *Bot) Telebot() *telebot.Bot {
	return b.telebot
}

func (b *Bot) setupRouter(verifier *membership.Verifier, jobManager jobs.Manager, userRepo repository.UserRepository, userService *user.Service) {
	if b.router == nil {
		return
	}

	b.router.Use(RecoveryMiddleware(b.log, b.errHandler))
	b.router.Use(middleware.Idempotency(b.idempotencyManager, b.log))
	b.router.Use(ErrorHandlingMiddleware(b.errHandler))
	b.router.Use(LoggingMiddleware(b.log))
	b.router.Use(AuthMiddleware(userRepo, b.log))
	b.router.Use(LastActiveMiddleware(userService))
	b.router.Use(middleware.Metrics)

	b.router.RegisterCommand(CommandStart, handlers.NewStartHandler(b.fsm, b.keyboard, b.cfg.Bot.Channel, b.cfg.Bot.Group, b.log))
	b.router.RegisterCommand(CommandCancel, handlers.NewCancelHandler(b.fsm, b.log))

	b.router.RegisterCallback(keyboard.CallbackCheck, handlers.NewCheckHandler(b.fsm, verifier, b.cfg.Bot.OwnerUsername, b.log))

	b.dispatcher.RegisterStateHandler(state.StateAwaitingBatch, handlers.NewBatchHandler(b.fsm, jobManager, b.log))
}

func (b *Bot) registerTelebotHandlers() {
	if b.telebot == nil || b.router == nil {
		return
	}

	b.telebot.Handle(telebot.OnText, b.router.Route)
	b.telebot.Handle(telebot.OnCallback, b.router.Route)
}
