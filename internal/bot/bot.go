// Package bot is the Telegram dialog layer. It translates chat messages
// and callbacks into flow intents and renders flow state back as messages
// and inline keyboards. No booking logic lives here.
package bot

import (
	"context"
	"os"
	"sync"
	"time"

	"roomscout/internal/client"
	"roomscout/internal/config"
	"roomscout/internal/events"
	"roomscout/internal/flow"
	"roomscout/internal/history"
	"roomscout/internal/session"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Шаги диалога
const (
	StepSearchStart    = "search_start_date"
	StepSearchEnd      = "search_end_date"
	StepSearchCapacity = "search_capacity"
	StepSearchMaxPrice = "search_max_price"
	StepRegFirstName   = "register_first_name"
	StepRegLastName    = "register_last_name"
	StepRegAddress     = "register_address"
	StepCustomerID     = "enter_customer_id"
	StepEmployeeID     = "enter_employee_id"
	StepUpdateCustomer = "manager_update_customer"
)

type Bot struct {
	bot      *tgbotapi.BotAPI
	config   *config.Config
	api      *client.Client
	sessions session.Repository
	db       *history.DB
	eventBus *events.EventBus
	presets  []config.SearchPreset
	logger   *zerolog.Logger

	mu    sync.Mutex
	flows map[int64]*flow.Controller
}

func NewBot(token string, cfg *config.Config, apiClient *client.Client, sessions session.Repository, db *history.DB, eventBus *events.EventBus, presets []config.SearchPreset, logger *zerolog.Logger) (*Bot, error) {
	botAPI, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	botAPI.Debug = cfg.Telegram.Debug

	if eventBus == nil {
		eventBus = events.NewEventBus()
	}
	if logger == nil {
		l := zerolog.New(os.Stdout).With().Timestamp().Logger()
		logger = &l
	}

	return &Bot{
		bot:      botAPI,
		config:   cfg,
		api:      apiClient,
		sessions: sessions,
		db:       db,
		eventBus: eventBus,
		presets:  presets,
		logger:   logger,
		flows:    make(map[int64]*flow.Controller),
	}, nil
}

func (b *Bot) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.bot.GetUpdatesChan(u)

	b.logger.Info().Str("username", b.bot.Self.UserName).Msg("Authorized on account")

	for {
		select {
		case <-ctx.Done():
			b.logger.Info().Msg("Bot stopping...")
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			updateCtx, cancel := context.WithTimeout(ctx, 30*time.Second)

			requestID := uuid.New().String()
			l := b.logger.With().Str("request_id", requestID).Logger()
			updateCtx = l.WithContext(updateCtx)

			if update.CallbackQuery != nil {
				b.withRecovery(func() { b.handleCallbackQuery(updateCtx, update) })
				cancel()
				continue
			}

			if update.Message == nil {
				cancel()
				continue
			}

			if b.config.IsBlacklisted(update.Message.From.ID) {
				cancel()
				continue
			}

			if !b.allowMessage(updateCtx, update.Message.From.ID) {
				b.reply(update.Message.Chat.ID, "Слишком много запросов, подождите немного.")
				cancel()
				continue
			}

			b.withRecovery(func() { b.handleMessage(updateCtx, &update) })
			cancel()
		}
	}
}

// flowFor returns the per-user flow controller, creating it on first use
// and seeding it from the stored session.
func (b *Bot) flowFor(ctx context.Context, userID int64) *flow.Controller {
	b.mu.Lock()
	defer b.mu.Unlock()

	if ctrl, ok := b.flows[userID]; ok {
		return ctrl
	}

	var opts []flow.Option
	if b.config.Behavior.RequireExplicitCustomerID {
		opts = append(opts, flow.WithExplicitCustomerID())
	}

	ctrl := flow.NewController(b.api, b.eventBus, b.logger, opts...)

	if sess, err := b.sessions.GetSession(ctx, userID); err == nil && sess != nil {
		if sess.CustomerID > 0 {
			ctrl.SetCustomer(sess.CustomerID)
		}
		if sess.IsStaff && sess.EmployeeID > 0 {
			ctrl.SetStaff(sess.EmployeeID)
		}
	}

	b.flows[userID] = ctrl
	return ctrl
}
