package bot

import (
	"context"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

func (b *Bot) handleCallbackQuery(ctx context.Context, update tgbotapi.Update) {
	cq := update.CallbackQuery
	if cq == nil || cq.Message == nil {
		return
	}

	userID := cq.From.ID
	chatID := cq.Message.Chat.ID
	data := cq.Data
	l := zerolog.Ctx(ctx)

	b.answerCallback(cq.ID)

	if b.config.IsBlacklisted(userID) {
		return
	}

	l.Debug().Int64("user_id", userID).Str("data", data).Msg("Handling callback")

	sess := b.getSession(ctx, userID)

	switch {
	case strings.HasPrefix(data, "book:"):
		roomID, err := strconv.ParseInt(strings.TrimPrefix(data, "book:"), 10, 64)
		if err != nil {
			b.reply(chatID, "Некорректный номер.")
			return
		}
		b.startConfirmation(ctx, chatID, userID, sess, roomID)

	case strings.HasPrefix(data, "rooms_page:"):
		page, err := strconv.Atoi(strings.TrimPrefix(data, "rooms_page:"))
		if err != nil {
			return
		}
		ctrl := b.flowFor(ctx, userID)
		rooms := ctrl.Rooms()
		if len(rooms) == 0 {
			b.reply(chatID, "Результаты устарели, повторите поиск: /search")
			return
		}
		b.sendRoomsPage(ctx, chatID, cq.Message.MessageID, page, rooms, ctrl.Criteria())

	case strings.HasPrefix(data, "preset:"):
		idx, err := strconv.Atoi(strings.TrimPrefix(data, "preset:"))
		if err != nil || idx < 0 || idx >= len(b.presets) {
			b.reply(chatID, "Шаблон не найден.")
			return
		}
		b.applyPreset(ctx, chatID, userID, b.presets[idx])

	case data == "noop":
		// разделитель клавиатуры

	default:
		l.Warn().Str("data", data).Msg("Unknown callback")
	}
}
