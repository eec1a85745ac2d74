package bot

import (
	"context"

	"roomscout/internal/export"
	"roomscout/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// handleExport выгружает историю гостя в Excel и отправляет файлом
func (b *Bot) handleExport(ctx context.Context, chatID, userID int64, sess *models.Session) {
	if b.db == nil {
		b.reply(chatID, "Экспорт недоступен: история не ведётся.")
		return
	}

	customerID := b.flowFor(ctx, userID).Session().CustomerID
	if customerID == 0 {
		customerID = sess.CustomerID
	}
	if customerID == 0 {
		b.reply(chatID, "Сначала зарегистрируйте гостя: /register")
		return
	}

	path, err := export.CustomerStays(ctx, b.db, b.config.Exports.Path, customerID)
	if err != nil {
		b.logger.Error().Err(err).Int64("customer_id", customerID).Msg("Export failed")
		b.reply(chatID, "Не удалось сформировать файл экспорта.")
		return
	}

	doc := tgbotapi.NewDocument(chatID, tgbotapi.FilePath(path))
	doc.Caption = "История броней и заселений"
	if _, err := b.bot.Send(doc); err != nil {
		b.logger.Error().Err(err).Msg("Failed to send export document")
		b.reply(chatID, "Файл сформирован, но отправить не удалось.")
	}
}
