package bot

import (
	"context"
	"fmt"
	"strings"

	"roomscout/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Вспомогательные методы для работы с сессиями пользователей

func (b *Bot) getSession(ctx context.Context, userID int64) *models.Session {
	sess, err := b.sessions.GetSession(ctx, userID)
	if err != nil || sess == nil {
		return &models.Session{UserID: userID}
	}
	return sess
}

func (b *Bot) saveSession(ctx context.Context, sess *models.Session) {
	if err := b.sessions.SetSession(ctx, sess); err != nil {
		b.logger.Error().Err(err).Int64("user_id", sess.UserID).Msg("Failed to save session")
	}
}

func (b *Bot) setStep(ctx context.Context, sess *models.Session, step string) {
	sess.CurrentStep = step
	b.saveSession(ctx, sess)
}

func (b *Bot) clearStep(ctx context.Context, sess *models.Session) {
	sess.CurrentStep = ""
	sess.TempData = nil
	b.saveSession(ctx, sess)
}

func (b *Bot) reply(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.bot.Send(msg); err != nil {
		b.logger.Error().Err(err).Int64("chat_id", chatID).Msg("Failed to send message")
	}
}

func (b *Bot) replyMarkup(chatID int64, text string, markup tgbotapi.InlineKeyboardMarkup) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = markup
	if _, err := b.bot.Send(msg); err != nil {
		b.logger.Error().Err(err).Int64("chat_id", chatID).Msg("Failed to send message")
	}
}

func (b *Bot) editMarkup(chatID int64, messageID int, text string, markup tgbotapi.InlineKeyboardMarkup) {
	msg := tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID, text, markup)
	if _, err := b.bot.Send(msg); err != nil {
		b.logger.Error().Err(err).Int64("chat_id", chatID).Msg("Failed to edit message")
	}
}

func (b *Bot) answerCallback(id string) {
	if _, err := b.bot.Request(tgbotapi.NewCallback(id, "")); err != nil {
		b.logger.Debug().Err(err).Msg("Failed to answer callback")
	}
}

func formatRoom(room models.Room) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("🏨 %s", room.HotelName))
	if room.ChainName != "" {
		sb.WriteString(fmt.Sprintf(" (%s)", room.ChainName))
	}
	sb.WriteString(fmt.Sprintf("\nНомер #%d — %.2f ₽/ночь, мест: %d", room.RoomID, room.Price, room.Capacity))
	if v := room.ViewLabel(); v != "" {
		sb.WriteString(fmt.Sprintf(", вид: %s", v))
	}
	if len(room.Amenities) > 0 {
		sb.WriteString(fmt.Sprintf("\nУдобства: %s", strings.Join(room.Amenities, ", ")))
	}
	return sb.String()
}

func formatBooking(bk models.Booking) string {
	return fmt.Sprintf("📋 Бронь #%d — номер %d, %s → %s (%s)",
		bk.BookingID, bk.RoomID, bk.StartDate.String(), bk.EndDate.String(), bk.Status)
}

func formatRenting(r models.Renting) string {
	return fmt.Sprintf("🔑 Заселение #%d — номер %d, %s → %s (%s)",
		r.RentingID, r.RoomID, r.StartDate.String(), r.EndDate.String(), r.Status)
}
