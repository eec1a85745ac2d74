package bot

import (
	"context"
	"fmt"
	"strings"

	"roomscout/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// sendRoomsPage рисует страницу результатов поиска. messageID == 0
// означает новое сообщение, иначе редактируем существующее.
func (b *Bot) sendRoomsPage(ctx context.Context, chatID int64, messageID, page int, rooms []models.Room, criteria models.SearchCriteria) {
	perPage := b.config.Bot.PaginationSize
	if perPage <= 0 {
		perPage = models.DefaultPaginationSize
	}

	totalPages := (len(rooms) + perPage - 1) / perPage
	if page >= totalPages && totalPages > 0 {
		page = totalPages - 1
	}
	if page < 0 {
		page = 0
	}

	startIdx := page * perPage
	endIdx := startIdx + perPage
	if endIdx > len(rooms) {
		endIdx = len(rooms)
	}

	var message strings.Builder
	message.WriteString(fmt.Sprintf("Свободные номера %s → %s (%d найдено)\n",
		criteria.StartDate.String(), criteria.EndDate.String(), len(rooms)))
	if totalPages > 1 {
		message.WriteString(fmt.Sprintf("Страница %d из %d\n", page+1, totalPages))
	}
	message.WriteString("\n")

	var keyboard [][]tgbotapi.InlineKeyboardButton
	for _, room := range rooms[startIdx:endIdx] {
		message.WriteString(formatRoom(room))
		message.WriteString("\n\n")
		keyboard = append(keyboard, []tgbotapi.InlineKeyboardButton{
			tgbotapi.NewInlineKeyboardButtonData(
				fmt.Sprintf("Выбрать номер #%d — %.0f ₽", room.RoomID, room.Price),
				fmt.Sprintf("book:%d", room.RoomID),
			),
		})
	}

	var navButtons []tgbotapi.InlineKeyboardButton
	if page > 0 {
		navButtons = append(navButtons, tgbotapi.NewInlineKeyboardButtonData("⬅️ Назад", fmt.Sprintf("rooms_page:%d", page-1)))
	}
	if endIdx < len(rooms) {
		navButtons = append(navButtons, tgbotapi.NewInlineKeyboardButtonData("Вперед ➡️", fmt.Sprintf("rooms_page:%d", page+1)))
	}
	if len(navButtons) > 0 {
		keyboard = append(keyboard, navButtons)
	}

	markup := tgbotapi.NewInlineKeyboardMarkup(keyboard...)
	if messageID != 0 {
		b.editMarkup(chatID, messageID, message.String(), markup)
		return
	}
	b.replyMarkup(chatID, message.String(), markup)
}
