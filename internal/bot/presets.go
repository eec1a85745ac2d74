package bot

import (
	"context"
	"fmt"
	"time"

	"roomscout/internal/config"
	"roomscout/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func (b *Bot) showPresets(chatID int64) {
	if len(b.presets) == 0 {
		b.reply(chatID, "Сохранённых фильтров нет. Добавьте их в configs/presets.yaml.")
		return
	}

	var keyboard [][]tgbotapi.InlineKeyboardButton
	for i, p := range b.presets {
		keyboard = append(keyboard, []tgbotapi.InlineKeyboardButton{
			tgbotapi.NewInlineKeyboardButtonData(p.Name, fmt.Sprintf("preset:%d", i)),
		})
	}
	b.replyMarkup(chatID, "Быстрый поиск:", tgbotapi.NewInlineKeyboardMarkup(keyboard...))
}

// applyPreset ищет по сохранённому фильтру: заезд завтра, выезд через
// заданное число ночей.
func (b *Bot) applyPreset(ctx context.Context, chatID, userID int64, preset config.SearchPreset) {
	nights := preset.Nights
	if nights <= 0 {
		nights = 1
	}

	start := time.Now().AddDate(0, 0, 1)
	criteria := models.SearchCriteria{
		StartDate:     models.DateOf(start),
		EndDate:       models.DateOf(start.AddDate(0, 0, nights)),
		Capacity:      preset.Capacity,
		View:          preset.View,
		HotelChain:    preset.HotelChain,
		HotelCategory: preset.HotelCategory,
		MaxPrice:      preset.MaxPrice,
	}

	b.reply(chatID, fmt.Sprintf("Ищу по шаблону «%s»: %s → %s…",
		preset.Name, criteria.StartDate.String(), criteria.EndDate.String()))
	b.search(ctx, chatID, userID, criteria)
}
