package bot

import (
	"context"
	"strconv"
	"strings"

	"roomscout/internal/flow"
	"roomscout/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

func (b *Bot) handleMessage(ctx context.Context, update *tgbotapi.Update) {
	userID := update.Message.From.ID
	chatID := update.Message.Chat.ID
	text := strings.TrimSpace(update.Message.Text)
	l := zerolog.Ctx(ctx)

	l.Debug().
		Int64("user_id", userID).
		Str("username", update.Message.From.UserName).
		Str("text", text).
		Msg("Handling message")

	sess := b.getSession(ctx, userID)

	if b.handleCommand(ctx, chatID, userID, text, sess) {
		return
	}

	if sess.CurrentStep != "" && b.handleStep(ctx, chatID, userID, text, sess) {
		return
	}

	b.reply(chatID, "Не понимаю. Наберите /help для списка команд.")
}

func (b *Bot) handleCommand(ctx context.Context, chatID, userID int64, text string, sess *models.Session) bool {
	switch {
	case text == "/start":
		b.clearStep(ctx, sess)
		b.flowFor(ctx, userID).Reset()
		b.sendWelcome(chatID, userID)
		return true

	case text == "/help":
		b.sendHelp(chatID, userID)
		return true

	case text == "/search":
		b.setStep(ctx, sess, StepSearchStart)
		b.reply(chatID, "Дата заезда (ГГГГ-ММ-ДД):")
		return true

	case text == "/register":
		b.setStep(ctx, sess, StepRegFirstName)
		b.reply(chatID, "Имя гостя:")
		return true

	case text == "/mybookings":
		b.showStays(ctx, chatID, userID, sess)
		return true

	case text == "/chains":
		b.showChains(ctx, chatID)
		return true

	case text == "/views":
		b.showOccupancy(ctx, chatID)
		return true

	case text == "/presets":
		b.showPresets(chatID)
		return true

	case text == "/export":
		b.handleExport(ctx, chatID, userID, sess)
		return true

	case text == "/cancel":
		b.clearStep(ctx, sess)
		b.flowFor(ctx, userID).Reset()
		b.reply(chatID, "Сброшено. /search — начать новый поиск.")
		return true
	}

	if b.config.IsManager(userID) && b.handleManagerCommand(ctx, chatID, userID, text, sess) {
		return true
	}

	return false
}

// handleStep продолжает пошаговый диалог
func (b *Bot) handleStep(ctx context.Context, chatID, userID int64, text string, sess *models.Session) bool {
	switch sess.CurrentStep {
	case StepSearchStart:
		if _, err := models.ParseDate(text); err != nil {
			b.reply(chatID, "Некорректная дата. Формат: ГГГГ-ММ-ДД, например 2026-09-15.")
			return true
		}
		sess.Set("start_date", text)
		b.setStep(ctx, sess, StepSearchEnd)
		b.reply(chatID, "Дата выезда (ГГГГ-ММ-ДД):")
		return true

	case StepSearchEnd:
		if _, err := models.ParseDate(text); err != nil {
			b.reply(chatID, "Некорректная дата. Формат: ГГГГ-ММ-ДД.")
			return true
		}
		sess.Set("end_date", text)
		b.setStep(ctx, sess, StepSearchCapacity)
		b.reply(chatID, "Минимальная вместимость (число, или «-» чтобы пропустить):")
		return true

	case StepSearchCapacity:
		if text != "-" {
			capacity, err := strconv.Atoi(text)
			if err != nil || capacity <= 0 {
				b.reply(chatID, "Нужно положительное число или «-».")
				return true
			}
			sess.Set("capacity", int64(capacity))
		}
		b.setStep(ctx, sess, StepSearchMaxPrice)
		b.reply(chatID, "Максимальная цена за ночь (число, или «-» чтобы пропустить):")
		return true

	case StepSearchMaxPrice:
		if text != "-" {
			price, err := strconv.ParseFloat(text, 64)
			if err != nil || price <= 0 {
				b.reply(chatID, "Нужно положительное число или «-».")
				return true
			}
			sess.Set("max_price", text)
		}
		b.runSearch(ctx, chatID, userID, sess)
		return true

	case StepRegFirstName:
		sess.Set("first_name", text)
		b.setStep(ctx, sess, StepRegLastName)
		b.reply(chatID, "Фамилия гостя:")
		return true

	case StepRegLastName:
		sess.Set("last_name", text)
		b.setStep(ctx, sess, StepRegAddress)
		b.reply(chatID, "Адрес гостя:")
		return true

	case StepRegAddress:
		sess.Set("address", text)
		b.finishRegistration(ctx, chatID, userID, sess)
		return true

	case StepCustomerID:
		customerID, err := strconv.ParseInt(text, 10, 64)
		if err != nil || customerID <= 0 {
			b.reply(chatID, "Нужен числовой ID клиента.")
			return true
		}
		sess.Set("customer_id", customerID)
		b.saveSession(ctx, sess)
		b.confirmStay(ctx, chatID, userID, sess, sess.GetInt64("room_id"), customerID)
		return true

	case StepEmployeeID:
		employeeID, err := strconv.ParseInt(text, 10, 64)
		if err != nil || employeeID <= 0 {
			b.reply(chatID, "Нужен числовой ID сотрудника.")
			return true
		}
		sess.EmployeeID = employeeID
		sess.IsStaff = true
		b.saveSession(ctx, sess)
		b.flowFor(ctx, userID).SetStaff(employeeID)
		b.reply(chatID, "Режим заселения включён. Выбранные номера будут оформляться как заселение.")
		b.resumeAfterEmployee(ctx, chatID, userID, sess)
		return true

	case StepUpdateCustomer:
		b.finishCustomerUpdate(ctx, chatID, text, sess)
		return true
	}

	return false
}

func (b *Bot) sendWelcome(chatID, userID int64) {
	var sb strings.Builder
	sb.WriteString("Добро пожаловать в поиск отелей!\n\n")
	sb.WriteString("/search — найти свободные номера\n")
	sb.WriteString("/register — зарегистрировать гостя\n")
	sb.WriteString("/mybookings — мои брони и заселения\n")
	sb.WriteString("/presets — быстрый поиск по шаблону\n")
	if b.config.IsManager(userID) {
		sb.WriteString("\nКоманды менеджера: /staff, /employees, /customer_update, /customer_delete")
	}
	b.reply(chatID, sb.String())
}

func (b *Bot) sendHelp(chatID, userID int64) {
	var sb strings.Builder
	sb.WriteString("Команды:\n")
	sb.WriteString("/search — пошаговый поиск номеров\n")
	sb.WriteString("/register — регистрация гостя\n")
	sb.WriteString("/mybookings — брони и заселения гостя\n")
	sb.WriteString("/chains — список сетей отелей\n")
	sb.WriteString("/views — сводка по номерам\n")
	sb.WriteString("/presets — сохранённые фильтры\n")
	sb.WriteString("/export — выгрузка истории в Excel\n")
	sb.WriteString("/cancel — сбросить диалог\n")
	if b.config.IsManager(userID) {
		sb.WriteString("\nМенеджер:\n")
		sb.WriteString("/staff — включить режим заселения\n")
		sb.WriteString("/employees <id отеля> — сотрудники отеля\n")
		sb.WriteString("/customer_update <id> — изменить данные гостя\n")
		sb.WriteString("/customer_delete <id> — удалить гостя\n")
	}
	b.reply(chatID, sb.String())
}

// resumeAfterEmployee returns to the pending room confirmation if staff
// mode was requested mid-booking.
func (b *Bot) resumeAfterEmployee(ctx context.Context, chatID, userID int64, sess *models.Session) {
	roomID := sess.GetInt64("room_id")
	if roomID == 0 {
		b.clearStep(ctx, sess)
		return
	}
	b.startConfirmation(ctx, chatID, userID, sess, roomID)
}

func (b *Bot) showStays(ctx context.Context, chatID, userID int64, sess *models.Session) {
	ctrl := b.flowFor(ctx, userID)
	customerID := ctrl.Session().CustomerID
	if customerID == 0 {
		customerID = sess.CustomerID
	}
	if customerID == 0 {
		b.reply(chatID, "Сначала зарегистрируйте гостя: /register")
		return
	}

	ctrl.RefreshStays(ctx, customerID)

	bookings := ctrl.Bookings()
	rentings := ctrl.Rentings()
	if len(bookings) == 0 && len(rentings) == 0 {
		b.reply(chatID, "Пока нет ни броней, ни заселений.")
		return
	}

	var sb strings.Builder
	for _, bk := range bookings {
		sb.WriteString(formatBooking(bk))
		sb.WriteString("\n")
	}
	for _, r := range rentings {
		sb.WriteString(formatRenting(r))
		sb.WriteString("\n")
	}
	b.reply(chatID, sb.String())
}

func (b *Bot) showChains(ctx context.Context, chatID int64) {
	chains, err := b.api.ListHotelChains(ctx)
	if err != nil {
		b.reply(chatID, "Не удалось загрузить сети отелей: "+flow.DisplayMessage(err))
		return
	}
	if len(chains) == 0 {
		b.reply(chatID, "Сети отелей не найдены.")
		return
	}

	var sb strings.Builder
	sb.WriteString("Сети отелей:\n")
	for _, c := range chains {
		sb.WriteString("• " + c.Name + "\n")
	}
	b.reply(chatID, sb.String())
}
