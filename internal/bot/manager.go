package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"roomscout/internal/flow"
	"roomscout/internal/models"
)

// Команды менеджера: режим заселения и управление гостями.

func (b *Bot) handleManagerCommand(ctx context.Context, chatID, userID int64, text string, sess *models.Session) bool {
	switch {
	case text == "/staff":
		sess.IsStaff = true
		b.saveSession(ctx, sess)
		if sess.EmployeeID > 0 {
			b.flowFor(ctx, userID).SetStaff(sess.EmployeeID)
			b.reply(chatID, fmt.Sprintf("Режим заселения включён (сотрудник %d).", sess.EmployeeID))
			return true
		}
		b.setStep(ctx, sess, StepEmployeeID)
		b.reply(chatID, "Укажите ваш ID сотрудника:")
		return true

	case strings.HasPrefix(text, "/employees"):
		b.showEmployees(ctx, chatID, strings.TrimSpace(strings.TrimPrefix(text, "/employees")))
		return true

	case strings.HasPrefix(text, "/customer_update"):
		arg := strings.TrimSpace(strings.TrimPrefix(text, "/customer_update"))
		customerID, err := strconv.ParseInt(arg, 10, 64)
		if err != nil || customerID <= 0 {
			b.reply(chatID, "Использование: /customer_update <id клиента>")
			return true
		}
		sess.Set("update_customer_id", customerID)
		b.setStep(ctx, sess, StepUpdateCustomer)
		b.reply(chatID, "Новые данные одной строкой: Имя; Фамилия; Адрес")
		return true

	case strings.HasPrefix(text, "/customer_delete"):
		arg := strings.TrimSpace(strings.TrimPrefix(text, "/customer_delete"))
		customerID, err := strconv.ParseInt(arg, 10, 64)
		if err != nil || customerID <= 0 {
			b.reply(chatID, "Использование: /customer_delete <id клиента>")
			return true
		}
		if err := b.api.DeleteCustomer(ctx, customerID); err != nil {
			b.reply(chatID, "Удаление не удалось: "+flow.DisplayMessage(err))
			return true
		}
		b.reply(chatID, fmt.Sprintf("Гость %d удалён.", customerID))
		return true
	}

	return false
}

func (b *Bot) showEmployees(ctx context.Context, chatID int64, arg string) {
	hotelID, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || hotelID <= 0 {
		b.reply(chatID, "Использование: /employees <id отеля>")
		return
	}

	employees, err := b.api.ListEmployees(ctx, hotelID)
	if err != nil {
		b.reply(chatID, "Не удалось загрузить сотрудников: "+flow.DisplayMessage(err))
		return
	}
	if len(employees) == 0 {
		b.reply(chatID, "У отеля нет сотрудников.")
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Сотрудники отеля %d:\n", hotelID))
	for _, e := range employees {
		sb.WriteString(fmt.Sprintf("• #%d %s %s", e.EmployeeID, e.FirstName, e.LastName))
		if e.Role != "" {
			sb.WriteString(" — " + e.Role)
		}
		sb.WriteString("\n")
	}
	b.reply(chatID, sb.String())
}

func (b *Bot) finishCustomerUpdate(ctx context.Context, chatID int64, text string, sess *models.Session) {
	customerID := sess.GetInt64("update_customer_id")
	b.clearStep(ctx, sess)

	parts := strings.SplitN(text, ";", 3)
	if len(parts) != 3 {
		b.reply(chatID, "Нужны три поля через «;»: Имя; Фамилия; Адрес. Начните заново: /customer_update")
		return
	}

	form := models.CustomerForm{
		FirstName: strings.TrimSpace(parts[0]),
		LastName:  strings.TrimSpace(parts[1]),
		Address:   strings.TrimSpace(parts[2]),
	}
	if err := b.api.UpdateCustomer(ctx, customerID, form); err != nil {
		b.reply(chatID, "Обновление не удалось: "+flow.DisplayMessage(err))
		return
	}
	b.reply(chatID, fmt.Sprintf("Данные гостя %d обновлены.", customerID))
}
