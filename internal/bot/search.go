package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"roomscout/internal/flow"
	"roomscout/internal/models"
)

// runSearch собирает критерии из сессии и запускает поиск
func (b *Bot) runSearch(ctx context.Context, chatID, userID int64, sess *models.Session) {
	criteria := models.SearchCriteria{
		StartDate: sess.GetDate("start_date"),
		EndDate:   sess.GetDate("end_date"),
		Capacity:  int(sess.GetInt64("capacity")),
	}
	if raw := sess.GetString("max_price"); raw != "" {
		if price, err := strconv.ParseFloat(raw, 64); err == nil {
			criteria.MaxPrice = price
		}
	}
	if chain := sess.GetString("hotel_chain"); chain != "" {
		criteria.HotelChain = chain
	}
	if view := sess.GetString("view"); view != "" {
		criteria.View = view
	}
	if cat := sess.GetInt64("hotel_category"); cat > 0 {
		criteria.HotelCategory = int(cat)
	}

	b.clearStep(ctx, sess)
	b.search(ctx, chatID, userID, criteria)
}

func (b *Bot) search(ctx context.Context, chatID, userID int64, criteria models.SearchCriteria) {
	ctrl := b.flowFor(ctx, userID)

	rooms, err := ctrl.Search(ctx, criteria)
	if err != nil {
		if errors.Is(err, flow.ErrSuperseded) {
			return
		}
		b.reply(chatID, "Поиск не удался: "+flow.DisplayMessage(err))
		ctrl.Acknowledge()
		return
	}

	if len(rooms) == 0 {
		b.reply(chatID, "По заданным датам и фильтрам свободных номеров нет. Попробуйте другие даты: /search")
		return
	}

	b.sendRoomsPage(ctx, chatID, 0, 0, rooms, criteria)
}

func (b *Bot) finishRegistration(ctx context.Context, chatID, userID int64, sess *models.Session) {
	form := models.CustomerForm{
		FirstName: sess.GetString("first_name"),
		LastName:  sess.GetString("last_name"),
		Address:   sess.GetString("address"),
	}

	ctrl := b.flowFor(ctx, userID)
	customer, err := ctrl.RegisterCustomer(ctx, form)
	if err != nil {
		b.reply(chatID, "Регистрация не удалась: "+flow.DisplayMessage(err))
		ctrl.Acknowledge()
		b.clearStep(ctx, sess)
		return
	}

	sess.CustomerID = customer.CustomerID
	b.clearStep(ctx, sess)
	b.reply(chatID, fmt.Sprintf("Гость %s %s зарегистрирован, ID клиента: %d.\nТеперь можно бронировать найденные номера.",
		customer.FirstName, customer.LastName, customer.CustomerID))
}

// startConfirmation resolves the customer id and either asks for one or
// shows the confirm keyboard.
func (b *Bot) startConfirmation(ctx context.Context, chatID, userID int64, sess *models.Session, roomID int64) {
	ctrl := b.flowFor(ctx, userID)
	flowSess := ctrl.Session()

	if (flowSess.IsStaff || sess.IsStaff) && flowSess.EmployeeID == 0 {
		sess.Set("room_id", roomID)
		b.setStep(ctx, sess, StepEmployeeID)
		b.reply(chatID, "Укажите ID сотрудника, оформляющего заселение:")
		return
	}

	needExplicit := b.config.Behavior.RequireExplicitCustomerID || flowSess.CustomerID == 0
	if needExplicit {
		sess.Set("room_id", roomID)
		b.setStep(ctx, sess, StepCustomerID)
		b.reply(chatID, "Укажите ID клиента для оформления:")
		return
	}

	b.confirmStay(ctx, chatID, userID, sess, roomID, 0)
}

func (b *Bot) confirmStay(ctx context.Context, chatID, userID int64, sess *models.Session, roomID, explicitCustomerID int64) {
	b.clearStep(ctx, sess)

	ctrl := b.flowFor(ctx, userID)
	kind := "Бронь"
	if ctrl.Session().IsStaff {
		kind = "Заселение"
	}

	if err := ctrl.ConfirmStay(ctx, roomID, explicitCustomerID); err != nil {
		switch {
		case errors.Is(err, flow.ErrBusy):
			b.reply(chatID, "Предыдущая операция ещё выполняется, подождите.")
		case errors.Is(err, flow.ErrNotReady):
			b.reply(chatID, "Сначала выполните поиск: /search")
		case errors.Is(err, flow.ErrNoCustomer):
			sess.Set("room_id", roomID)
			b.setStep(ctx, sess, StepCustomerID)
			b.reply(chatID, "Укажите ID клиента для оформления:")
		default:
			b.reply(chatID, kind+" не удалась: "+flow.DisplayMessage(err))
			ctrl.Acknowledge()
		}
		return
	}

	criteria := ctrl.Criteria()
	b.reply(chatID, fmt.Sprintf("✅ %s оформлена: номер %d, %s → %s.\nСписок: /mybookings",
		kind, roomID, criteria.StartDate.String(), criteria.EndDate.String()))
	ctrl.Acknowledge()
}

func (b *Bot) showOccupancy(ctx context.Context, chatID int64) {
	capacity, err := b.api.RoomCapacityView(ctx)
	if err != nil {
		b.reply(chatID, "Сводка недоступна: "+flow.DisplayMessage(err))
		return
	}
	areas, err := b.api.RoomAreaView(ctx)
	if err != nil {
		b.reply(chatID, "Сводка недоступна: "+flow.DisplayMessage(err))
		return
	}

	text := "Номера по отелям:\n"
	for _, row := range capacity {
		text += fmt.Sprintf("• %s — вместимость %d: %d ном.\n", row.HotelName, row.Capacity, row.RoomCount)
	}
	text += "\nСвободные номера по районам:\n"
	for _, row := range areas {
		text += fmt.Sprintf("• %s: %d ном.\n", row.Area, row.RoomCount)
	}
	b.reply(chatID, text)
}
