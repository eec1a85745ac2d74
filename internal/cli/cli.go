// Package cli is the terminal front end: line-oriented prompts over the
// booking flow. Like the bot it only dispatches intents and renders state.
package cli

import (
	"bufio"
	"context"
	"errors"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"roomscout/internal/client"
	"roomscout/internal/config"
	"roomscout/internal/export"
	"roomscout/internal/flow"
	"roomscout/internal/history"
	"roomscout/internal/models"

	"github.com/rs/zerolog"
)

type App struct {
	api     *client.Client
	ctrl    *flow.Controller
	db      *history.DB
	cfg     *config.Config
	presets []config.SearchPreset
	logger  *zerolog.Logger

	in  *bufio.Scanner
	out io.Writer
}

func New(api *client.Client, ctrl *flow.Controller, db *history.DB, cfg *config.Config, presets []config.SearchPreset, logger *zerolog.Logger) *App {
	if logger == nil {
		l := zerolog.New(os.Stdout).With().Timestamp().Logger()
		logger = &l
	}
	return &App{
		api:     api,
		ctrl:    ctrl,
		db:      db,
		cfg:     cfg,
		presets: presets,
		logger:  logger,
		in:      bufio.NewScanner(os.Stdin),
		out:     os.Stdout,
	}
}

// Run is the REPL. It returns when the input closes, the user quits, or
// the context is canceled.
func (a *App) Run(ctx context.Context) error {
	a.printf("Поиск отелей. Наберите help для списка команд.\n")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line, ok := a.prompt("> ")
		if !ok {
			return nil
		}
		if line == "" {
			continue
		}

		cmd, arg := splitCommand(line)
		switch cmd {
		case "help":
			a.printHelp()
		case "search":
			a.runSearch(ctx)
		case "preset":
			a.runPreset(ctx, arg)
		case "register":
			a.runRegister(ctx)
		case "book":
			a.runBook(ctx, arg)
		case "stays":
			a.showStays(ctx)
		case "chains":
			a.showChains(ctx)
		case "views":
			a.showViews(ctx)
		case "export":
			a.runExport(ctx)
		case "staff":
			a.enableStaff(arg)
		case "customer":
			a.setCustomer(arg)
		case "reset":
			a.ctrl.Reset()
			a.printf("Сброшено.\n")
		case "quit", "exit":
			return nil
		default:
			a.printf("Неизвестная команда %q. Наберите help.\n", cmd)
		}
	}
}

func (a *App) printHelp() {
	a.printf(`Команды:
  search            пошаговый поиск свободных номеров
  preset <имя>      поиск по сохранённому фильтру
  register          регистрация гостя
  book <номер>      оформить бронь (или заселение в режиме staff)
  stays             брони и заселения гостя
  chains            список сетей отелей
  views             сводка по вместимости и районам
  export            выгрузка истории гостя в Excel
  staff <id>        режим заселения с ID сотрудника
  customer <id>     выбрать активного гостя
  reset             сбросить текущий поиск
  quit              выход
`)
}

func (a *App) runSearch(ctx context.Context) {
	criteria, ok := a.readCriteria()
	if !ok {
		return
	}

	stop := a.spinner("Ищу свободные номера")
	rooms, err := a.ctrl.Search(ctx, criteria)
	stop()

	if err != nil {
		if errors.Is(err, flow.ErrSuperseded) {
			return
		}
		a.printf("Поиск не удался: %s\n", flow.DisplayMessage(err))
		a.ctrl.Acknowledge()
		return
	}

	if len(rooms) == 0 {
		a.printf("Свободных номеров нет. Попробуйте другие даты.\n")
		return
	}
	a.printRooms(rooms)
}

func (a *App) runPreset(ctx context.Context, name string) {
	if name == "" {
		if len(a.presets) == 0 {
			a.printf("Сохранённых фильтров нет.\n")
			return
		}
		a.printf("Фильтры:\n")
		for _, p := range a.presets {
			a.printf("  %s\n", p.Name)
		}
		return
	}

	for _, p := range a.presets {
		if !strings.EqualFold(p.Name, name) {
			continue
		}
		nights := p.Nights
		if nights <= 0 {
			nights = 1
		}
		start := time.Now().AddDate(0, 0, 1)
		criteria := models.SearchCriteria{
			StartDate:     models.DateOf(start),
			EndDate:       models.DateOf(start.AddDate(0, 0, nights)),
			Capacity:      p.Capacity,
			View:          p.View,
			HotelChain:    p.HotelChain,
			HotelCategory: p.HotelCategory,
			MaxPrice:      p.MaxPrice,
		}

		stop := a.spinner("Ищу свободные номера")
		rooms, err := a.ctrl.Search(ctx, criteria)
		stop()

		if err != nil {
			a.printf("Поиск не удался: %s\n", flow.DisplayMessage(err))
			a.ctrl.Acknowledge()
			return
		}
		a.printRooms(rooms)
		return
	}
	a.printf("Фильтр %q не найден.\n", name)
}

func (a *App) runRegister(ctx context.Context) {
	first, ok := a.prompt("Имя: ")
	if !ok {
		return
	}
	last, ok := a.prompt("Фамилия: ")
	if !ok {
		return
	}
	address, ok := a.prompt("Адрес: ")
	if !ok {
		return
	}

	customer, err := a.ctrl.RegisterCustomer(ctx, models.CustomerForm{
		FirstName: first,
		LastName:  last,
		Address:   address,
	})
	if err != nil {
		a.printf("Регистрация не удалась: %s\n", flow.DisplayMessage(err))
		a.ctrl.Acknowledge()
		return
	}
	a.printf("Гость зарегистрирован, ID клиента: %d\n", customer.CustomerID)
}

func (a *App) runBook(ctx context.Context, arg string) {
	roomID, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || roomID <= 0 {
		a.printf("Использование: book <номер>\n")
		return
	}

	var explicitID int64
	if a.cfg.Behavior.RequireExplicitCustomerID || a.ctrl.Session().CustomerID == 0 {
		raw, ok := a.prompt("ID клиента: ")
		if !ok {
			return
		}
		explicitID, err = strconv.ParseInt(raw, 10, 64)
		if err != nil || explicitID <= 0 {
			a.printf("Нужен числовой ID клиента.\n")
			return
		}
	}

	kind := "Бронь"
	if a.ctrl.Session().IsStaff {
		kind = "Заселение"
	}

	stop := a.spinner("Оформляю")
	err = a.ctrl.ConfirmStay(ctx, roomID, explicitID)
	stop()

	if err != nil {
		switch {
		case errors.Is(err, flow.ErrNotReady):
			a.printf("Сначала выполните поиск.\n")
		case errors.Is(err, flow.ErrBusy):
			a.printf("Предыдущая операция ещё выполняется.\n")
		default:
			a.printf("%s не удалась: %s\n", kind, flow.DisplayMessage(err))
			a.ctrl.Acknowledge()
		}
		return
	}

	criteria := a.ctrl.Criteria()
	a.printf("✅ %s оформлена: номер %d, %s → %s\n", kind, roomID, criteria.StartDate.String(), criteria.EndDate.String())
	a.ctrl.Acknowledge()
}

func (a *App) showStays(ctx context.Context) {
	customerID := a.ctrl.Session().CustomerID
	if customerID == 0 {
		a.printf("Сначала register или customer <id>.\n")
		return
	}

	a.ctrl.RefreshStays(ctx, customerID)

	bookings := a.ctrl.Bookings()
	rentings := a.ctrl.Rentings()
	if len(bookings) == 0 && len(rentings) == 0 {
		a.printf("Пока нет ни броней, ни заселений.\n")
		return
	}
	for _, bk := range bookings {
		a.printf("Бронь #%d — номер %d, %s → %s (%s)\n", bk.BookingID, bk.RoomID, bk.StartDate.String(), bk.EndDate.String(), bk.Status)
	}
	for _, r := range rentings {
		a.printf("Заселение #%d — номер %d, %s → %s (%s)\n", r.RentingID, r.RoomID, r.StartDate.String(), r.EndDate.String(), r.Status)
	}
}

func (a *App) showChains(ctx context.Context) {
	chains, err := a.api.ListHotelChains(ctx)
	if err != nil {
		a.printf("Не удалось загрузить сети: %s\n", flow.DisplayMessage(err))
		return
	}
	for _, c := range chains {
		a.printf("• %s\n", c.Name)
	}
}

func (a *App) showViews(ctx context.Context) {
	capacity, err := a.api.RoomCapacityView(ctx)
	if err != nil {
		a.printf("Сводка недоступна: %s\n", flow.DisplayMessage(err))
		return
	}
	areas, err := a.api.RoomAreaView(ctx)
	if err != nil {
		a.printf("Сводка недоступна: %s\n", flow.DisplayMessage(err))
		return
	}

	a.printf("Номера по отелям:\n")
	for _, row := range capacity {
		a.printf("  %s — вместимость %d: %d ном.\n", row.HotelName, row.Capacity, row.RoomCount)
	}
	a.printf("Свободные номера по районам:\n")
	for _, row := range areas {
		a.printf("  %s: %d ном.\n", row.Area, row.RoomCount)
	}
}

func (a *App) runExport(ctx context.Context) {
	if a.db == nil {
		a.printf("Экспорт недоступен: история не ведётся.\n")
		return
	}
	customerID := a.ctrl.Session().CustomerID
	if customerID == 0 {
		a.printf("Сначала register или customer <id>.\n")
		return
	}

	path, err := export.CustomerStays(ctx, a.db, a.cfg.Exports.Path, customerID)
	if err != nil {
		a.logger.Error().Err(err).Int64("customer_id", customerID).Msg("Export failed")
		a.printf("Не удалось сформировать файл экспорта.\n")
		return
	}
	a.printf("Файл сохранён: %s\n", path)
}

func (a *App) enableStaff(arg string) {
	employeeID, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || employeeID <= 0 {
		a.printf("Использование: staff <id сотрудника>\n")
		return
	}
	a.ctrl.SetStaff(employeeID)
	a.printf("Режим заселения включён (сотрудник %d).\n", employeeID)
}

func (a *App) setCustomer(arg string) {
	customerID, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || customerID <= 0 {
		a.printf("Использование: customer <id клиента>\n")
		return
	}
	a.ctrl.SetCustomer(customerID)
	a.printf("Активный гость: %d\n", customerID)
}

func splitCommand(line string) (string, string) {
	parts := strings.SplitN(line, " ", 2)
	cmd := strings.ToLower(parts[0])
	if len(parts) == 1 {
		return cmd, ""
	}
	return cmd, strings.TrimSpace(parts[1])
}
