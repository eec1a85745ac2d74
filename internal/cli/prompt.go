package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"roomscout/internal/models"
)

func (a *App) printf(format string, args ...interface{}) {
	fmt.Fprintf(a.out, format, args...)
}

// prompt reads one trimmed line; ok is false when the input is closed.
func (a *App) prompt(label string) (string, bool) {
	fmt.Fprint(a.out, label)
	if !a.in.Scan() {
		return "", false
	}
	return strings.TrimSpace(a.in.Text()), true
}

// spinner prints a dot every half second until stopped. Индикатор
// загрузки, не прогресс.
func (a *App) spinner(label string) (stop func()) {
	done := make(chan struct{})
	finished := make(chan struct{})

	go func() {
		defer close(finished)
		fmt.Fprint(a.out, label)
		ticker := time.NewTicker(500 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				fmt.Fprintln(a.out)
				return
			case <-ticker.C:
				fmt.Fprint(a.out, ".")
			}
		}
	}()

	return func() {
		close(done)
		<-finished
	}
}

// readCriteria задаёт вопросы поисковой формы
func (a *App) readCriteria() (models.SearchCriteria, bool) {
	var criteria models.SearchCriteria

	raw, ok := a.prompt("Дата заезда (ГГГГ-ММ-ДД): ")
	if !ok {
		return criteria, false
	}
	if d, err := models.ParseDate(raw); err == nil {
		criteria.StartDate = d
	} else if raw != "" {
		a.printf("Некорректная дата, поле останется пустым.\n")
	}

	raw, ok = a.prompt("Дата выезда (ГГГГ-ММ-ДД): ")
	if !ok {
		return criteria, false
	}
	if d, err := models.ParseDate(raw); err == nil {
		criteria.EndDate = d
	} else if raw != "" {
		a.printf("Некорректная дата, поле останется пустым.\n")
	}

	raw, ok = a.prompt("Вместимость (пусто — любая): ")
	if !ok {
		return criteria, false
	}
	if raw != "" {
		if capacity, err := strconv.Atoi(raw); err == nil && capacity > 0 {
			criteria.Capacity = capacity
		}
	}

	raw, ok = a.prompt("Вид из окна (пусто — любой): ")
	if !ok {
		return criteria, false
	}
	criteria.View = raw

	raw, ok = a.prompt("Сеть отелей (пусто — любая): ")
	if !ok {
		return criteria, false
	}
	criteria.HotelChain = raw

	raw, ok = a.prompt("Категория отеля 1-5 (пусто — любая): ")
	if !ok {
		return criteria, false
	}
	if raw != "" {
		if category, err := strconv.Atoi(raw); err == nil && category > 0 {
			criteria.HotelCategory = category
		}
	}

	raw, ok = a.prompt("Максимальная цена (пусто — любая): ")
	if !ok {
		return criteria, false
	}
	if raw != "" {
		if price, err := strconv.ParseFloat(raw, 64); err == nil && price > 0 {
			criteria.MaxPrice = price
		}
	}

	return criteria, true
}

func (a *App) printRooms(rooms []models.Room) {
	a.printf("Найдено номеров: %d\n\n", len(rooms))
	for _, room := range rooms {
		a.printf("Номер #%d — %s", room.RoomID, room.HotelName)
		if room.ChainName != "" {
			a.printf(" (%s)", room.ChainName)
		}
		a.printf("\n  %.2f ₽/ночь, мест: %d", room.Price, room.Capacity)
		if v := room.ViewLabel(); v != "" {
			a.printf(", вид: %s", v)
		}
		if len(room.Amenities) > 0 {
			a.printf("\n  Удобства: %s", strings.Join(room.Amenities, ", "))
		}
		a.printf("\n\n")
	}
	a.printf("book <номер> — оформить.\n")
}
