// Package history keeps a local log of confirmed stays so the export and
// /mybookings features work without re-querying the backend. It is a
// client-side convenience, not the system of record.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"roomscout/internal/models"

	_ "github.com/mattn/go-sqlite3"
)

// Stay is one confirmed booking or renting as logged locally.
type Stay struct {
	ID         int64
	Kind       string // booking or renting
	RecordID   int64  // backend bookingid/rentingid
	RoomID     int64
	CustomerID int64
	EmployeeID int64
	StartDate  models.DateOnly
	EndDate    models.DateOnly
	Status     string
	HotelName  string
	Price      float64
	CreatedAt  time.Time
}

type DB struct {
	db *sql.DB
}

func New(path string) (*DB, error) {
	// Создаем директорию для БД, если её нет
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %v", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %v", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to history database: %v", err)
	}

	if err := createTables(db); err != nil {
		return nil, fmt.Errorf("failed to create tables: %v", err)
	}

	return &DB{db: db}, nil
}

func createTables(db *sql.DB) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS stays (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            kind TEXT NOT NULL,
            record_id INTEGER NOT NULL,
            room_id INTEGER NOT NULL,
            customer_id INTEGER NOT NULL,
            employee_id INTEGER,
            start_date TEXT NOT NULL,
            end_date TEXT NOT NULL,
            status TEXT,
            hotel_name TEXT,
            price REAL,
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP
        )`,
		`CREATE TABLE IF NOT EXISTS mirror_queue (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            task_type TEXT NOT NULL,
            record_id INTEGER NOT NULL,
            payload TEXT NOT NULL,
            status TEXT NOT NULL DEFAULT 'pending',
            retry_count INTEGER NOT NULL DEFAULT 0,
            last_error TEXT,
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
            processed_at DATETIME,
            next_retry_at DATETIME
        )`,

		`CREATE INDEX IF NOT EXISTS idx_stays_customer_id ON stays(customer_id)`,
		`CREATE INDEX IF NOT EXISTS idx_stays_kind ON stays(kind)`,
		`CREATE INDEX IF NOT EXISTS idx_mirror_queue_status ON mirror_queue(status)`,
	}

	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("error executing query %s: %v", query, err)
		}
	}
	return nil
}

func (d *DB) Close() error {
	return d.db.Close()
}

// AppendStay logs one confirmed stay.
func (d *DB) AppendStay(ctx context.Context, stay *Stay) error {
	query := `INSERT INTO stays (kind, record_id, room_id, customer_id, employee_id, start_date, end_date, status, hotel_name, price, created_at)
              VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	now := time.Now()
	result, err := d.db.ExecContext(ctx, query,
		stay.Kind,
		stay.RecordID,
		stay.RoomID,
		stay.CustomerID,
		stay.EmployeeID,
		stay.StartDate.String(),
		stay.EndDate.String(),
		stay.Status,
		stay.HotelName,
		stay.Price,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to append stay: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	stay.ID = id
	stay.CreatedAt = now
	return nil
}

// StaysByCustomer returns the customer's logged stays, newest first.
func (d *DB) StaysByCustomer(ctx context.Context, customerID int64) ([]Stay, error) {
	query := `SELECT id, kind, record_id, room_id, customer_id, employee_id, start_date, end_date, status, hotel_name, price, created_at
              FROM stays WHERE customer_id = ? ORDER BY created_at DESC`
	rows, err := d.db.QueryContext(ctx, query, customerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query stays: %w", err)
	}
	defer rows.Close()

	return scanStays(rows)
}

// RecentStays returns the latest logged stays up to limit.
func (d *DB) RecentStays(ctx context.Context, limit int) ([]Stay, error) {
	query := `SELECT id, kind, record_id, room_id, customer_id, employee_id, start_date, end_date, status, hotel_name, price, created_at
              FROM stays ORDER BY created_at DESC LIMIT ?`
	rows, err := d.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query stays: %w", err)
	}
	defer rows.Close()

	return scanStays(rows)
}

func scanStays(rows *sql.Rows) ([]Stay, error) {
	var stays []Stay
	for rows.Next() {
		var s Stay
		var start, end string
		err := rows.Scan(
			&s.ID, &s.Kind, &s.RecordID, &s.RoomID, &s.CustomerID, &s.EmployeeID,
			&start, &end, &s.Status, &s.HotelName, &s.Price, &s.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan stay: %w", err)
		}
		if d, err := models.ParseDate(start); err == nil {
			s.StartDate = d
		}
		if d, err := models.ParseDate(end); err == nil {
			s.EndDate = d
		}
		stays = append(stays, s)
	}
	return stays, rows.Err()
}
