package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	_ "github.com/mattn/go-sqlite3"
	"github.com/mbenaiss/lexchat/models"
	"github.com/pkg/errors"
)

// DB stores the local booking ledger in SQLite
type DB interface {
	StoreBooking(ctx context.Context, b models.Booking) error
	GetBooking(ctx context.Context, id string) (*models.Booking, error)
	ListBookings(ctx context.Context, counterpartyID string, limit int) ([]models.Booking, error)
	Close() error
}

type db struct {
	db *sql.DB
}

// NewDB opens (or creates) the ledger under dir
func NewDB(ctx context.Context, dir string) (DB, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.Wrap(err, "failed to create store directory")
	}

	conn, err := sql.Open("sqlite3", fmt.Sprintf("file:%s/bookings.db?_busy_timeout=5000", dir))
	if err != nil {
		return nil, errors.Wrap(err, "failed to open booking database")
	}

	d := &db{conn}
	if err := d.initDB(ctx); err != nil {
		conn.Close()
		return nil, errors.Wrap(err, "failed to initialize database")
	}

	return d, nil
}

func (s *db) initDB(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `PRAGMA journal_mode = WAL;`)
	if err != nil {
		return errors.Wrap(err, "failed to set journal mode")
	}

	_, err = s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS bookings (
			id TEXT PRIMARY KEY,
			counterparty_id TEXT NOT NULL,
			appointment_id TEXT,
			session_id TEXT,
			price REAL,
			outcome TEXT NOT NULL,
			error TEXT,
			created_at TIMESTAMP,
			updated_at TIMESTAMP
		);
	`)
	if err != nil {
		return errors.Wrap(err, "failed to create bookings table")
	}

	_, err = s.db.ExecContext(ctx, `CREATE INDEX IF NOT EXISTS idx_bookings_counterparty_created ON bookings(counterparty_id, created_at);`)
	if err != nil {
		return errors.Wrap(err, "failed to create counterparty index")
	}

	return nil
}

func (s *db) Close() error {
	return s.db.Close()
}

// StoreBooking inserts a booking or updates it by id
func (s *db) StoreBooking(ctx context.Context, b models.Booking) error {
	if b.ID == "" {
		return errors.New("booking id is required")
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO bookings
		(id, counterparty_id, appointment_id, session_id, price, outcome, error, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			appointment_id = excluded.appointment_id,
			session_id = excluded.session_id,
			outcome = excluded.outcome,
			error = excluded.error,
			updated_at = excluded.updated_at`,
		b.ID, b.CounterpartyID, b.AppointmentID, b.SessionID, b.Price, string(b.Outcome), b.Error, b.CreatedAt, b.UpdatedAt,
	)
	return errors.Wrap(err, "failed to store booking")
}

// GetBooking returns the booking with id, or nil when there is none
func (s *db) GetBooking(ctx context.Context, id string) (*models.Booking, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, counterparty_id, appointment_id, session_id, price, outcome, error, created_at, updated_at
		FROM bookings WHERE id = ?`,
		id,
	)

	b, err := scanBooking(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get booking")
	}
	return &b, nil
}

// ListBookings returns the latest bookings first. An empty counterpartyID
// lists all of them.
func (s *db) ListBookings(ctx context.Context, counterpartyID string, limit int) ([]models.Booking, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `SELECT id, counterparty_id, appointment_id, session_id, price, outcome, error, created_at, updated_at FROM bookings`
	args := []any{}
	if counterpartyID != "" {
		query += ` WHERE counterparty_id = ?`
		args = append(args, counterpartyID)
	}
	query += ` ORDER BY created_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list bookings")
	}
	defer rows.Close()

	var bookings []models.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan booking")
		}
		bookings = append(bookings, b)
	}

	return bookings, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanBooking(row scanner) (models.Booking, error) {
	var (
		b       models.Booking
		outcome string
		appt    sql.NullString
		session sql.NullString
		msg     sql.NullString
	)
	err := row.Scan(&b.ID, &b.CounterpartyID, &appt, &session, &b.Price, &outcome, &msg, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return models.Booking{}, err
	}
	b.AppointmentID = appt.String
	b.SessionID = session.String
	b.Error = msg.String
	b.Outcome = models.BookingOutcome(outcome)
	return b, nil
}
