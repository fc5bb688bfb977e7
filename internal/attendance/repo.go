package attendance

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"campusattend/internal/geo"
)

// Repository persists attendance records and courses in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// InsertRecord writes a new attendance record.
func (r *Repository) InsertRecord(ctx context.Context, rec Record) (Record, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CheckInTime.IsZero() {
		rec.CheckInTime = time.Now().UTC()
	}
	if rec.Status == "" {
		rec.Status = StatusPresent
	}
	lat, lng := nullCoords(rec.Location)
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO attendance_records (id, user_id, class_id, method, check_in_time, lat, lng, status)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING created_at
	`, rec.ID, rec.UserID, rec.ClassID, string(rec.Method), rec.CheckInTime, lat, lng, rec.Status)
	if err := row.Scan(&rec.CreatedAt); err != nil {
		return Record{}, err
	}
	return rec, nil
}

// RecordForDay returns the user's record for a course on the given day,
// or nil when none exists. Backs the one-mark-per-day rule.
func (r *Repository) RecordForDay(ctx context.Context, userID, classID string, day time.Time) (*Record, error) {
	start := day.UTC().Truncate(24 * time.Hour)
	end := start.Add(24 * time.Hour)
	row := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, class_id, method, check_in_time, lat, lng, status, created_at
		FROM attendance_records
		WHERE user_id = $1 AND class_id = $2 AND created_at >= $3 AND created_at < $4
		ORDER BY created_at DESC
		LIMIT 1
	`, userID, classID, start, end)
	rec, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &rec, nil
}

// GetRecord returns a single record by id.
func (r *Repository) GetRecord(ctx context.Context, id string) (Record, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, class_id, method, check_in_time, lat, lng, status, created_at
		FROM attendance_records WHERE id = $1
	`, id)
	return scanRecord(row)
}

// UpdateRecordStatus re-marks a record after policy checks.
func (r *Repository) UpdateRecordStatus(ctx context.Context, id, status string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE attendance_records SET status = $2 WHERE id = $1
	`, id, status)
	return err
}

// ListByUser returns a user's records, newest first.
func (r *Repository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]Record, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, class_id, method, check_in_time, lat, lng, status, created_at
		FROM attendance_records
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, rec)
	}
	return res, rows.Err()
}

// InsertCourse writes a catalog entry.
func (r *Repository) InsertCourse(ctx context.Context, c Course) (Course, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	lat, lng := nullCoords(c.Location)
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO courses (id, name, code, instructor_id, department, credits, lat, lng)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING created_at
	`, c.ID, c.Name, c.Code, c.Instructor, c.Department, c.Credits, lat, lng)
	if err := row.Scan(&c.CreatedAt); err != nil {
		return Course{}, err
	}
	return c, nil
}

// GetCourse returns a course by id, or nil when unknown.
func (r *Repository) GetCourse(ctx context.Context, id string) (*Course, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, code, instructor_id, department, credits, lat, lng, created_at
		FROM courses WHERE id = $1
	`, id)
	c, err := scanCourse(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

// ListCourses returns the catalog ordered by code.
func (r *Repository) ListCourses(ctx context.Context) ([]Course, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, code, instructor_id, department, credits, lat, lng, created_at
		FROM courses ORDER BY code
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []Course
	for rows.Next() {
		c, err := scanCourse(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, c)
	}
	return res, rows.Err()
}

// CountCourses reports catalog size; used to decide whether to seed.
func (r *Repository) CountCourses(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM courses`).Scan(&n)
	return n, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (Record, error) {
	var (
		rec      Record
		method   string
		lat, lng sql.NullFloat64
	)
	if err := row.Scan(&rec.ID, &rec.UserID, &rec.ClassID, &method, &rec.CheckInTime, &lat, &lng, &rec.Status, &rec.CreatedAt); err != nil {
		return Record{}, err
	}
	rec.Method = Method(method)
	rec.Location = coords(lat, lng)
	return rec, nil
}

func scanCourse(row rowScanner) (Course, error) {
	var (
		c        Course
		lat, lng sql.NullFloat64
	)
	if err := row.Scan(&c.ID, &c.Name, &c.Code, &c.Instructor, &c.Department, &c.Credits, &lat, &lng, &c.CreatedAt); err != nil {
		return Course{}, err
	}
	c.Location = coords(lat, lng)
	return c, nil
}

func nullCoords(p *geo.Position) (lat, lng sql.NullFloat64) {
	if p == nil {
		return
	}
	return sql.NullFloat64{Float64: p.Lat, Valid: true}, sql.NullFloat64{Float64: p.Lng, Valid: true}
}

func coords(lat, lng sql.NullFloat64) *geo.Position {
	if !lat.Valid || !lng.Valid {
		return nil
	}
	return &geo.Position{Lat: lat.Float64, Lng: lng.Float64}
}
