package postgres

import (
	"context"
	"database/sql"

	"flockmanager/internal/domain"
)

type attendanceRepository struct {
	DB *sql.DB
}

func NewAttendanceRepository(db *sql.DB) domain.AttendanceRepository {
	return &attendanceRepository{DB: db}
}

func (r *attendanceRepository) Exists(ctx context.Context, memberID, eventID int64) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM attendance WHERE member_id = $1 AND event_id = $2)`
	var exists bool
	if err := r.DB.QueryRowContext(ctx, query, memberID, eventID).Scan(&exists); err != nil {
		return false, mapError(err)
	}
	return exists, nil
}

// Create relies on the (member_id, event_id) unique constraint; a concurrent
// duplicate surfaces as domain.ErrAlreadyCheckedIn.
func (r *attendanceRepository) Create(ctx context.Context, a *domain.Attendance) error {
	query := `
		INSERT INTO attendance (member_id, event_id, qr_code_token)
		VALUES ($1, $2, $3)
		RETURNING id, check_in_time
	`
	token := sql.NullString{String: a.QRCodeToken, Valid: a.QRCodeToken != ""}
	err := r.DB.QueryRowContext(ctx, query, a.MemberID, a.EventID, token).Scan(&a.ID, &a.CheckInTime)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrAlreadyCheckedIn
		}
		return mapError(err)
	}
	return nil
}

func (r *attendanceRepository) ListByEvent(ctx context.Context, eventID int64, params domain.PaginationParams) (*domain.AttendancePage, error) {
	page := &domain.AttendancePage{Items: []*domain.AttendanceEntry{}}
	var first, last sql.NullTime
	err := r.DB.QueryRowContext(ctx,
		`SELECT COUNT(*), MIN(check_in_time), MAX(check_in_time) FROM attendance WHERE event_id = $1`,
		eventID,
	).Scan(&page.Summary.Total, &first, &last)
	if err != nil {
		return nil, mapError(err)
	}
	if first.Valid {
		page.Summary.FirstCheckIn = &first.Time
	}
	if last.Valid {
		page.Summary.LastCheckIn = &last.Time
	}
	if page.Summary.Total == 0 {
		return page, nil
	}

	query := `
		SELECT a.id, a.member_id, a.event_id, COALESCE(a.qr_code_token, ''), a.check_in_time,
		       m.name, m.email
		FROM attendance a
		JOIN members m ON m.id = a.member_id
		WHERE a.event_id = $1
		ORDER BY a.check_in_time, a.id
		LIMIT $2 OFFSET $3
	`
	rows, err := r.DB.QueryContext(ctx, query, eventID, params.PageSize, params.Offset())
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	for rows.Next() {
		e := &domain.AttendanceEntry{}
		if err := rows.Scan(&e.ID, &e.MemberID, &e.EventID, &e.QRCodeToken, &e.CheckInTime, &e.MemberName, &e.MemberEmail); err != nil {
			return nil, mapError(err)
		}
		page.Items = append(page.Items, e)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return page, nil
}
