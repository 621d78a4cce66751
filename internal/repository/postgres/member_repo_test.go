package postgres

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flockmanager/internal/domain"
)

var memberColumns = []string{"id", "name", "uo_id", "email", "role_name", "workplace_name"}

func TestMemberRepository_GetByID(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		mock    func(mock sqlmock.Sqlmock)
		want    *domain.Member
		wantErr error
	}{
		{
			name: "found",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`FROM members m\s+LEFT JOIN roles r`).
					WithArgs(int64(1)).
					WillReturnRows(sqlmock.NewRows(memberColumns).
						AddRow(1, "Jane Doe", "951000001", "jane@example.com", "member", "Library"))
			},
			want: &domain.Member{ID: 1, Name: "Jane Doe", UOID: "951000001", Email: "jane@example.com", RoleName: "member", WorkplaceName: "Library"},
		},
		{
			name: "not found",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`FROM members m`).
					WithArgs(int64(1)).
					WillReturnError(sql.ErrNoRows)
			},
			wantErr: domain.ErrNotFound,
		},
		{
			name: "connection failure",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`FROM members m`).
					WithArgs(int64(1)).
					WillReturnError(&pq.Error{Code: "08006", Message: "connection failure"})
			},
			wantErr: domain.ErrUnavailable,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			tt.mock(mock)
			got, err := NewMemberRepository(db).GetByID(ctx, 1)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
			}
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestMemberRepository_GetByEmail(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`WHERE LOWER\(m.email\) = LOWER\(\$1\)`).
		WithArgs("jane@example.com").
		WillReturnRows(sqlmock.NewRows(memberColumns).
			AddRow(1, "Jane Doe", "", "Jane@Example.com", "", ""))

	m, err := NewMemberRepository(db).GetByEmail(context.Background(), "jane@example.com")
	require.NoError(t, err)
	assert.Equal(t, int64(1), m.ID)
	assert.Equal(t, "Jane@Example.com", m.Email)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMemberRepository_ListByNormalizedName(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`REGEXP_REPLACE`).
		WithArgs("Jane Doe", 2).
		WillReturnRows(sqlmock.NewRows(memberColumns).
			AddRow(1, "Jane  Doe", "", "jane@example.com", "", "").
			AddRow(7, "jane doe", "", "jane.d@example.com", "", ""))

	got, err := NewMemberRepository(db).ListByNormalizedName(context.Background(), "Jane Doe", 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, int64(1), got[0].ID)
	assert.Equal(t, int64(7), got[1].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMemberRepository_ListByNormalizedName_empty(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`REGEXP_REPLACE`).
		WithArgs("Nobody", 2).
		WillReturnRows(sqlmock.NewRows(memberColumns))

	got, err := NewMemberRepository(db).ListByNormalizedName(context.Background(), "Nobody", 2)
	require.NoError(t, err)
	assert.Empty(t, got)
	require.NoError(t, mock.ExpectationsWereMet())
}
