package attendance

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campusattend/internal/geo"
)

func TestInsertRecord_Defaults(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	created := time.Now().UTC()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO attendance_records")).
		WithArgs(sqlmock.AnyArg(), "user-1", "CS101", "manual", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), StatusPresent).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(created))

	repo := NewRepository(db)
	rec, err := repo.InsertRecord(context.Background(), Record{
		UserID:  "user-1",
		ClassID: "CS101",
		Method:  MethodManual,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, rec.ID, "id is generated when absent")
	assert.Equal(t, StatusPresent, rec.Status)
	assert.Equal(t, created, rec.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordForDay_NoneIsNil(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("FROM attendance_records")).
		WithArgs("user-1", "CS101", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "class_id", "method", "check_in_time", "lat", "lng", "status", "created_at"}))

	repo := NewRepository(db)
	rec, err := repo.RecordForDay(context.Background(), "user-1", "CS101", time.Now())
	require.NoError(t, err)
	assert.Nil(t, rec)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListByUser_ScansLocation(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"id", "user_id", "class_id", "method", "check_in_time", "lat", "lng", "status", "created_at"}).
		AddRow("rec-1", "user-1", "CS101", "geolocation", now, 12.97, 77.59, StatusPresent, now).
		AddRow("rec-2", "user-1", "CS201", "manual", now, nil, nil, StatusPresent, now)
	mock.ExpectQuery(regexp.QuoteMeta("FROM attendance_records")).
		WithArgs("user-1", 50, 0).
		WillReturnRows(rows)

	repo := NewRepository(db)
	records, err := repo.ListByUser(context.Background(), "user-1", 0, -1)
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.NotNil(t, records[0].Location)
	assert.Equal(t, geo.Position{Lat: 12.97, Lng: 77.59}, *records[0].Location)
	assert.Nil(t, records[1].Location)
	assert.Equal(t, MethodGeolocation, records[0].Method)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateRecordStatus(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("UPDATE attendance_records SET status")).
		WithArgs("rec-1", StatusFlagged).
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := NewRepository(db)
	require.NoError(t, repo.UpdateRecordStatus(context.Background(), "rec-1", StatusFlagged))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetCourse_Unknown(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("FROM courses")).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "code", "instructor_id", "department", "credits", "lat", "lng", "created_at"}))

	repo := NewRepository(db)
	c, err := repo.GetCourse(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, c)
	assert.NoError(t, mock.ExpectationsWereMet())
}
