package enrollment

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recogym/internal/apperr"
	"recogym/internal/db"
	"recogym/internal/gymclass"
	"recogym/internal/ledger"
	"recogym/internal/member"
	"recogym/internal/notify"
)

var (
	enrollmentRowColumns = []string{"id", "member_id", "class_id", "ledger_entry_id", "enrolled_at"}
	memberRowColumns     = []string{"id", "code", "first_name", "last_name", "phone", "email", "address",
		"type", "status", "user_id", "registered_at"}
	classRowColumns = []string{"id", "code", "name", "description", "trainer_id", "starts_at",
		"duration_minutes", "max_participants", "price", "created_at"}
	entryRowColumns = []string{"id", "type", "payment_method", "amount", "description", "created_at",
		"sale_id", "member_id", "subscription_id", "enrollment_id"}
)

func setupMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	sqlxDB := sqlx.NewDb(mockDB, "sqlmock")
	return sqlxDB, mock, func() { sqlxDB.Close() }
}

func newSQLService(conn *sqlx.DB) Service {
	return NewService(db.NewTransactor(conn), NewRepository(conn), member.NewRepository(conn),
		gymclass.NewRepository(conn), ledger.NewRepository(conn), notify.Nop{})
}

func TestRepository_Insert(t *testing.T) {
	conn, mock, closeFn := setupMock(t)
	defer closeFn()
	repo := NewRepository(conn)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO enrollments (member_id, class_id, ledger_entry_id)")).
		WithArgs(1, 2, 5).
		WillReturnRows(sqlmock.NewRows(enrollmentRowColumns).AddRow(9, 1, 2, 5, time.Now()))

	e, err := repo.Insert(context.Background(), 1, 2, ledger.IntPtr(5))
	require.NoError(t, err)
	assert.Equal(t, 9, e.ID)
	require.NotNil(t, e.LedgerEntryID)
	assert.Equal(t, 5, *e.LedgerEntryID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_InsertDuplicate(t *testing.T) {
	conn, mock, closeFn := setupMock(t)
	defer closeFn()
	repo := NewRepository(conn)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO enrollments")).
		WillReturnError(&pq.Error{Code: "23505"})

	_, err := repo.Insert(context.Background(), 1, 2, nil)
	assert.ErrorIs(t, err, apperr.ErrDuplicateEnrollment)
}

func TestRepository_GetNotEnrolled(t *testing.T) {
	conn, mock, closeFn := setupMock(t)
	defer closeFn()
	repo := NewRepository(conn)

	mock.ExpectQuery(regexp.QuoteMeta("FROM enrollments WHERE member_id = $1 AND class_id = $2")).
		WithArgs(1, 2).
		WillReturnRows(sqlmock.NewRows(enrollmentRowColumns))

	_, err := repo.Get(context.Background(), 1, 2)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestRepository_ListByClass(t *testing.T) {
	conn, mock, closeFn := setupMock(t)
	defer closeFn()
	repo := NewRepository(conn)

	columns := append(append([]string{}, enrollmentRowColumns...), "member_code", "first_name", "last_name", "member_type")
	mock.ExpectQuery(regexp.QuoteMeta("JOIN members m ON m.id = e.member_id")).
		WithArgs(2).
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow(1, 4, 2, 10, time.Now(), "S004", "Ana", "Pérez", "external").
			AddRow(2, 5, 2, nil, time.Now(), "S005", "Luis", "Gómez", "internal"))

	details, err := repo.ListByClass(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, details, 2)
	assert.Equal(t, "S004", details[0].MemberCode)
	assert.Nil(t, details[1].LedgerEntryID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollLocksClassBeforeCounting(t *testing.T) {
	conn, mock, closeFn := setupMock(t)
	defer closeFn()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM members WHERE id = $1")).
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows(memberRowColumns).
			AddRow(1, "S001", "Ana", "Pérez", "", "", "", "external", "inactive", nil, time.Now()))
	mock.ExpectQuery(regexp.QuoteMeta("FROM classes c WHERE c.id = $1 FOR UPDATE")).
		WithArgs(2).
		WillReturnRows(sqlmock.NewRows(classRowColumns).
			AddRow(2, "YOGA1", "Yoga", "", nil, time.Now(), 60, 1, "150.00", time.Now()))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM enrollments WHERE class_id = $1")).
		WithArgs(2).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectRollback()

	_, err := newSQLService(conn).Enroll(context.Background(), 2, EnrollRequest{MemberID: 1, PaymentMethod: "cash"})

	assert.ErrorIs(t, err, apperr.ErrCapacityExceeded)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollCommitsEnrollmentAndEntryTogether(t *testing.T) {
	conn, mock, closeFn := setupMock(t)
	defer closeFn()

	now := time.Now()
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM members WHERE id = $1")).
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows(memberRowColumns).
			AddRow(1, "S001", "Ana", "Pérez", "", "", "", "external", "inactive", nil, now))
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
		WithArgs(2).
		WillReturnRows(sqlmock.NewRows(classRowColumns).
			AddRow(2, "YOGA1", "Yoga", "", nil, now, 60, 10, "150.00", now))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM enrollments")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS(SELECT 1 FROM enrollments WHERE member_id = $1 AND class_id = $2)")).
		WithArgs(1, 2).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO ledger_entries")).
		WithArgs("class_fee", "cash", sqlmock.AnyArg(), "Inscripción YOGA1 S001", nil, 1, nil, nil).
		WillReturnRows(sqlmock.NewRows(entryRowColumns).
			AddRow(20, "class_fee", "cash", "150.00", "Inscripción YOGA1 S001", now, nil, 1, nil, nil))
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO enrollments")).
		WithArgs(1, 2, 20).
		WillReturnRows(sqlmock.NewRows(enrollmentRowColumns).AddRow(30, 1, 2, 20, now))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE ledger_entries SET enrollment_id = $2 WHERE id = $1")).
		WithArgs(20, 30).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("FROM ledger_entries WHERE member_id = $1 AND created_at >= $2")).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE members SET status = $2 WHERE id = $1")).
		WithArgs(1, "active").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	receipt, err := newSQLService(conn).Enroll(context.Background(), 2, EnrollRequest{MemberID: 1, PaymentMethod: "cash"})

	require.NoError(t, err)
	assert.Equal(t, 30, receipt.Enrollment.ID)
	assert.Equal(t, 6, receipt.SeatsLeft)
	require.NotNil(t, receipt.LedgerEntry.EnrollmentID)
	assert.Equal(t, 30, *receipt.LedgerEntry.EnrollmentID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollRollsBackWhenEnrollmentInsertFails(t *testing.T) {
	conn, mock, closeFn := setupMock(t)
	defer closeFn()

	now := time.Now()
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM members WHERE id = $1")).
		WillReturnRows(sqlmock.NewRows(memberRowColumns).
			AddRow(1, "S001", "Ana", "Pérez", "", "", "", "external", "inactive", nil, now))
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
		WillReturnRows(sqlmock.NewRows(classRowColumns).
			AddRow(2, "YOGA1", "Yoga", "", nil, now, 60, 10, "150.00", now))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*)")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS")).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO ledger_entries")).
		WillReturnRows(sqlmock.NewRows(entryRowColumns).
			AddRow(20, "class_fee", "cash", "150.00", "", now, nil, 1, nil, nil))
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO enrollments")).
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	_, err := newSQLService(conn).Enroll(context.Background(), 2, EnrollRequest{MemberID: 1, PaymentMethod: "cash"})

	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUnenrollDeletesLinkedEntry(t *testing.T) {
	conn, mock, closeFn := setupMock(t)
	defer closeFn()

	now := time.Now()
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM enrollments WHERE member_id = $1 AND class_id = $2")).
		WithArgs(1, 2).
		WillReturnRows(sqlmock.NewRows(enrollmentRowColumns).AddRow(30, 1, 2, 20, now))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM enrollments WHERE id = $1")).
		WithArgs(30).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM ledger_entries WHERE id = $1")).
		WithArgs(20).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("FROM members WHERE id = $1")).
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows(memberRowColumns).
			AddRow(1, "S001", "Ana", "Pérez", "", "", "", "external", "active", nil, now))
	mock.ExpectQuery(regexp.QuoteMeta("FROM ledger_entries WHERE member_id = $1")).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE members SET status = $2 WHERE id = $1")).
		WithArgs(1, "inactive").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := newSQLService(conn).Unenroll(context.Background(), 2, 1)

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
