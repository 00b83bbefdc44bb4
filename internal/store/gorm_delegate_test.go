package store

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/cronforge/jobstore/internal/jobtype"
	"github.com/cronforge/jobstore/internal/model"
	"github.com/cronforge/jobstore/internal/typeloader"
)

func newMockDelegate(t *testing.T) (*GormDelegate, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	gdb, err := gorm.Open(gormmysql.New(gormmysql.Config{
		Conn:                      db,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{})
	if err != nil {
		t.Fatalf("gorm.Open: %v", err)
	}
	loader := typeloader.New(8)
	return NewGormDelegate(gdb, loader), mock, func() { db.Close() }
}

func TestAcquireTriggerCASSucceedsOnMatchingFence(t *testing.T) {
	d, mock, closeDB := newMockDelegate(t)
	defer closeDB()

	fence := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE `triggers`")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	ok, err := d.AcquireTrigger(context.Background(), model.JobKey{Group: "g", Name: "n"}, fence, "fire-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatalf("expected CAS to succeed")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestAcquireTriggerCASFailsWhenRaced(t *testing.T) {
	d, mock, closeDB := newMockDelegate(t)
	defer closeDB()

	fence := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE `triggers`")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := d.AcquireTrigger(context.Background(), model.JobKey{Group: "g", Name: "n"}, fence, "fire-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatalf("expected CAS to fail when another caller already moved the row")
	}
}

func TestSelectBlockedTriggerCountSkipsUnresolvedTypes(t *testing.T) {
	jobtype.Register(jobtype.Descriptor{Name: "known-type"})

	d, mock, closeDB := newMockDelegate(t)
	defer closeDB()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT DISTINCT `job_type` FROM `triggers`")).
		WillReturnRows(sqlmock.NewRows([]string{"job_type"}).AddRow("known-type").AddRow("ghost-type"))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT count(*) FROM `triggers`")).
		WithArgs(string(model.StateBlocked), "known-type").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	n, err := d.SelectBlockedTriggerCount(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 3 {
		t.Fatalf("expected 3 blocked triggers counted, got %d", n)
	}
}
