package repository

import (
	"context"
	"testing"
	"time"

	"qms/internal/model"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{
		Conn:                 sqlDB,
		PreferSimpleProtocol: true,
	}), &gorm.Config{SkipDefaultTransaction: true})
	if err != nil {
		t.Fatalf("gorm.Open: %v", err)
	}
	return db, mock
}

func TestCreateBindsEveryFieldAndReturnsID(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewSupplierEvaluationRepository(db)

	periodStart := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	periodEnd := time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`INSERT INTO "supplier_evaluations"`).
		WithArgs(
			1,                 // supplier_id
			"EVAL-2024-001",   // evaluation_number
			periodStart,       // period_start
			periodEnd,         // period_end
			4,                 // quality_rating
			3,                 // delivery_rating
			5,                 // service_rating
			sqlmock.AnyArg(),  // overall_score
			"Compliant",       // compliance_status
			sqlmock.AnyArg(),  // criteria
			"steady quarter",  // comments
			sqlmock.AnyArg(),  // evaluated_by
			sqlmock.AnyArg(),  // created_at
			sqlmock.AnyArg(),  // updated_at
		).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(42))

	eval := &model.SupplierEvaluation{
		SupplierID:       1,
		EvaluationNumber: "EVAL-2024-001",
		PeriodStart:      periodStart,
		PeriodEnd:        periodEnd,
		QualityRating:    4,
		DeliveryRating:   3,
		ServiceRating:    5,
		OverallScore:     decimal.RequireFromString("3.9"),
		ComplianceStatus: "Compliant",
		Criteria:         datatypes.JSON([]byte("{}")),
		Comments:         "steady quarter",
	}
	if err := repo.Create(context.Background(), eval); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if eval.ID != 42 {
		t.Fatalf("expected inserted ID 42, got %d", eval.ID)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestFindByIDMissingReturnsNil(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewSupplierEvaluationRepository(db)

	mock.ExpectQuery(`SELECT \* FROM "supplier_evaluations"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	eval, err := repo.FindByID(context.Background(), 999)
	if err != nil {
		t.Fatalf("missing row must not be an error, got %v", err)
	}
	if eval != nil {
		t.Fatalf("expected nil for missing row, got %+v", eval)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestFindAllFiltersWithSeparateCount(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewSupplierEvaluationRepository(db)

	mock.ExpectQuery(`SELECT count\(\*\) FROM "supplier_evaluations" WHERE compliance_status = \$1`).
		WithArgs("Compliant").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(23))

	mock.ExpectQuery(`SELECT \* FROM "supplier_evaluations" WHERE compliance_status = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "supplier_id", "evaluation_number", "compliance_status"}).
			AddRow(1, 1, "EVAL-2024-001", "Compliant").
			AddRow(2, 1, "EVAL-2024-002", "Compliant"))

	evals, total, err := repo.FindAll(context.Background(), EvaluationFilter{ComplianceStatus: "Compliant"}, 1, 10)
	if err != nil {
		t.Fatalf("FindAll: %v", err)
	}
	if total != 23 {
		t.Fatalf("total must come from the count query, got %d", total)
	}
	if len(evals) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(evals))
	}
	if evals[0].EvaluationNumber != "EVAL-2024-001" {
		t.Fatalf("unexpected first row: %+v", evals[0])
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUpdateStatusTargetsSingleRow(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewSupplierEvaluationRepository(db)

	mock.ExpectExec(`UPDATE "supplier_evaluations" SET`).
		WithArgs("NonCompliant", sqlmock.AnyArg(), 7).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.UpdateStatus(context.Background(), 7, "NonCompliant"); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
