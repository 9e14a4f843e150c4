package service

import (
	"context"
	"reflect"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"tablesync/internal/database"
	"tablesync/internal/model"
)

func TestPlanComparesEveryTable(t *testing.T) {
	app, appMock := newMockConn(t, "app")
	target, targetMock := newMockConn(t, "target")

	expectTables(appMock, "orders", "users", "visits")
	appMock.ExpectQuery("INFORMATION_SCHEMA.COLUMNS").WithArgs("orders").
		WillReturnRows(sqlmock.NewRows(describeColumns).AddRow("id", "int").AddRow("total", "decimal(10,2)"))
	appMock.ExpectQuery("INFORMATION_SCHEMA.COLUMNS").WithArgs("users").
		WillReturnRows(sqlmock.NewRows(describeColumns).AddRow("id", "int").AddRow("email", "text"))
	appMock.ExpectQuery("INFORMATION_SCHEMA.COLUMNS").WithArgs("visits").
		WillReturnRows(sqlmock.NewRows(describeColumns).AddRow("id", "int"))
	appMock.ExpectClose()

	targetMock.ExpectQuery("INFORMATION_SCHEMA.COLUMNS").WithArgs("orders").
		WillReturnRows(sqlmock.NewRows(describeColumns))
	targetMock.ExpectQuery("INFORMATION_SCHEMA.COLUMNS").WithArgs("users").
		WillReturnRows(sqlmock.NewRows(describeColumns).AddRow("id", "int").AddRow("legacy", "text"))
	targetMock.ExpectQuery("INFORMATION_SCHEMA.COLUMNS").WithArgs("visits").
		WillReturnRows(sqlmock.NewRows(describeColumns).AddRow("id", "bigint").AddRow("ip", "text"))
	targetMock.ExpectClose()

	opener := &fakeOpener{conns: map[string]*database.Conn{"app": app, "target": target}}
	svc := NewSyncService(testConfig("app"), opener, nil)

	plan, err := svc.Plan(context.Background())
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}

	want := []model.TablePlan{
		{Source: "app", Table: "orders", Action: model.PlanCreate, SQL: "CREATE TABLE `orders` (`id` int, `total` decimal(10,2))"},
		{Source: "app", Table: "users", Action: model.PlanDrift, Missing: []string{"email"}, Extra: []string{"legacy"}},
		{Source: "app", Table: "visits", Action: model.PlanRefresh, Extra: []string{"ip"}},
	}
	if !reflect.DeepEqual(plan.Tables, want) {
		t.Errorf("plan = %+v\nwant  %+v", plan.Tables, want)
	}
	if plan.Count(model.PlanDrift) != 1 {
		t.Errorf("drift count = %d", plan.Count(model.PlanDrift))
	}

	if err := appMock.ExpectationsWereMet(); err != nil {
		t.Errorf("app expectations: %v", err)
	}
	if err := targetMock.ExpectationsWereMet(); err != nil {
		t.Errorf("target expectations: %v", err)
	}
}
