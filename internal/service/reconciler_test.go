package service

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"tablesync/internal/database"
	"tablesync/internal/model"
)

func TestCreateTableSQL(t *testing.T) {
	columns := []model.ColumnDescriptor{
		{Name: "id", Type: "integer"},
		{Name: "display name", Type: "character varying(64)"},
		{Name: "balance", Type: "numeric(12,2)"},
	}

	pg := &database.Conn{Dialect: database.Postgres, Endpoint: model.DatabaseEndpoint{Driver: database.DriverPostgres, Schema: "wallet"}}
	my := &database.Conn{Dialect: database.MySQL, Endpoint: model.DatabaseEndpoint{Driver: database.DriverMySQL}}

	tests := []struct {
		name    string
		conn    *database.Conn
		table   string
		columns []model.ColumnDescriptor
		want    string
		wantErr bool
	}{
		{
			name:    "postgres",
			conn:    pg,
			table:   "accounts",
			columns: columns,
			want:    `CREATE TABLE "wallet"."accounts" ("id" integer, "display name" character varying(64), "balance" numeric(12,2))`,
		},
		{
			name:    "mysql",
			conn:    my,
			table:   "accounts",
			columns: columns,
			want:    "CREATE TABLE `accounts` (`id` integer, `display name` character varying(64), `balance` numeric(12,2))",
		},
		{
			name:    "quote in table name",
			conn:    pg,
			table:   `we"ird`,
			columns: columns[:1],
			want:    `CREATE TABLE "wallet"."we""ird" ("id" integer)`,
		},
		{
			name:    "no columns",
			conn:    pg,
			table:   "accounts",
			wantErr: true,
		},
		{
			name:    "column without type",
			conn:    my,
			table:   "accounts",
			columns: []model.ColumnDescriptor{{Name: "id"}},
			wantErr: true,
		},
		{
			name:    "placeholder in column name",
			conn:    my,
			table:   "accounts",
			columns: []model.ColumnDescriptor{{Name: "id?", Type: "int"}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CreateTableSQL(tt.conn, model.TableDescriptor{Name: tt.table, Columns: tt.columns})
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %q", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got  %s\nwant %s", got, tt.want)
			}
		})
	}
}

func TestEnsureTableLeavesExistingTable(t *testing.T) {
	target, mock := newMockConn(t, "warehouse")

	mock.ExpectQuery("INFORMATION_SCHEMA.COLUMNS").
		WithArgs("orders").
		WillReturnRows(sqlmock.NewRows(describeColumns).AddRow("id", "bigint").AddRow("total", "decimal(10,2)"))

	existing, created, err := NewReconciler(target).EnsureTable(context.Background(), target.DB,
		model.TableDescriptor{Name: "orders", Columns: []model.ColumnDescriptor{{Name: "id", Type: "int"}}})
	if err != nil {
		t.Fatalf("EnsureTable: %v", err)
	}
	if created {
		t.Error("existing table must not be recreated")
	}
	if len(existing) != 2 || existing[1].Name != "total" || existing[1].Type != "decimal(10,2)" {
		t.Errorf("existing = %+v", existing)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestEnsureTableCreateFailure(t *testing.T) {
	target, mock := newMockConn(t, "warehouse")

	createErr := errors.New("permission denied")
	mock.ExpectQuery("INFORMATION_SCHEMA.COLUMNS").
		WithArgs("orders").
		WillReturnRows(sqlmock.NewRows(describeColumns))
	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE `orders` (`id` int)")).
		WillReturnError(createErr)

	_, created, err := NewReconciler(target).EnsureTable(context.Background(), target.DB,
		model.TableDescriptor{Name: "orders", Columns: []model.ColumnDescriptor{{Name: "id", Type: "int"}}})
	if !errors.Is(err, createErr) {
		t.Fatalf("err = %v, want wrapped create error", err)
	}
	if created {
		t.Error("created reported on failure")
	}
}

func TestSchemaInspectorListTables(t *testing.T) {
	conn, mock := newMockConn(t, "app")

	mock.ExpectQuery("INFORMATION_SCHEMA.TABLES").
		WillReturnRows(sqlmock.NewRows([]string{"table_name"}).AddRow("accounts").AddRow("users"))

	tables, err := NewSchemaInspector(conn).ListTables(context.Background(), conn.DB)
	if err != nil {
		t.Fatalf("ListTables: %v", err)
	}
	if len(tables) != 2 || tables[0] != "accounts" || tables[1] != "users" {
		t.Errorf("tables = %v", tables)
	}
}

func TestSchemaInspectorListTablesError(t *testing.T) {
	conn, mock := newMockConn(t, "app")

	mock.ExpectQuery("INFORMATION_SCHEMA.TABLES").WillReturnError(errors.New("connection reset"))

	if _, err := NewSchemaInspector(conn).ListTables(context.Background(), conn.DB); err == nil {
		t.Fatal("expected error")
	}
}

func TestSchemaInspectorDescribeMissingTable(t *testing.T) {
	conn, mock := newMockConn(t, "app")

	mock.ExpectQuery("INFORMATION_SCHEMA.COLUMNS").
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows(describeColumns))

	columns, err := NewSchemaInspector(conn).DescribeTable(context.Background(), conn.DB, "ghost")
	if err != nil {
		t.Fatalf("DescribeTable: %v", err)
	}
	if len(columns) != 0 {
		t.Errorf("columns = %v, want none", columns)
	}
}
