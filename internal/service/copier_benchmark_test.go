package service

import (
	"context"
	"fmt"
	"math/rand"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"tablesync/internal/model"
)

var userRecordColumns = []string{"id", "name", "email", "age", "gender", "phone", "created_at", "updated_at"}

func generateUserRecordRows(count int) *sqlmock.Rows {
	rows := sqlmock.NewRows(userRecordColumns)
	now := time.Now()
	for i := 0; i < count; i++ {
		rows.AddRow(
			int64(i+1),
			fmt.Sprintf("User%d", i),
			fmt.Sprintf("user%d@example.com", i),
			rand.Intn(50)+18,
			[]string{"male", "female"}[rand.Intn(2)],
			fmt.Sprintf("138%08d", i),
			now.Add(-time.Duration(rand.Intn(30))*24*time.Hour),
			now.Add(-time.Duration(rand.Intn(24))*time.Hour),
		)
	}
	return rows
}

func userRecordSchema() *sqlmock.Rows {
	return sqlmock.NewRows(describeColumns).
		AddRow("id", "bigint").
		AddRow("name", "varchar(100)").
		AddRow("email", "varchar(100)").
		AddRow("age", "int").
		AddRow("gender", "varchar(10)").
		AddRow("phone", "varchar(20)").
		AddRow("created_at", "datetime").
		AddRow("updated_at", "datetime")
}

// expectUserRecordsCopy 设置一次 user_records 整表刷新的期望，目标表已存在
func expectUserRecordsCopy(sourceMock, targetMock sqlmock.Sqlmock, size, batchSize int) {
	sourceMock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `user_records`")).
		WillReturnRows(generateUserRecordRows(size))
	sourceMock.ExpectQuery("INFORMATION_SCHEMA.COLUMNS").
		WithArgs("user_records").
		WillReturnRows(userRecordSchema())

	targetMock.ExpectQuery("INFORMATION_SCHEMA.COLUMNS").
		WithArgs("user_records").
		WillReturnRows(userRecordSchema())
	targetMock.ExpectBegin()
	targetMock.ExpectExec(regexp.QuoteMeta("DELETE FROM `user_records`")).
		WillReturnResult(sqlmock.NewResult(0, int64(size)))
	for start := 0; start < size; start += batchSize {
		n := batchSize
		if start+n > size {
			n = size - start
		}
		targetMock.ExpectExec(regexp.QuoteMeta("INSERT INTO `user_records`")).
			WillReturnResult(sqlmock.NewResult(0, int64(n)))
	}
	targetMock.ExpectCommit()
}

func BenchmarkCopyTable(b *testing.B) {
	dataSizes := []int{3000, 5000}
	batchSizes := []int{100, 1000}

	for _, size := range dataSizes {
		for _, batchSize := range batchSizes {
			b.Run(fmt.Sprintf("DataSize_%d/Batch_%d", size, batchSize), func(b *testing.B) {
				source, sourceMock := newMockConn(b, "app")
				target, targetMock := newMockConn(b, "warehouse")
				copier := NewCopier(source, target, batchSize)

				b.ResetTimer()
				for i := 0; i < b.N; i++ {
					b.StopTimer()
					expectUserRecordsCopy(sourceMock, targetMock, size, batchSize)
					b.StartTimer()

					result := copier.CopyTable(context.Background(), "user_records")
					if result.Outcome != model.OutcomeSynced {
						b.Fatalf("copy failed: %v", result.Err)
					}
				}

				if err := targetMock.ExpectationsWereMet(); err != nil {
					b.Errorf("unmet target expectations: %v", err)
				}
			})
		}
	}
}

func TestCopyTableVolumes(t *testing.T) {
	dataSizes := []int{3000, 5000, 10000}

	for _, size := range dataSizes {
		t.Run(fmt.Sprintf("DataSize_%d", size), func(t *testing.T) {
			source, sourceMock := newMockConn(t, "app")
			target, targetMock := newMockConn(t, "warehouse")
			expectUserRecordsCopy(sourceMock, targetMock, size, 500)

			start := time.Now()
			result := NewCopier(source, target, 500).CopyTable(context.Background(), "user_records")
			duration := time.Since(start)

			if result.Outcome != model.OutcomeSynced {
				t.Fatalf("outcome = %s, err = %v", result.Outcome, result.Err)
			}
			if result.Rows != int64(size) {
				t.Errorf("rows = %d, want %d", result.Rows, size)
			}
			t.Logf("rows: %d, took: %v, per row: %v", size, duration, duration/time.Duration(size))

			if err := targetMock.ExpectationsWereMet(); err != nil {
				t.Errorf("unmet target expectations: %v", err)
			}
		})
	}
}
