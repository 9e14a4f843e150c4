package service

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"tablesync/internal/database"
	"tablesync/internal/model"
)

// ErrSchemaDrift 表示目标表已存在但缺少源表的字段，此时拒绝写入
var ErrSchemaDrift = errors.New("目标表缺少源表字段")

// Copier 把一个源库的整表数据复制到目标库
type Copier struct {
	source          *database.Conn
	target          *database.Conn
	sourceInspector *SchemaInspector
	reconciler      *Reconciler
	batchSize       int
}

// NewCopier 创建 Copier，每条 INSERT 最多写入 batchSize 行
func NewCopier(source, target *database.Conn, batchSize int) *Copier {
	if batchSize <= 0 {
		batchSize = 100
	}
	return &Copier{
		source:          source,
		target:          target,
		sourceInspector: NewSchemaInspector(source),
		reconciler:      NewReconciler(target),
		batchSize:       batchSize,
	}
}

// CopyTable 用源表当前的数据替换目标表的全部数据。
//
// 源表读取失败时跳过该表，不触碰目标库；之后的失败会回滚目标库事务，
// 结果记为 OutcomeFailed。CopyTable 不会中止整次同步。
func (c *Copier) CopyTable(ctx context.Context, table string) (result model.TableResult) {
	start := time.Now()
	result = model.TableResult{Source: c.source.Name(), Table: table}
	defer func() { result.Duration = time.Since(start) }()

	columns, rows, err := c.fetchRows(ctx, table)
	switch {
	case err != nil && c.source.Dialect.IsUndefinedTable(err):
		result.Outcome = model.OutcomeSkipped
		result.Reason = "table does not exist in source"
		result.Err = err
		return result
	case err != nil:
		result.Outcome = model.OutcomeSkipped
		result.Reason = "read from source failed"
		result.Err = err
		return result
	case len(columns) == 0:
		result.Outcome = model.OutcomeSkipped
		result.Reason = "table has no columns"
		return result
	}

	created, err := c.load(ctx, table, columns, rows)
	result.Created = created
	if err != nil {
		result.Outcome = model.OutcomeFailed
		result.Err = err
		return result
	}

	result.Outcome = model.OutcomeSynced
	result.Rows = int64(len(rows))
	return result
}

// fetchRows 用 SELECT * 读取整表，返回的列名与扫描出的值顺序一致
func (c *Copier) fetchRows(ctx context.Context, table string) ([]string, [][]any, error) {
	quoted, err := c.source.QuoteTable(table)
	if err != nil {
		return nil, nil, err
	}

	rows, err := c.source.DB.WithContext(ctx).Raw("SELECT * FROM " + quoted).Rows()
	if err != nil {
		return nil, nil, fmt.Errorf("查询源表 %s 失败: %w", table, err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, nil, fmt.Errorf("读取源表 %s 字段失败: %w", table, err)
	}

	var records [][]any
	for rows.Next() {
		values := make([]any, len(columns))
		scanArgs := make([]any, len(columns))
		for i := range values {
			scanArgs[i] = &values[i]
		}
		if err := rows.Scan(scanArgs...); err != nil {
			return nil, nil, fmt.Errorf("扫描源表 %s 数据失败: %w", table, err)
		}
		records = append(records, values)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("遍历源表 %s 数据失败: %w", table, err)
	}

	return columns, records, nil
}

// load 在目标库事务内完成建表检查、清空和写入
func (c *Copier) load(ctx context.Context, table string, columns []string, rows [][]any) (bool, error) {
	sourceSchema, err := c.sourceInspector.DescribeTable(ctx, c.source.DB, table)
	if err != nil {
		return false, err
	}

	quotedTable, err := c.target.QuoteTable(table)
	if err != nil {
		return false, err
	}
	quotedColumns, err := database.QuoteIdents(c.target.Dialect, columns)
	if err != nil {
		return false, err
	}

	created := false
	ensure := func(db *gorm.DB) error {
		existing, wasCreated, err := c.reconciler.EnsureTable(ctx, db, model.TableDescriptor{Name: table, Columns: sourceSchema})
		if err != nil {
			return err
		}
		created = wasCreated
		if created {
			return nil
		}
		return checkDrift(table, columns, existing)
	}

	db := c.target.DB.WithContext(ctx)
	transactionalDDL := c.target.Dialect.TransactionalDDL()
	// DDL 会隐式提交事务时，建表必须在事务开始之前完成
	if !transactionalDDL {
		if err := ensure(db); err != nil {
			return false, err
		}
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if transactionalDDL {
			if err := ensure(tx); err != nil {
				return err
			}
		}

		if err := tx.Exec("DELETE FROM " + quotedTable).Error; err != nil {
			return fmt.Errorf("清空目标表 %s 失败: %w", table, err)
		}

		return c.insertRows(tx, quotedTable, quotedColumns, rows)
	})
	if err != nil {
		// 事务内的建表随事务一起回滚
		return created && !transactionalDDL, err
	}
	return created, nil
}

// insertRows 按批次执行多行 INSERT，参数按列顺序绑定
func (c *Copier) insertRows(tx *gorm.DB, quotedTable string, quotedColumns []string, rows [][]any) error {
	if len(rows) == 0 {
		return nil
	}

	prefix := fmt.Sprintf("INSERT INTO %s (%s) VALUES ", quotedTable, strings.Join(quotedColumns, ", "))
	tuple := "(" + strings.TrimSuffix(strings.Repeat("?, ", len(quotedColumns)), ", ") + ")"

	for start := 0; start < len(rows); start += c.batchSize {
		end := start + c.batchSize
		if end > len(rows) {
			end = len(rows)
		}
		batch := rows[start:end]

		tuples := make([]string, len(batch))
		args := make([]any, 0, len(batch)*len(quotedColumns))
		for i, row := range batch {
			tuples[i] = tuple
			for _, value := range row {
				args = append(args, bindValue(value))
			}
		}

		if err := tx.Exec(prefix+strings.Join(tuples, ", "), args...).Error; err != nil {
			return fmt.Errorf("写入第 %d-%d 行失败: %w", start+1, end, err)
		}
	}
	return nil
}

// rawBytes 把 []byte 作为单个参数绑定。gorm 会把紧跟在 '(' 之后的切片参数
// 展开成 IN 列表，元组的第一列正好处在这个位置。
type rawBytes []byte

func (b rawBytes) Value() (driver.Value, error) {
	if b == nil {
		return nil, nil
	}
	return []byte(b), nil
}

func bindValue(value any) any {
	if b, ok := value.([]byte); ok {
		return rawBytes(b)
	}
	return value
}

// checkDrift 检查源表字段是否都存在于目标表，目标表多出的字段和类型差异不影响写入
func checkDrift(table string, columns []string, existing []model.ColumnDescriptor) error {
	if missing := missingColumns(columns, existing); len(missing) > 0 {
		return fmt.Errorf("%w: %s 缺少 %s", ErrSchemaDrift, table, strings.Join(missing, ", "))
	}
	return nil
}
