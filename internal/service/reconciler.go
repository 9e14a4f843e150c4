package service

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"tablesync/internal/database"
	"tablesync/internal/model"
)

// Reconciler 在写入数据前确保目标表存在。已存在的表保持原样，不增删字段也不修改类型
type Reconciler struct {
	target    *database.Conn
	inspector *SchemaInspector
}

func NewReconciler(target *database.Conn) *Reconciler {
	return &Reconciler{target: target, inspector: NewSchemaInspector(target)}
}

// EnsureTable 在目标库没有该表时按源表字段建表，
// 返回调用前目标表的结构以及是否新建了表
func (r *Reconciler) EnsureTable(ctx context.Context, tx *gorm.DB, source model.TableDescriptor) ([]model.ColumnDescriptor, bool, error) {
	existing, err := r.inspector.DescribeTable(ctx, tx, source.Name)
	if err != nil {
		return nil, false, err
	}
	if len(existing) > 0 {
		return existing, false, nil
	}

	ddl, err := CreateTableSQL(r.target, source)
	if err != nil {
		return nil, false, err
	}
	if err := tx.WithContext(ctx).Exec(ddl).Error; err != nil {
		return nil, false, fmt.Errorf("创建目标表 %s 失败: %w", source.Name, err)
	}
	return nil, true, nil
}

// CreateTableSQL 根据字段名和类型生成 CREATE TABLE，标识符加引号，类型按源库原样输出
func CreateTableSQL(conn *database.Conn, desc model.TableDescriptor) (string, error) {
	table, columns := desc.Name, desc.Columns
	if len(columns) == 0 {
		return "", fmt.Errorf("创建目标表 %s 失败: 源表没有字段", table)
	}

	quotedTable, err := conn.QuoteTable(table)
	if err != nil {
		return "", err
	}

	defs := make([]string, len(columns))
	for i, col := range columns {
		name, err := conn.Dialect.QuoteIdent(col.Name)
		if err != nil {
			return "", err
		}
		if strings.TrimSpace(col.Type) == "" {
			return "", fmt.Errorf("创建目标表 %s 失败: 字段 %s 没有类型", table, col.Name)
		}
		defs[i] = name + " " + col.Type
	}

	return fmt.Sprintf("CREATE TABLE %s (%s)", quotedTable, strings.Join(defs, ", ")), nil
}
