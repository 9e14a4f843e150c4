package service

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"tablesync/internal/database"
	"tablesync/internal/model"
)

// SchemaInspector 从数据库系统目录读取表和字段信息，只读不写
type SchemaInspector struct {
	dialect database.Dialect
	schema  string
}

// NewSchemaInspector 创建绑定 conn 方言和 schema 的 inspector
func NewSchemaInspector(conn *database.Conn) *SchemaInspector {
	return &SchemaInspector{dialect: conn.Dialect, schema: conn.Schema()}
}

// ListTables 返回 schema 下的用户表，按表名排序
func (i *SchemaInspector) ListTables(ctx context.Context, db *gorm.DB) ([]string, error) {
	var tables []string
	query, args := i.dialect.TablesQuery(i.schema)
	if err := db.WithContext(ctx).Raw(query, args...).Scan(&tables).Error; err != nil {
		return nil, fmt.Errorf("获取表列表失败: %w", err)
	}
	return tables, nil
}

// DescribeTable 按定义顺序返回表的字段。表不存在时返回空切片且不报错，
// db 可以是事务句柄
func (i *SchemaInspector) DescribeTable(ctx context.Context, db *gorm.DB, table string) ([]model.ColumnDescriptor, error) {
	var columns []model.ColumnDescriptor
	query, args := i.dialect.ColumnsQuery(i.schema, table)
	if err := db.WithContext(ctx).Raw(query, args...).Scan(&columns).Error; err != nil {
		return nil, fmt.Errorf("获取表 %s 结构失败: %w", table, err)
	}
	return columns, nil
}
