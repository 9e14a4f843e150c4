package service

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"tablesync/internal/database"
	"tablesync/internal/model"
)

// Plan 对比每张待同步的源表与目标表，不做任何写入。
// 不占用同步锁，同步进行中也可以调用
func (s *SyncService) Plan(ctx context.Context) (*model.SyncPlan, error) {
	sources, target, release, err := s.openAll(ctx)
	defer release()
	if err != nil {
		return nil, err
	}

	plan := &model.SyncPlan{}
	targetInspector := NewSchemaInspector(target)
	for _, source := range sources {
		tables, err := s.sourceTables(ctx, source)
		if err != nil {
			return nil, err
		}

		sourceInspector := NewSchemaInspector(source)
		for _, table := range tables {
			if err := ctx.Err(); err != nil {
				return nil, err
			}

			sourceSchema, err := sourceInspector.DescribeTable(ctx, source.DB, table)
			if err != nil {
				return nil, fmt.Errorf("源数据库 %s: %w", source.Name(), err)
			}
			targetSchema, err := targetInspector.DescribeTable(ctx, target.DB, table)
			if err != nil {
				return nil, fmt.Errorf("目标数据库 %s: %w", target.Name(), err)
			}

			tablePlan, err := compareTable(target, source.Name(),
				model.TableDescriptor{Name: table, Columns: sourceSchema},
				model.TableDescriptor{Name: table, Columns: targetSchema})
			if err != nil {
				return nil, err
			}
			logrus.WithFields(logrus.Fields{
				"source": source.Name(),
				"table":  table,
				"action": tablePlan.Action,
			}).Debug("table compared")
			plan.Tables = append(plan.Tables, tablePlan)
		}
	}
	return plan, nil
}

// compareTable 根据两边的表结构决定单表的动作
func compareTable(target *database.Conn, source string, sourceTable, targetTable model.TableDescriptor) (model.TablePlan, error) {
	tablePlan := model.TablePlan{Source: source, Table: sourceTable.Name}

	if len(targetTable.Columns) == 0 {
		ddl, err := CreateTableSQL(target, sourceTable)
		if err != nil {
			return tablePlan, err
		}
		tablePlan.Action = model.PlanCreate
		tablePlan.SQL = ddl
		return tablePlan, nil
	}

	tablePlan.Missing = missingColumns(sourceTable.ColumnNames(), targetTable.Columns)
	tablePlan.Extra = missingColumns(targetTable.ColumnNames(), sourceTable.Columns)
	tablePlan.Action = model.PlanRefresh
	if len(tablePlan.Missing) > 0 {
		tablePlan.Action = model.PlanDrift
	}
	return tablePlan, nil
}

// missingColumns 返回 want 中在 have 里找不到的字段名
func missingColumns(want []string, have []model.ColumnDescriptor) []string {
	present := make(map[string]bool, len(have))
	for _, col := range have {
		present[col.Name] = true
	}
	var missing []string
	for _, name := range want {
		if !present[name] {
			missing = append(missing, name)
		}
	}
	return missing
}
