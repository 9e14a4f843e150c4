package model

// PlanAction 同步时对目标表将要执行的动作
type PlanAction string

const (
	// 目标表不存在，按源表结构新建
	PlanCreate PlanAction = "CREATE"
	// 目标表已存在且包含所有源表字段
	PlanRefresh PlanAction = "REFRESH"
	// 目标表缺少源表字段，同步会失败
	PlanDrift PlanAction = "DRIFT"
)

// TablePlan 单张源表与目标表的只读对比结果
type TablePlan struct {
	Source  string     `json:"source"`
	Table   string     `json:"table"`
	Action  PlanAction `json:"action"`
	Missing []string   `json:"missing,omitempty"` // 目标表缺少的源表字段
	Extra   []string   `json:"extra,omitempty"`   // 源表没有的目标表字段
	SQL     string     `json:"sql,omitempty"`     // PlanCreate 时执行的建表语句
}

// SyncPlan 所有源库的表对比结果
type SyncPlan struct {
	Tables []TablePlan `json:"tables"`
}

// Count 统计指定动作的表数量
func (p *SyncPlan) Count(action PlanAction) int {
	n := 0
	for _, t := range p.Tables {
		if t.Action == action {
			n++
		}
	}
	return n
}
