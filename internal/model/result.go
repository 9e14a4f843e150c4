package model

import (
	"fmt"
	"time"
)

// TableOutcome 单表同步的最终状态
type TableOutcome string

const (
	OutcomeSynced  TableOutcome = "synced"
	OutcomeSkipped TableOutcome = "skipped"
	OutcomeFailed  TableOutcome = "failed"
)

const (
	MessageInProgress = "Synchronization in progress..."
	MessageComplete   = "Synchronization complete!"
)

// TableResult 记录一次同步中单张表的结果
type TableResult struct {
	Source   string
	Table    string
	Outcome  TableOutcome
	Created  bool
	Rows     int64
	Reason   string
	Err      error
	Duration time.Duration
}

// RunReport 一次同步的所有单表结果。Err 只记录单表范围之外的失败
type RunReport struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time
	Tables     []TableResult
	Err        error
}

// Count 统计指定结果的表数量
func (r *RunReport) Count(outcome TableOutcome) int {
	n := 0
	for _, t := range r.Tables {
		if t.Outcome == outcome {
			n++
		}
	}
	return n
}

// RowsCopied 统计同步成功的表写入的总行数
func (r *RunReport) RowsCopied() int64 {
	var total int64
	for _, t := range r.Tables {
		if t.Outcome == OutcomeSynced {
			total += t.Rows
		}
	}
	return total
}

// Message 返回本次同步结束后的状态文本
func (r *RunReport) Message() string {
	if r.Err != nil {
		return fmt.Sprintf("Error: %v", r.Err)
	}
	return MessageComplete
}
