package service

import (
	"github.com/sirupsen/logrus"

	"tablesync/internal/model"
)

// LogObserver 通过 logrus 输出单表同步进度
type LogObserver struct{}

func (o *LogObserver) OnSyncStart(task *SyncTask) {
	task.logger().Info("syncing table")
}

func (o *LogObserver) OnSyncComplete(task *SyncTask, result model.TableResult) {
	entry := task.logger().WithField("duration_ms", result.Duration.Milliseconds())
	if result.Outcome == model.OutcomeSkipped {
		if result.Err != nil {
			entry = entry.WithError(result.Err)
		}
		entry.WithField("reason", result.Reason).Warn("table skipped")
		return
	}
	entry.WithFields(logrus.Fields{
		"rows":    result.Rows,
		"created": result.Created,
	}).Info("table synced")
}

func (o *LogObserver) OnSyncError(task *SyncTask, result model.TableResult) {
	task.logger().
		WithField("duration_ms", result.Duration.Milliseconds()).
		WithError(result.Err).
		Error("table sync failed, rolled back")
}
