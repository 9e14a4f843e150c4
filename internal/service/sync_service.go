package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"tablesync/internal/config"
	"tablesync/internal/database"
	"tablesync/internal/model"
	"tablesync/internal/status"
)

var (
	// ErrRunActive 表示已有同步正在进行
	ErrRunActive = errors.New("synchronization is already running")
	// ErrStopped 表示服务已停止，不再接受新的同步
	ErrStopped = errors.New("synchronization service is stopped")
)

// SyncTask 定义一次同步中的单表任务
type SyncTask struct {
	RunID  string
	Source string
	Table  string
}

func (t *SyncTask) logger() *logrus.Entry {
	return logrus.WithFields(logrus.Fields{
		"run_id": t.RunID,
		"source": t.Source,
		"table":  t.Table,
	})
}

// SyncObserver 同步观察者接口，跳过的表通过 OnSyncComplete 以 OutcomeSkipped 通知
type SyncObserver interface {
	OnSyncStart(task *SyncTask)
	OnSyncComplete(task *SyncTask, result model.TableResult)
	OnSyncError(task *SyncTask, result model.TableResult)
}

// SyncService 同步服务，把所有源库整表刷新到目标库。同一时刻最多只有一次同步，
// 由 tracker 保证
type SyncService struct {
	config    *config.Config
	opener    database.Opener
	tracker   *status.Tracker
	observers []SyncObserver
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mutex     sync.RWMutex
}

// NewSyncService 创建同步服务，数据库连接在每次同步时才建立
func NewSyncService(cfg *config.Config, opener database.Opener, tracker *status.Tracker) *SyncService {
	ctx, cancel := context.WithCancel(context.Background())
	return &SyncService{
		config:  cfg,
		opener:  opener,
		tracker: tracker,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// RegisterObserver 注册观察者
func (s *SyncService) RegisterObserver(observer SyncObserver) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.observers = append(s.observers, observer)
}

// Trigger 在后台开始一次同步并立即返回 run id。已有同步时返回 ErrRunActive
func (s *SyncService) Trigger() (string, error) {
	runID, err := s.begin()
	if err != nil {
		return "", err
	}

	go func() {
		defer s.wg.Done()
		s.execute(s.ctx, runID)
	}()
	return runID, nil
}

// Run 同步执行一次同步。返回的 error 只表示整次同步失败，单表失败记录在报告中
func (s *SyncService) Run(ctx context.Context) (*model.RunReport, error) {
	runID, err := s.begin()
	if err != nil {
		return nil, err
	}
	defer s.wg.Done()

	ctx, stop := context.WithCancel(ctx)
	defer stop()
	go func() {
		select {
		case <-s.ctx.Done():
			stop()
		case <-ctx.Done():
		}
	}()

	report := s.execute(ctx, runID)
	return report, report.Err
}

// begin 占用同步锁并登记到 wg。Stop 之后拒绝新的同步，
// 保证 wg.Add 不会与 Stop 中的 wg.Wait 并发
func (s *SyncService) begin() (string, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.ctx.Err() != nil {
		return "", ErrStopped
	}
	runID := uuid.NewString()
	if !s.tracker.TryStart(runID) {
		return "", ErrRunActive
	}
	s.wg.Add(1)
	return runID, nil
}

// Stop 取消正在进行的同步，并等待其释放连接
func (s *SyncService) Stop() {
	s.mutex.Lock()
	s.cancel()
	s.mutex.Unlock()
	s.wg.Wait()
}

// Wait 等待已开始的同步结束
func (s *SyncService) Wait() {
	s.wg.Wait()
}

// execute 执行一次同步。无论结果如何，都在所有连接关闭之后释放 tracker
func (s *SyncService) execute(ctx context.Context, runID string) (report *model.RunReport) {
	report = &model.RunReport{RunID: runID, StartedAt: time.Now()}
	log := logrus.WithField("run_id", runID)

	defer func() {
		if r := recover(); r != nil {
			report.Err = fmt.Errorf("同步过程中发生 panic: %v", r)
		}
		report.FinishedAt = time.Now()
		s.tracker.Finish(report)

		entry := log.WithFields(logrus.Fields{
			"synced":      report.Count(model.OutcomeSynced),
			"skipped":     report.Count(model.OutcomeSkipped),
			"failed":      report.Count(model.OutcomeFailed),
			"rows":        report.RowsCopied(),
			"duration_ms": report.FinishedAt.Sub(report.StartedAt).Milliseconds(),
		})
		if report.Err != nil {
			entry.WithError(report.Err).Error("synchronization aborted")
			return
		}
		entry.Info("synchronization complete")
	}()

	if timeout := s.config.Sync.RunTimeout; timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	log.Info("synchronization started")
	report.Err = s.syncAll(ctx, runID, report)
	return report
}

// syncAll 先连接所有源库和目标库，再逐个源库同步。这里返回的错误都会中止本次同步
func (s *SyncService) syncAll(ctx context.Context, runID string, report *model.RunReport) error {
	sources, target, release, err := s.openAll(ctx)
	defer release()
	if err != nil {
		return err
	}

	for _, source := range sources {
		if err := s.syncSource(ctx, runID, source, target, report); err != nil {
			return err
		}
	}

	// 每张表都在各自的事务中提交，此时只有取消会让本次同步失败
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("同步被中断: %w", err)
	}
	return nil
}

// openAll 按配置顺序连接源库，最后连接目标库。
// 出错时也必须调用 release 关闭已打开的连接
func (s *SyncService) openAll(ctx context.Context) ([]*database.Conn, *database.Conn, func(), error) {
	var conns []*database.Conn
	release := func() {
		for _, conn := range conns {
			if err := conn.Close(); err != nil {
				logrus.WithError(err).Warnf("close connection %s", conn.Name())
			}
		}
	}

	sources := make([]*database.Conn, 0, len(s.config.Database.Sources))
	for _, ep := range s.config.Database.Sources {
		conn, err := s.opener.Open(ctx, ep)
		if err != nil {
			return nil, nil, release, fmt.Errorf("初始化源数据库 %s 失败: %w", ep.Name, err)
		}
		conns = append(conns, conn)
		sources = append(sources, conn)
	}

	target, err := s.opener.Open(ctx, s.config.Database.Target)
	if err != nil {
		return nil, nil, release, fmt.Errorf("初始化目标数据库 %s 失败: %w", s.config.Database.Target.Name, err)
	}
	conns = append(conns, target)

	return sources, target, release, nil
}

// syncSource 按列表顺序同步一个源库的所有表
func (s *SyncService) syncSource(ctx context.Context, runID string, source, target *database.Conn, report *model.RunReport) error {
	log := logrus.WithFields(logrus.Fields{"run_id": runID, "source": source.Name()})

	log.Info("fetching tables to sync")
	selected, err := s.sourceTables(ctx, source)
	if err != nil {
		return err
	}
	log.WithField("tables", len(selected)).Info("starting synchronization of source")

	copier := NewCopier(source, target, s.config.Sync.BatchSize)
	for _, table := range selected {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("同步被中断: %w", err)
		}

		task := &SyncTask{RunID: runID, Source: source.Name(), Table: table}
		s.notifyStart(task)

		result := copier.CopyTable(ctx, table)
		report.Tables = append(report.Tables, result)

		if result.Outcome == model.OutcomeFailed {
			s.notifyError(task, result)
		} else {
			s.notifyComplete(task, result)
		}
	}
	return nil
}

// sourceTables 返回源库中通过 include/exclude 过滤的表
func (s *SyncService) sourceTables(ctx context.Context, source *database.Conn) ([]string, error) {
	tables, err := NewSchemaInspector(source).ListTables(ctx, source.DB)
	if err != nil {
		return nil, fmt.Errorf("源数据库 %s: %w", source.Name(), err)
	}
	return filterTables(tables, s.config.Sync.IncludeTables, s.config.Sync.ExcludeTables), nil
}

func (s *SyncService) snapshotObservers() []SyncObserver {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return append([]SyncObserver(nil), s.observers...)
}

func (s *SyncService) notifyStart(task *SyncTask) {
	for _, observer := range s.snapshotObservers() {
		observer.OnSyncStart(task)
	}
}

func (s *SyncService) notifyComplete(task *SyncTask, result model.TableResult) {
	for _, observer := range s.snapshotObservers() {
		observer.OnSyncComplete(task, result)
	}
}

func (s *SyncService) notifyError(task *SyncTask, result model.TableResult) {
	for _, observer := range s.snapshotObservers() {
		observer.OnSyncError(task, result)
	}
}
