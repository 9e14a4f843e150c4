package database

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"tablesync/internal/model"
)

// Conn 一个已打开的数据库连接。每次同步独占自己的 Conn，并在所有退出路径上关闭
type Conn struct {
	DB       *gorm.DB
	Dialect  Dialect
	Endpoint model.DatabaseEndpoint
}

func (c *Conn) Name() string { return c.Endpoint.Name }

// Schema 列出表和新建表所在的 schema
func (c *Conn) Schema() string {
	if c.Dialect.Name() == DriverPostgres {
		return schemaOrDefault(c.Endpoint.Schema)
	}
	return ""
}

// QuoteTable 返回带 schema 的表名引用
func (c *Conn) QuoteTable(name string) (string, error) {
	return c.Dialect.QuoteTable(c.Schema(), name)
}

// Close 关闭底层连接池
func (c *Conn) Close() error {
	sqlDB, err := c.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Opener 为连接配置打开 Conn，测试中可以替换为 mock
type Opener interface {
	Open(ctx context.Context, ep model.DatabaseEndpoint) (*Conn, error)
}

// GormOpener 通过 gorm 建立真实连接
type GormOpener struct {
	// 是否打印 gorm SQL 日志
	LogSQL bool
}

// Open 连接数据库并 ping 验证
func (o GormOpener) Open(ctx context.Context, ep model.DatabaseEndpoint) (*Conn, error) {
	dialect, err := DialectFor(ep.Driver)
	if err != nil {
		return nil, err
	}

	logLevel := logger.Silent
	if o.LogSQL {
		logLevel = logger.Info
	}

	db, err := gorm.Open(dialect.Dialector(ep), &gorm.Config{
		Logger:                 logger.Default.LogMode(logLevel),
		SkipDefaultTransaction: true,
		DisableAutomaticPing:   true,
	})
	if err != nil {
		return nil, fmt.Errorf("连接数据库 %s 失败: %w", ep, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// 每次同步每个库只使用一个连接
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("数据库 %s 连接测试失败: %w", ep, err)
	}

	return &Conn{DB: db, Dialect: dialect, Endpoint: ep}, nil
}
