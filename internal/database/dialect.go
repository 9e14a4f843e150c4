package database

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"tablesync/internal/model"
)

const (
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"

	DefaultPostgresPort   = 5432
	DefaultMySQLPort      = 3306
	DefaultPostgresSchema = "public"
)

var (
	ErrUnsupportedDriver = errors.New("unsupported database driver")
	ErrInvalidIdentifier = errors.New("invalid identifier")
)

// Dialect 封装不同数据库在系统目录查询、标识符引用和错误识别上的差异。
// 查询统一使用 '?' 占位符，由 gorm 按方言改写
type Dialect interface {
	Name() string
	Dialector(ep model.DatabaseEndpoint) gorm.Dialector
	QuoteIdent(name string) (string, error)
	QuoteTable(schema, name string) (string, error)
	TablesQuery(schema string) (string, []any)
	ColumnsQuery(schema, table string) (string, []any)
	IsUndefinedTable(err error) bool
	// CREATE TABLE 能否与同一事务中的其他语句一起回滚
	TransactionalDDL() bool
}

var (
	MySQL    Dialect = mysqlDialect{}
	Postgres Dialect = postgresDialect{}
)

// DialectFor 根据配置的驱动名返回方言，为空时使用 postgres
func DialectFor(driver string) (Dialect, error) {
	switch strings.ToLower(driver) {
	case "", DriverPostgres, "postgresql", "pg":
		return Postgres, nil
	case DriverMySQL:
		return MySQL, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedDriver, driver)
	}
}

// ValidateIdent 拒绝无法安全引用的名称。gorm 会把引号内的 '?' 也当作占位符
func ValidateIdent(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidIdentifier)
	}
	if strings.ContainsRune(name, 0) {
		return fmt.Errorf("%w: %q contains NUL", ErrInvalidIdentifier, name)
	}
	if strings.ContainsRune(name, '?') {
		return fmt.Errorf("%w: %q contains '?'", ErrInvalidIdentifier, name)
	}
	return nil
}

func QuoteIdents(d Dialect, names []string) ([]string, error) {
	quoted := make([]string, len(names))
	for i, name := range names {
		q, err := d.QuoteIdent(name)
		if err != nil {
			return nil, err
		}
		quoted[i] = q
	}
	return quoted, nil
}

type postgresDialect struct{}

func (postgresDialect) Name() string { return DriverPostgres }

func (postgresDialect) Dialector(ep model.DatabaseEndpoint) gorm.Dialector {
	return postgres.New(postgres.Config{DSN: PostgresDSN(ep)})
}

func (postgresDialect) QuoteIdent(name string) (string, error) {
	if err := ValidateIdent(name); err != nil {
		return "", err
	}
	return pgx.Identifier{name}.Sanitize(), nil
}

func (d postgresDialect) QuoteTable(schema, name string) (string, error) {
	if err := ValidateIdent(name); err != nil {
		return "", err
	}
	if schema == "" {
		return pgx.Identifier{name}.Sanitize(), nil
	}
	if err := ValidateIdent(schema); err != nil {
		return "", err
	}
	return pgx.Identifier{schema, name}.Sanitize(), nil
}

func (postgresDialect) TablesQuery(schema string) (string, []any) {
	return `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = ?
		AND table_type = 'BASE TABLE'
		ORDER BY table_name`, []any{schemaOrDefault(schema)}
}

// format_type 保留长度和精度，类型可以原样用于 CREATE TABLE
func (postgresDialect) ColumnsQuery(schema, table string) (string, []any) {
	return `
		SELECT a.attname AS column_name, format_type(a.atttypid, a.atttypmod) AS data_type
		FROM pg_catalog.pg_attribute a
		JOIN pg_catalog.pg_class c ON c.oid = a.attrelid
		JOIN pg_catalog.pg_namespace n ON n.oid = c.relnamespace
		WHERE n.nspname = ?
		AND c.relname = ?
		AND c.relkind IN ('r', 'p')
		AND a.attnum > 0
		AND NOT a.attisdropped
		ORDER BY a.attnum`, []any{schemaOrDefault(schema), table}
}

func (postgresDialect) IsUndefinedTable(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "42P01"
}

func (postgresDialect) TransactionalDDL() bool { return true }

type mysqlDialect struct{}

func (mysqlDialect) Name() string { return DriverMySQL }

func (mysqlDialect) Dialector(ep model.DatabaseEndpoint) gorm.Dialector {
	return gormmysql.Open(MySQLDSN(ep))
}

func (mysqlDialect) QuoteIdent(name string) (string, error) {
	if err := ValidateIdent(name); err != nil {
		return "", err
	}
	return "`" + strings.ReplaceAll(name, "`", "``") + "`", nil
}

// MySQL 连接只对应一个库，不使用 schema
func (d mysqlDialect) QuoteTable(_ string, name string) (string, error) {
	return d.QuoteIdent(name)
}

func (mysqlDialect) TablesQuery(string) (string, []any) {
	return `
		SELECT TABLE_NAME AS table_name
		FROM INFORMATION_SCHEMA.TABLES
		WHERE TABLE_SCHEMA = DATABASE()
		AND TABLE_TYPE = 'BASE TABLE'
		ORDER BY TABLE_NAME`, nil
}

func (mysqlDialect) ColumnsQuery(_ string, table string) (string, []any) {
	return `
		SELECT COLUMN_NAME AS column_name, COLUMN_TYPE AS data_type
		FROM INFORMATION_SCHEMA.COLUMNS
		WHERE TABLE_SCHEMA = DATABASE()
		AND TABLE_NAME = ?
		ORDER BY ORDINAL_POSITION`, []any{table}
}

func (mysqlDialect) IsUndefinedTable(err error) bool {
	var myErr *mysql.MySQLError
	return errors.As(err, &myErr) && myErr.Number == 1146
}

// MySQL 执行 DDL 会隐式提交当前事务
func (mysqlDialect) TransactionalDDL() bool { return false }

// PostgresDSN 返回 URL 形式的 DSN，密码中的空格和引号不会被破坏
func PostgresDSN(ep model.DatabaseEndpoint) string {
	port := ep.Port
	if port == 0 {
		port = DefaultPostgresPort
	}
	sslmode := ep.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(ep.User, ep.Password),
		Host:     net.JoinHostPort(ep.Host, strconv.Itoa(port)),
		Path:     "/" + ep.Database,
		RawQuery: url.Values{"sslmode": {sslmode}}.Encode(),
	}
	return u.String()
}

// MySQLDSN 返回数据库连接字符串
func MySQLDSN(ep model.DatabaseEndpoint) string {
	port := ep.Port
	if port == 0 {
		port = DefaultMySQLPort
	}
	cfg := mysql.NewConfig()
	cfg.User = ep.User
	cfg.Passwd = ep.Password
	cfg.Net = "tcp"
	cfg.Addr = net.JoinHostPort(ep.Host, strconv.Itoa(port))
	cfg.DBName = ep.Database
	cfg.ParseTime = true
	cfg.Params = map[string]string{
		"charset": "utf8mb4",
		// 零值日期原样复制
		"sql_mode": "'ALLOW_INVALID_DATES'",
	}
	return cfg.FormatDSN()
}

func schemaOrDefault(schema string) string {
	if schema == "" {
		return DefaultPostgresSchema
	}
	return schema
}
