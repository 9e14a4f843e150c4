package model

import "fmt"

// DatabaseEndpoint 源库或目标库的连接参数
type DatabaseEndpoint struct {
	Name     string `mapstructure:"name" json:"name"`
	Driver   string `mapstructure:"driver" json:"driver"`
	Host     string `mapstructure:"host" json:"host"`
	Port     int    `mapstructure:"port" json:"port"`
	User     string `mapstructure:"user" json:"user"`
	Password string `mapstructure:"password" json:"-"`
	Database string `mapstructure:"database" json:"database"`
	Schema   string `mapstructure:"schema" json:"schema,omitempty"`
	SSLMode  string `mapstructure:"sslmode" json:"sslmode,omitempty"`
}

// String 用于日志输出，不包含密码
func (e DatabaseEndpoint) String() string {
	return fmt.Sprintf("%s(%s://%s@%s:%d/%s)", e.Name, e.Driver, e.User, e.Host, e.Port, e.Database)
}

// ColumnDescriptor 字段名以及系统目录返回的类型
type ColumnDescriptor struct {
	Name string `gorm:"column:column_name"`
	Type string `gorm:"column:data_type"`
}

// TableDescriptor 表名及按定义顺序排列的字段
type TableDescriptor struct {
	Name    string
	Columns []ColumnDescriptor
}

func (t TableDescriptor) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, col := range t.Columns {
		names[i] = col.Name
	}
	return names
}
