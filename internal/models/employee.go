package models

import (
	"time"

	"gorm.io/gorm"
)

// Employee 员工档案（人事模块维护，这里只读取岗位与团队）
type Employee struct {
	ID        uint           `gorm:"primarykey" json:"id"`                   // 主键
	TenantID  uint           `gorm:"not null;index" json:"tenant_id"`        // 租户ID
	Name      string         `gorm:"type:varchar(120);not null" json:"name"` // 姓名
	Role      string         `gorm:"type:varchar(64);index" json:"role"`     // 岗位
	TeamID    *uint          `gorm:"index" json:"team_id,omitempty"`         // 团队
	IsActive  bool           `gorm:"not null;index" json:"is_active"`        // 是否在职
	CreatedAt time.Time      `gorm:"index" json:"created_at"`                // 创建时间
	UpdatedAt time.Time      `gorm:"index" json:"updated_at"`                // 更新时间
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`                         // 软删除时间
}

// TableName 指定表名
func (Employee) TableName() string {
	return "employees"
}
