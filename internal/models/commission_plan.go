package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"gorm.io/gorm"
)

// CommissionTier 阶梯提成区间，[From, To) 左闭右开，To 为空表示无上限
type CommissionTier struct {
	From       Money  `json:"from"`
	To         *Money `json:"to,omitempty"`
	Percentage Money  `json:"percentage"`
}

// CommissionTiers 阶梯列表（json 列）
type CommissionTiers []CommissionTier

// Value 实现 driver.Valuer 接口
func (t CommissionTiers) Value() (driver.Value, error) {
	if t == nil {
		return "[]", nil
	}
	b, err := json.Marshal(t)
	return string(b), err
}

// Scan 实现 sql.Scanner 接口
func (t *CommissionTiers) Scan(value interface{}) error {
	*t = CommissionTiers{}
	return scanJSON(value, t)
}

// CommissionPlan 提成方案
type CommissionPlan struct {
	ID                          uint            `gorm:"primarykey" json:"id"`                                            // 主键
	TenantID                    uint            `gorm:"not null;index" json:"tenant_id"`                                 // 租户ID
	Name                        string          `gorm:"type:varchar(120);not null" json:"name"`                          // 方案名称
	Description                 string          `gorm:"type:text" json:"description"`                                    // 方案说明
	Type                        string          `gorm:"type:varchar(20);not null" json:"type"`                           // 方案类型 percentage/tiered/fixed/mixed
	DefaultPercentage           Money           `gorm:"type:decimal(10,2);not null;default:0" json:"default_percentage"` // 默认提成比例（百分比）
	FixedAmount                 Money           `gorm:"type:decimal(20,2);not null;default:0" json:"fixed_amount"`       // 固定提成金额
	Tiers                       CommissionTiers `gorm:"type:json" json:"tiers"`                                          // 阶梯配置
	ApplicableRoles             StringArray     `gorm:"type:json" json:"applicable_roles"`                               // 适用岗位（空表示全部）
	ApplicableProducts          UintArray       `gorm:"type:json" json:"applicable_products"`                            // 适用商品
	ApplicableCategories        StringArray     `gorm:"type:json" json:"applicable_categories"`                          // 适用分类
	CalculateOnDiscountedAmount bool            `gorm:"not null" json:"calculate_on_discounted_amount"`                  // 按折后金额计算
	IncludeTaxesInBase          bool            `gorm:"not null;default:false" json:"include_taxes_in_base"`             // 基数含税
	IncludeShippingInBase       bool            `gorm:"not null;default:false" json:"include_shipping_in_base"`          // 基数含运费
	MinOrderAmount              Money           `gorm:"type:decimal(20,2);not null;default:0" json:"min_order_amount"`   // 最低订单金额
	MaxCommissionAmount         *Money          `gorm:"type:decimal(20,2)" json:"max_commission_amount,omitempty"`       // 单笔提成上限
	IsActive                    bool            `gorm:"not null;index" json:"is_active"`                                 // 是否启用
	IsDefault                   bool            `gorm:"not null;default:false;index" json:"is_default"`                  // 是否租户默认方案
	CreatedBy                   uint            `gorm:"not null;default:0" json:"created_by"`                            // 创建人
	CreatedAt                   time.Time       `gorm:"index" json:"created_at"`                                         // 创建时间
	UpdatedAt                   time.Time       `gorm:"index" json:"updated_at"`                                         // 更新时间
	DeletedAt                   gorm.DeletedAt  `gorm:"index" json:"-"`                                                  // 软删除时间
}

// TableName 指定表名
func (CommissionPlan) TableName() string {
	return "commission_plans"
}
