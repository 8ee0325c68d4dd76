package models

import (
	"time"

	"gorm.io/gorm"
)

// Order 订单表（订单中心维护，提成引擎只读，另写提成幂等标记）
type Order struct {
	ID                     uint           `gorm:"primarykey" json:"id"`                                         // 主键
	TenantID               uint           `gorm:"not null;index" json:"tenant_id"`                              // 租户ID
	OrderNumber            string         `gorm:"type:varchar(64);not null;index" json:"order_number"`          // 订单编号
	Status                 string         `gorm:"type:varchar(32);not null;index" json:"status"`                // 订单状态
	Subtotal               Money          `gorm:"type:decimal(20,2);not null;default:0" json:"subtotal"`        // 商品小计
	DiscountAmount         Money          `gorm:"type:decimal(20,2);not null;default:0" json:"discount_amount"` // 优惠金额
	TaxAmount              Money          `gorm:"type:decimal(20,2);not null;default:0" json:"tax_amount"`      // 税费
	ShippingAmount         Money          `gorm:"type:decimal(20,2);not null;default:0" json:"shipping_amount"` // 运费
	TotalAmount            Money          `gorm:"type:decimal(20,2);not null;default:0" json:"total_amount"`    // 实付金额
	SalesPersonID          *uint          `gorm:"index" json:"sales_person_id,omitempty"`                       // 销售员
	AssignedWaiterID       *uint          `gorm:"index" json:"assigned_waiter_id,omitempty"`                    // 服务员
	CreatedBy              *uint          `gorm:"index" json:"created_by,omitempty"`                            // 下单人
	CompletedAt            *time.Time     `gorm:"index" json:"completed_at,omitempty"`                          // 完成时间
	CommissionCalculated   bool           `gorm:"not null;default:false;index" json:"commission_calculated"`    // 提成已计算（幂等标记）
	CommissionCalculatedAt *time.Time     `json:"commission_calculated_at,omitempty"`                           // 提成计算时间
	CreatedAt              time.Time      `gorm:"index" json:"created_at"`                                      // 创建时间
	UpdatedAt              time.Time      `gorm:"index" json:"updated_at"`                                      // 更新时间
	DeletedAt              gorm.DeletedAt `gorm:"index" json:"-"`                                               // 软删除时间

	Items []OrderItem `gorm:"foreignKey:OrderID" json:"items,omitempty"` // 订单项
}

// TableName 指定表名
func (Order) TableName() string {
	return "orders"
}

// ResolveSalesPerson 按 销售员 → 服务员 → 下单人 的顺序确定业绩归属
func (o *Order) ResolveSalesPerson() uint {
	if o == nil {
		return 0
	}
	for _, candidate := range []*uint{o.SalesPersonID, o.AssignedWaiterID, o.CreatedBy} {
		if candidate != nil && *candidate != 0 {
			return *candidate
		}
	}
	return 0
}

// OrderDate 业绩日期，优先完成时间
func (o *Order) OrderDate() time.Time {
	if o == nil {
		return time.Time{}
	}
	if o.CompletedAt != nil && !o.CompletedAt.IsZero() {
		return *o.CompletedAt
	}
	return o.CreatedAt
}

// OrderItem 订单项表
type OrderItem struct {
	ID        uint           `gorm:"primarykey" json:"id"`                                    // 主键
	OrderID   uint           `gorm:"index;not null" json:"order_id"`                          // 订单ID
	ProductID uint           `gorm:"index;not null" json:"product_id"`                        // 商品ID
	Category  string         `gorm:"type:varchar(120);index" json:"category"`                 // 商品分类
	Quantity  int            `gorm:"not null" json:"quantity"`                                // 数量
	UnitPrice Money          `gorm:"type:decimal(20,2);not null;default:0" json:"unit_price"` // 单价
	UnitCost  *Money         `gorm:"type:decimal(20,2)" json:"unit_cost,omitempty"`           // 单位成本（用于毛利）
	CreatedAt time.Time      `gorm:"index" json:"created_at"`                                 // 创建时间
	UpdatedAt time.Time      `gorm:"index" json:"updated_at"`                                 // 更新时间
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`                                          // 软删除时间
}

// TableName 指定表名
func (OrderItem) TableName() string {
	return "order_items"
}
