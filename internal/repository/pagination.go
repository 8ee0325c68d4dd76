package repository

import (
	"time"

	"gorm.io/gorm"
)

// pageWindow 将页码与每页数量换算为 limit/offset，pageSize <= 0 表示不分页
func pageWindow(page, pageSize int) (limit, offset int) {
	if pageSize <= 0 {
		return 0, 0
	}
	if page < 1 {
		page = 1
	}
	return pageSize, (page - 1) * pageSize
}

// applyPagination 应用分页参数
func applyPagination(query *gorm.DB, page, pageSize int) *gorm.DB {
	limit, offset := pageWindow(page, pageSize)
	if query == nil || limit == 0 {
		return query
	}
	return query.Limit(limit).Offset(offset)
}

// applyCreatedRange 按创建时间过滤，区间为 [from, to)
func applyCreatedRange(query *gorm.DB, from, to *time.Time) *gorm.DB {
	if from != nil {
		query = query.Where("created_at >= ?", from.UTC())
	}
	if to != nil {
		query = query.Where("created_at < ?", to.UTC())
	}
	return query
}

// findPage 先统计总数再按排序取一页，空结果返回空切片
func findPage[T any](query *gorm.DB, page, pageSize int, order string) ([]T, int64, error) {
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	rows := make([]T, 0)
	if total == 0 {
		return rows, 0, nil
	}
	if err := applyPagination(query, page, pageSize).Order(order).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}
