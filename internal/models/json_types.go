package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// scanJSON 统一解析 json 列（sqlite 返回 string 或 []byte，postgres 返回 []byte）
func scanJSON(value interface{}, dest interface{}) error {
	switch v := value.(type) {
	case nil:
		return nil
	case []byte:
		if len(v) == 0 {
			return nil
		}
		return json.Unmarshal(v, dest)
	case string:
		if v == "" {
			return nil
		}
		return json.Unmarshal([]byte(v), dest)
	default:
		return fmt.Errorf("unsupported json column value: %T", value)
	}
}

// StringArray 字符串数组类型，用于存储角色、分类等筛选列表
type StringArray []string

// Value 实现 driver.Valuer 接口
func (s StringArray) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	b, err := json.Marshal(s)
	return string(b), err
}

// Scan 实现 sql.Scanner 接口
func (s *StringArray) Scan(value interface{}) error {
	*s = StringArray{}
	return scanJSON(value, s)
}

// Contains 判断是否包含（大小写敏感）
func (s StringArray) Contains(target string) bool {
	for _, item := range s {
		if item == target {
			return true
		}
	}
	return false
}

// UintArray ID 列表
type UintArray []uint

// Value 实现 driver.Valuer 接口
func (u UintArray) Value() (driver.Value, error) {
	if u == nil {
		return "[]", nil
	}
	b, err := json.Marshal(u)
	return string(b), err
}

// Scan 实现 sql.Scanner 接口
func (u *UintArray) Scan(value interface{}) error {
	*u = UintArray{}
	return scanJSON(value, u)
}

// Contains 判断是否包含
func (u UintArray) Contains(target uint) bool {
	for _, item := range u {
		if item == target {
			return true
		}
	}
	return false
}

// IntArray 整数列表（里程碑百分比）
type IntArray []int

// Value 实现 driver.Valuer 接口
func (a IntArray) Value() (driver.Value, error) {
	if a == nil {
		return "[]", nil
	}
	b, err := json.Marshal(a)
	return string(b), err
}

// Scan 实现 sql.Scanner 接口
func (a *IntArray) Scan(value interface{}) error {
	*a = IntArray{}
	return scanJSON(value, a)
}

// Contains 判断是否包含
func (a IntArray) Contains(target int) bool {
	for _, item := range a {
		if item == target {
			return true
		}
	}
	return false
}

// JSON 通用键值对象（审计明细等）
type JSON map[string]interface{}

// Value 实现 driver.Valuer 接口
func (j JSON) Value() (driver.Value, error) {
	if j == nil {
		return "{}", nil
	}
	b, err := json.Marshal(j)
	return string(b), err
}

// Scan 实现 sql.Scanner 接口
func (j *JSON) Scan(value interface{}) error {
	*j = JSON{}
	return scanJSON(value, j)
}
