package service

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound 记录不存在（含跨租户访问）
	ErrNotFound = errors.New("not found")
	// ErrInvalidStateTransition 当前状态不允许该操作
	ErrInvalidStateTransition = errors.New("invalid state transition")
	// ErrConflict 与现有数据冲突
	ErrConflict = errors.New("conflict")
	// ErrValidation 输入校验失败
	ErrValidation = errors.New("validation failed")
)

var (
	// ErrDefaultPlanExists 租户已存在默认方案
	ErrDefaultPlanExists = fmt.Errorf("%w: default commission plan already exists", ErrConflict)
	// ErrPlanInUse 方案仍被员工当前配置引用
	ErrPlanInUse = fmt.Errorf("%w: commission plan is assigned to employees", ErrConflict)
	// ErrGoalBonusExists 该进度已有生效中的目标奖金
	ErrGoalBonusExists = fmt.Errorf("%w: goal bonus already exists", ErrConflict)
	// ErrGoalBonusNotEligible 进度不满足发放目标奖金的条件
	ErrGoalBonusNotEligible = fmt.Errorf("%w: goal progress is not eligible for bonus", ErrConflict)
	// ErrGoalInactive 目标未启用
	ErrGoalInactive = fmt.Errorf("%w: sales goal is not active", ErrInvalidStateTransition)
	// ErrPlanInactive 方案未启用
	ErrPlanInactive = fmt.Errorf("%w: commission plan is not active", ErrInvalidStateTransition)
)

// IsBusinessError 判断是否为重试也无法恢复的业务错误
func IsBusinessError(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrInvalidStateTransition) ||
		errors.Is(err, ErrConflict) ||
		errors.Is(err, ErrValidation)
}

func validationError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique") || strings.Contains(msg, "duplicate")
}
