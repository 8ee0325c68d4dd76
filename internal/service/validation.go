package service

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/tienda-next/internal/models"

	"github.com/go-playground/validator/v10"
)

var (
	inputValidatorOnce sync.Once
	inputValidator     *validator.Validate
)

// getValidator 返回共享的结构体校验器，字段名取 json tag，金额按数值比较
func getValidator() *validator.Validate {
	inputValidatorOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(field reflect.StructField) string {
			name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return field.Name
			}
			return name
		})
		v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
			if money, ok := field.Interface().(models.Money); ok {
				value, _ := money.Decimal.Float64()
				return value
			}
			return nil
		}, models.Money{})
		inputValidator = v
	})
	return inputValidator
}

// validateInput 校验输入结构体，失败时包装为 ErrValidation
func validateInput(input interface{}) error {
	err := getValidator().Struct(input)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	parts := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		if fe.Param() != "" {
			parts = append(parts, fmt.Sprintf("%s must satisfy %s=%s", fe.Field(), fe.Tag(), fe.Param()))
			continue
		}
		parts = append(parts, fmt.Sprintf("%s must satisfy %s", fe.Field(), fe.Tag()))
	}
	return fmt.Errorf("%w: %s", ErrValidation, strings.Join(parts, "; "))
}

// validateCommissionTiers 阶梯需 From >= 0、To > From、比例在 [0, 100]，且区间不重叠
func validateCommissionTiers(tiers models.CommissionTiers) error {
	for i, tier := range tiers {
		if tier.From.IsNegative() {
			return validationError("tiers[%d].from must be >= 0", i)
		}
		if tier.To != nil && !tier.To.GreaterThan(tier.From.Decimal) {
			return validationError("tiers[%d].to must be greater than from", i)
		}
		if tier.Percentage.IsNegative() || tier.Percentage.GreaterThan(hundredPercent) {
			return validationError("tiers[%d].percentage must be between 0 and 100", i)
		}
	}
	sorted := toCompensationTiers(tiers)
	for i := 1; i < len(sorted); i++ {
		prev := sorted[i-1]
		if prev.To == nil || prev.To.GreaterThan(sorted[i].From) {
			return validationError("tiers overlap at from=%s", sorted[i].From.StringFixed(2))
		}
	}
	return nil
}

// validateGoalBonusTiers 奖金阶梯门槛 >= 0、金额 >= 0
func validateGoalBonusTiers(tiers models.GoalBonusTiers) error {
	for i, tier := range tiers {
		if tier.AchievementPercentage.IsNegative() {
			return validationError("bonus_tiers[%d].achievement_percentage must be >= 0", i)
		}
		if tier.Amount.IsNegative() {
			return validationError("bonus_tiers[%d].amount must be >= 0", i)
		}
	}
	return nil
}

// validateMilestones 里程碑取值 (0, 100]
func validateMilestones(milestones []int) error {
	for _, m := range milestones {
		if m <= 0 || m > 100 {
			return validationError("progress_milestones must be between 1 and 100, got %d", m)
		}
	}
	return nil
}
