package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tienda-next/internal/compensation"
	"github.com/tienda-next/internal/constants"
	"github.com/tienda-next/internal/logger"
	"github.com/tienda-next/internal/models"
	"github.com/tienda-next/internal/repository"

	"gorm.io/gorm"
)

// CommissionConfigResolver 解析员工生效提成配置
type CommissionConfigResolver interface {
	Resolve(tenantID, employeeID uint, asOf time.Time) (*compensation.ResolvedCommissionConfig, error)
}

// CommissionService 订单提成计算与审核服务
type CommissionService struct {
	recordRepo   repository.CommissionRecordRepository
	orderRepo    repository.OrderRepository
	employeeRepo repository.EmployeeRepository
	resolver     CommissionConfigResolver
	outbox       SignalSink
	now          func() time.Time
}

// NewCommissionService 创建提成服务
func NewCommissionService(
	recordRepo repository.CommissionRecordRepository,
	orderRepo repository.OrderRepository,
	employeeRepo repository.EmployeeRepository,
	resolver CommissionConfigResolver,
	outbox SignalSink,
) *CommissionService {
	return &CommissionService{
		recordRepo:   recordRepo,
		orderRepo:    orderRepo,
		employeeRepo: employeeRepo,
		resolver:     resolver,
		outbox:       sinkOrDiscard(outbox),
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// CommissionOutcome 计算结果：生成了记录或被跳过
type CommissionOutcome struct {
	Record  *models.CommissionRecord `json:"record,omitempty"`
	Skipped *compensation.Skipped    `json:"skipped,omitempty"`
}

func skippedOutcome(reason string) *CommissionOutcome {
	return &CommissionOutcome{Skipped: compensation.Skip(reason)}
}

// errAlreadyClaimed 事务内发现订单已被其他请求计算
var errAlreadyClaimed = errors.New("commission already claimed")

// CalculateCommission 计算订单提成。
// 订单幂等标记与提成记录在同一事务内写入，重复调用只会生成一条记录。
func (s *CommissionService) CalculateCommission(tenantID, orderID uint) (*CommissionOutcome, error) {
	log := logger.ForTenant(tenantID, "order_id", orderID)
	order, err := s.orderRepo.GetByID(tenantID, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, fmt.Errorf("%w: order %d", ErrNotFound, orderID)
	}
	if order.Status != constants.OrderStatusCompleted && order.Status != constants.OrderStatusPaid {
		return skippedOutcome(constants.CommissionSkipOrderNotCompleted), nil
	}
	if order.CommissionCalculated {
		return skippedOutcome(constants.CommissionSkipAlreadyCalculated), nil
	}
	employeeID := order.ResolveSalesPerson()
	if employeeID == 0 {
		return skippedOutcome(constants.CommissionSkipNoSalesperson), nil
	}
	employee, err := s.employeeRepo.GetByID(tenantID, employeeID)
	if err != nil {
		return nil, err
	}
	if employee == nil {
		log.Warnw("commission_salesperson_missing", "employee_id", employeeID)
		return skippedOutcome(constants.CommissionSkipNoSalesperson), nil
	}

	orderDate := order.OrderDate().UTC()
	resolved, err := s.resolver.Resolve(tenantID, employeeID, orderDate)
	if err != nil {
		return nil, err
	}
	if resolved == nil {
		return skippedOutcome(constants.CommissionSkipNoApplicablePlan), nil
	}
	if !resolved.AppliesToRole(employee.Role) {
		return skippedOutcome(constants.CommissionSkipRoleNotApplicable), nil
	}
	if resolved.ScopesItems() {
		contribution := ContributionFromOrder(order)
		if len(compensation.MatchingItems(contribution.Order, resolved.Scope())) == 0 {
			return skippedOutcome(constants.CommissionSkipNoApplicableItems), nil
		}
	}

	result, skipped := compensation.Calculate(orderAmountsOf(order), *resolved)
	if skipped != nil {
		return &CommissionOutcome{Skipped: skipped}, nil
	}

	record := buildCommissionRecord(order, employeeID, orderDate, resolved, result)
	now := s.now()
	err = s.recordRepo.Transaction(func(tx *gorm.DB) error {
		claimed, err := s.orderRepo.WithTx(tx).ClaimCommission(tenantID, orderID, now)
		if err != nil {
			return err
		}
		if !claimed {
			return errAlreadyClaimed
		}
		if err := s.recordRepo.WithTx(tx).Create(record); err != nil {
			if isUniqueViolation(err) {
				return errAlreadyClaimed
			}
			return err
		}
		return nil
	})
	if errors.Is(err, errAlreadyClaimed) {
		return skippedOutcome(constants.CommissionSkipAlreadyCalculated), nil
	}
	if err != nil {
		return nil, err
	}

	log.Infow("commission_calculated",
		"employee_id", employeeID,
		"record_id", record.ID,
		"plan_id", record.PlanID,
		"amount", record.CommissionAmount.String(),
		"was_capped", record.WasCapped,
	)
	s.outbox.Emit(compensation.CommissionCalculated{
		CommissionRecordID: record.ID,
		TenantID:           tenantID,
		EmployeeID:         employeeID,
		OrderID:            orderID,
		Amount:             record.CommissionAmount.Decimal,
	})
	return &CommissionOutcome{Record: record}, nil
}

func buildCommissionRecord(order *models.Order, employeeID uint, orderDate time.Time, resolved *compensation.ResolvedCommissionConfig, result compensation.CommissionResult) *models.CommissionRecord {
	record := &models.CommissionRecord{
		TenantID:         order.TenantID,
		EmployeeID:       employeeID,
		OrderID:          order.ID,
		OrderNumber:      order.OrderNumber,
		OrderDate:        orderDate,
		OrderSubtotal:    order.Subtotal,
		OrderDiscount:    order.DiscountAmount,
		OrderTax:         order.TaxAmount,
		OrderShipping:    order.ShippingAmount,
		OrderTotal:       order.TotalAmount,
		PlanID:           resolved.PlanID,
		PlanName:         resolved.PlanName,
		PlanType:         resolved.PlanType(),
		EmployeeConfigID: resolved.EmployeeConfigID,
		BaseAmount:       models.NewMoneyFromDecimal(result.Base),
		Percentage:       models.NewMoneyFromDecimal(result.Percentage),
		FixedAmount:      models.NewMoneyFromDecimal(result.FixedAmount),
		CommissionAmount: models.NewMoneyFromDecimal(result.Amount),
		WasOverridden:    result.WasOverridden,
		WasCapped:        result.WasCapped,
		Status:           constants.CommissionStatusPending,
	}
	if result.OriginalAmount != nil {
		record.OriginalAmount = models.MoneyPtr(*result.OriginalAmount)
	}
	if result.Tier != nil {
		record.TierFrom = models.MoneyPtr(result.Tier.From)
		record.TierTo = models.DecimalToMoneyPtr(result.Tier.To)
		record.TierPercentage = models.MoneyPtr(result.Tier.Percentage)
	}
	return record
}

// Get 获取提成记录
func (s *CommissionService) Get(tenantID, id uint) (*models.CommissionRecord, error) {
	record, err := s.recordRepo.GetByID(tenantID, id)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, ErrNotFound
	}
	return record, nil
}

// List 分页查询提成记录
func (s *CommissionService) List(filter repository.CommissionRecordListFilter) ([]models.CommissionRecord, int64, error) {
	filter.Status = strings.TrimSpace(filter.Status)
	filter.PayrollRun = strings.TrimSpace(filter.PayrollRun)
	return s.recordRepo.List(filter)
}

// Approve 审核通过：pending → approved
func (s *CommissionService) Approve(tenantID, id, actorID uint) (*models.CommissionRecord, error) {
	now := s.now()
	updates := map[string]interface{}{
		"status":      constants.CommissionStatusApproved,
		"approved_by": actorID,
		"approved_at": now,
		"updated_at":  now,
	}
	if err := s.transition(tenantID, id, constants.CommissionStatusPending, updates); err != nil {
		return nil, err
	}
	logger.ForTenant(tenantID).Infow("commission_approved", "record_id", id, "actor_id", actorID)
	return s.Get(tenantID, id)
}

// Reject 驳回：pending → rejected
func (s *CommissionService) Reject(tenantID, id, actorID uint, reason string) (*models.CommissionRecord, error) {
	reason = strings.TrimSpace(reason)
	if len(reason) > 500 {
		return nil, validationError("reason must be at most 500 characters")
	}
	now := s.now()
	updates := map[string]interface{}{
		"status":           constants.CommissionStatusRejected,
		"rejected_by":      actorID,
		"rejected_at":      now,
		"rejection_reason": reason,
		"updated_at":       now,
	}
	if err := s.transition(tenantID, id, constants.CommissionStatusPending, updates); err != nil {
		return nil, err
	}
	logger.ForTenant(tenantID).Infow("commission_rejected", "record_id", id, "actor_id", actorID)
	return s.Get(tenantID, id)
}

func (s *CommissionService) transition(tenantID, id uint, from string, updates map[string]interface{}) error {
	affected, err := s.recordRepo.Transition(tenantID, id, from, updates)
	if err != nil {
		return err
	}
	if affected > 0 {
		return nil
	}
	record, err := s.recordRepo.GetByID(tenantID, id)
	if err != nil {
		return err
	}
	if record == nil {
		return ErrNotFound
	}
	return fmt.Errorf("%w: commission %d is %s", ErrInvalidStateTransition, id, record.Status)
}

// BulkApprove 批量审核，逐条处理并汇总失败原因
func (s *CommissionService) BulkApprove(tenantID uint, ids []uint, actorID uint) *BulkResult {
	result := newBulkResult(len(ids))
	for _, id := range ids {
		if _, err := s.Approve(tenantID, id, actorID); err != nil {
			result.fail(id, err)
			continue
		}
		result.ok()
	}
	return result
}

// ApprovedSince 员工在 [from, to) 内审核通过且未发放的提成，employeeID 为 0 表示全部员工
func (s *CommissionService) ApprovedSince(tenantID, employeeID uint, from, to time.Time) ([]models.CommissionRecord, error) {
	if !to.After(from) {
		return nil, validationError("to must be after from")
	}
	return s.recordRepo.ListApprovedUnpaid(tenantID, employeeID, from.UTC(), to.UTC())
}

// MarkPaid 将已审核提成标记为已发放，只处理当前为 approved 的记录
func (s *CommissionService) MarkPaid(tenantID uint, ids []uint, payrollRunID string) (*BulkResult, error) {
	payrollRunID = strings.TrimSpace(payrollRunID)
	if payrollRunID == "" || len(payrollRunID) > 64 {
		return nil, validationError("payroll_run_id is required and must be at most 64 characters")
	}
	result := newBulkResult(len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	paid, err := s.recordRepo.MarkPaid(tenantID, ids, payrollRunID, s.now())
	if err != nil {
		return nil, err
	}
	result.Succeeded = int(paid)
	if int(paid) < len(ids) {
		rows, _, err := s.recordRepo.List(repository.CommissionRecordListFilter{
			TenantID:   tenantID,
			PayrollRun: payrollRunID,
			Status:     constants.CommissionStatusPaid,
		})
		if err != nil {
			return nil, err
		}
		paidSet := make(map[uint]struct{}, len(rows))
		for _, row := range rows {
			paidSet[row.ID] = struct{}{}
		}
		for _, id := range ids {
			if _, ok := paidSet[id]; !ok {
				result.fail(id, fmt.Errorf("%w: commission %d is not approved", ErrInvalidStateTransition, id))
			}
		}
	}
	logger.ForTenant(tenantID).Infow("commission_marked_paid",
		"payroll_run_id", payrollRunID,
		"requested", len(ids),
		"paid", paid,
	)
	return result, nil
}
