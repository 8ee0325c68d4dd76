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

// BonusService 奖金服务（人工奖金与目标达成奖金）
type BonusService struct {
	bonusRepo    repository.BonusRecordRepository
	progressRepo repository.GoalProgressRepository
	employeeRepo repository.EmployeeRepository
	outbox       SignalSink
	now          func() time.Time
}

// NewBonusService 创建奖金服务
func NewBonusService(
	bonusRepo repository.BonusRecordRepository,
	progressRepo repository.GoalProgressRepository,
	employeeRepo repository.EmployeeRepository,
	outbox SignalSink,
) *BonusService {
	return &BonusService{
		bonusRepo:    bonusRepo,
		progressRepo: progressRepo,
		employeeRepo: employeeRepo,
		outbox:       sinkOrDiscard(outbox),
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// ManualBonusInput 创建人工奖金输入
type ManualBonusInput struct {
	EmployeeID  uint         `json:"employee_id" validate:"required"`
	Type        string       `json:"type" validate:"required,oneof=performance holiday referral spot other"`
	Amount      models.Money `json:"amount" validate:"gt=0"`
	Description string       `json:"description" validate:"max=500"`
	PeriodLabel string       `json:"period_label" validate:"max=64"`
}

// UpdateManualBonusInput 更新待审核人工奖金输入
type UpdateManualBonusInput struct {
	Amount      *models.Money `json:"amount" validate:"omitempty,gt=0"`
	Description *string       `json:"description" validate:"omitempty,max=500"`
}

func bonusEvent(bonus *models.BonusRecord) compensation.BonusEvent {
	return compensation.BonusEvent{
		BonusID:        bonus.ID,
		TenantID:       bonus.TenantID,
		EmployeeID:     bonus.EmployeeID,
		Amount:         bonus.Amount.Decimal,
		Type:           bonus.Type,
		JournalEntryID: bonus.JournalEntryID,
	}
}

// AwardGoalBonus 为已达成且有资格的进度创建待审核的目标奖金。
// 同一进度同时最多存在一条生效中的目标奖金。
func (s *BonusService) AwardGoalBonus(tenantID, progressID, actorID uint) (*models.BonusRecord, error) {
	var bonus *models.BonusRecord
	err := s.bonusRepo.Transaction(func(tx *gorm.DB) error {
		bonusRepo := s.bonusRepo.WithTx(tx)
		progressRepo := s.progressRepo.WithTx(tx)

		progress, err := progressRepo.GetByID(tenantID, progressID)
		if err != nil {
			return err
		}
		if progress == nil {
			return fmt.Errorf("%w: goal progress %d", ErrNotFound, progressID)
		}
		active, err := bonusRepo.FindActiveByProgress(tenantID, progressID)
		if err != nil {
			return err
		}
		if active != nil {
			return ErrGoalBonusExists
		}
		if !progress.BonusEligible || progress.BonusAwarded || !progress.BonusAmount.IsPositive() {
			return ErrGoalBonusNotEligible
		}
		if progress.Status != constants.GoalProgressStatusAchieved && progress.Status != constants.GoalProgressStatusBonusPending {
			return ErrGoalBonusNotEligible
		}

		description := strings.TrimSpace(progress.GoalSnapshot.Name)
		if progress.PeriodLabel != "" {
			description = strings.TrimSpace(fmt.Sprintf("%s %s", description, progress.PeriodLabel))
		}
		record := &models.BonusRecord{
			TenantID:              tenantID,
			EmployeeID:            progress.EmployeeID,
			Type:                  constants.BonusTypeGoalAchievement,
			SourceGoalID:          uintPtr(progress.GoalID),
			SourceGoalProgressID:  uintPtr(progress.ID),
			GoalProgressLock:      uintPtr(progress.ID),
			Amount:                progress.BonusAmount,
			AchievementPercentage: progress.FinalAchievementPercentage,
			TierLabel:             progress.TierLabel,
			PeriodLabel:           progress.PeriodLabel,
			Description:           description,
			Status:                constants.BonusStatusPending,
			CreatedBy:             actorID,
		}
		if err := bonusRepo.Create(record); err != nil {
			if isUniqueViolation(err) {
				return ErrGoalBonusExists
			}
			return err
		}
		affected, err := progressRepo.TransitionStatus(tenantID, progressID,
			[]string{constants.GoalProgressStatusAchieved, constants.GoalProgressStatusBonusPending},
			map[string]interface{}{
				"status":          constants.GoalProgressStatusBonusPending,
				"bonus_record_id": record.ID,
				"updated_at":      s.now(),
			})
		if err != nil {
			return err
		}
		if affected == 0 {
			return ErrGoalBonusNotEligible
		}
		bonus = record
		return nil
	})
	if err != nil {
		return nil, err
	}
	logger.ForTenant(tenantID).Infow("goal_bonus_awarded",
		"bonus_id", bonus.ID,
		"goal_progress_id", progressID,
		"employee_id", bonus.EmployeeID,
		"amount", bonus.Amount.String(),
	)
	s.outbox.Emit(compensation.BonusCreated{BonusEvent: bonusEvent(bonus)})
	return bonus, nil
}

// HandleGoalAchieved 目标达成后按目标配置自动创建奖金；已存在奖金时忽略
func (s *BonusService) HandleGoalAchieved(event compensation.GoalAchieved) error {
	if !event.AutoAwardBonus || !event.BonusAmount.IsPositive() {
		return nil
	}
	_, err := s.AwardGoalBonus(event.TenantID, event.GoalProgressID, 0)
	if err != nil && errors.Is(err, ErrConflict) {
		logger.ForTenant(event.TenantID).Infow("goal_bonus_auto_award_skipped",
			"goal_progress_id", event.GoalProgressID,
			"reason", err.Error(),
		)
		return nil
	}
	return err
}

// CreateManualBonus 创建人工奖金
func (s *BonusService) CreateManualBonus(tenantID, actorID uint, input ManualBonusInput) (*models.BonusRecord, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}
	employee, err := s.employeeRepo.GetByID(tenantID, input.EmployeeID)
	if err != nil {
		return nil, err
	}
	if employee == nil {
		return nil, fmt.Errorf("%w: employee %d", ErrNotFound, input.EmployeeID)
	}
	bonus := &models.BonusRecord{
		TenantID:    tenantID,
		EmployeeID:  input.EmployeeID,
		Type:        input.Type,
		Amount:      input.Amount,
		Description: strings.TrimSpace(input.Description),
		PeriodLabel: strings.TrimSpace(input.PeriodLabel),
		Status:      constants.BonusStatusPending,
		CreatedBy:   actorID,
	}
	if err := s.bonusRepo.Create(bonus); err != nil {
		return nil, err
	}
	logger.ForTenant(tenantID).Infow("manual_bonus_created", "bonus_id", bonus.ID, "type", bonus.Type, "actor_id", actorID)
	s.outbox.Emit(compensation.BonusCreated{BonusEvent: bonusEvent(bonus)})
	return bonus, nil
}

// UpdateManualBonus 修改待审核人工奖金的金额或说明
func (s *BonusService) UpdateManualBonus(tenantID, id uint, input UpdateManualBonusInput) (*models.BonusRecord, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}
	bonus, err := s.Get(tenantID, id)
	if err != nil {
		return nil, err
	}
	if bonus.IsGoalLinked() {
		return nil, validationError("goal bonus amount is derived from goal progress")
	}
	updates := map[string]interface{}{"updated_at": s.now()}
	if input.Amount != nil {
		updates["amount"] = *input.Amount
	}
	if input.Description != nil {
		updates["description"] = strings.TrimSpace(*input.Description)
	}
	if err := s.transition(tenantID, id, []string{constants.BonusStatusPending}, updates); err != nil {
		return nil, err
	}
	return s.Get(tenantID, id)
}

// Get 获取奖金记录
func (s *BonusService) Get(tenantID, id uint) (*models.BonusRecord, error) {
	bonus, err := s.bonusRepo.GetByID(tenantID, id)
	if err != nil {
		return nil, err
	}
	if bonus == nil {
		return nil, ErrNotFound
	}
	return bonus, nil
}

// List 分页查询奖金
func (s *BonusService) List(filter repository.BonusRecordListFilter) ([]models.BonusRecord, int64, error) {
	filter.Type = strings.TrimSpace(filter.Type)
	filter.Status = strings.TrimSpace(filter.Status)
	return s.bonusRepo.List(filter)
}

// Delete 删除待审核的人工奖金
func (s *BonusService) Delete(tenantID, id uint) error {
	affected, err := s.bonusRepo.DeletePendingManual(tenantID, id)
	if err != nil {
		return err
	}
	if affected > 0 {
		return nil
	}
	bonus, err := s.bonusRepo.GetByID(tenantID, id)
	if err != nil {
		return err
	}
	if bonus == nil {
		return ErrNotFound
	}
	if bonus.IsGoalLinked() {
		return fmt.Errorf("%w: goal bonus %d must be cancelled instead of deleted", ErrInvalidStateTransition, id)
	}
	return fmt.Errorf("%w: bonus %d is %s", ErrInvalidStateTransition, id, bonus.Status)
}

// Approve 审核通过：pending → approved；目标奖金同步将进度置为已发放
func (s *BonusService) Approve(tenantID, id, actorID uint) (*models.BonusRecord, error) {
	now := s.now()
	var bonus *models.BonusRecord
	err := s.bonusRepo.Transaction(func(tx *gorm.DB) error {
		repo := s.bonusRepo.WithTx(tx)
		affected, err := repo.Transition(tenantID, id, []string{constants.BonusStatusPending}, map[string]interface{}{
			"status":      constants.BonusStatusApproved,
			"approved_by": actorID,
			"approved_at": now,
			"updated_at":  now,
		})
		if err != nil {
			return err
		}
		if affected == 0 {
			return s.stateError(repo, tenantID, id)
		}
		current, err := repo.GetByID(tenantID, id)
		if err != nil {
			return err
		}
		if current.IsGoalLinked() {
			affected, err := s.progressRepo.WithTx(tx).TransitionStatus(tenantID, *current.SourceGoalProgressID,
				[]string{constants.GoalProgressStatusBonusPending},
				map[string]interface{}{
					"status":        constants.GoalProgressStatusBonusAwarded,
					"bonus_awarded": true,
					"updated_at":    now,
				})
			if err != nil {
				return err
			}
			if affected == 0 {
				return fmt.Errorf("%w: goal progress %d is not pending bonus", ErrInvalidStateTransition, *current.SourceGoalProgressID)
			}
		}
		bonus = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	logger.ForTenant(tenantID).Infow("bonus_approved", "bonus_id", id, "actor_id", actorID)
	s.outbox.Emit(compensation.BonusApproved{BonusEvent: bonusEvent(bonus)})
	return bonus, nil
}

// Reject 驳回：pending → rejected；目标奖金释放占位，进度回到已达成
func (s *BonusService) Reject(tenantID, id, actorID uint, reason string) (*models.BonusRecord, error) {
	reason = strings.TrimSpace(reason)
	if len(reason) > 500 {
		return nil, validationError("reason must be at most 500 characters")
	}
	now := s.now()
	var bonus *models.BonusRecord
	err := s.bonusRepo.Transaction(func(tx *gorm.DB) error {
		repo := s.bonusRepo.WithTx(tx)
		affected, err := repo.Transition(tenantID, id, []string{constants.BonusStatusPending}, map[string]interface{}{
			"status":             constants.BonusStatusRejected,
			"rejected_by":        actorID,
			"rejected_at":        now,
			"rejection_reason":   reason,
			"goal_progress_lock": nil,
			"updated_at":         now,
		})
		if err != nil {
			return err
		}
		if affected == 0 {
			return s.stateError(repo, tenantID, id)
		}
		current, err := repo.GetByID(tenantID, id)
		if err != nil {
			return err
		}
		if current.IsGoalLinked() {
			if err := s.releaseProgress(tx, tenantID, *current.SourceGoalProgressID, constants.BonusStatusPending, now); err != nil {
				return err
			}
		}
		bonus = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	logger.ForTenant(tenantID).Infow("bonus_rejected", "bonus_id", id, "actor_id", actorID)
	return bonus, nil
}

// Cancel 取消：pending|approved → cancelled；已发放的奖金不可取消
func (s *BonusService) Cancel(tenantID, id, actorID uint, reason string) (*models.BonusRecord, error) {
	reason = strings.TrimSpace(reason)
	if len(reason) > 500 {
		return nil, validationError("reason must be at most 500 characters")
	}
	now := s.now()
	var bonus *models.BonusRecord
	err := s.bonusRepo.Transaction(func(tx *gorm.DB) error {
		repo := s.bonusRepo.WithTx(tx)
		existing, err := repo.GetByID(tenantID, id)
		if err != nil {
			return err
		}
		if existing == nil {
			return ErrNotFound
		}
		if existing.Status != constants.BonusStatusPending && existing.Status != constants.BonusStatusApproved {
			return fmt.Errorf("%w: bonus %d is %s", ErrInvalidStateTransition, id, existing.Status)
		}
		previous := existing.Status
		affected, err := repo.Transition(tenantID, id, []string{previous}, map[string]interface{}{
			"status":              constants.BonusStatusCancelled,
			"cancelled_by":        actorID,
			"cancelled_at":        now,
			"cancellation_reason": reason,
			"goal_progress_lock":  nil,
			"updated_at":          now,
		})
		if err != nil {
			return err
		}
		if affected == 0 {
			return s.stateError(repo, tenantID, id)
		}
		if existing.IsGoalLinked() {
			if err := s.releaseProgress(tx, tenantID, *existing.SourceGoalProgressID, previous, now); err != nil {
				return err
			}
		}
		current, err := repo.GetByID(tenantID, id)
		if err != nil {
			return err
		}
		bonus = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	logger.ForTenant(tenantID).Infow("bonus_cancelled", "bonus_id", id, "actor_id", actorID)
	s.outbox.Emit(compensation.BonusCancelled{BonusEvent: bonusEvent(bonus)})
	return bonus, nil
}

// releaseProgress 目标奖金被驳回/取消后回退进度：
// 待审核时回到 achieved，已审核时回到 bonus_pending 并清除已发放标记；两种情况都解除奖金关联
// 进度不在预期状态时整个流转失败
func (s *BonusService) releaseProgress(tx *gorm.DB, tenantID, progressID uint, previousBonusStatus string, now time.Time) error {
	repo := s.progressRepo.WithTx(tx)
	from := []string{constants.GoalProgressStatusBonusPending}
	updates := map[string]interface{}{
		"status":          constants.GoalProgressStatusAchieved,
		"bonus_record_id": nil,
		"updated_at":      now,
	}
	if previousBonusStatus == constants.BonusStatusApproved {
		from = []string{constants.GoalProgressStatusBonusAwarded}
		updates["status"] = constants.GoalProgressStatusBonusPending
		updates["bonus_awarded"] = false
	}
	affected, err := repo.TransitionStatus(tenantID, progressID, from, updates)
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("%w: goal progress %d is not %s", ErrInvalidStateTransition, progressID, from[0])
	}
	return nil
}

func (s *BonusService) stateError(repo repository.BonusRecordRepository, tenantID, id uint) error {
	bonus, err := repo.GetByID(tenantID, id)
	if err != nil {
		return err
	}
	if bonus == nil {
		return ErrNotFound
	}
	return fmt.Errorf("%w: bonus %d is %s", ErrInvalidStateTransition, id, bonus.Status)
}

func (s *BonusService) transition(tenantID, id uint, from []string, updates map[string]interface{}) error {
	affected, err := s.bonusRepo.Transition(tenantID, id, from, updates)
	if err != nil {
		return err
	}
	if affected > 0 {
		return nil
	}
	return s.stateError(s.bonusRepo, tenantID, id)
}

// BulkApprove 批量审核奖金
func (s *BonusService) BulkApprove(tenantID uint, ids []uint, actorID uint) *BulkResult {
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

// ApprovedSince 员工在 [from, to) 内审核通过且未发放的奖金，employeeID 为 0 表示全部员工
func (s *BonusService) ApprovedSince(tenantID, employeeID uint, from, to time.Time) ([]models.BonusRecord, error) {
	if !to.After(from) {
		return nil, validationError("to must be after from")
	}
	return s.bonusRepo.ListApprovedUnpaid(tenantID, employeeID, from.UTC(), to.UTC())
}

// MarkPaid 将已审核奖金标记为已发放；目标奖金要求进度已发放并推进到 bonus_paid
func (s *BonusService) MarkPaid(tenantID uint, ids []uint, payrollRunID string) (*BulkResult, error) {
	payrollRunID = strings.TrimSpace(payrollRunID)
	if payrollRunID == "" || len(payrollRunID) > 64 {
		return nil, validationError("payroll_run_id is required and must be at most 64 characters")
	}
	result := newBulkResult(len(ids))
	for _, id := range ids {
		if err := s.markOnePaid(tenantID, id, payrollRunID); err != nil {
			result.fail(id, err)
			continue
		}
		result.ok()
	}
	logger.ForTenant(tenantID).Infow("bonus_marked_paid",
		"payroll_run_id", payrollRunID,
		"requested", result.Requested,
		"paid", result.Succeeded,
	)
	return result, nil
}

func (s *BonusService) markOnePaid(tenantID, id uint, payrollRunID string) error {
	now := s.now()
	return s.bonusRepo.Transaction(func(tx *gorm.DB) error {
		repo := s.bonusRepo.WithTx(tx)
		bonus, err := repo.GetByID(tenantID, id)
		if err != nil {
			return err
		}
		if bonus == nil {
			return ErrNotFound
		}
		if bonus.Status != constants.BonusStatusApproved {
			return fmt.Errorf("%w: bonus %d is %s", ErrInvalidStateTransition, id, bonus.Status)
		}
		if bonus.IsGoalLinked() {
			affected, err := s.progressRepo.WithTx(tx).TransitionStatus(tenantID, *bonus.SourceGoalProgressID,
				[]string{constants.GoalProgressStatusBonusAwarded, constants.GoalProgressStatusBonusPaid},
				map[string]interface{}{
					"status":     constants.GoalProgressStatusBonusPaid,
					"updated_at": now,
				})
			if err != nil {
				return err
			}
			if affected == 0 {
				return fmt.Errorf("%w: goal progress %d has not been awarded", ErrInvalidStateTransition, *bonus.SourceGoalProgressID)
			}
		}
		affected, err := repo.Transition(tenantID, id, []string{constants.BonusStatusApproved}, map[string]interface{}{
			"status":         constants.BonusStatusPaid,
			"payroll_run_id": payrollRunID,
			"paid_at":        now,
			"updated_at":     now,
		})
		if err != nil {
			return err
		}
		if affected == 0 {
			return s.stateError(repo, tenantID, id)
		}
		return nil
	})
}

// LinkJournalEntry 记录总账服务返回的凭证号
func (s *BonusService) LinkJournalEntry(tenantID, id uint, entryID string) (*models.BonusRecord, error) {
	entryID = strings.TrimSpace(entryID)
	if entryID == "" || len(entryID) > 64 {
		return nil, validationError("journal_entry_id is required and must be at most 64 characters")
	}
	err := s.transition(tenantID, id,
		[]string{constants.BonusStatusPending, constants.BonusStatusApproved, constants.BonusStatusPaid},
		map[string]interface{}{
			"journal_entry_id": entryID,
			"updated_at":       s.now(),
		})
	if err != nil {
		return nil, err
	}
	return s.Get(tenantID, id)
}
