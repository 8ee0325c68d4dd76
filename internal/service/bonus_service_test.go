package service

import (
	"errors"
	"testing"
	"time"

	"github.com/tienda-next/internal/constants"
	"github.com/tienda-next/internal/models"
	"github.com/tienda-next/internal/repository"

	"github.com/shopspring/decimal"
)

// achieveGoal 创建目标并用一笔订单让员工达成，返回达成的进度
func achieveGoal(t *testing.T, env *compensationTestEnv, employee *models.Employee, autoAward bool) *models.GoalProgress {
	t.Helper()
	input := monthlyAmountGoalInput("1000")
	input.AutoAwardBonus = autoAward
	createActiveGoal(t, env, input)
	order := createCompensationTestOrder(t, env.db, employee.ID, "1200", time.Now())
	result := applyStoreOrder(t, env, employee.ID, order)
	if len(result.Achievements) != 1 {
		t.Fatalf("expected goal to be achieved, got %+v", result)
	}
	return loadOnlyProgress(t, env, employee.ID)
}

func TestAwardGoalBonusRejectsDuplicates(t *testing.T) {
	env := setupCompensationServiceTest(t)
	seller := createCompensationTestEmployee(t, env.db, "Alba", "sales")
	progress := achieveGoal(t, env, seller, false)

	bonus, err := env.bonusSvc.AwardGoalBonus(compensationTestTenant, progress.ID, 3)
	if err != nil {
		t.Fatalf("award bonus failed: %v", err)
	}
	if bonus.Status != constants.BonusStatusPending || bonus.Type != constants.BonusTypeGoalAchievement {
		t.Fatalf("expected pending goal bonus, got %s %s", bonus.Status, bonus.Type)
	}
	if !bonus.Amount.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("expected bonus amount 100, got %s", bonus.Amount.String())
	}

	if _, err := env.bonusSvc.AwardGoalBonus(compensationTestTenant, progress.ID, 3); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected conflict on duplicate award, got %v", err)
	}
	if _, err := env.bonusSvc.AwardGoalBonus(compensationTestTenant, 9999, 3); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	updated, err := env.progressSvc.Get(compensationTestTenant, progress.ID)
	if err != nil {
		t.Fatalf("get progress failed: %v", err)
	}
	if updated.Status != constants.GoalProgressStatusBonusPending || updated.BonusRecordID == nil || *updated.BonusRecordID != bonus.ID {
		t.Fatalf("expected progress bonus_pending linked to bonus %d, got %s %+v", bonus.ID, updated.Status, updated.BonusRecordID)
	}
	if created := env.outbox.OfType(constants.SignalBonusCreated); len(created) != 1 {
		t.Fatalf("expected one bonus.created signal, got %d", len(created))
	}
}

func TestAwardGoalBonusRequiresEligibility(t *testing.T) {
	env := setupCompensationServiceTest(t)
	seller := createCompensationTestEmployee(t, env.db, "Bruno", "sales")
	createActiveGoal(t, env, monthlyAmountGoalInput("1000"))
	progress := loadOnlyProgress(t, env, seller.ID)

	if _, err := env.bonusSvc.AwardGoalBonus(compensationTestTenant, progress.ID, 3); !errors.Is(err, ErrGoalBonusNotEligible) {
		t.Fatalf("expected not eligible for in-progress goal, got %v", err)
	}
}

func TestGoalBonusLifecycleThroughPayroll(t *testing.T) {
	env := setupCompensationServiceTest(t)
	seller := createCompensationTestEmployee(t, env.db, "Carla", "sales")
	progress := achieveGoal(t, env, seller, false)
	bonus, err := env.bonusSvc.AwardGoalBonus(compensationTestTenant, progress.ID, 3)
	if err != nil {
		t.Fatalf("award bonus failed: %v", err)
	}

	if _, err := env.bonusSvc.Approve(compensationTestTenant, bonus.ID, 4); err != nil {
		t.Fatalf("approve failed: %v", err)
	}
	if _, err := env.bonusSvc.Approve(compensationTestTenant, bonus.ID, 4); !errors.Is(err, ErrInvalidStateTransition) {
		t.Fatalf("expected invalid state on double approve, got %v", err)
	}
	awarded, _ := env.progressSvc.Get(compensationTestTenant, progress.ID)
	if awarded.Status != constants.GoalProgressStatusBonusAwarded || !awarded.BonusAwarded {
		t.Fatalf("expected progress bonus_awarded, got %s awarded=%v", awarded.Status, awarded.BonusAwarded)
	}

	from := time.Now().UTC().Add(-time.Hour)
	to := time.Now().UTC().Add(time.Hour)
	approved, err := env.bonusSvc.ApprovedSince(compensationTestTenant, seller.ID, from, to)
	if err != nil || len(approved) != 1 {
		t.Fatalf("expected one approved bonus, got %d err=%v", len(approved), err)
	}

	linked, err := env.bonusSvc.LinkJournalEntry(compensationTestTenant, bonus.ID, "JE-1001")
	if err != nil || linked.JournalEntryID != "JE-1001" {
		t.Fatalf("link journal entry failed: %v", err)
	}

	paid, err := env.bonusSvc.MarkPaid(compensationTestTenant, []uint{bonus.ID}, "PR-2026-10")
	if err != nil {
		t.Fatalf("mark paid failed: %v", err)
	}
	if paid.Succeeded != 1 || paid.Failed != 0 {
		t.Fatalf("expected bonus paid, got %+v", paid)
	}
	final, _ := env.progressSvc.Get(compensationTestTenant, progress.ID)
	if final.Status != constants.GoalProgressStatusBonusPaid {
		t.Fatalf("expected progress bonus_paid, got %s", final.Status)
	}

	if _, err := env.bonusSvc.Cancel(compensationTestTenant, bonus.ID, 4, "late"); !errors.Is(err, ErrInvalidStateTransition) {
		t.Fatalf("expected paid bonus cancel to fail, got %v", err)
	}
	if _, err := env.bonusSvc.Reject(compensationTestTenant, bonus.ID, 4, "late"); !errors.Is(err, ErrInvalidStateTransition) {
		t.Fatalf("expected paid bonus reject to fail, got %v", err)
	}
	if approvedSignals := env.outbox.OfType(constants.SignalBonusApproved); len(approvedSignals) != 1 {
		t.Fatalf("expected one bonus.approved signal, got %d", len(approvedSignals))
	}
}

func TestCancelApprovedGoalBonusReleasesProgress(t *testing.T) {
	env := setupCompensationServiceTest(t)
	seller := createCompensationTestEmployee(t, env.db, "Dario", "sales")
	progress := achieveGoal(t, env, seller, false)
	bonus, err := env.bonusSvc.AwardGoalBonus(compensationTestTenant, progress.ID, 3)
	if err != nil {
		t.Fatalf("award bonus failed: %v", err)
	}
	if _, err := env.bonusSvc.Approve(compensationTestTenant, bonus.ID, 4); err != nil {
		t.Fatalf("approve failed: %v", err)
	}

	cancelled, err := env.bonusSvc.Cancel(compensationTestTenant, bonus.ID, 4, "wrong period")
	if err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if cancelled.Status != constants.BonusStatusCancelled || cancelled.CancellationReason != "wrong period" {
		t.Fatalf("expected cancelled bonus, got %s %q", cancelled.Status, cancelled.CancellationReason)
	}
	released, _ := env.progressSvc.Get(compensationTestTenant, progress.ID)
	if released.Status != constants.GoalProgressStatusBonusPending || released.BonusAwarded {
		t.Fatalf("expected progress back to bonus_pending without award, got %s awarded=%v", released.Status, released.BonusAwarded)
	}
	if released.BonusRecordID != nil {
		t.Fatalf("expected bonus link cleared, got %d", *released.BonusRecordID)
	}

	again, err := env.bonusSvc.AwardGoalBonus(compensationTestTenant, progress.ID, 3)
	if err != nil {
		t.Fatalf("expected re-award after cancel, got %v", err)
	}
	if again.ID == bonus.ID {
		t.Fatalf("expected a new bonus record")
	}
	if cancelledSignals := env.outbox.OfType(constants.SignalBonusCancelled); len(cancelledSignals) != 1 {
		t.Fatalf("expected one bonus.cancelled signal, got %d", len(cancelledSignals))
	}
}

func TestCancelGoalBonusFailsWhenProgressStateDiffers(t *testing.T) {
	env := setupCompensationServiceTest(t)
	seller := createCompensationTestEmployee(t, env.db, "Gael", "sales")
	progress := achieveGoal(t, env, seller, false)
	bonus, err := env.bonusSvc.AwardGoalBonus(compensationTestTenant, progress.ID, 3)
	if err != nil {
		t.Fatalf("award bonus failed: %v", err)
	}
	if _, err := env.bonusSvc.Approve(compensationTestTenant, bonus.ID, 4); err != nil {
		t.Fatalf("approve failed: %v", err)
	}
	if err := env.db.Model(&models.GoalProgress{}).Where("id = ?", progress.ID).
		Update("status", constants.GoalProgressStatusBonusPaid).Error; err != nil {
		t.Fatalf("update progress status failed: %v", err)
	}

	if _, err := env.bonusSvc.Cancel(compensationTestTenant, bonus.ID, 4, "late"); !errors.Is(err, ErrInvalidStateTransition) {
		t.Fatalf("expected invalid state when progress is not bonus_awarded, got %v", err)
	}
	current, err := env.bonusSvc.Get(compensationTestTenant, bonus.ID)
	if err != nil {
		t.Fatalf("get bonus failed: %v", err)
	}
	if current.Status != constants.BonusStatusApproved {
		t.Fatalf("expected bonus to stay approved, got %s", current.Status)
	}
	linked, _ := env.progressSvc.Get(compensationTestTenant, progress.ID)
	if linked.BonusRecordID == nil || *linked.BonusRecordID != bonus.ID {
		t.Fatalf("expected progress to keep bonus link %d, got %v", bonus.ID, linked.BonusRecordID)
	}
	if cancelled := env.outbox.OfType(constants.SignalBonusCancelled); len(cancelled) != 0 {
		t.Fatalf("expected no bonus.cancelled signal, got %d", len(cancelled))
	}
}

func TestRejectPendingGoalBonusReturnsProgressToAchieved(t *testing.T) {
	env := setupCompensationServiceTest(t)
	seller := createCompensationTestEmployee(t, env.db, "Elena", "sales")
	progress := achieveGoal(t, env, seller, false)
	bonus, err := env.bonusSvc.AwardGoalBonus(compensationTestTenant, progress.ID, 3)
	if err != nil {
		t.Fatalf("award bonus failed: %v", err)
	}

	if _, err := env.bonusSvc.Reject(compensationTestTenant, bonus.ID, 4, "audit"); err != nil {
		t.Fatalf("reject failed: %v", err)
	}
	restored, _ := env.progressSvc.Get(compensationTestTenant, progress.ID)
	if restored.Status != constants.GoalProgressStatusAchieved || restored.BonusRecordID != nil {
		t.Fatalf("expected achieved progress without bonus link, got %s %+v", restored.Status, restored.BonusRecordID)
	}
	if err := env.bonusSvc.Delete(compensationTestTenant, bonus.ID); !errors.Is(err, ErrInvalidStateTransition) {
		t.Fatalf("expected goal bonus delete to be rejected, got %v", err)
	}
}

func TestManualBonusLifecycle(t *testing.T) {
	env := setupCompensationServiceTest(t)
	employee := createCompensationTestEmployee(t, env.db, "Fabio", "sales")

	if _, err := env.bonusSvc.CreateManualBonus(compensationTestTenant, 3, ManualBonusInput{
		EmployeeID: employee.ID,
		Type:       constants.BonusTypeGoalAchievement,
		Amount:     testMoney("50"),
	}); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected goal type to be rejected for manual bonus, got %v", err)
	}
	if _, err := env.bonusSvc.CreateManualBonus(compensationTestTenant, 3, ManualBonusInput{
		EmployeeID: employee.ID,
		Type:       constants.BonusTypeSpot,
		Amount:     testMoney("0"),
	}); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected zero amount to be rejected, got %v", err)
	}

	bonus, err := env.bonusSvc.CreateManualBonus(compensationTestTenant, 3, ManualBonusInput{
		EmployeeID:  employee.ID,
		Type:        constants.BonusTypeHoliday,
		Amount:      testMoney("50"),
		Description: "Holiday shift",
	})
	if err != nil {
		t.Fatalf("create manual bonus failed: %v", err)
	}

	amount := testMoney("75")
	updated, err := env.bonusSvc.UpdateManualBonus(compensationTestTenant, bonus.ID, UpdateManualBonusInput{Amount: &amount})
	if err != nil {
		t.Fatalf("update manual bonus failed: %v", err)
	}
	if !updated.Amount.Equal(decimal.NewFromInt(75)) {
		t.Fatalf("expected amount 75, got %s", updated.Amount.String())
	}

	list, total, err := env.bonusSvc.List(repository.BonusRecordListFilter{TenantID: compensationTestTenant, Type: constants.BonusTypeHoliday})
	if err != nil || total != 1 || len(list) != 1 {
		t.Fatalf("expected one holiday bonus, got %d err=%v", total, err)
	}

	if err := env.bonusSvc.Delete(compensationTestTenant, bonus.ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if err := env.bonusSvc.Delete(compensationTestTenant, bonus.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}

	approvedBonus, err := env.bonusSvc.CreateManualBonus(compensationTestTenant, 3, ManualBonusInput{
		EmployeeID: employee.ID,
		Type:       constants.BonusTypeReferral,
		Amount:     testMoney("20"),
	})
	if err != nil {
		t.Fatalf("create manual bonus failed: %v", err)
	}
	bulk := env.bonusSvc.BulkApprove(compensationTestTenant, []uint{approvedBonus.ID, 9999}, 4)
	if bulk.Succeeded != 1 || bulk.Failed != 1 {
		t.Fatalf("expected 1 approved and 1 failed, got %+v", bulk)
	}
	if _, err := env.bonusSvc.UpdateManualBonus(compensationTestTenant, approvedBonus.ID, UpdateManualBonusInput{Amount: &amount}); !errors.Is(err, ErrInvalidStateTransition) {
		t.Fatalf("expected approved bonus update to be rejected, got %v", err)
	}
}
