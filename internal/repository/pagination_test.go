package repository

import (
	"testing"
	"time"

	"github.com/tienda-next/internal/models"
)

func TestPageWindow(t *testing.T) {
	cases := []struct {
		name       string
		page       int
		pageSize   int
		wantLimit  int
		wantOffset int
	}{
		{name: "first page", page: 1, pageSize: 20, wantLimit: 20, wantOffset: 0},
		{name: "third page", page: 3, pageSize: 10, wantLimit: 10, wantOffset: 20},
		{name: "page below one", page: -2, pageSize: 5, wantLimit: 5, wantOffset: 0},
		{name: "no page size", page: 4, pageSize: 0, wantLimit: 0, wantOffset: 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			limit, offset := pageWindow(tc.page, tc.pageSize)
			if limit != tc.wantLimit || offset != tc.wantOffset {
				t.Fatalf("want limit=%d offset=%d, got limit=%d offset=%d", tc.wantLimit, tc.wantOffset, limit, offset)
			}
		})
	}
}

func TestAuthzAuditLogListCreatedRangeIsHalfOpen(t *testing.T) {
	db := setupCompensationRepositoryTest(t)
	repo := NewAuthzAuditLogRepository(db)

	base := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		entry := &models.AuthzAuditLog{
			TenantID:   1,
			OperatorID: 9,
			Action:     "role_granted",
			CreatedAt:  base.Add(time.Duration(i) * time.Hour),
		}
		if err := repo.Create(entry); err != nil {
			t.Fatalf("create audit log failed: %v", err)
		}
	}
	if err := repo.Create(&models.AuthzAuditLog{TenantID: 2, OperatorID: 9, Action: "role_granted", CreatedAt: base}); err != nil {
		t.Fatalf("create other tenant audit log failed: %v", err)
	}

	from := base.Add(time.Hour)
	to := base.Add(4 * time.Hour)
	logs, total, err := repo.List(AuthzAuditLogListFilter{TenantID: 1, Page: 1, PageSize: 2, CreatedFrom: &from, CreatedTo: &to})
	if err != nil {
		t.Fatalf("list audit logs failed: %v", err)
	}
	if total != 3 {
		t.Fatalf("expected 3 logs in [from, to), got %d", total)
	}
	if len(logs) != 2 || logs[0].ID < logs[1].ID {
		t.Fatalf("expected first page of 2 newest first, got %+v", logs)
	}

	empty, total, err := repo.List(AuthzAuditLogListFilter{TenantID: 3, Page: 1, PageSize: 20})
	if err != nil {
		t.Fatalf("list empty tenant failed: %v", err)
	}
	if total != 0 || empty == nil || len(empty) != 0 {
		t.Fatalf("expected empty non-nil page, got %v (%d)", empty, total)
	}
}
