package repository

import (
	"testing"
)

func TestBuildLikeConditionByDialectSQLite(t *testing.T) {
	condition, argCount := buildLikeConditionByDialect("sqlite", "name", " ", "description")
	if argCount != 2 {
		t.Fatalf("arg count want 2 got %d", argCount)
	}
	want := "(name LIKE ? OR description LIKE ?)"
	if condition != want {
		t.Fatalf("sqlite like condition mismatch, want %s got %s", want, condition)
	}
}

func TestBuildLikeConditionByDialectPostgres(t *testing.T) {
	condition, argCount := buildLikeConditionByDialect("postgres", "order_number")
	if argCount != 1 {
		t.Fatalf("arg count want 1 got %d", argCount)
	}
	want := "(order_number ILIKE ?)"
	if condition != want {
		t.Fatalf("postgres like condition mismatch, want %s got %s", want, condition)
	}
}

func TestBuildLikeConditionEmpty(t *testing.T) {
	condition, argCount := buildLikeCondition(nil)
	if condition != "" || argCount != 0 {
		t.Fatalf("expected empty condition, got %q (%d)", condition, argCount)
	}
}

func TestRepeatLikeArgs(t *testing.T) {
	args := repeatLikeArgs("%test%", 3)
	if len(args) != 3 {
		t.Fatalf("args len want 3 got %d", len(args))
	}
	for idx, arg := range args {
		if arg != "%test%" {
			t.Fatalf("args[%d] want %%test%% got %v", idx, arg)
		}
	}
}
