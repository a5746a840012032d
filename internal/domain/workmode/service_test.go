package workmode

import (
	"context"
	"errors"
	"testing"

	"worktime/internal/domain/auth"
)

type fakePerms struct {
	allowed bool
	err     error
	calls   int
}

func (f *fakePerms) HasPermission(ctx context.Context, roleID, permission string) (bool, error) {
	f.calls++
	return f.allowed, f.err
}

func testActor() auth.UserContext {
	return auth.UserContext{
		UserID:    "user-1",
		CompanyID: "company-1",
		RoleID:    "role-1",
		RoleName:  auth.RoleManager,
	}
}

func TestSetGlobalModeRejectsUnknownMode(t *testing.T) {
	svc := NewService(nil, &fakePerms{allowed: true})
	if _, err := svc.SetGlobalMode(context.Background(), testActor(), Mode("lunch"), ""); !errors.Is(err, ErrUnknownMode) {
		t.Fatalf("expected ErrUnknownMode, got %v", err)
	}
}

func TestBreakRequiresReasonBeforeAnyStoreWork(t *testing.T) {
	perms := &fakePerms{allowed: true}
	svc := NewService(nil, perms)

	for _, reason := range []string{"", "   ", "\t\n"} {
		if _, err := svc.StartGlobalBreak(context.Background(), testActor(), reason); !errors.Is(err, ErrEmptyReason) {
			t.Fatalf("reason %q: expected ErrEmptyReason, got %v", reason, err)
		}
	}
	if perms.calls != 0 {
		t.Fatalf("expected validation to fail before the permission check, saw %d calls", perms.calls)
	}
}

func TestSetGlobalModeDeniedWithoutCapability(t *testing.T) {
	svc := NewService(nil, &fakePerms{allowed: false})
	if _, err := svc.EndAllWork(context.Background(), testActor()); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("expected ErrPermissionDenied, got %v", err)
	}
}

func TestSetGlobalModePermissionCheckError(t *testing.T) {
	boom := errors.New("boom")
	svc := NewService(nil, &fakePerms{err: boom})
	if _, err := svc.StartWorkDay(context.Background(), testActor()); !errors.Is(err, boom) {
		t.Fatalf("expected lookup error to propagate, got %v", err)
	}
}

func TestUpdateConfigRejectsMalformedClock(t *testing.T) {
	perms := &fakePerms{allowed: true}
	svc := NewService(nil, perms)

	for _, v := range []string{"9:00", "25:00", "09:61", "0900", "ab:cd", "09-00"} {
		bad := v
		if _, err := svc.UpdateConfig(context.Background(), testActor(), SchedulePatch{WorkStartTime: &bad}); !errors.Is(err, ErrInvalidClock) {
			t.Fatalf("value %q: expected ErrInvalidClock, got %v", v, err)
		}
	}
	if perms.calls != 0 {
		t.Fatalf("expected clock validation before the permission check, saw %d calls", perms.calls)
	}
}

func TestUpdateConfigDeniedWithoutCapability(t *testing.T) {
	svc := NewService(nil, &fakePerms{allowed: false})
	start := "08:30"
	if _, err := svc.UpdateConfig(context.Background(), testActor(), SchedulePatch{WorkStartTime: &start}); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("expected ErrPermissionDenied, got %v", err)
	}
}

func TestValidClock(t *testing.T) {
	valid := []string{"00:00", "09:00", "23:59", "12:30"}
	for _, v := range valid {
		if !validClock(v) {
			t.Fatalf("expected %q to be valid", v)
		}
	}
	invalid := []string{"", "24:00", "12:60", "1:30", "112:30", "12;30"}
	for _, v := range invalid {
		if validClock(v) {
			t.Fatalf("expected %q to be invalid", v)
		}
	}
}

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to Mode
		want     bool
	}{
		{ModeIdle, ModeWorking, true},
		{ModeIdle, ModeBreak, false},
		{ModeWorking, ModeBreak, true},
		{ModeWorking, ModeEnded, true},
		{ModeWorking, ModeIdle, false},
		{ModeBreak, ModeWorking, true},
		{ModeBreak, ModeEnded, true},
		{ModeEnded, ModeWorking, false},
		{ModeEnded, ModeIdle, false},
	}
	for _, c := range cases {
		if got := CanTransition(c.from, c.to); got != c.want {
			t.Fatalf("transition %s -> %s: expected %v, got %v", c.from, c.to, c.want, got)
		}
	}
}
