package workmode

import (
	"context"
	"strings"

	"worktime/internal/domain/auth"
)

type PermissionChecker interface {
	HasPermission(ctx context.Context, roleID, permission string) (bool, error)
}

// Service validates and applies global mode transitions. It is the only
// authority allowed to request them; ordinary actors consume the change feed.
type Service struct {
	Store *Store
	Perms PermissionChecker
}

func NewService(store *Store, perms PermissionChecker) *Service {
	return &Service{Store: store, Perms: perms}
}

func (s *Service) LoadConfig(ctx context.Context, companyID string) (CompanyWorkConfig, error) {
	return s.Store.GetConfig(ctx, companyID)
}

// SetGlobalMode validates the request, checks the actor's capability, then
// performs the guarded store write. Validation failures never reach the store.
func (s *Service) SetGlobalMode(ctx context.Context, actor auth.UserContext, mode Mode, reason string) (CompanyWorkConfig, error) {
	if !mode.Valid() {
		return CompanyWorkConfig{}, ErrUnknownMode
	}

	reason = strings.TrimSpace(reason)
	if mode == ModeBreak && reason == "" {
		return CompanyWorkConfig{}, ErrEmptyReason
	}
	if mode != ModeBreak {
		reason = ""
	}

	allowed, err := s.Perms.HasPermission(ctx, actor.RoleID, auth.PermWorkModeControl)
	if err != nil {
		return CompanyWorkConfig{}, err
	}
	if !allowed {
		return CompanyWorkConfig{}, ErrPermissionDenied
	}

	current, err := s.Store.GetConfig(ctx, actor.CompanyID)
	if err != nil {
		return CompanyWorkConfig{}, err
	}
	if !CanTransition(current.CurrentMode, mode) {
		return CompanyWorkConfig{}, ErrInvalidTransition
	}

	return s.Store.SetMode(ctx, actor.CompanyID, actor.RoleID, actor.UserID, mode, reason)
}

func (s *Service) StartGlobalBreak(ctx context.Context, actor auth.UserContext, reason string) (CompanyWorkConfig, error) {
	return s.SetGlobalMode(ctx, actor, ModeBreak, reason)
}

func (s *Service) EndGlobalBreak(ctx context.Context, actor auth.UserContext) (CompanyWorkConfig, error) {
	return s.SetGlobalMode(ctx, actor, ModeWorking, "")
}

func (s *Service) StartWorkDay(ctx context.Context, actor auth.UserContext) (CompanyWorkConfig, error) {
	return s.SetGlobalMode(ctx, actor, ModeWorking, "")
}

func (s *Service) EndAllWork(ctx context.Context, actor auth.UserContext) (CompanyWorkConfig, error) {
	return s.SetGlobalMode(ctx, actor, ModeEnded, "")
}

func (s *Service) UpdateConfig(ctx context.Context, actor auth.UserContext, patch SchedulePatch) (CompanyWorkConfig, error) {
	for _, v := range []*string{patch.WorkStartTime, patch.WorkEndTime, patch.BreakStartTime, patch.BreakEndTime} {
		if v != nil && !validClock(*v) {
			return CompanyWorkConfig{}, ErrInvalidClock
		}
	}

	allowed, err := s.Perms.HasPermission(ctx, actor.RoleID, auth.PermWorkModeControl)
	if err != nil {
		return CompanyWorkConfig{}, err
	}
	if !allowed {
		return CompanyWorkConfig{}, ErrPermissionDenied
	}

	return s.Store.UpdateSchedule(ctx, actor.CompanyID, actor.RoleID, patch)
}

// validClock accepts HH:MM wall-clock strings. Schedule times are hints, not
// enforced server-side, but malformed values are rejected at the edge.
func validClock(v string) bool {
	if len(v) != 5 || v[2] != ':' {
		return false
	}
	hh := (int(v[0]-'0'))*10 + int(v[1]-'0')
	mm := (int(v[3]-'0'))*10 + int(v[4]-'0')
	for _, c := range []byte{v[0], v[1], v[3], v[4]} {
		if c < '0' || c > '9' {
			return false
		}
	}
	return hh >= 0 && hh < 24 && mm >= 0 && mm < 60
}
