package authorization

import (
	"context"
	"errors"
	"testing"

	"github.com/smallbiznis/storefront/pkg/db/dbtest"
	"go.uber.org/zap"
)

func newTestService(t *testing.T) Service {
	t.Helper()
	enforcer, err := NewEnforcer(dbtest.Open(t))
	if err != nil {
		t.Fatalf("new enforcer: %v", err)
	}
	return NewService(Params{Log: zap.NewNop(), Enforcer: enforcer})
}

func TestAuthorizeByRole(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	cases := []struct {
		role   string
		object string
		action string
		want   error
	}{
		{RoleOwner, ObjectDashboard, ActionDashboardView, nil},
		{RoleAdmin, ObjectOrder, ActionOrderInvoice, nil},
		{RoleSupport, ObjectOrder, ActionOrderView, nil},
		{RoleSupport, ObjectOrder, ActionOrderInvoice, ErrForbidden},
		{RoleSupport, ObjectDashboard, ActionDashboardView, ErrForbidden},
		{"intern", ObjectOrder, ActionOrderView, ErrForbidden},
	}
	for _, tc := range cases {
		err := svc.Authorize(ctx, "api_key:"+tc.role, tc.role, tc.object, tc.action)
		if !errors.Is(err, tc.want) {
			t.Fatalf("%s %s/%s: expected %v, got %v", tc.role, tc.object, tc.action, tc.want, err)
		}
	}
}

func TestAuthorizeRegroupsChangedRole(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	if err := svc.Authorize(ctx, "api_key:k1", RoleOwner, ObjectDashboard, ActionDashboardView); err != nil {
		t.Fatalf("owner: %v", err)
	}
	if err := svc.Authorize(ctx, "api_key:k1", RoleSupport, ObjectDashboard, ActionDashboardView); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected demoted key to be forbidden, got %v", err)
	}
}

func TestAuthorizeValidatesInput(t *testing.T) {
	svc := newTestService(t)
	if err := svc.Authorize(context.Background(), " ", RoleOwner, ObjectOrder, ActionOrderView); !errors.Is(err, ErrInvalidActor) {
		t.Fatalf("expected ErrInvalidActor, got %v", err)
	}
	if err := svc.Authorize(context.Background(), "api_key:k", "", ObjectOrder, ActionOrderView); !errors.Is(err, ErrInvalidRole) {
		t.Fatalf("expected ErrInvalidRole, got %v", err)
	}
}
