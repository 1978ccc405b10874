package access_test

import (
	"testing"

	"github.com/xraph/harvest"
	"github.com/xraph/harvest/access"
	"github.com/xraph/harvest/collection"
)

func TestCanAccess(t *testing.T) {
	t.Parallel()

	run := &collection.Run{OwnerID: "u1"}

	tests := []struct {
		name   string
		run    *collection.Run
		caller harvest.Identity
		want   bool
	}{
		{
			name:   "owner",
			run:    run,
			caller: harvest.Identity{Subject: "u1", Role: harvest.RoleLearner},
			want:   true,
		},
		{
			name:   "org admin who is not the owner",
			run:    run,
			caller: harvest.Identity{Subject: "admin", Role: harvest.RoleOrgAdmin},
			want:   true,
		},
		{
			name:   "owner who is also org admin",
			run:    run,
			caller: harvest.Identity{Subject: "u1", Role: harvest.RoleOrgAdmin},
			want:   true,
		},
		{
			name:   "stranger",
			run:    run,
			caller: harvest.Identity{Subject: "u2", Role: harvest.RoleInstructor},
			want:   false,
		},
		{
			name:   "empty identity",
			run:    run,
			caller: harvest.Identity{},
			want:   false,
		},
		{
			name:   "nil run",
			run:    nil,
			caller: harvest.Identity{Subject: "u1", Role: harvest.RoleOrgAdmin},
			want:   false,
		},
	}

	var guard access.Guard
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := guard.CanAccess(tt.run, tt.caller); got != tt.want {
				t.Errorf("CanAccess(%v) = %v, want %v", tt.caller, got, tt.want)
			}
		})
	}
}
