package authstate

import (
	"testing"

	"github.com/allstar/sportshub/internal/model"
)

func TestPhase_String_CoversAllPhases(t *testing.T) {
	cases := []struct {
		phase Phase
		want  string
	}{
		{PhaseBootstrapping, "bootstrapping"},
		{PhaseUnauthenticated, "unauthenticated"},
		{PhaseAuthenticated, "authenticated"},
		{Phase(99), "unknown"},
	}
	for _, c := range cases {
		if got := c.phase.String(); got != c.want {
			t.Errorf("Phase(%d).String() = %q, want %q", c.phase, got, c.want)
		}
	}
}

func TestAuthenticated_WithUser_ReturnsAuthenticatedState(t *testing.T) {
	user := &model.User{ID: "u-1", Email: "admin@example.com", Role: model.RoleAdmin, IsActive: true}

	state := Authenticated(user)

	if state.Phase != PhaseAuthenticated {
		t.Errorf("Phase = %v, want PhaseAuthenticated", state.Phase)
	}
	if state.User != user {
		t.Error("User should be the given user")
	}
}

func TestAuthenticated_NilUser_FallsBackToUnauthenticated(t *testing.T) {
	state := Authenticated(nil)

	if state.Phase != PhaseUnauthenticated {
		t.Errorf("Phase = %v, want PhaseUnauthenticated", state.Phase)
	}
	if state.User != nil {
		t.Error("User should be nil")
	}
}

func TestBootstrapping_HasNoUser(t *testing.T) {
	state := Bootstrapping()

	if state.Phase != PhaseBootstrapping {
		t.Errorf("Phase = %v, want PhaseBootstrapping", state.Phase)
	}
	if state.User != nil {
		t.Error("User should be nil while bootstrapping")
	}
}
