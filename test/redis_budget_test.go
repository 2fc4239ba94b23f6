//go:build integration
// +build integration

package test

import (
	"context"
	"net/http/httptest"
	"testing"

	goGate "github.com/MrEthical07/goGate"
)

// TestAuthenticateRedisBudget verifies that validating an access credential
// never touches Redis.
func TestAuthenticateRedisBudget(t *testing.T) {
	engine, counter := newCountedEngine(t, goGate.RotationOverwrite)
	res := login(t, engine, "budget-auth")

	counter.Reset()

	if _, err := engine.Authenticate(context.Background(), res.Access); err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if cmds := counter.Commands(); cmds != 0 {
		t.Errorf("Authenticate used %d Redis commands; budget is 0", cmds)
	}
}

// TestLoginRedisBudget verifies that login is a single SET with expiry.
func TestLoginRedisBudget(t *testing.T) {
	engine, counter := newCountedEngine(t, goGate.RotationOverwrite)

	login(t, engine, "budget-login")

	if cmds := counter.Commands(); cmds != 1 {
		t.Errorf("CompleteLogin used %d Redis commands; budget is 1", cmds)
	}
}

// TestReissueRedisBudget verifies EXISTS + GET + write for each rotation
// mode. The compare-and-swap script may cost an extra EVAL when the script
// cache is cold.
func TestReissueRedisBudget(t *testing.T) {
	tests := []struct {
		mode   goGate.RotationMode
		budget int64
	}{
		{mode: goGate.RotationOverwrite, budget: 3},
		{mode: goGate.RotationCompareAndSwap, budget: 4},
	}
	for _, tt := range tests {
		t.Run(tt.mode.String(), func(t *testing.T) {
			engine, counter := newCountedEngine(t, tt.mode)
			res := login(t, engine, "budget-reissue")

			counter.Reset()

			if _, err := engine.Reissue(context.Background(), httptest.NewRecorder(), reissueRequest(engine, res.Refresh)); err != nil {
				t.Fatalf("reissue: %v", err)
			}
			cmds := counter.Commands()
			if cmds > tt.budget {
				t.Errorf("Reissue used %d Redis commands; budget is <= %d", cmds, tt.budget)
			}
			t.Logf("Reissue(%s): %d commands, %d pipelines", tt.mode, cmds, counter.Pipelines())
		})
	}
}

// TestLogoutRedisBudget verifies that logout is one compare-and-delete
// script, plus an EVAL when the script cache is cold.
func TestLogoutRedisBudget(t *testing.T) {
	engine, counter := newCountedEngine(t, goGate.RotationOverwrite)
	res := login(t, engine, "budget-logout")

	counter.Reset()

	req := newRequest(engine.NewAccessCookie(res.Access), engine.NewRefreshCookie(res.Refresh))
	if err := engine.Logout(context.Background(), httptest.NewRecorder(), req); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if cmds := counter.Commands(); cmds > 2 {
		t.Errorf("Logout used %d Redis commands; budget is <= 2", cmds)
	}
}
