package app

import (
	"testing"

	_ "github.com/covenant-hq/covenant/testing"
)

func TestInTestModeFollowsEnv(t *testing.T) {
	t.Setenv(testModeEnv, "1")
	RefreshTestMode()
	if !InTestMode() {
		t.Fatal("expected test mode on")
	}

	t.Setenv(testModeEnv, "0")
	RefreshTestMode()
	if InTestMode() {
		t.Fatal("expected test mode off")
	}

	t.Setenv(testModeEnv, "1")
	RefreshTestMode()
	if !InTestMode() {
		t.Fatal("expected test mode back on")
	}
}
