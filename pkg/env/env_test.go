package env

import (
	"testing"
	"time"
)

func TestTypedLookups(t *testing.T) {
	t.Setenv("AGRI_TEST_INT", "42")
	t.Setenv("AGRI_TEST_BAD_INT", "forty")
	t.Setenv("AGRI_TEST_DUR", "90s")
	t.Setenv("AGRI_TEST_BOOL", "yes")
	t.Setenv("AGRI_TEST_LIST", "tomato, ,onion")

	if got := Int("AGRI_TEST_INT", 1); got != 42 {
		t.Errorf("Int = %d, want 42", got)
	}
	if got := Int("AGRI_TEST_BAD_INT", 7); got != 7 {
		t.Errorf("Int with bad value = %d, want default 7", got)
	}
	if got := Duration("AGRI_TEST_DUR", time.Second); got != 90*time.Second {
		t.Errorf("Duration = %v, want 90s", got)
	}
	if !Bool("AGRI_TEST_BOOL", false) {
		t.Errorf("Bool = false, want true")
	}
	if got := String("AGRI_TEST_MISSING", "fallback"); got != "fallback" {
		t.Errorf("String = %q, want fallback", got)
	}
	list := List("AGRI_TEST_LIST", nil)
	if len(list) != 2 || list[0] != "tomato" || list[1] != "onion" {
		t.Errorf("List = %v, want [tomato onion]", list)
	}
}
