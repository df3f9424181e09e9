package validator

import "testing"

func TestSFIDRule(t *testing.T) {
	v := New()
	valid := []string{"0065g00000AbCdE", "0065g00000AbCdEAAX"}
	for _, id := range valid {
		if err := v.Var(id, "sfid"); err != nil {
			t.Fatalf("expected %q to be valid: %v", id, err)
		}
	}
	invalid := []string{"", "006", "0065g00000AbCdE-", "0065g00000AbCdEAA"}
	for _, id := range invalid {
		if err := v.Var(id, "sfid"); err == nil {
			t.Fatalf("expected %q to be rejected", id)
		}
	}
}
