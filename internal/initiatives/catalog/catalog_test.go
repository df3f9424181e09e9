package catalog

import "testing"

func TestEmbeddedCatalog(t *testing.T) {
	c, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	followUp, ok := c.Get(FollowUpEmailsID)
	if !ok || !followUp.Runnable {
		t.Fatalf("expected runnable follow-up initiative, got %+v", followUp)
	}
	for _, item := range c.All() {
		if item.ID != FollowUpEmailsID && item.Runnable {
			t.Fatalf("only the follow-up initiative drafts emails, %d is runnable", item.ID)
		}
	}
}

func TestParseRejectsDuplicateIDs(t *testing.T) {
	_, err := Parse([]byte("initiatives:\n  - id: 1\n    name: a\n  - id: 1\n    name: b\n"))
	if err == nil {
		t.Fatalf("expected duplicate id error")
	}
}
