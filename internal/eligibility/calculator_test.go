package eligibility

import (
	"testing"
	"time"

	"eca-system/internal/models"
)

var ref = time.Date(2026, 8, 25, 0, 0, 0, 0, time.UTC)

func citizen(id int64, birth string) models.Citizen {
	bd, err := time.Parse("2006-01-02", birth)
	if err != nil {
		panic(err)
	}
	return models.Citizen{ID: id, LastName: "SANTOS", FirstName: "JUAN", BirthDate: bd, Status: models.CitizenStatusActive}
}

func TestAssess_BelowFirstMilestone(t *testing.T) {
	c := NewDefault()
	a := c.Assess(citizen(1, "1950-01-01"), ref) // age 76
	if a.Age != 76 {
		t.Fatalf("expected age 76, got %d", a.Age)
	}
	if len(a.Reachable) != 0 || a.NextMilestone != 80 {
		t.Fatalf("unexpected assessment: %+v", a)
	}
}

func TestAssess_MidTable(t *testing.T) {
	c := NewDefault()
	a := c.Assess(citizen(1, "1939-06-15"), ref) // age 87
	want := []int{80, 85}
	if len(a.Reachable) != len(want) {
		t.Fatalf("reachable = %v, want %v", a.Reachable, want)
	}
	for i, m := range want {
		if a.Reachable[i] != m {
			t.Fatalf("reachable = %v, want %v", a.Reachable, want)
		}
	}
	if a.NextMilestone != 90 {
		t.Fatalf("expected next milestone 90, got %d", a.NextMilestone)
	}
}

func TestAssess_Centenarian(t *testing.T) {
	c := NewDefault()
	a := c.Assess(citizen(1, "1925-03-01"), ref) // age 101
	if a.NextMilestone != 0 {
		t.Fatalf("expected no next milestone, got %d", a.NextMilestone)
	}
	if len(a.Reachable) != 5 {
		t.Fatalf("expected all 5 milestones reached, got %v", a.Reachable)
	}
}

func TestAssess_BirthdayNotYetThisYear(t *testing.T) {
	c := NewDefault()
	// Turns 80 in November 2026; still 79 at the August reference date.
	a := c.Assess(citizen(1, "1946-11-30"), ref)
	if a.Age != 79 {
		t.Fatalf("expected age 79, got %d", a.Age)
	}
	if len(a.Reachable) != 0 {
		t.Fatalf("expected no reachable milestones, got %v", a.Reachable)
	}
}

func TestAdmissible(t *testing.T) {
	c := NewDefault()
	ok := citizen(1, "1940-05-12") // age 86

	if err := c.Admissible(ok, 85, false, ref); err != nil {
		t.Fatalf("expected admissible, got %v", err)
	}
	if err := c.Admissible(ok, 90, false, ref); err == nil {
		t.Fatal("expected age rejection for milestone 90")
	}
	if err := c.Admissible(ok, 85, true, ref); err == nil {
		t.Fatal("expected rejection when a prior grant exists")
	}
	if err := c.Admissible(ok, 83, false, ref); err == nil {
		t.Fatal("expected rejection for non-milestone age")
	}

	merged := ok
	merged.Status = models.CitizenStatusMerged
	if err := c.Admissible(merged, 85, false, ref); err == nil {
		t.Fatal("expected rejection for merged citizen")
	}
}

func TestPayoutFor(t *testing.T) {
	c := NewDefault()
	if amt, ok := c.PayoutFor(100); !ok || amt != 100000 {
		t.Fatalf("centenarian payout = %v/%v", amt, ok)
	}
	if _, ok := c.PayoutFor(70); ok {
		t.Fatal("70 must not be a milestone")
	}
}
