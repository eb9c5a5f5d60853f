// Package eligibility decides which milestone cash gifts a citizen can claim.
package eligibility

import (
	"fmt"
	"sort"
	"time"

	"eca-system/internal/constants"
	"eca-system/internal/models"
)

// Assessment is the unified result of a milestone eligibility evaluation.
// Age is the citizen's full years at the reference date. Reachable lists the
// milestone ages already attained, ascending. NextMilestone is 0 when the
// citizen is past the highest configured milestone.
type Assessment struct {
	CitizenID     int64
	Age           int
	Reachable     []int
	NextMilestone int
	Reason        string
}

// Config allows tuning the milestone table without code changes.
// Defaults mirror the statutory schedule in internal/constants.
type Config struct {
	PayoutsPHP map[int]float64
}

// DefaultConfig returns the statutory milestone schedule.
func DefaultConfig() Config {
	payouts := make(map[int]float64, len(constants.MilestonePayoutsPHP))
	for age, amt := range constants.MilestonePayoutsPHP {
		payouts[age] = amt
	}
	return Config{PayoutsPHP: payouts}
}

// Calculator evaluates milestone eligibility consistently.
type Calculator struct {
	cfg        Config
	milestones []int // ascending
}

func NewCalculator(cfg Config) *Calculator {
	ms := make([]int, 0, len(cfg.PayoutsPHP))
	for age := range cfg.PayoutsPHP {
		ms = append(ms, age)
	}
	sort.Ints(ms)
	return &Calculator{cfg: cfg, milestones: ms}
}

func NewDefault() *Calculator { return NewCalculator(DefaultConfig()) }

// Milestones returns the configured milestone ages, ascending.
func (c *Calculator) Milestones() []int {
	out := make([]int, len(c.milestones))
	copy(out, c.milestones)
	return out
}

// PayoutFor returns the cash gift amount for a milestone age.
func (c *Calculator) PayoutFor(milestoneAge int) (float64, bool) {
	amt, ok := c.cfg.PayoutsPHP[milestoneAge]
	return amt, ok
}

// Assess computes the citizen's standing against the milestone table at ref.
func (c *Calculator) Assess(citizen models.Citizen, ref time.Time) Assessment {
	a := Assessment{CitizenID: citizen.ID}
	if citizen.BirthDate.IsZero() {
		a.Reason = "no birth date on record"
		return a
	}
	a.Age = citizen.AgeAt(ref)
	for _, m := range c.milestones {
		if a.Age >= m {
			a.Reachable = append(a.Reachable, m)
		} else if a.NextMilestone == 0 {
			a.NextMilestone = m
		}
	}
	switch {
	case len(a.Reachable) == 0:
		a.Reason = fmt.Sprintf("age %d, first milestone at %d", a.Age, a.NextMilestone)
	case a.NextMilestone == 0:
		a.Reason = fmt.Sprintf("age %d, all milestones reached", a.Age)
	default:
		a.Reason = fmt.Sprintf("age %d, reached %v, next at %d", a.Age, a.Reachable, a.NextMilestone)
	}
	return a
}

// Admissible reports whether an application for the given milestone may be
// filed: the milestone must exist, the citizen must be active with the age
// reached, and no prior non-rejected grant for that milestone may exist.
func (c *Calculator) Admissible(citizen models.Citizen, milestoneAge int, hasPriorGrant bool, ref time.Time) error {
	if _, ok := c.cfg.PayoutsPHP[milestoneAge]; !ok {
		return fmt.Errorf("eligibility: %d is not a milestone age", milestoneAge)
	}
	if citizen.Status != models.CitizenStatusActive {
		return fmt.Errorf("eligibility: citizen %d is %s, not active", citizen.ID, citizen.Status)
	}
	if citizen.BirthDate.IsZero() {
		return fmt.Errorf("eligibility: citizen %d has no birth date on record", citizen.ID)
	}
	if age := citizen.AgeAt(ref); age < milestoneAge {
		return fmt.Errorf("eligibility: citizen %d is %d, below milestone %d", citizen.ID, age, milestoneAge)
	}
	if hasPriorGrant {
		return fmt.Errorf("eligibility: citizen %d already has a grant for milestone %d", citizen.ID, milestoneAge)
	}
	return nil
}
