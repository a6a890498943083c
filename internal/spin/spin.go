// Package spin picks a recipe for a meal from the user's ingredient
// preferences.
package spin

import (
	"errors"
	"math/rand"
)

var ErrInvalidMeal = errors.New("invalid meal type")

const (
	Breakfast = "breakfast"
	Lunch     = "lunch"
	Snack     = "snack"
	Dinner    = "dinner"
)

var Meals = []string{Breakfast, Lunch, Snack, Dinner}

func ParseMeal(s string) (string, error) {
	for _, m := range Meals {
		if s == m {
			return m, nil
		}
	}
	return "", ErrInvalidMeal
}

const (
	QualityPerfect    = "perfect"
	QualityGood       = "good"
	QualityAcceptable = "acceptable"
	QualityPoor       = "poor"
)

type Candidate struct {
	ID            int64
	IngredientIDs []int64
}

type set map[int64]struct{}

func newSet(ids []int64) set {
	s := make(set, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

func (s set) has(id int64) bool {
	_, ok := s[id]
	return ok
}

// Criteria holds everything a spin is judged against.
type Criteria struct {
	liked         set
	banned        set
	recent        set
	allowOneExtra bool
}

// NewCriteria builds selection criteria. recent may be nil when recently
// spun recipes should not be hidden.
func NewCriteria(liked, banned, recent []int64, allowOneExtra bool) Criteria {
	return Criteria{
		liked:         newSet(liked),
		banned:        newSet(banned),
		recent:        newSet(recent),
		allowOneExtra: allowOneExtra,
	}
}

// CountExtra counts the candidate's ingredients that are not liked.
func (c Criteria) CountExtra(cand Candidate) int {
	n := 0
	for _, id := range cand.IngredientIDs {
		if !c.liked.has(id) {
			n++
		}
	}
	return n
}

func (c Criteria) HasBanned(cand Candidate) bool {
	for _, id := range cand.IngredientIDs {
		if c.banned.has(id) {
			return true
		}
	}
	return false
}

func (c Criteria) eligible(cand Candidate) bool {
	return !c.recent.has(cand.ID) && !c.HasBanned(cand)
}

// Filter keeps candidates that are neither recent nor banned and whose extra
// ingredient count fits the allowance.
func (c Criteria) Filter(cands []Candidate) []Candidate {
	limit := 0
	if c.allowOneExtra {
		limit = 1
	}
	out := []Candidate{}
	for _, cand := range cands {
		if c.eligible(cand) && c.CountExtra(cand) <= limit {
			out = append(out, cand)
		}
	}
	return out
}

// Best picks uniformly among Filter's result. When nothing fits it falls
// back to the eligible candidates with the fewest extra ingredients. intn
// defaults to math/rand.Intn.
func (c Criteria) Best(cands []Candidate, intn func(n int) int) (Candidate, bool) {
	if intn == nil {
		intn = rand.Intn
	}
	if fit := c.Filter(cands); len(fit) > 0 {
		return fit[intn(len(fit))], true
	}

	best := -1
	var closest []Candidate
	for _, cand := range cands {
		if !c.eligible(cand) {
			continue
		}
		extra := c.CountExtra(cand)
		switch {
		case best < 0 || extra < best:
			best = extra
			closest = []Candidate{cand}
		case extra == best:
			closest = append(closest, cand)
		}
	}
	if len(closest) == 0 {
		return Candidate{}, false
	}
	return closest[intn(len(closest))], true
}

func (c Criteria) MatchQuality(extra int) string {
	return MatchQuality(extra, c.allowOneExtra)
}

func MatchQuality(extra int, allowOneExtra bool) string {
	switch {
	case extra == 0:
		return QualityPerfect
	case extra == 1 && allowOneExtra:
		return QualityGood
	case extra <= 3:
		return QualityAcceptable
	default:
		return QualityPoor
	}
}
