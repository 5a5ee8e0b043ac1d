package service

import (
	"regexp"
	"strings"

	model "schoolerp_backend/internals/features/admissions/fees/model"
)

var (
	twoDigitClass = regexp.MustCompile(`(?:class[-\s]?)?(\d{2})(?:th|st|nd|rd)?`)
	oneDigitClass = regexp.MustCompile(`(?:class[-\s]?)?(\d{1})(?:th|st|nd|rd)?`)
)

var classNumberRange = map[string]model.ClassRange{
	"1": model.Range1To8, "2": model.Range1To8, "3": model.Range1To8, "4": model.Range1To8,
	"5": model.Range1To8, "6": model.Range1To8, "7": model.Range1To8, "8": model.Range1To8,
	"9": model.Range9To10, "10": model.Range9To10,
	"11": model.Range11To12, "12": model.Range11To12,
}

// ResolveClassRange maps a free-text course label ("Class 9", "12th Science",
// "LKG") to its fee band. Two-digit numbers are tried before single digits.
func ResolveClassRange(courseLabel string) (model.ClassRange, bool) {
	s := strings.ToLower(courseLabel)
	switch {
	case strings.Contains(s, "nursery"):
		return model.RangeNursery, true
	case strings.Contains(s, "lkg"), strings.Contains(s, "lower kindergarten"):
		return model.RangeLKG, true
	case strings.Contains(s, "ukg"), strings.Contains(s, "upper kindergarten"), strings.Contains(s, "kindergarten"):
		return model.RangeUKG, true
	case strings.Contains(s, "11th"), strings.Contains(s, "12th"):
		return model.Range11To12, true
	}
	for _, re := range []*regexp.Regexp{twoDigitClass, oneDigitClass} {
		m := re.FindStringSubmatch(s)
		if m == nil {
			continue
		}
		if r, ok := classNumberRange[m[1]]; ok {
			return r, true
		}
	}
	return "", false
}

func FeeCategoryFor(category string) string {
	if strings.EqualFold(strings.TrimSpace(category), "general") {
		return model.FeeCategoryGeneral
	}
	return model.FeeCategoryReserved
}

// DefaultFeeAmount is charged when no fee structure matches.
func DefaultFeeAmount(category string) int64 {
	if FeeCategoryFor(category) == model.FeeCategoryGeneral {
		return 15000
	}
	return 10000
}
