package inspection

import (
	"sort"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/ukaguzi/core"
)

var (
	visitTypeTag  = "visittype"
	visitTypeText = "invalid visit type"

	futureDateTag  = "futuredate"
	futureDateText = "must be a future date/time"
)

func init() {
	_ = core.Validate.RegisterValidation(visitTypeTag, visitTypeValidation)
	core.RegisterCustomTranslation(visitTypeTag, visitTypeText)

	core.Validate.RegisterStructValidation(newVisitStructValidation, NewVisit{})
	core.Validate.RegisterStructValidation(rescheduleVisitStructValidation, RescheduleVisit{})
	core.RegisterCustomTranslation(futureDateTag, futureDateText)
}

// sortedVisitTypes is a sorted copy of VisitTypes for binary search;
// VisitTypes itself keeps its declared order.
var sortedVisitTypes = func() []string {
	types := append([]string(nil), VisitTypes...)
	sort.Strings(types)
	return types
}()

// visitTypeValidation checks that the provided visit type is a recognized token.
func visitTypeValidation(fl validator.FieldLevel) bool {
	typ := fl.Field().String()
	if idx := sort.SearchStrings(sortedVisitTypes, typ); idx < len(sortedVisitTypes) {
		return sortedVisitTypes[idx] == typ
	}
	return false
}

func newVisitStructValidation(sl validator.StructLevel) {
	nv := sl.Current().Interface().(NewVisit)
	validateFutureDate(nv.ScheduledAt, sl)
}

func rescheduleVisitStructValidation(sl validator.StructLevel) {
	rv := sl.Current().Interface().(RescheduleVisit)
	validateFutureDate(rv.ScheduledAt, sl)
}

func validateFutureDate(when time.Time, sl validator.StructLevel) {
	if !when.IsZero() && !when.After(time.Now()) {
		sl.ReportError(when, "scheduled_at", "ScheduledAt", futureDateTag, "")
	}
}
