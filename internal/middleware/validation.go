package middleware

import (
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/swipeattend/backend/internal/app/models"
	"github.com/swipeattend/backend/internal/pkg/helpers"
)

var registerOnce sync.Once

// RegisterValidators installs the custom binding tags on gin's validator and
// makes field errors report JSON names. Safe to call more than once.
func RegisterValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}

		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})

		for tag, fn := range map[string]validator.Func{
			"attendance_status": validateAttendanceStatus,
			"calendar_day":      validateCalendarDay,
		} {
			if err := v.RegisterValidation(tag, fn); err != nil {
				panic(fmt.Sprintf("register %s validator: %v", tag, err))
			}
		}
	})
}

// validateAttendanceStatus accepts PRESENT, ABSENT, LATE and EXCUSED in any case
func validateAttendanceStatus(fl validator.FieldLevel) bool {
	_, ok := models.ParseAttendanceStatus(fl.Field().String())
	return ok
}

// validateCalendarDay accepts YYYY-MM-DD or an ISO-8601 timestamp
func validateCalendarDay(fl validator.FieldLevel) bool {
	_, err := helpers.ParseDay(fl.Field().String())
	return err == nil
}
