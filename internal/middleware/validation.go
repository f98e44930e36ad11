package middleware

import (
	"regexp"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// attendanceCodePattern accepts the generated code alphabet plus short
// custom codes lecturers may hand out verbally.
var attendanceCodePattern = regexp.MustCompile(`^[A-Z0-9]{4,12}$`)

// RegisterValidators installs custom binding validators on gin's
// validator engine. Call once during startup before routes are served.
func RegisterValidators() error {
	engine, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil
	}
	return engine.RegisterValidation("attendance_code", validAttendanceCode)
}

func validAttendanceCode(fl validator.FieldLevel) bool {
	return attendanceCodePattern.MatchString(fl.Field().String())
}
