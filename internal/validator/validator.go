// Package validator provides custom validation functions for Gin's binding engine.
package validator

import (
	"math"
	"reflect"
	"regexp"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var userNameRegex = regexp.MustCompile(`^[A-Za-z0-9_.-]{3,32}$`)

var once sync.Once

// Register registers all custom validators with the Gin binding engine. It is
// safe to call more than once.
func Register() {
	once.Do(func() {
		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			registerOn(v)
		}
	})
}

func registerOn(v *validator.Validate) {
	_ = v.RegisterValidation("finite", validateFinite)
	_ = v.RegisterValidation("leaderboard_period", validateLeaderboardPeriod)
	_ = v.RegisterValidation("user_name", validateUserName)
}

// validateFinite rejects NaN and ±Inf. Pointer fields are dereferenced by the
// validator before this runs.
func validateFinite(fl validator.FieldLevel) bool {
	f := fl.Field()
	switch f.Kind() {
	case reflect.Float32, reflect.Float64:
		v := f.Float()
		return !math.IsNaN(v) && !math.IsInf(v, 0)
	}
	return false
}

func validateLeaderboardPeriod(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "", "day", "month", "overall":
		return true
	}
	return false
}

func validateUserName(fl validator.FieldLevel) bool {
	return userNameRegex.MatchString(fl.Field().String())
}
