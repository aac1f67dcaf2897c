package api

import (
	"reflect"

	"github.com/go-playground/validator/v10"

	"github.com/smokyabdulrahman/adhan-calendar/internal/adhan"
)

// NewValidator returns a validator that knows the `adhan` and `clock` tags
// used on adhan.Day, plus a day-level check of the play_adhan keys.
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Registration only fails on an empty tag or nil func.
	_ = v.RegisterValidation("adhan", validateAdhanName)
	_ = v.RegisterValidation("clock", validateClock)
	v.RegisterStructValidation(validateDay, adhan.Day{})

	return v
}

func validateAdhanName(fl validator.FieldLevel) bool {
	f := fl.Field()
	if f.Kind() != reflect.String {
		return false
	}
	return adhan.Name(f.String()).Valid()
}

// validateClock accepts HH:MM:SS and HH:MM.
func validateClock(fl validator.FieldLevel) bool {
	f := fl.Field()
	if f.Kind() != reflect.String {
		return false
	}
	_, err := adhan.ParseDatetime("2000-01-01", f.String(), nil)
	return err == nil
}

// validateDay rejects play_adhan keys outside the five adhans.
func validateDay(sl validator.StructLevel) {
	day := sl.Current().Interface().(adhan.Day)
	for name := range day.PlayAdhan {
		if !name.Valid() {
			sl.ReportError(day.PlayAdhan, "PlayAdhan", "PlayAdhan", "adhan", string(name))
		}
	}
}
