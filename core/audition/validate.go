package audition

import (
	"bytes"
	"encoding/json"
	"errors"
	"reflect"
	"strings"

	"JNChoral/core/apperr"
	"JNChoral/model"

	"github.com/go-playground/validator/v10"
)

// Submission is the public audition form payload.
type Submission struct {
	FullName string  `json:"fullName" validate:"min=2"`
	Phone    string  `json:"phone" validate:"min=8"`
	Email    string  `json:"email" validate:"required,email"`
	City     *string `json:"city"`

	Category string `json:"category" validate:"category"`

	VoicePart         string `json:"voicePart" validate:"omitempty,voicepart"`
	SingingExperience string `json:"singingExperience"`
	AuditionSong      string `json:"auditionSong"`

	Instrument      string `json:"instrument"`
	InstrumentLevel string `json:"instrumentLevel"`
	CanSightRead    *bool  `json:"canSightRead"`

	ProductionRole string `json:"productionRole"`
	PortfolioLink  string `json:"portfolioLink" validate:"omitempty,url"`
	Notes          string `json:"notes"`
}

// messages are the user-facing texts per rejected field.
var messages = map[string]string{
	"fullName":       "Full name is required",
	"phone":          "Phone number is required",
	"email":          "Enter a valid email",
	"category":       "Select a category",
	"voicePart":      "Select your voice part",
	"instrument":     "Instrument is required",
	"productionRole": "Select your role",
	"portfolioLink":  "Portfolio must be a valid URL",
}

const invalidFormMessage = "Invalid form data"

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	mustRegister(v, "category", func(fl validator.FieldLevel) bool {
		return model.AuditionCategory(fl.Field().String()).Valid()
	})
	mustRegister(v, "voicepart", func(fl validator.FieldLevel) bool {
		return model.VoicePart(fl.Field().String()).Valid()
	})
	v.RegisterStructValidation(categoryRules, Submission{})
	return v
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(err)
	}
}

// categoryRules enforces the fields each category requires.
func categoryRules(sl validator.StructLevel) {
	s := sl.Current().Interface().(Submission)
	switch model.AuditionCategory(s.Category) {
	case model.CategorySinger:
		if s.VoicePart == "" {
			sl.ReportError(s.VoicePart, "voicePart", "VoicePart", "required_if", "SINGER")
		}
	case model.CategoryInstrumentalist:
		if len([]rune(strings.TrimSpace(s.Instrument))) < 2 {
			sl.ReportError(s.Instrument, "instrument", "Instrument", "min", "2")
		}
	case model.CategoryProduction:
		if len([]rune(strings.TrimSpace(s.ProductionRole))) < 2 {
			sl.ReportError(s.ProductionRole, "productionRole", "ProductionRole", "min", "2")
		}
	}
}

// DecodeSubmission parses an untyped JSON payload. Malformed input is a validation error.
func DecodeSubmission(raw []byte) (Submission, error) {
	var s Submission
	dec := json.NewDecoder(bytes.NewReader(raw))
	if err := dec.Decode(&s); err != nil {
		return Submission{}, apperr.Invalid("", invalidFormMessage)
	}
	return s, nil
}

// Normalize trims the identity fields and the portfolio link.
func (s Submission) Normalize() Submission {
	s.FullName = strings.TrimSpace(s.FullName)
	s.Phone = strings.TrimSpace(s.Phone)
	s.Email = strings.TrimSpace(s.Email)
	s.Category = strings.TrimSpace(s.Category)
	s.VoicePart = strings.TrimSpace(s.VoicePart)
	s.PortfolioLink = strings.TrimSpace(s.PortfolioLink)
	return s
}

// Validate returns a *apperr.ValidationError naming the first rejected field.
func (s Submission) Validate() error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return apperr.Invalid("", invalidFormMessage)
	}
	field := verrs[0].Field()
	msg, ok := messages[field]
	if !ok {
		msg = invalidFormMessage
	}
	return apperr.Invalid(field, msg)
}

// ToApplication maps a validated submission onto a new PENDING application.
func (s Submission) ToApplication(userID string) *model.AuditionApplication {
	app := &model.AuditionApplication{
		FullName:          s.FullName,
		Phone:             s.Phone,
		Email:             s.Email,
		City:              optional(derefString(s.City)),
		Category:          model.AuditionCategory(s.Category),
		SingingExperience: optional(s.SingingExperience),
		AuditionSong:      optional(s.AuditionSong),
		Instrument:        optional(s.Instrument),
		InstrumentLevel:   optional(s.InstrumentLevel),
		CanSightRead:      s.CanSightRead,
		ProductionRole:    optional(s.ProductionRole),
		PortfolioLink:     optional(s.PortfolioLink),
		Notes:             optional(s.Notes),
		Status:            model.StatusPending,
	}
	if s.VoicePart != "" {
		vp := model.VoicePart(s.VoicePart)
		app.VoicePart = &vp
	}
	if userID != "" {
		app.UserID = &userID
	}
	return app
}

func optional(s string) *string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
