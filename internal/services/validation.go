package services

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/saeedhokal/Saman-Marketplace-sub000/domain"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return strings.ToLower(f.Name)
		}
		return name
	})
	return v
}

type draftRules struct {
	Title       string   `json:"title" validate:"required,min=3,max=200"`
	Description string   `json:"description" validate:"max=5000"`
	Category    string   `json:"category" validate:"required,oneof=spare_parts automotive"`
	SubCategory string   `json:"sub_category" validate:"required"`
	Price       *float64 `json:"price" validate:"omitempty,gte=0"`
	Year        *int     `json:"year" validate:"omitempty,gte=1900,lte=2100"`
	Mileage     *int     `json:"mileage" validate:"omitempty,gte=0"`
	Images      []string `json:"images" validate:"required,min=1,max=20,dive,required"`
}

// validateDraft checks a listing draft, including the category pair, before anything is written
func validateDraft(d domain.ListingDraft) error {
	rules := draftRules{
		Title:       strings.TrimSpace(d.Title),
		Description: d.Description,
		Category:    string(d.Category),
		SubCategory: d.SubCategory,
		Price:       d.Price,
		Year:        d.Year,
		Mileage:     d.Mileage,
		Images:      d.Images,
	}
	verr := formatValidation(validate.Struct(rules))
	if _, failed := verr.Fields["category"]; !failed && d.SubCategory != "" && !domain.ValidCategoryPair(d.Category, d.SubCategory) {
		verr.Add("sub_category", domain.ErrInvalidCategoryPair.Error())
	}
	if verr.Empty() {
		return nil
	}
	return verr
}

type phoneRules struct {
	Phone string `json:"phone" validate:"required,e164"`
}

func validatePhone(phone string) error {
	verr := formatValidation(validate.Struct(phoneRules{Phone: phone}))
	if verr.Empty() {
		return nil
	}
	return verr
}

// formatValidation turns validator errors into a field map
func formatValidation(err error) *domain.ValidationError {
	verr := &domain.ValidationError{}
	if err == nil {
		return verr
	}
	fieldErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		verr.Add("request", err.Error())
		return verr
	}
	for _, fe := range fieldErrors {
		field := fe.Field()
		if i := strings.Index(field, "["); i > 0 {
			field = field[:i]
		}
		switch fe.Tag() {
		case "required":
			verr.Add(field, "is required")
		case "min":
			verr.Add(field, fmt.Sprintf("must be at least %s", fe.Param()))
		case "max":
			verr.Add(field, fmt.Sprintf("must be at most %s", fe.Param()))
		case "gte":
			verr.Add(field, fmt.Sprintf("must be at least %s", fe.Param()))
		case "lte":
			verr.Add(field, fmt.Sprintf("must be at most %s", fe.Param()))
		case "oneof":
			verr.Add(field, fmt.Sprintf("must be one of: %s", fe.Param()))
		case "e164":
			verr.Add(field, "must be in international format, e.g. +971501234567")
		default:
			verr.Add(field, "is invalid")
		}
	}
	return verr
}
