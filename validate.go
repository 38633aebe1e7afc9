package photoblog

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

const (
	maxTitleLength       = 100
	maxDescriptionLength = 500
	maxAttributeLength   = 255
	maxTagLength         = 64
	maxTags              = 50
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	_ = v.RegisterValidation("objectkey", func(fl validator.FieldLevel) bool {
		return IsValidKey(fl.Field().String())
	})
	return v
}

// NormalizeTags trims every tag, drops empty ones and removes duplicates,
// keeping the first occurrence order. It never returns nil.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}

// SplitTags parses a comma separated tag list.
func SplitTags(s string) []string {
	return NormalizeTags(strings.Split(s, ","))
}

// ValidateCreate normalizes c and checks every field constraint.
// The returned value is what should be persisted.
func ValidateCreate(c CreatePhoto) (CreatePhoto, error) {
	c.Title = strings.TrimSpace(c.Title)
	c.Description = strings.TrimSpace(c.Description)
	c.ObjectKey = strings.TrimSpace(c.ObjectKey)
	c.Location = strings.TrimSpace(c.Location)
	c.Camera = strings.TrimSpace(c.Camera)
	c.Tags = NormalizeTags(c.Tags)

	if err := validate.Struct(c); err != nil {
		return CreatePhoto{}, fmt.Errorf("validate photo: %w: %s", ErrValidationFailed, describe(err))
	}
	if err := validateTags(c.Tags); err != nil {
		return CreatePhoto{}, fmt.Errorf("validate photo: %w", err)
	}
	return c, nil
}

// ValidateUpdate normalizes the set fields of u and checks their constraints.
// Title and description cannot be cleared; location, camera and tags can.
func ValidateUpdate(u PhotoUpdate) (PhotoUpdate, error) {
	var problems []string

	check := func(field string, o *Optional[string], tag string) {
		if !o.Set {
			return
		}
		o.Value = strings.TrimSpace(o.Value)
		if err := validate.Var(o.Value, tag); err != nil {
			problems = append(problems, describeField(field, err))
		}
	}

	check("title", &u.Title, fmt.Sprintf("required,max=%d", maxTitleLength))
	check("description", &u.Description, fmt.Sprintf("required,max=%d", maxDescriptionLength))
	check("objectKey", &u.ObjectKey, "required,max=1024,objectkey")
	check("location", &u.Location, fmt.Sprintf("max=%d", maxAttributeLength))
	check("camera", &u.Camera, fmt.Sprintf("max=%d", maxAttributeLength))

	if len(problems) > 0 {
		return PhotoUpdate{}, fmt.Errorf("validate update: %w: %s", ErrValidationFailed, strings.Join(problems, "; "))
	}

	if u.Tags.Set {
		u.Tags.Value = NormalizeTags(u.Tags.Value)
		if err := validateTags(u.Tags.Value); err != nil {
			return PhotoUpdate{}, fmt.Errorf("validate update: %w", err)
		}
	}

	return u, nil
}

func validateTags(tags []string) error {
	if len(tags) > maxTags {
		return fmt.Errorf("%w: at most %d tags allowed", ErrValidationFailed, maxTags)
	}
	for _, tag := range tags {
		if err := validate.Var(tag, fmt.Sprintf("max=%d", maxTagLength)); err != nil {
			return fmt.Errorf("%w: tag %q is longer than %d characters", ErrValidationFailed, tag, maxTagLength)
		}
	}
	return nil
}

func describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fieldMessage(fe.Field(), fe.Tag(), fe.Param()))
	}
	return strings.Join(msgs, "; ")
}

func describeField(field string, err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return fieldMessage(field, verrs[0].Tag(), verrs[0].Param())
	}
	return field + " is invalid"
}

func fieldMessage(field, tag, param string) string {
	switch tag {
	case "required":
		return field + " is required"
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, param)
	case "objectkey":
		return field + " is not a valid object key"
	default:
		return fmt.Sprintf("%s failed %s", field, tag)
	}
}
