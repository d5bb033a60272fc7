package engage

import (
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	"github.com/glabrego/tipfeed-cli/internal/model"
)

const (
	MinTip          = 1
	MaxTip          = 1_000_000
	MaxContentRunes = 2000
	MaxReasonRunes  = 500
)

type tipInput struct {
	Amount int64 `validate:"min=1,max=1000000"`
}

type reportInput struct {
	Reason string `validate:"max=500"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

func validateTip(amount int64) error {
	if err := validate.Struct(tipInput{Amount: amount}); err != nil {
		return &ValidationError{Field: "amount", Reason: "must be between 1 and 1000000"}
	}
	return nil
}

func validateReport(reason string) error {
	if err := validate.Struct(reportInput{Reason: reason}); err != nil {
		return &ValidationError{Field: "reason", Reason: "must be at most 500 characters"}
	}
	return nil
}

// normalizeContent trims content and checks it against the post limits.
func normalizeContent(content string) (string, error) {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return "", &ValidationError{Field: "content", Reason: "must not be empty"}
	}
	if utf8.RuneCountInString(trimmed) > MaxContentRunes {
		return "", &ValidationError{Field: "content", Reason: "must be at most 2000 characters"}
	}
	return trimmed, nil
}

func validateDraft(d model.Draft) (model.Draft, error) {
	content, err := normalizeContent(d.Content)
	if err != nil {
		return model.Draft{}, err
	}
	d.Content = content
	if err := validate.Struct(d); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			return model.Draft{}, &ValidationError{Field: strings.ToLower(fieldErrs[0].Field()), Reason: "failed " + fieldErrs[0].Tag()}
		}
		return model.Draft{}, &ValidationError{Field: "draft", Reason: err.Error()}
	}
	return d, nil
}
