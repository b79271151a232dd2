package http

import (
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/kevinnadar22/announce/internal/filter"
	"github.com/kevinnadar22/announce/internal/view"
)

const dateLayout = "2006-01-02"

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// report query parameter names rather than struct fields
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		if name := fld.Tag.Get("query"); name != "" {
			return name
		}
		return fld.Name
	})
	return v
}

// listQuery is the query string of the list view.
type listQuery struct {
	Search   string `query:"search" validate:"max=200"`
	Category int    `query:"category" validate:"omitempty,min=1"`
	Ministry int    `query:"ministry" validate:"omitempty,min=1"`
	Audience int    `query:"audience" validate:"omitempty,min=1"`
	Language string `query:"language" validate:"omitempty,alpha,max=8"`
	Location string `query:"location" validate:"max=100"`
	DateFrom string `query:"date_from" validate:"omitempty,datetime=2006-01-02"`
	DateTo   string `query:"date_to" validate:"omitempty,datetime=2006-01-02"`
	Page     int    `query:"page" validate:"omitempty,min=1"`
}

type detailQuery struct {
	ID       int    `query:"id" validate:"min=1"`
	Language string `query:"language" validate:"omitempty,alpha,max=8"`
}

// ValidationError lists the rejected parameters.
type ValidationError struct {
	Fields map[string]string `json:"fields"`
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for k, v := range e.Fields {
		parts = append(parts, k+": "+v)
	}
	return "invalid query: " + strings.Join(parts, ", ")
}

func parseListQuery(values url.Values) (filter.State, error) {
	var q listQuery
	bad := map[string]string{}

	q.Search = strings.TrimSpace(values.Get("search"))
	q.Language = strings.ToLower(strings.TrimSpace(values.Get("language")))
	q.Location = strings.TrimSpace(values.Get("location"))
	q.DateFrom = values.Get("date_from")
	q.DateTo = values.Get("date_to")
	q.Category = intParam(values, "category", bad)
	q.Ministry = intParam(values, "ministry", bad)
	q.Audience = intParam(values, "audience", bad)
	q.Page = intParam(values, "page", bad)

	if err := check(q, bad); err != nil {
		return filter.State{}, err
	}

	s := filter.NewState()
	s.SetSearch(q.Search)
	s.SetCategory(optional(q.Category))
	s.SetMinistry(optional(q.Ministry))
	s.SetAudience(optional(q.Audience))
	s.SetLanguage(q.Language)
	s.SetLocation(q.Location)
	s.SetDateRange(date(q.DateFrom), date(q.DateTo))
	s.SetPage(q.Page)
	return s, nil
}

func parseDetailQuery(rawID string, values url.Values) (detailQuery, error) {
	bad := map[string]string{}
	q := detailQuery{Language: strings.ToLower(strings.TrimSpace(values.Get("language")))}
	id, err := strconv.Atoi(rawID)
	if err != nil {
		bad["id"] = "must be a number"
	}
	q.ID = id
	return q, check(q, bad)
}

func check(q any, bad map[string]string) error {
	if err := validate.Struct(q); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}
		for _, fe := range verrs {
			if _, seen := bad[fe.Field()]; seen {
				continue
			}
			bad[fe.Field()] = describe(fe)
		}
	}
	if len(bad) > 0 {
		return &ValidationError{Fields: bad}
	}
	return nil
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "alpha":
		return "must contain letters only"
	case "datetime":
		return "must be a date formatted " + fe.Param()
	}
	return fmt.Sprintf("failed %s validation", fe.Tag())
}

func intParam(values url.Values, name string, bad map[string]string) int {
	raw := strings.TrimSpace(values.Get(name))
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		bad[name] = "must be a number"
		return 0
	}
	return n
}

func optional(id int) *int {
	if id <= 0 {
		return nil
	}
	return &id
}

func date(raw string) *time.Time {
	if raw == "" {
		return nil
	}
	t, err := time.ParseInLocation(dateLayout, raw, view.IST)
	if err != nil {
		return nil
	}
	return &t
}
