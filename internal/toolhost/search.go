package toolhost

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// DefaultSearchTool is the tool invoked by Search unless overridden.
const DefaultSearchTool = "search"

// MaxSearchLimit is the largest row limit a search may ask for.
const MaxSearchLimit = 10000

// ErrInvalidSearch wraps every SearchRequest validation failure.
var ErrInvalidSearch = errors.New("invalid search request")

// StringList decodes from either a JSON string or a JSON array of strings.
// A lone string becomes a single element list.
type StringList []string

// UnmarshalJSON implements json.Unmarshaler.
func (l *StringList) UnmarshalJSON(data []byte) error {
	var one string
	if err := json.Unmarshal(data, &one); err == nil {
		if strings.TrimSpace(one) == "" {
			*l = nil
			return nil
		}
		*l = StringList{one}
		return nil
	}

	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return fmt.Errorf("expected a string or a list of strings: %w", err)
	}
	*l = StringList(many)
	return nil
}

// SearchRequest is the structured form of a search call. Where and OrderBy
// are accepted as aliases of Conditions and Orderings.
type SearchRequest struct {
	Resource   string     `json:"resource" validate:"required"`
	Fields     StringList `json:"fields" validate:"required,min=1,dive,required"`
	Conditions StringList `json:"conditions,omitempty" validate:"dive,required"`
	Where      StringList `json:"where,omitempty" validate:"dive,required"`
	Orderings  StringList `json:"orderings,omitempty" validate:"dive,required"`
	OrderBy    StringList `json:"order_by,omitempty" validate:"dive,required"`
	Limit      int        `json:"limit,omitempty" validate:"min=0,max=10000"`
	CustomerID string     `json:"customer_id,omitempty" validate:"omitempty,numeric"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Normalize trims whitespace, folds the Where and OrderBy aliases into
// Conditions and Orderings, and strips dashes from the customer id.
func (r *SearchRequest) Normalize() {
	r.Resource = strings.TrimSpace(r.Resource)
	r.Fields = trimAll(r.Fields)
	r.Conditions = trimAll(append(r.Conditions, r.Where...))
	r.Orderings = trimAll(append(r.Orderings, r.OrderBy...))
	r.Where, r.OrderBy = nil, nil
	r.CustomerID = strings.ReplaceAll(strings.TrimSpace(r.CustomerID), "-", "")
}

func trimAll(in StringList) StringList {
	var out StringList
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Validate reports the first problem with the request, wrapped in
// ErrInvalidSearch.
func (r *SearchRequest) Validate() error {
	err := validate.Struct(r)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return fmt.Errorf("%w: %v", ErrInvalidSearch, err)
	}
	fe := verrs[0]
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Errorf("%w: %s is required", ErrInvalidSearch, field)
	case "min":
		if fe.Kind() == reflect.Slice {
			return fmt.Errorf("%w: %s needs at least %s entry", ErrInvalidSearch, field, fe.Param())
		}
		return fmt.Errorf("%w: %s must be at least %s", ErrInvalidSearch, field, fe.Param())
	case "max":
		return fmt.Errorf("%w: %s must be at most %s", ErrInvalidSearch, field, fe.Param())
	case "numeric":
		return fmt.Errorf("%w: %s must contain only digits", ErrInvalidSearch, field)
	default:
		return fmt.Errorf("%w: %s failed %q check", ErrInvalidSearch, field, fe.Tag())
	}
}

// Arguments returns the tool arguments for the request. defaultCustomerID is
// used when the request names no customer.
func (r *SearchRequest) Arguments(defaultCustomerID string) map[string]any {
	args := map[string]any{
		"resource": r.Resource,
		"fields":   []string(r.Fields),
	}
	customerID := r.CustomerID
	if customerID == "" {
		customerID = strings.ReplaceAll(defaultCustomerID, "-", "")
	}
	if customerID != "" {
		args["customer_id"] = customerID
	}
	if len(r.Conditions) > 0 {
		args["conditions"] = []string(r.Conditions)
	}
	if len(r.Orderings) > 0 {
		args["orderings"] = []string(r.Orderings)
	}
	if r.Limit > 0 {
		args["limit"] = r.Limit
	}
	return args
}

// Search normalizes and validates req, then invokes the search tool with it.
func (c *Client) Search(ctx context.Context, req SearchRequest, defaultCustomerID string) (any, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	logClient.Printf("Search: resource=%s, fields=%d, conditions=%d, orderings=%d, limit=%d",
		req.Resource, len(req.Fields), len(req.Conditions), len(req.Orderings), req.Limit)
	return c.Invoke(ctx, c.searchTool, req.Arguments(defaultCustomerID))
}
