package http

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/vinizap/lumi-notes/domain"
)

// decodeJSON reads the request body into v. An empty body leaves v untouched
// so that the missing-field checks report the problem.
func decodeJSON(c *fiber.Ctx, v any) error {
	body := c.Body()
	if len(strings.TrimSpace(string(body))) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, v); err != nil {
		return domain.Validation("Invalid JSON body")
	}
	return nil
}

// check runs the struct tags of v and reports any failure as msg.
func (s *Server) check(v any, msg string) error {
	if err := s.validate.Struct(v); err != nil {
		return domain.Validation(msg)
	}
	return nil
}

// pathID parses an :id parameter. Ids that are not numbers cannot exist.
func pathID(c *fiber.Ctx, notFound string) (int64, error) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return 0, domain.NotFound(notFound)
	}
	return id, nil
}

func pathParam(c *fiber.Ctx, name string) string {
	raw := c.Params(name)
	if v, err := url.PathUnescape(raw); err == nil {
		return v
	}
	return raw
}

// parseTime reads an optional timestamp field. Empty strings count as absent.
func parseTime(field string, s *string) (*time.Time, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	t, err := domain.ParseTimestamp(*s)
	if err != nil {
		return nil, domain.Validation(fmt.Sprintf("Invalid %s format", field))
	}
	return &t, nil
}

// nullableTime converts a nullable timestamp field of an update. An explicit
// null or empty string clears the field.
func nullableTime(field string, v domain.Nullable[string]) (domain.Nullable[time.Time], error) {
	if !v.Set {
		return domain.Nullable[time.Time]{}, nil
	}
	t, err := parseTime(field, v.Value)
	if err != nil {
		return domain.Nullable[time.Time]{}, err
	}
	return domain.Nullable[time.Time]{Set: true, Value: t}, nil
}

// optionalID accepts a JSON number or a numeric string. Anything else is
// treated as absent.
func optionalID(raw json.RawMessage) *int64 {
	if len(raw) == 0 {
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		if id, err := n.Int64(); err == nil {
			return &id
		}
		return nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64); err == nil {
			return &id
		}
	}
	return nil
}
