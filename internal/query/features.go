// Package query turns list-request parameters into a storage-agnostic
// descriptor: filter conditions, sort order, projection and a page window.
// Repositories compile the descriptor into their own query language.
package query

import (
	"math"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/KarinaChumak/tour-booking-system/internal/utils"
)

type Operator string

const (
	OpEq  Operator = "eq"
	OpIn  Operator = "in"
	OpGt  Operator = "gt"
	OpGte Operator = "gte"
	OpLt  Operator = "lt"
	OpLte Operator = "lte"
)

const (
	DefaultPage  = 1
	DefaultLimit = 100

	// VersionField is the internal revision counter hidden from default output.
	VersionField = "version"
)

// DefaultSort orders newest first, then by name.
var DefaultSort = []SortField{{Field: "createdAt", Desc: true}, {Field: "name"}}

var reservedKeys = map[string]bool{"page": true, "sort": true, "limit": true, "fields": true}

var comparisonOps = map[string]Operator{"gt": OpGt, "gte": OpGte, "lt": OpLt, "lte": OpLte}

var bracketKey = regexp.MustCompile(`^([^\[\]]+)\[([^\[\]]+)\]$`)

type Condition struct {
	Field  string
	Op     Operator
	Values []string
}

// Eq builds an equality condition.
func Eq(field, value string) Condition {
	return Condition{Field: field, Op: OpEq, Values: []string{value}}
}

// Value returns the first operand.
func (c Condition) Value() string {
	if len(c.Values) == 0 {
		return ""
	}
	return c.Values[0]
}

type SortField struct {
	Field string
	Desc  bool
}

type Query struct {
	Conditions []Condition
	Sort       []SortField
	Projection Projection
	Page       int
	Limit      int
}

// Skip is the number of matching records before the current page.
func (q Query) Skip() int {
	if q.Page < 1 {
		return 0
	}
	return (q.Page - 1) * q.Limit
}

// Features applies filter, sort, field limiting and pagination to a set of
// request parameters. Steps may be chained in any order but Build runs them
// in the canonical one.
type Features struct {
	params url.Values
	base   []Condition
	q      Query
}

// New starts a builder. Base conditions come from the route (e.g. a parent
// id) and win over request parameters for the same field.
func New(params url.Values, base ...Condition) *Features {
	if params == nil {
		params = url.Values{}
	}
	return &Features{
		params: params,
		base:   base,
		q: Query{
			Sort:  append([]SortField(nil), DefaultSort...),
			Page:  DefaultPage,
			Limit: DefaultLimit,
		},
	}
}

// Build runs every step in order and returns the descriptor.
func Build(params url.Values, base ...Condition) Query {
	return New(params, base...).Filter().Sort().LimitFields().Paginate().Query()
}

func (f *Features) Query() Query {
	return f.q
}

func (f *Features) Filter() *Features {
	overridden := make(map[string]bool, len(f.base))
	for _, c := range f.base {
		overridden[c.Field] = true
	}

	keys := make([]string, 0, len(f.params))
	for k := range f.params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	conds := []Condition{}
	for _, key := range keys {
		if reservedKeys[key] {
			continue
		}
		values := f.params[key]
		if len(values) == 0 {
			continue
		}

		if m := bracketKey.FindStringSubmatch(key); m != nil {
			field, opToken := m[1], m[2]
			if reservedKeys[field] || overridden[field] {
				continue
			}
			if op, ok := comparisonOps[opToken]; ok {
				for _, v := range values {
					conds = append(conds, Condition{Field: field, Op: op, Values: []string{v}})
				}
				continue
			}
			// Not an allowed operator: an equality on the literal key, which
			// no record carries.
			conds = append(conds, Condition{Field: key, Op: OpEq, Values: values[:1]})
			continue
		}

		if overridden[key] {
			continue
		}
		if len(values) > 1 {
			conds = append(conds, Condition{Field: key, Op: OpIn, Values: append([]string(nil), values...)})
			continue
		}
		conds = append(conds, Condition{Field: key, Op: OpEq, Values: []string{values[0]}})
	}

	f.q.Conditions = append(conds, f.base...)
	return f
}

func (f *Features) Sort() *Features {
	fields := []SortField{}
	for _, tok := range utils.SplitList(f.params.Get("sort")) {
		desc := strings.HasPrefix(tok, "-")
		name := strings.TrimLeft(tok, "-+")
		if name == "" {
			continue
		}
		fields = append(fields, SortField{Field: name, Desc: desc})
	}
	if len(fields) == 0 {
		fields = append([]SortField(nil), DefaultSort...)
	}
	f.q.Sort = fields
	return f
}

func (f *Features) LimitFields() *Features {
	var p Projection
	for _, tok := range utils.SplitList(f.params.Get("fields")) {
		if name, ok := strings.CutPrefix(tok, "-"); ok {
			if name != "" {
				p.Exclude = append(p.Exclude, name)
			}
			continue
		}
		p.Include = append(p.Include, tok)
	}
	if len(p.Include) > 0 {
		p.Exclude = nil
	}
	if len(p.Include) == 0 && len(p.Exclude) == 0 {
		p.Exclude = []string{VersionField}
	}
	f.q.Projection = p
	return f
}

func (f *Features) Paginate() *Features {
	f.q.Page = positiveInt(f.params.Get("page"), DefaultPage)
	f.q.Limit = positiveInt(f.params.Get("limit"), DefaultLimit)
	// The offset (page-1)*limit must fit in an int.
	if f.q.Page-1 > math.MaxInt/f.q.Limit {
		f.q.Page = DefaultPage
	}
	return f
}

// WithDefaults copies params and forces the given keys, used by alias routes.
func WithDefaults(params url.Values, forced map[string]string) url.Values {
	out := url.Values{}
	for k, v := range params {
		out[k] = append([]string(nil), v...)
	}
	for k, v := range forced {
		out.Set(k, v)
	}
	return out
}

func positiveInt(raw string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 1 {
		return fallback
	}
	return n
}
