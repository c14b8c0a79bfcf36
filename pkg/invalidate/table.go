package invalidate

import (
	"fmt"
	"sort"
	"strings"

	ferrors "github.com/vango-dev/goalfeed/internal/errors"
	"github.com/vango-dev/goalfeed/pkg/cache"
	"github.com/vango-dev/goalfeed/pkg/entity"
)

// Param selects which context value fills a template's parameter.
type Param int

const (
	ParamNone Param = iota
	ParamActingUser
	ParamGoal
)

// Template is a view name with a parameter slot.
type Template struct {
	Name  string
	Param Param

	// OnlyFromAggregate limits the template to mutations issued from the
	// aggregate feed.
	OnlyFromAggregate bool
}

// Table maps (kind, operation) to the view templates it invalidates.
type Table struct {
	rows map[entity.Pair][]Template
}

// intentionallyEmpty lists the pairs that may have an empty row. Likes are
// reconciled by the optimistic toggle, not by refetching.
var intentionallyEmpty = map[entity.Pair]bool{
	{Kind: entity.KindLike, Op: entity.OpToggleLike}: true,
}

// NewTable builds a table and checks that every reachable pair has a row
// and that only intentionally empty pairs have an empty one.
func NewTable(rows map[entity.Pair][]Template) (*Table, error) {
	var missing, empty []string
	for _, p := range entity.Reachable {
		row, ok := rows[p]
		switch {
		case !ok:
			missing = append(missing, p.String())
		case len(row) == 0 && !intentionallyEmpty[p]:
			empty = append(empty, p.String())
		}
	}
	if len(missing) > 0 || len(empty) > 0 {
		sort.Strings(missing)
		sort.Strings(empty)
		var parts []string
		if len(missing) > 0 {
			parts = append(parts, "missing rows: "+strings.Join(missing, ", "))
		}
		if len(empty) > 0 {
			parts = append(parts, "empty rows: "+strings.Join(empty, ", "))
		}
		return nil, ferrors.New(ferrors.CodeIncompleteTable).WithDetail(strings.Join(parts, "; "))
	}

	t := &Table{rows: make(map[entity.Pair][]Template, len(rows))}
	for p, row := range rows {
		t.rows[p] = append([]Template(nil), row...)
	}
	return t, nil
}

// MustNewTable is like NewTable but panics on an incomplete table.
func MustNewTable(rows map[entity.Pair][]Template) *Table {
	t, err := NewTable(rows)
	if err != nil {
		panic(fmt.Sprintf("invalidate: %v", err))
	}
	return t
}

// DefaultRows returns the dependency rows of the feed.
func DefaultRows() map[entity.Pair][]Template {
	byUser := Template{Name: cache.NameGoalUpdatesByUser, Param: ParamActingUser}
	all := Template{Name: cache.NameAllUpdates}
	recent := Template{Name: cache.NameRecentUpdatesByGoal, Param: ParamGoal}
	aggregate := func(t Template) Template {
		t.OnlyFromAggregate = true
		return t
	}

	postOrEdit := []Template{byUser, aggregate(all), aggregate(recent)}
	comments := []Template{all}

	return map[entity.Pair][]Template{
		{Kind: entity.KindUpdate, Op: entity.OpCreate}:   postOrEdit,
		{Kind: entity.KindUpdate, Op: entity.OpEdit}:     postOrEdit,
		{Kind: entity.KindUpdate, Op: entity.OpDelete}:   {byUser, all, recent},
		{Kind: entity.KindComment, Op: entity.OpCreate}:  comments,
		{Kind: entity.KindComment, Op: entity.OpEdit}:    comments,
		{Kind: entity.KindComment, Op: entity.OpDelete}:  comments,
		{Kind: entity.KindLike, Op: entity.OpToggleLike}: {},
	}
}

// DefaultTable returns the feed's table.
func DefaultTable() *Table {
	return MustNewTable(DefaultRows())
}

// Row returns the templates for p.
func (t *Table) Row(p entity.Pair) ([]Template, bool) {
	row, ok := t.rows[p]
	return row, ok
}
