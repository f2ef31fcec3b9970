package query

import (
	"reflect"
	"testing"
	"time"

	"github.com/MorseWayne/cherry_market/internal/domain"
)

func TestPredicate_SQL(t *testing.T) {
	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		pred     Predicate
		wantSQL  string
		wantArgs []any
	}{
		{"eq status", Eq(ColStatus, domain.ProductStatusSelling), "p.status = ?", []any{"SELLING"}},
		{"ne status", Ne(ColStatus, domain.ProductStatusPending), "p.status <> ?", []any{"PENDING"}},
		{"in trade", In(ColTradeType, domain.TradeTypeDirect, domain.TradeTypeBoth), "p.trade_type IN (?,?)", []any{"DIRECT", "BOTH"}},
		{"empty in", In(ColTradeType), "1 = 0", nil},
		{
			"keyset",
			Or(Lt(ColCreatedAt, ts), And(Eq(ColCreatedAt, ts), Lt(ColID, int64(5)))),
			"(p.created_at < ? OR (p.created_at = ? AND p.id < ?))",
			[]any{ts, ts, int64(5)},
		},
		{"price ge int", Ge(ColPrice, 100), "p.price >= ?", []any{int64(100)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, args := tt.pred.SQL()
			if sql != tt.wantSQL {
				t.Errorf("SQL() = %q, want %q", sql, tt.wantSQL)
			}
			if !reflect.DeepEqual(args, tt.wantArgs) {
				t.Errorf("args = %v, want %v", args, tt.wantArgs)
			}
		})
	}
}

func TestPredicate_Match(t *testing.T) {
	p := &domain.Product{
		ID:           10,
		Price:        500,
		Status:       domain.ProductStatusSelling,
		TradeType:    domain.TradeTypeBoth,
		CategoryCode: "BOOK",
		CreatedAt:    time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
	}

	tests := []struct {
		name string
		pred Predicate
		want bool
	}{
		{"eq", Eq(ColCategoryCode, "BOOK"), true},
		{"ne pending", Ne(ColStatus, domain.ProductStatusPending), true},
		{"gt price", Gt(ColPrice, int64(499)), true},
		{"lt price", Lt(ColPrice, int64(500)), false},
		{"le price", Le(ColPrice, 500), true},
		{"in", In(ColTradeType, domain.TradeTypeDelivery, domain.TradeTypeBoth), true},
		{"not in", In(ColTradeType, domain.TradeTypeDirect), false},
		{"time before", Lt(ColCreatedAt, time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)), true},
		{"and", And(Eq(ColPrice, 500), Eq(ColCategoryCode, "CAR")), false},
		{"or", Or(Eq(ColPrice, 1), Eq(ColID, 10)), true},
		{"none", None(), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.pred.Match(p); got != tt.want {
				t.Errorf("Match() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPageQuery(t *testing.T) {
	products := []*domain.Product{
		{ID: 1, Price: 300},
		{ID: 2, Price: 100},
		{ID: 3, Price: 300},
		{ID: 4, Price: 200},
	}

	q := PageQuery{
		Where:   []Predicate{Ge(ColPrice, 200)},
		OrderBy: []Order{{Column: ColPrice}, {Column: ColID, Desc: true}},
		Limit:   2,
	}

	where, args := q.WhereSQL()
	if where != "WHERE (p.price >= ?)" || len(args) != 1 {
		t.Errorf("WhereSQL() = %q, %v", where, args)
	}
	if got := q.OrderSQL(); got != "ORDER BY p.price ASC, p.id DESC" {
		t.Errorf("OrderSQL() = %q", got)
	}

	got := q.Apply(products)
	if len(got) != 2 || got[0].ID != 4 || got[1].ID != 3 {
		t.Errorf("Apply() ids = %v", ids(got))
	}

	if where, _ := (PageQuery{}).WhereSQL(); where != "" {
		t.Errorf("empty WhereSQL() = %q", where)
	}
}

func ids(ps []*domain.Product) []int64 {
	out := make([]int64, len(ps))
	for i, p := range ps {
		out[i] = p.ID
	}
	return out
}
