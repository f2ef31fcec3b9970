// Package query 提供商品查询的条件与排序描述。
//
// 每个条件既能渲染为带占位符的 SQL 片段，也能在内存中对商品求值，
// 仓储层用前者拼接语句，测试替身用后者复现同样的语义。
package query

import (
	"fmt"
	"strings"
	"time"

	"github.com/MorseWayne/cherry_market/internal/domain"
)

// Column 可参与过滤/排序的列
type Column string

const (
	ColID           Column = "p.id"
	ColCreatedAt    Column = "p.created_at"
	ColPrice        Column = "p.price"
	ColStatus       Column = "p.status"
	ColTradeType    Column = "p.trade_type"
	ColCategoryCode Column = "c.code"
)

// value 取出商品在该列上的值
func (c Column) value(p *domain.Product) any {
	switch c {
	case ColID:
		return p.ID
	case ColCreatedAt:
		return p.CreatedAt
	case ColPrice:
		return p.Price
	case ColStatus:
		return string(p.Status)
	case ColTradeType:
		return string(p.TradeType)
	case ColCategoryCode:
		return p.CategoryCode
	}
	panic(fmt.Sprintf("query: unknown column %q", string(c)))
}

// Predicate 查询条件
type Predicate interface {
	SQL() (string, []any)
	Match(p *domain.Product) bool
}

type op string

const (
	opEq op = "="
	opNe op = "<>"
	opLt op = "<"
	opGt op = ">"
	opLe op = "<="
	opGe op = ">="
)

type cmp struct {
	col Column
	op  op
	val any
}

func (c cmp) SQL() (string, []any) {
	return fmt.Sprintf("%s %s ?", c.col, c.op), []any{c.val}
}

func (c cmp) Match(p *domain.Product) bool {
	r := compare(c.col.value(p), c.val)
	switch c.op {
	case opEq:
		return r == 0
	case opNe:
		return r != 0
	case opLt:
		return r < 0
	case opGt:
		return r > 0
	case opLe:
		return r <= 0
	case opGe:
		return r >= 0
	}
	return false
}

// Eq 列等于 v
func Eq(col Column, v any) Predicate { return cmp{col, opEq, normalize(v)} }

// Ne 列不等于 v
func Ne(col Column, v any) Predicate { return cmp{col, opNe, normalize(v)} }

// Lt 列小于 v
func Lt(col Column, v any) Predicate { return cmp{col, opLt, normalize(v)} }

// Gt 列大于 v
func Gt(col Column, v any) Predicate { return cmp{col, opGt, normalize(v)} }

// Le 列小于等于 v
func Le(col Column, v any) Predicate { return cmp{col, opLe, normalize(v)} }

// Ge 列大于等于 v
func Ge(col Column, v any) Predicate { return cmp{col, opGe, normalize(v)} }

type in struct {
	col  Column
	vals []any
}

// In 列取值属于 vals；vals 为空时恒假
func In(col Column, vals ...any) Predicate {
	if len(vals) == 0 {
		return None()
	}
	norm := make([]any, len(vals))
	for i, v := range vals {
		norm[i] = normalize(v)
	}
	return in{col: col, vals: norm}
}

func (i in) SQL() (string, []any) {
	placeholders := strings.Repeat("?,", len(i.vals)-1) + "?"
	return fmt.Sprintf("%s IN (%s)", i.col, placeholders), i.vals
}

func (i in) Match(p *domain.Product) bool {
	v := i.col.value(p)
	for _, want := range i.vals {
		if compare(v, want) == 0 {
			return true
		}
	}
	return false
}

type junction struct {
	sep   string
	parts []Predicate
}

// And 全部满足
func And(parts ...Predicate) Predicate { return junction{sep: " AND ", parts: parts} }

// Or 任一满足
func Or(parts ...Predicate) Predicate { return junction{sep: " OR ", parts: parts} }

func (j junction) SQL() (string, []any) {
	if len(j.parts) == 0 {
		if j.sep == " AND " {
			return "1 = 1", nil
		}
		return "1 = 0", nil
	}
	clauses := make([]string, 0, len(j.parts))
	var args []any
	for _, part := range j.parts {
		s, a := part.SQL()
		clauses = append(clauses, s)
		args = append(args, a...)
	}
	return "(" + strings.Join(clauses, j.sep) + ")", args
}

func (j junction) Match(p *domain.Product) bool {
	if j.sep == " AND " {
		for _, part := range j.parts {
			if !part.Match(p) {
				return false
			}
		}
		return true
	}
	for _, part := range j.parts {
		if part.Match(p) {
			return true
		}
	}
	return false
}

type none struct{}

// None 恒假条件
func None() Predicate { return none{} }

func (none) SQL() (string, []any)       { return "1 = 0", nil }
func (none) Match(*domain.Product) bool { return false }

func normalize(v any) any {
	switch x := v.(type) {
	case int:
		return int64(x)
	case domain.ProductStatus:
		return string(x)
	case domain.TradeType:
		return string(x)
	case time.Time:
		return x.UTC()
	}
	return v
}

// compare 比较两个同类值；类型不一致视为不相等且按字符串比较
func compare(a, b any) int {
	switch x := a.(type) {
	case int64:
		if y, ok := b.(int64); ok {
			switch {
			case x < y:
				return -1
			case x > y:
				return 1
			}
			return 0
		}
	case time.Time:
		if y, ok := b.(time.Time); ok {
			return x.Compare(y)
		}
	case string:
		if y, ok := b.(string); ok {
			return strings.Compare(x, y)
		}
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}
