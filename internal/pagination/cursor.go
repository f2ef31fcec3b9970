// Package pagination 实现游标分页的游标编解码。
//
// 游标格式为 "<排序键>_<id>"：LATEST 的排序键为 UTC RFC3339Nano 时间，
// LOW_PRICE/HIGH_PRICE 的排序键为整数价格。解码按最后一个分隔符切分，
// 任何解析失败都视为"从第一页开始"，不向调用方暴露错误。
package pagination

import (
	"strconv"
	"strings"
	"time"

	"github.com/MorseWayne/cherry_market/internal/domain"
)

const separator = "_"

// Cursor 解码后的续读位置
type Cursor struct {
	Mode      domain.SortMode
	CreatedAt time.Time // 仅 LATEST
	Price     int64     // 仅 LOW_PRICE / HIGH_PRICE
	ID        int64
}

// EncodeTime 编码时间排序键
func EncodeTime(t time.Time, id int64) string {
	return t.UTC().Format(time.RFC3339Nano) + separator + strconv.FormatInt(id, 10)
}

// EncodePrice 编码价格排序键
func EncodePrice(price, id int64) string {
	return strconv.FormatInt(price, 10) + separator + strconv.FormatInt(id, 10)
}

// ForProduct 以商品 p 作为上一页最后一条，生成对应排序方式的游标
func ForProduct(mode domain.SortMode, p *domain.Product) string {
	switch mode {
	case domain.SortLowPrice, domain.SortHighPrice:
		return EncodePrice(p.Price, p.ID)
	default:
		return EncodeTime(p.CreatedAt, p.ID)
	}
}

// Decode 按排序方式解析游标。ok 为 false 表示应从第一页开始。
func Decode(token string, mode domain.SortMode) (*Cursor, bool) {
	value, id, ok := split(token)
	if !ok {
		return nil, false
	}

	switch mode {
	case domain.SortLowPrice, domain.SortHighPrice:
		price, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return nil, false
		}
		return &Cursor{Mode: mode, Price: price, ID: id}, true
	case domain.SortLatest, "":
		ts, err := DecodeTime(value)
		if err != nil {
			return nil, false
		}
		return &Cursor{Mode: domain.SortLatest, CreatedAt: ts, ID: id}, true
	default:
		return nil, false
	}
}

// DecodeTime 解析游标中的时间部分
func DecodeTime(value string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, value)
}

// DecodeTimeCursor 解析时间排序的游标（点赞列表等与商品排序无关的场景）
func DecodeTimeCursor(token string) (time.Time, int64, bool) {
	value, id, ok := split(token)
	if !ok {
		return time.Time{}, 0, false
	}
	ts, err := DecodeTime(value)
	if err != nil {
		return time.Time{}, 0, false
	}
	return ts, id, true
}

func split(token string) (string, int64, bool) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", 0, false
	}
	i := strings.LastIndex(token, separator)
	if i <= 0 || i == len(token)-1 {
		return "", 0, false
	}
	id, err := strconv.ParseInt(token[i+1:], 10, 64)
	if err != nil || id <= 0 {
		return "", 0, false
	}
	return token[:i], id, true
}
