package pagination

import (
	"testing"
	"time"

	"github.com/MorseWayne/cherry_market/internal/domain"
)

func TestEncodeDecode_Time(t *testing.T) {
	ts := time.Date(2024, 3, 1, 12, 30, 45, 123456000, time.FixedZone("KST", 9*3600))
	token := EncodeTime(ts, 42)

	if token != "2024-03-01T03:30:45.123456Z_42" {
		t.Fatalf("EncodeTime() = %q", token)
	}

	c, ok := Decode(token, domain.SortLatest)
	if !ok {
		t.Fatal("Decode() failed for a valid token")
	}
	if !c.CreatedAt.Equal(ts) {
		t.Errorf("CreatedAt = %v, want %v", c.CreatedAt, ts)
	}
	if c.ID != 42 {
		t.Errorf("ID = %d, want 42", c.ID)
	}
}

func TestEncodeDecode_Price(t *testing.T) {
	for _, mode := range []domain.SortMode{domain.SortLowPrice, domain.SortHighPrice} {
		token := EncodePrice(15000, 7)
		if token != "15000_7" {
			t.Fatalf("EncodePrice() = %q", token)
		}
		c, ok := Decode(token, mode)
		if !ok {
			t.Fatalf("Decode(%s) failed", mode)
		}
		if c.Price != 15000 || c.ID != 7 || c.Mode != mode {
			t.Errorf("Decode(%s) = %+v", mode, c)
		}
	}
}

func TestForProduct(t *testing.T) {
	p := &domain.Product{ID: 3, Price: 900, CreatedAt: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)}

	if got := ForProduct(domain.SortLatest, p); got != "2024-01-02T03:04:05Z_3" {
		t.Errorf("ForProduct(LATEST) = %q", got)
	}
	if got := ForProduct(domain.SortHighPrice, p); got != "900_3" {
		t.Errorf("ForProduct(HIGH_PRICE) = %q", got)
	}
}

func TestDecode_SplitsOnLastSeparator(t *testing.T) {
	// 排序键本身含分隔符时只按最后一个切分
	_, ok := Decode("12_34_5", domain.SortLowPrice)
	if ok {
		t.Fatal("a sort value containing the separator is not an integer and must fall back")
	}

	value, id, ok := split("a_b_c_9")
	if !ok || value != "a_b_c" || id != 9 {
		t.Errorf("split() = %q, %d, %v", value, id, ok)
	}
}

func TestDecode_Malformed(t *testing.T) {
	tokens := []string{
		"",
		"   ",
		"garbage",
		"_5",
		"100_",
		"100_abc",
		"100_-1",
		"100_0",
		"not-a-time_5",
		"2024-13-45T00:00:00Z_5",
		"1.5_3",
	}

	for _, token := range tokens {
		for _, mode := range []domain.SortMode{domain.SortLatest, domain.SortLowPrice, domain.SortHighPrice} {
			if c, ok := Decode(token, mode); ok {
				t.Errorf("Decode(%q, %s) = %+v, want first page", token, mode, c)
			}
		}
	}
}

func TestDecode_WrongSortMode(t *testing.T) {
	timeToken := EncodeTime(time.Now(), 1)
	if _, ok := Decode(timeToken, domain.SortLowPrice); ok {
		t.Error("time cursor under LOW_PRICE should fall back to first page")
	}

	priceToken := EncodePrice(100, 1)
	if _, ok := Decode(priceToken, domain.SortLatest); ok {
		t.Error("price cursor under LATEST should fall back to first page")
	}
}

func TestDecodeTimeCursor(t *testing.T) {
	ts := time.Date(2024, 5, 5, 0, 0, 0, 0, time.UTC)
	got, id, ok := DecodeTimeCursor(EncodeTime(ts, 11))
	if !ok || !got.Equal(ts) || id != 11 {
		t.Errorf("DecodeTimeCursor() = %v, %d, %v", got, id, ok)
	}
	if _, _, ok := DecodeTimeCursor("x_1"); ok {
		t.Error("DecodeTimeCursor() should reject malformed time")
	}
}
