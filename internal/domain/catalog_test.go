package domain

import "testing"

func TestTradeType_Matches(t *testing.T) {
	tests := []struct {
		product TradeType
		want    TradeType
		match   bool
	}{
		{TradeTypeBoth, TradeTypeDirect, true},
		{TradeTypeBoth, TradeTypeDelivery, true},
		{TradeTypeBoth, TradeTypeBoth, true},
		{TradeTypeDirect, TradeTypeDirect, true},
		{TradeTypeDirect, TradeTypeDelivery, false},
		{TradeTypeDirect, TradeTypeBoth, false},
		{TradeTypeDelivery, TradeTypeDelivery, true},
		{TradeTypeDelivery, TradeTypeDirect, false},
		{TradeTypeDelivery, TradeTypeBoth, false},
	}

	for _, tt := range tests {
		if got := tt.product.Matches(tt.want); got != tt.match {
			t.Errorf("%s.Matches(%s) = %v, want %v", tt.product, tt.want, got, tt.match)
		}
	}
}

func TestParseSortMode(t *testing.T) {
	tests := map[string]SortMode{
		"":           SortLatest,
		"latest":     SortLatest,
		"LOW_PRICE":  SortLowPrice,
		"high_price": SortHighPrice,
		"popular":    SortLatest,
	}
	for in, want := range tests {
		if got := ParseSortMode(in); got != want {
			t.Errorf("ParseSortMode(%q) = %s, want %s", in, got, want)
		}
	}
}

func TestProductFilter_Matches(t *testing.T) {
	selling := ProductStatusSelling
	reserved := ProductStatusReserved
	pending := ProductStatusPending
	digital := "DIGITAL"
	minP, maxP := int64(1000), int64(5000)
	direct := TradeTypeDirect

	p := &Product{
		Status:       ProductStatusSelling,
		CategoryCode: "DIGITAL",
		Price:        3000,
		TradeType:    TradeTypeBoth,
	}
	pendingProduct := &Product{Status: ProductStatusPending, Price: 3000, TradeType: TradeTypeDirect}

	tests := []struct {
		name    string
		filter  ProductFilter
		product *Product
		want    bool
	}{
		{"no filter", ProductFilter{}, p, true},
		{"default excludes pending", ProductFilter{}, pendingProduct, false},
		{"explicit pending", ProductFilter{Status: &pending}, pendingProduct, true},
		{"status mismatch", ProductFilter{Status: &reserved}, p, false},
		{"status match", ProductFilter{Status: &selling}, p, true},
		{"category", ProductFilter{CategoryCode: &digital}, p, true},
		{"price range", ProductFilter{MinPrice: &minP, MaxPrice: &maxP}, p, true},
		{"below min", ProductFilter{MinPrice: &maxP}, p, false},
		{"above max", ProductFilter{MaxPrice: &minP}, p, false},
		{"both satisfies direct", ProductFilter{TradeType: &direct}, p, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.filter.Matches(tt.product); got != tt.want {
				t.Errorf("Matches() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestProductFilter_EmptyRange(t *testing.T) {
	lo, hi := int64(100), int64(50)
	if !(ProductFilter{MinPrice: &lo, MaxPrice: &hi}).EmptyRange() {
		t.Error("inverted range should be empty")
	}
	if (ProductFilter{MinPrice: &hi, MaxPrice: &lo}).EmptyRange() {
		t.Error("ordered range should not be empty")
	}
	if (ProductFilter{MinPrice: &lo}).EmptyRange() {
		t.Error("open range should not be empty")
	}
}

func TestProductListResponse_Depersonalized(t *testing.T) {
	next := "c"
	orig := &ProductListResponse{
		Items:      []ProductSummary{{ID: 1, IsLiked: true}, {ID: 2}},
		NextCursor: &next,
	}
	clean := orig.Depersonalized()

	if clean.Items[0].IsLiked {
		t.Error("depersonalized copy must not carry likes")
	}
	if !orig.Items[0].IsLiked {
		t.Error("original must not be mutated")
	}
	if ids := clean.IDs(); len(ids) != 2 || ids[0] != 1 || ids[1] != 2 {
		t.Errorf("IDs() = %v", ids)
	}
}

func TestNormalizeLimit(t *testing.T) {
	tests := map[int]int{0: DefaultPageSize, -3: DefaultPageSize, 10: 10, 50: 50, 51: MaxPageSize}
	for in, want := range tests {
		if got := NormalizeLimit(in); got != want {
			t.Errorf("NormalizeLimit(%d) = %d, want %d", in, got, want)
		}
	}
}
