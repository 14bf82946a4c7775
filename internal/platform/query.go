package platform

import (
	"net/url"
	"strconv"
)

// Query 列表查询参数
type Query struct {
	Where              string
	Sort               []string
	Limit              int
	Offset             int
	WithTotal          bool
	Expand             []string
	PriceCurrency      string
	PriceCountry       string
	PriceCustomerGroup string
	PriceChannel       string
}

// Values 编码为 URL 查询参数
func (q Query) Values() url.Values {
	v := url.Values{}
	if q.Where != "" {
		v.Set("where", q.Where)
	}
	for _, s := range q.Sort {
		v.Add("sort", s)
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Offset > 0 {
		v.Set("offset", strconv.Itoa(q.Offset))
	}
	v.Set("withTotal", strconv.FormatBool(q.WithTotal))
	for _, e := range q.Expand {
		v.Add("expand", e)
	}
	setIf(v, "priceCurrency", q.PriceCurrency)
	setIf(v, "priceCountry", q.PriceCountry)
	setIf(v, "priceCustomerGroup", q.PriceCustomerGroup)
	setIf(v, "priceChannel", q.PriceChannel)
	return v
}

func setIf(v url.Values, key, value string) {
	if value != "" {
		v.Set(key, value)
	}
}
