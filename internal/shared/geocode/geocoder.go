// Package geocode 封装地理编码外部协作方
//
// 默认实现调用 Nominatim 风格的 HTTP 接口（/search?q=...&format=json），
// 服务端点通过配置注入。结果可选地经 Redis 缓存（见 cache.go），
// 失败不在本层重试，由发起请求直接上抛。
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Location 地理编码结果
type Location struct {
	Lat              float64 `json:"lat"`
	Lng              float64 `json:"lng"`
	FormattedAddress string  `json:"formatted_address,omitempty"`
	Street           string  `json:"street,omitempty"`
	City             string  `json:"city,omitempty"`
	State            string  `json:"state,omitempty"`
	Zipcode          string  `json:"zipcode,omitempty"`
	Country          string  `json:"country,omitempty"`
}

// Geocoder 地理编码接口
type Geocoder interface {
	// Geocode 把地址/邮编解析为坐标；无结果返回错误
	Geocode(ctx context.Context, address string) (*Location, error)
}

// Client Nominatim 风格 HTTP 地理编码客户端
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient 创建地理编码客户端
//
// baseURL 如 "https://nominatim.openstreetmap.org"
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

// nominatim /search 响应条目
type searchResult struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
	Address     struct {
		Road     string `json:"road"`
		City     string `json:"city"`
		Town     string `json:"town"`
		State    string `json:"state"`
		Postcode string `json:"postcode"`
		Country  string `json:"country"`
	} `json:"address"`
}

func (c *Client) Geocode(ctx context.Context, address string) (*Location, error) {
	u := fmt.Sprintf("%s/search?q=%s&format=json&addressdetails=1&limit=1",
		c.baseURL, url.QueryEscape(address))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geocode %q: %w", address, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geocode %q: unexpected status %d", address, resp.StatusCode)
	}

	var results []searchResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, fmt.Errorf("geocode %q: decode response: %w", address, err)
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("geocode %q: no results", address)
	}

	r := results[0]
	lat, err := strconv.ParseFloat(r.Lat, 64)
	if err != nil {
		return nil, fmt.Errorf("geocode %q: bad latitude %q", address, r.Lat)
	}
	lng, err := strconv.ParseFloat(r.Lon, 64)
	if err != nil {
		return nil, fmt.Errorf("geocode %q: bad longitude %q", address, r.Lon)
	}

	city := r.Address.City
	if city == "" {
		city = r.Address.Town
	}
	return &Location{
		Lat:              lat,
		Lng:              lng,
		FormattedAddress: r.DisplayName,
		Street:           r.Address.Road,
		City:             city,
		State:            r.Address.State,
		Zipcode:          r.Address.Postcode,
		Country:          r.Address.Country,
	}, nil
}
