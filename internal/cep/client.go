// Package cep предоставляет клиент сервиса определения адреса по почтовому индексу.
package cep

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

// ErrNotFound возвращается, если индекс не известен сервису.
var ErrNotFound = errors.New("postal code not found")

// Client инкапсулирует HTTP-взаимодействие с сервисом, совместимым с ViaCEP.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// AddressInfo содержит часть адреса, определяемую по почтовому индексу.
type AddressInfo struct {
	Street       string `json:"logradouro"`
	Neighborhood string `json:"bairro"`
	City         string `json:"localidade"`
	State        string `json:"uf"`
}

type lookupResponse struct {
	AddressInfo
	Erro bool `json:"erro"`
}

// NewClient создаёт HTTP-клиент сервиса почтовых индексов по указанному адресу.
// Ошибки сети ретраятся прозрачно: подстановка адреса не должна ломаться
// из-за единичного сбоя.
func NewClient(baseURL string) *Client {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = 2
	retryClient.RetryWaitMin = 100 * time.Millisecond
	retryClient.RetryWaitMax = 1 * time.Second
	retryClient.HTTPClient.Timeout = 5 * time.Second
	retryClient.Logger = nil

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: retryClient.StandardClient(),
	}
}

// Resolve запрашивает адрес для указанного индекса из восьми цифр.
func (c *Client) Resolve(ctx context.Context, code string) (*AddressInfo, error) {
	if c == nil || c.baseURL == "" {
		return nil, fmt.Errorf("cep client not configured")
	}

	base := c.baseURL
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "https://" + base
	}

	url := fmt.Sprintf("%s/ws/%s/json/", base, code)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusBadRequest {
		return nil, ErrNotFound
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	var result lookupResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	// Сервис отвечает 200 с признаком ошибки, если индекс не существует.
	if result.Erro {
		return nil, ErrNotFound
	}

	return &result.AddressInfo, nil
}
