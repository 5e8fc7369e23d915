// Package cep resolves a postal code into street/neighborhood/city/UF
// through the public ViaCEP-style lookup service.
package cep

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/pkg/errors"
	"github.com/pastoralsj/registro/server/models"
)

const DefaultBaseURL = "https://viacep.com.br"

var (
	// ErrNotFound means the service answered but knows no such code.
	ErrNotFound = errors.New("cep not found")

	// ErrSkip means the input isn't a complete 8-digit code; lookup is
	// a no-op, not a failure.
	ErrSkip = errors.New("cep incomplete")
)

// Address is the resolved street data. The four fields overwrite
// whatever the user had typed on a successful lookup.
type Address struct {
	Street       string `json:"logradouro"`
	Neighborhood string `json:"bairro"`
	City         string `json:"localidade"`
	State        string `json:"uf"`
}

type lookupResponse struct {
	Address
	// The service flags unknown codes with an "erro" member whose type
	// has flipped between bool and string across versions; presence is
	// what matters.
	NotFound json.RawMessage `json:"erro"`
}

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	return &Client{baseURL: baseURL, httpClient: &http.Client{}}
}

// Lookup resolves a postal code. Anything other than exactly 8 digits
// returns ErrSkip. Transport failures pass through untouched so the
// caller can keep the current field values.
func (c *Client) Lookup(ctx context.Context, rawCEP string) (*Address, error) {
	normalized := models.NormalizeCEP(rawCEP)
	if len(normalized) != 9 { // "DDDDD-DDD"
		return nil, ErrSkip
	}

	digits := normalized[:5] + normalized[6:]
	endpoint := fmt.Sprintf("%s/ws/%s/json/", c.baseURL, digits)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	// The service reports an unknown-but-well-formed code with 200 and
	// an error flag; a 400 means the code was malformed.
	if resp.StatusCode == http.StatusBadRequest {
		return nil, ErrNotFound
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("cep service responded %d", resp.StatusCode)
	}

	payload := lookupResponse{}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, err
	}

	if len(payload.NotFound) > 0 {
		return nil, ErrNotFound
	}

	return &payload.Address, nil
}
