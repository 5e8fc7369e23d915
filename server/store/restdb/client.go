// Package restdb talks to the hosted database service: a PostgREST
// style JSON API addressed by service URL + access key. It only maps
// requests and failures; all business rules live with the callers.
package restdb

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"io/ioutil"
	"net/http"
	"net/url"

	"github.com/pkg/errors"
	"github.com/pastoralsj/registro/server/models"
	"github.com/pastoralsj/registro/server/store"
)

const DefaultTable = "membros"

var orderableColumns = map[string]bool{
	"full_name":  true,
	"login":      true,
	"sector":     true,
	"role":       true,
	"join_date":  true,
	"created_at": true,
}

type Client struct {
	serviceURL string
	accessKey  string
	table      string
	httpClient *http.Client
}

// serviceError is the error document the service returns alongside
// non-2xx statuses.
type serviceError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func NewClient(serviceURL, accessKey, table string) *Client {
	if table == "" {
		table = DefaultTable
	}

	return &Client{
		serviceURL: serviceURL,
		accessKey:  accessKey,
		table:      table,
		httpClient: &http.Client{},
	}
}

func (c *Client) ListAll(ctx context.Context, orderBy string) ([]models.Member, error) {
	// Same whitelist as the sqlite backend; an unknown column would come
	// back from the service as a schema error and mislead the operator.
	if !orderableColumns[orderBy] {
		orderBy = "full_name"
	}

	query := url.Values{}
	query.Set("select", "*")
	query.Set("order", orderBy+".asc")

	var members []models.Member
	if err := c.do(ctx, http.MethodGet, query, nil, &members); err != nil {
		return nil, err
	}

	return members, nil
}

func (c *Client) Find(ctx context.Context, filter store.Filter) ([]models.Member, error) {
	query := url.Values{}
	query.Set("select", "*")

	if filter.ID != nil {
		query.Set("id", fmt.Sprintf("eq.%d", *filter.ID))
	}

	if filter.Login != nil {
		query.Set("login", "eq."+models.NormalizeLogin(*filter.Login))
	}

	if filter.BornOn != nil {
		// Day-range match, so timestamp-typed columns still hit.
		start, end := filter.BornOn.UTCDayBounds()
		query.Add("birth_date", "gte."+start.Format("2006-01-02"))
		query.Add("birth_date", "lt."+end.Format("2006-01-02"))
	}

	var members []models.Member
	if err := c.do(ctx, http.MethodGet, query, nil, &members); err != nil {
		return nil, err
	}

	return members, nil
}

func (c *Client) Insert(ctx context.Context, member *models.Member) error {
	var inserted []models.Member
	if err := c.do(ctx, http.MethodPost, nil, member, &inserted); err != nil {
		return err
	}

	if len(inserted) > 0 {
		*member = inserted[0]
	}

	return nil
}

func (c *Client) Upsert(ctx context.Context, member *models.Member) error {
	if member.ID == 0 {
		return c.Insert(ctx, member)
	}

	query := url.Values{}
	query.Set("id", fmt.Sprintf("eq.%d", member.ID))

	var updated []models.Member
	if err := c.do(ctx, http.MethodPatch, query, member, &updated); err != nil {
		return err
	}

	if len(updated) == 0 {
		return errors.Wrapf(store.ErrNotFound, "no record with id %d", member.ID)
	}

	*member = updated[0]
	return nil
}

func (c *Client) Delete(ctx context.Context, id uint) error {
	query := url.Values{}
	query.Set("id", fmt.Sprintf("eq.%d", id))

	return c.do(ctx, http.MethodDelete, query, nil, nil)
}

// ---------------------------------------------------------------------------------//
// Helper functions
// --------------------------------------------------------------------------------//

func (c *Client) do(ctx context.Context, method string, query url.Values, body, out interface{}) error {
	endpoint := fmt.Sprintf("%s/rest/v1/%s", c.serviceURL, c.table)
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(store.ErrSchemaMismatch, err.Error())
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return errors.Wrap(store.ErrTransport, err.Error())
	}

	req.Header.Set("apikey", c.accessKey)
	req.Header.Set("Authorization", "Bearer "+c.accessKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Prefer", "return=representation")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(store.ErrTransport, err.Error())
	}
	defer resp.Body.Close()

	responseBody, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(store.ErrTransport, err.Error())
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return classify(resp.StatusCode, responseBody)
	}

	if out != nil && len(responseBody) > 0 {
		if err := json.Unmarshal(responseBody, out); err != nil {
			return errors.Wrap(store.ErrSchemaMismatch, err.Error())
		}
	}

	return nil
}

// classify maps a raw service failure into the store taxonomy.
func classify(status int, body []byte) error {
	svcErr := serviceError{}
	_ = json.Unmarshal(body, &svcErr)

	detail := svcErr.Message
	if detail == "" {
		detail = fmt.Sprintf("service responded %d", status)
	}

	switch {
	// 23505 is the unique-constraint violation code, e.g. a login
	// already in use.
	case svcErr.Code == "23505" || status == http.StatusConflict:
		return errors.Wrap(store.ErrConstraintViolation, detail)

	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return errors.Wrap(store.ErrUnauthorized, detail)

	// 42P01/PGRST* mean the table or a column does not exist, i.e.
	// the service is pointed at the wrong schema.
	case svcErr.Code == "42P01" || svcErr.Code == "42703" ||
		(len(svcErr.Code) > 5 && svcErr.Code[:5] == "PGRST"):
		return errors.Wrap(store.ErrSchemaMismatch, detail)

	case status == http.StatusNotFound:
		return errors.Wrap(store.ErrNotFound, detail)

	case status >= http.StatusInternalServerError:
		return errors.Wrap(store.ErrTransport, detail)
	}

	return errors.Wrap(store.ErrSchemaMismatch, detail)
}
