package vercel

import (
	"context"
	"errors"
	"net/http"

	"github.com/mfreeland/deploybridge/internal/domain/model"
)

// CreateDatabase provisions a Postgres store. Region defaults to
// model.DefaultRegion when the spec omits it. The returned database may
// still be provisioning, in which case its connection string is empty.
func (c *Client) CreateDatabase(ctx context.Context, spec model.DatabaseSpec) (*model.Database, error) {
	if spec.Name == "" {
		return nil, &model.ValidationError{Field: "name", Message: "must not be empty"}
	}

	region := spec.Region
	if region == "" {
		region = model.DefaultRegion
	}

	body := map[string]string{
		"name":   spec.Name,
		"region": string(region),
	}
	if spec.Plan != "" {
		body["plan"] = spec.Plan
	}

	var resp storeResponse
	if err := c.request(ctx, http.MethodPost, "/v1/storage/stores/postgres", nil, body, &resp); err != nil {
		return nil, err
	}

	db := mapStore(resp.Store)
	return &db, nil
}

// ListDatabases returns all database stores visible to the token.
func (c *Client) ListDatabases(ctx context.Context) ([]model.Database, error) {
	var resp storeListResponse
	if err := c.request(ctx, http.MethodGet, "/v1/storage/stores", nil, nil, &resp); err != nil {
		return nil, err
	}

	dbs := make([]model.Database, 0, len(resp.Stores))
	for _, s := range resp.Stores {
		dbs = append(dbs, mapStore(s))
	}
	return dbs, nil
}

// DeleteDatabase removes a store. A provider-side 404 means the store is
// already gone; that resolves to (false, nil) rather than an error so the
// delete stays idempotent. Any other failure propagates classified.
func (c *Client) DeleteDatabase(ctx context.Context, id string) (bool, error) {
	err := c.request(ctx, http.MethodDelete, "/v1/storage/stores/"+id, nil, nil, nil)
	if err == nil {
		return true, nil
	}

	var provErr *model.ProviderError
	if errors.As(err, &provErr) && provErr.Status == http.StatusNotFound {
		return false, nil
	}
	return false, err
}
