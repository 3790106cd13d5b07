package vercel_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mfreeland/deploybridge/internal/domain/model"
)

func TestCreateDatabase_DefaultsRegionAndNormalizesStatus(t *testing.T) {
	var gotBody map[string]string
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v1/storage/stores/postgres", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		_, _ = w.Write([]byte(`{"store":{
			"id":"store_1","name":"blog-db","type":"postgres","region":"iad1",
			"status":"ready","createdAt":1700000000000,
			"connectionStrings":{"pooled":"postgres://pooled","direct":"postgres://direct"}
		}}`))
	}))

	db, err := client.CreateDatabase(context.Background(), model.DatabaseSpec{Name: "blog-db"})
	require.NoError(t, err)

	assert.Equal(t, "iad1", gotBody["region"], "omitted region defaults")
	assert.Equal(t, model.DatabaseActive, db.Status, "provider 'ready' normalizes to active")
	assert.Equal(t, "postgres://pooled", db.ConnectionString)
	assert.Equal(t, "store_1", db.ID)
}

func TestCreateDatabase_MissingConnectionStringsYieldsEmpty(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"store":{"id":"store_2","name":"new-db","status":"initializing","createdAt":1700000000000}}`))
	}))

	db, err := client.CreateDatabase(context.Background(), model.DatabaseSpec{Name: "new-db"})
	require.NoError(t, err)

	assert.Equal(t, "", db.ConnectionString, "provisioning database has no connection string yet")
	assert.Equal(t, model.DatabaseCreating, db.Status)
}

func TestCreateDatabase_EmptyNameRejectedBeforeNetwork(t *testing.T) {
	called := false
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	_, err := client.CreateDatabase(context.Background(), model.DatabaseSpec{})

	var validationErr *model.ValidationError
	assert.ErrorAs(t, err, &validationErr)
	assert.False(t, called)
}

func TestDeleteDatabase_NotFoundResolvesFalse(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":{"code":"not_found","message":"Store not found"}}`))
	}))

	deleted, err := client.DeleteDatabase(context.Background(), "store_gone")
	require.NoError(t, err, "already-absent store is an idempotent success")
	assert.False(t, deleted)
}

func TestDeleteDatabase_OtherFailuresPropagate(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":{"code":"internal_error","message":"boom"}}`))
	}))

	_, err := client.DeleteDatabase(context.Background(), "store_1")

	var provErr *model.ProviderError
	require.ErrorAs(t, err, &provErr)
	assert.Equal(t, http.StatusInternalServerError, provErr.Status)
}

func TestDeleteDatabase_Success(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodDelete, r.Method)
		require.Equal(t, "/v1/storage/stores/store_1", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))

	deleted, err := client.DeleteDatabase(context.Background(), "store_1")
	require.NoError(t, err)
	assert.True(t, deleted)
}

func TestListDatabases(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"stores":[
			{"id":"a","name":"one","status":"ready","createdAt":1700000000000},
			{"id":"b","name":"two","status":"error","createdAt":1700000001000}
		]}`))
	}))

	dbs, err := client.ListDatabases(context.Background())
	require.NoError(t, err)
	require.Len(t, dbs, 2)
	assert.Equal(t, model.DatabaseActive, dbs[0].Status)
	assert.Equal(t, model.DatabaseError, dbs[1].Status)
}
