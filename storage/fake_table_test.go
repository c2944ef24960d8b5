package storage

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"sync"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/runtime"
	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"
)

type fakeRow struct {
	props map[string]any
	etag  int
}

// fakeTable keeps entities in memory and understands the partition filters
// Storage issues.
type fakeTable struct {
	mu      sync.Mutex
	rows    map[string]map[string]*fakeRow
	created bool
	exists  bool
	txErr   error
	txCalls int
	failTx  int // fail the n-th transaction (1-based) when > 0
}

func newFakeTable() *fakeTable {
	return &fakeTable{rows: map[string]map[string]*fakeRow{}}
}

func respErr(status int, code string) error {
	return &azcore.ResponseError{StatusCode: status, ErrorCode: code}
}

func (f *fakeTable) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, p := range f.rows {
		n += len(p)
	}
	return n
}

func (f *fakeTable) CreateTable(ctx context.Context, options *aztables.CreateTableOptions) (aztables.CreateTableResponse, error) {
	if f.exists {
		return aztables.CreateTableResponse{}, respErr(409, string(aztables.TableAlreadyExists))
	}
	f.created = true
	return aztables.CreateTableResponse{}, nil
}

func (f *fakeTable) NewListEntitiesPager(options *aztables.ListEntitiesOptions) *runtime.Pager[aztables.ListEntitiesResponse] {
	pk, filtered := "", false
	if options != nil && options.Filter != nil {
		v := strings.TrimPrefix(*options.Filter, "PartitionKey eq '")
		pk = strings.ReplaceAll(strings.TrimSuffix(v, "'"), "''", "'")
		filtered = true
	}
	return runtime.NewPager(runtime.PagingHandler[aztables.ListEntitiesResponse]{
		More: func(aztables.ListEntitiesResponse) bool { return false },
		Fetcher: func(ctx context.Context, _ *aztables.ListEntitiesResponse) (aztables.ListEntitiesResponse, error) {
			f.mu.Lock()
			defer f.mu.Unlock()
			var out [][]byte
			for p, rows := range f.rows {
				if filtered && p != pk {
					continue
				}
				for _, r := range rows {
					data, err := json.Marshal(r.props)
					if err != nil {
						return aztables.ListEntitiesResponse{}, err
					}
					out = append(out, data)
				}
			}
			return aztables.ListEntitiesResponse{Entities: out}, nil
		},
	})
}

func (f *fakeTable) GetEntity(ctx context.Context, pk, rk string, options *aztables.GetEntityOptions) (aztables.GetEntityResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.rows[pk][rk]
	if !ok {
		return aztables.GetEntityResponse{}, respErr(404, "ResourceNotFound")
	}
	data, err := json.Marshal(r.props)
	if err != nil {
		return aztables.GetEntityResponse{}, err
	}
	return aztables.GetEntityResponse{ETag: azcore.ETag(strconv.Itoa(r.etag)), Value: data}, nil
}

func decodeProps(entity []byte) (map[string]any, string, string, error) {
	var props map[string]any
	if err := json.Unmarshal(entity, &props); err != nil {
		return nil, "", "", err
	}
	pk, _ := props["PartitionKey"].(string)
	rk, _ := props["RowKey"].(string)
	return props, pk, rk, nil
}

// add assumes f.mu is held.
func (f *fakeTable) add(entity []byte) error {
	props, pk, rk, err := decodeProps(entity)
	if err != nil {
		return err
	}
	if _, ok := f.rows[pk][rk]; ok {
		return respErr(409, "EntityAlreadyExists")
	}
	if f.rows[pk] == nil {
		f.rows[pk] = map[string]*fakeRow{}
	}
	f.rows[pk][rk] = &fakeRow{props: props, etag: 1}
	return nil
}

func (f *fakeTable) AddEntity(ctx context.Context, entity []byte, options *aztables.AddEntityOptions) (aztables.AddEntityResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return aztables.AddEntityResponse{}, f.add(entity)
}

func (f *fakeTable) UpdateEntity(ctx context.Context, entity []byte, options *aztables.UpdateEntityOptions) (aztables.UpdateEntityResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	props, pk, rk, err := decodeProps(entity)
	if err != nil {
		return aztables.UpdateEntityResponse{}, err
	}
	r, ok := f.rows[pk][rk]
	if !ok {
		return aztables.UpdateEntityResponse{}, respErr(404, "ResourceNotFound")
	}
	if options != nil && options.IfMatch != nil && *options.IfMatch != azcore.ETagAny && string(*options.IfMatch) != strconv.Itoa(r.etag) {
		return aztables.UpdateEntityResponse{}, respErr(412, "UpdateConditionNotSatisfied")
	}
	for k, v := range props {
		r.props[k] = v
	}
	r.etag++
	return aztables.UpdateEntityResponse{}, nil
}

func (f *fakeTable) UpsertEntity(ctx context.Context, entity []byte, options *aztables.UpsertEntityOptions) (aztables.UpsertEntityResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	props, pk, rk, err := decodeProps(entity)
	if err != nil {
		return aztables.UpsertEntityResponse{}, err
	}
	if f.rows[pk] == nil {
		f.rows[pk] = map[string]*fakeRow{}
	}
	f.rows[pk][rk] = &fakeRow{props: props, etag: 1}
	return aztables.UpsertEntityResponse{}, nil
}

func (f *fakeTable) DeleteEntity(ctx context.Context, pk, rk string, options *aztables.DeleteEntityOptions) (aztables.DeleteEntityResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rows[pk][rk]; !ok {
		return aztables.DeleteEntityResponse{}, respErr(404, "ResourceNotFound")
	}
	delete(f.rows[pk], rk)
	return aztables.DeleteEntityResponse{}, nil
}

func (f *fakeTable) SubmitTransaction(ctx context.Context, actions []aztables.TransactionAction, options *aztables.SubmitTransactionOptions) (aztables.TransactionResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.txCalls++
	if f.failTx > 0 && f.txCalls == f.failTx {
		return aztables.TransactionResponse{}, f.txErr
	}
	if len(actions) > maxBatch {
		return aztables.TransactionResponse{}, errors.New("batch too large")
	}
	// Validate first so that the transaction applies all or nothing.
	seen := map[string]bool{}
	for _, a := range actions {
		_, pk, rk, err := decodeProps(a.Entity)
		if err != nil {
			return aztables.TransactionResponse{}, err
		}
		_, exists := f.rows[pk][rk]
		switch a.ActionType {
		case aztables.TransactionTypeAdd:
			if exists || seen[pk+"/"+rk] {
				return aztables.TransactionResponse{}, respErr(409, "EntityAlreadyExists")
			}
		case aztables.TransactionTypeDelete:
			if !exists {
				return aztables.TransactionResponse{}, respErr(404, "ResourceNotFound")
			}
		}
		seen[pk+"/"+rk] = true
	}
	for _, a := range actions {
		_, pk, rk, _ := decodeProps(a.Entity)
		switch a.ActionType {
		case aztables.TransactionTypeAdd:
			_ = f.add(a.Entity)
		case aztables.TransactionTypeDelete:
			delete(f.rows[pk], rk)
		}
	}
	return aztables.TransactionResponse{}, nil
}
