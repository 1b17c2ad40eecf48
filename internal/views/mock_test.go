package views

import (
	"bytes"
	"context"
	"encoding/json"
	"sync"
)

// MockAPI is a mock backend for the view controllers.
type MockAPI struct {
	MonthlyStatsFunc       func(ctx context.Context) (any, error)
	CategoryStatsFunc      func(ctx context.Context) (any, error)
	MeFunc                 func(ctx context.Context) (any, error)
	RecentReceiptsFunc     func(ctx context.Context, limit int) (any, error)
	ListReceiptsFunc       func(ctx context.Context) (any, error)
	BulkDeleteReceiptsFunc func(ctx context.Context, ids []int64) error
	GetReceiptFunc         func(ctx context.Context, id string) (any, error)
	UpdateReceiptFunc      func(ctx context.Context, id string, body any) (any, error)
	DeleteReceiptFunc      func(ctx context.Context, id string) error
	ImageURLFunc           func(ctx context.Context, imageID string) (string, error)

	mu    sync.Mutex
	calls []string
}

func (m *MockAPI) record(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, name)
}

func (m *MockAPI) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

func (m *MockAPI) MonthlyStats(ctx context.Context) (any, error) {
	m.record("MonthlyStats")
	if m.MonthlyStatsFunc != nil {
		return m.MonthlyStatsFunc(ctx)
	}
	return nil, nil
}

func (m *MockAPI) CategoryStats(ctx context.Context) (any, error) {
	m.record("CategoryStats")
	if m.CategoryStatsFunc != nil {
		return m.CategoryStatsFunc(ctx)
	}
	return nil, nil
}

func (m *MockAPI) Me(ctx context.Context) (any, error) {
	m.record("Me")
	if m.MeFunc != nil {
		return m.MeFunc(ctx)
	}
	return nil, nil
}

func (m *MockAPI) RecentReceipts(ctx context.Context, limit int) (any, error) {
	m.record("RecentReceipts")
	if m.RecentReceiptsFunc != nil {
		return m.RecentReceiptsFunc(ctx, limit)
	}
	return []any{}, nil
}

func (m *MockAPI) ListReceipts(ctx context.Context) (any, error) {
	m.record("ListReceipts")
	if m.ListReceiptsFunc != nil {
		return m.ListReceiptsFunc(ctx)
	}
	return []any{}, nil
}

func (m *MockAPI) BulkDeleteReceipts(ctx context.Context, ids []int64) error {
	m.record("BulkDeleteReceipts")
	if m.BulkDeleteReceiptsFunc != nil {
		return m.BulkDeleteReceiptsFunc(ctx, ids)
	}
	return nil
}

func (m *MockAPI) GetReceipt(ctx context.Context, id string) (any, error) {
	m.record("GetReceipt")
	if m.GetReceiptFunc != nil {
		return m.GetReceiptFunc(ctx, id)
	}
	return nil, nil
}

func (m *MockAPI) UpdateReceipt(ctx context.Context, id string, body any) (any, error) {
	m.record("UpdateReceipt")
	if m.UpdateReceiptFunc != nil {
		return m.UpdateReceiptFunc(ctx, id, body)
	}
	return nil, nil
}

func (m *MockAPI) DeleteReceipt(ctx context.Context, id string) error {
	m.record("DeleteReceipt")
	if m.DeleteReceiptFunc != nil {
		return m.DeleteReceiptFunc(ctx, id)
	}
	return nil
}

func (m *MockAPI) ImageURL(ctx context.Context, imageID string) (string, error) {
	m.record("ImageURL")
	if m.ImageURLFunc != nil {
		return m.ImageURLFunc(ctx, imageID)
	}
	return "", nil
}

// decode parses JSON the way the backend client does.
func decode(s string) any {
	dec := json.NewDecoder(bytes.NewReader([]byte(s)))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		panic(err)
	}
	return v
}
