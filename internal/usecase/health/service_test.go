package health

import (
	"context"
	"errors"
	"testing"
)

// --- Mocks ---

type mockPinger struct {
	err error
}

func (m *mockPinger) Ping(_ context.Context) error { return m.err }

type mockEmbeddingChecker struct {
	err error
}

func (m *mockEmbeddingChecker) HealthCheck(_ context.Context) error { return m.err }

// --- Tests ---

func TestCheck_AllHealthy(t *testing.T) {
	svc := New(&mockPinger{}, &mockPinger{}, &mockEmbeddingChecker{})
	r := svc.Check(context.Background())

	if r.Status != Healthy {
		t.Errorf("status = %q, want %q", r.Status, Healthy)
	}
	for _, name := range []string{"vector_store", "relational_store", "embedding"} {
		if r.Checks[name] != CheckOK {
			t.Errorf("%s = %q, want %q", name, r.Checks[name], CheckOK)
		}
	}
}

func TestCheck_VectorStoreDown(t *testing.T) {
	svc := New(&mockPinger{err: errors.New("connection refused")}, &mockPinger{}, nil)
	r := svc.Check(context.Background())

	if r.Status != Degraded {
		t.Errorf("status = %q, want %q", r.Status, Degraded)
	}
	if r.Checks["vector_store"] != CheckError {
		t.Errorf("vector_store = %q, want %q", r.Checks["vector_store"], CheckError)
	}
	if r.Checks["relational_store"] != CheckOK {
		t.Errorf("relational_store = %q, want %q", r.Checks["relational_store"], CheckOK)
	}
}

func TestCheck_EmbeddingDown(t *testing.T) {
	svc := New(&mockPinger{}, &mockPinger{}, &mockEmbeddingChecker{err: errors.New("401")})
	r := svc.Check(context.Background())

	if r.Status != Degraded {
		t.Errorf("status = %q, want %q", r.Status, Degraded)
	}
	if r.Checks["embedding"] != CheckError {
		t.Errorf("embedding = %q, want %q", r.Checks["embedding"], CheckError)
	}
}

func TestCheck_NilEmbeddingSkipped(t *testing.T) {
	svc := New(&mockPinger{}, &mockPinger{}, nil)
	r := svc.Check(context.Background())

	if _, ok := r.Checks["embedding"]; ok {
		t.Error("embedding check present without a checker")
	}
}
