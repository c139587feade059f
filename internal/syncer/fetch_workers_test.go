package syncer

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"testing"
)

func TestFetchAllByIDCollectsEveryResult(t *testing.T) {
	ids := []string{"a", "b", "c", "d", "e"}
	out, err := fetchAllByID(context.Background(), ids, 3, func(_ context.Context, id string) (string, error) {
		return "v:" + id, nil
	})
	if err != nil {
		t.Fatalf("fetchAllByID: %v", err)
	}
	if len(out) != len(ids) {
		t.Fatalf("got %d results, want %d", len(out), len(ids))
	}
	sort.Strings(out)
	want := []string{"v:a", "v:b", "v:c", "v:d", "v:e"}
	for i := range want {
		if out[i] != want[i] {
			t.Fatalf("out[%d] = %q, want %q", i, out[i], want[i])
		}
	}
}

func TestFetchAllByIDEmptyInput(t *testing.T) {
	out, err := fetchAllByID(context.Background(), nil, 4, func(context.Context, string) (int, error) {
		t.Fatal("fetch called for empty input")
		return 0, nil
	})
	if err != nil {
		t.Fatalf("fetchAllByID: %v", err)
	}
	if len(out) != 0 {
		t.Fatalf("got %d results, want 0", len(out))
	}
}

func TestFetchAllByIDPropagatesFirstError(t *testing.T) {
	boom := errors.New("boom")
	ids := make([]string, 50)
	for i := range ids {
		ids[i] = fmt.Sprintf("id-%d", i)
	}
	_, err := fetchAllByID(context.Background(), ids, 4, func(_ context.Context, id string) (string, error) {
		if id == "id-7" {
			return "", boom
		}
		return id, nil
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want %v", err, boom)
	}
}

func TestFetchAllByIDHonorsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := fetchAllByID(ctx, []string{"a", "b"}, 2, func(ctx context.Context, id string) (string, error) {
		return "", ctx.Err()
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v", err)
	}
}
