package export

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xtremeops/shipstation-export/internal/testutil"
	"github.com/xtremeops/shipstation-export/pkg/retry"
	"github.com/xtremeops/shipstation-export/pkg/shipstation"
)

type fakeSource struct {
	orders []shipstation.Order
	err    error
	calls  int
}

func (f *fakeSource) FetchOrders(ctx context.Context, status, tagID string) ([]shipstation.Order, error) {
	f.calls++
	return f.orders, f.err
}

type fakeDeliverer struct {
	err   error
	calls int
	local string
}

func (f *fakeDeliverer) Upload(ctx context.Context, localPath, remoteDir string) error {
	f.calls++
	f.local = localPath
	return f.err
}

func testRunner(t *testing.T, src OrderSource, d Deliverer) *Runner {
	t.Helper()
	return &Runner{
		Source:    src,
		Deliverer: d,
		Stores:    map[string]string{"12345": "Golf Outlet"},
		Services:  DefaultServiceLookup(),
		Schema:    AuditSchema,
		Status:    "awaiting_shipment",
		Prefix:    "XTREME",
		OutputDir: t.TempDir(),
		RemoteDir: "/exports",
		Now:       func() time.Time { return time.Date(2024, 3, 5, 13, 7, 0, 0, time.UTC) },
		Logger:    zerolog.Nop(),
	}
}

func TestRun_EndToEnd(t *testing.T) {
	// Category "A" with one 2-item order and one 0-item order on page 1.
	mock := testutil.NewMockShipStation()
	defer mock.Close()
	mock.ServeOrderPages([]map[string]any{
		{
			"orderId":     1,
			"orderNumber": "N1",
			"orderStatus": "awaiting_shipment",
			"tagIds":      []int64{56240},
			"items": []map[string]any{
				{"orderItemId": 11, "sku": "A1", "quantity": 1},
				{"orderItemId": 12, "sku": "A2", "quantity": "2"},
			},
		},
		{
			"orderId":     2,
			"orderNumber": "N2",
			"orderStatus": "awaiting_shipment",
			"tagIds":      []int64{56240},
			"items":       []map[string]any{},
		},
	})

	cfg := shipstation.DefaultConfig("key", "secret")
	cfg.BaseURL = mock.URL()
	cfg.Retry = retry.Policy{MaxAttempts: 2, InitialBackoff: time.Millisecond, Multiplier: 1}
	client, err := shipstation.New(cfg)
	require.NoError(t, err)

	deliverer := &fakeDeliverer{}
	r := testRunner(t, client, deliverer)

	outcome, err := r.Run(context.Background(), Job{TagID: "56240", Label: "A"})
	require.NoError(t, err)

	assert.Equal(t, "XTREME_A_20240305_1307", outcome.JobID)
	assert.Equal(t, 2, outcome.Rows)
	assert.True(t, outcome.Delivered)
	assert.NoError(t, outcome.Err)
	assert.Equal(t, 1, deliverer.calls)
	assert.FileExists(t, outcome.Artifact)
}

func TestRun_ZeroRowsShortCircuits(t *testing.T) {
	src := &fakeSource{orders: []shipstation.Order{
		{OrderID: 1, OrderNumber: "N1"}, // zero items
	}}
	deliverer := &fakeDeliverer{}
	r := testRunner(t, src, deliverer)

	outcome, err := r.Run(context.Background(), Job{TagID: "56240"})
	require.NoError(t, err)

	assert.Equal(t, 0, outcome.Rows)
	assert.False(t, outcome.Delivered)
	assert.Empty(t, outcome.Artifact)
	assert.NoError(t, outcome.Err)
	assert.Equal(t, 0, deliverer.calls, "delivery channel must not be invoked for zero rows")

	entries, err := os.ReadDir(r.OutputDir)
	require.NoError(t, err)
	assert.Empty(t, entries, "no artifact may be produced for zero rows")
}

func TestRun_FetchErrorIsFatal(t *testing.T) {
	src := &fakeSource{err: &shipstation.UpstreamError{Endpoint: "/orders", Err: errors.New("boom")}}
	r := testRunner(t, src, &fakeDeliverer{})

	_, err := r.Run(context.Background(), Job{TagID: "56240"})
	require.Error(t, err)

	var upstreamErr *shipstation.UpstreamError
	assert.ErrorAs(t, err, &upstreamErr)
}

func TestRun_DeliveryFailureCapturedInOutcome(t *testing.T) {
	item := testItem("A", "1")
	src := &fakeSource{orders: []shipstation.Order{testOrder(item)}}
	deliverer := &fakeDeliverer{err: errors.New("connection reset")}
	r := testRunner(t, src, deliverer)

	outcome, err := r.Run(context.Background(), Job{TagID: "56240"})
	require.NoError(t, err, "delivery failure must not propagate")

	assert.False(t, outcome.Delivered)
	assert.ErrorContains(t, outcome.Err, "delivery failed")
	assert.Equal(t, 1, outcome.Rows)
	assert.FileExists(t, outcome.Artifact, "artifact is retained for manual retry")
}

func TestRun_JobIDFormat(t *testing.T) {
	r := testRunner(t, &fakeSource{}, &fakeDeliverer{})

	assert.Equal(t, "XTREME_golf_20240305_1307", r.jobID("golf"))
}

func TestRun_LabelDefaultsToTag(t *testing.T) {
	src := &fakeSource{orders: nil}
	r := testRunner(t, src, &fakeDeliverer{})

	outcome, err := r.Run(context.Background(), Job{TagID: "56239"})
	require.NoError(t, err)
	assert.Equal(t, "XTREME_56239_20240305_1307", outcome.JobID)
}
