package handler

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mstgnz/carepay/infra/opensearch"
)

type fakeDeliveryLogs struct {
	logs map[string][]opensearch.WebhookLog
	err  error
}

func (f *fakeDeliveryLogs) GetDeliveryLogs(_ context.Context, id string) ([]opensearch.WebhookLog, error) {
	return f.logs[id], f.err
}

func TestLogsHandler_GetDeliveryLogs(t *testing.T) {
	reader := &fakeDeliveryLogs{logs: map[string][]opensearch.WebhookLog{
		"evt_1": {
			{DeliveryID: "evt_1", State: "acknowledged", StatusCode: 200},
			{DeliveryID: "evt_1", State: "failed", StatusCode: 400},
		},
	}}
	h := NewLogsHandler(reader)
	pattern := "/webhook/deliveries/{delivery_id}"

	rr := serve(http.MethodGet, pattern, "/webhook/deliveries/evt_1", "", h.GetDeliveryLogs)
	assert.Equal(t, http.StatusOK, rr.Code)
	data := decodeResponse(t, rr).Data.(map[string]any)
	assert.Equal(t, float64(2), data["attempts"])

	rr = serve(http.MethodGet, pattern, "/webhook/deliveries/evt_unknown", "", h.GetDeliveryLogs)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	reader.err = errors.New("opensearch unreachable")
	rr = serve(http.MethodGet, pattern, "/webhook/deliveries/evt_1", "", h.GetDeliveryLogs)
	assert.Equal(t, http.StatusInternalServerError, rr.Code)

	rr = serve(http.MethodGet, pattern, "/webhook/deliveries/evt_1", "", NewLogsHandler(nil).GetDeliveryLogs)
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}
