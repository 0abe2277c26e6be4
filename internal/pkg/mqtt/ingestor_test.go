package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/cmlabs-hris/skud-attendance/internal/config"
	"github.com/cmlabs-hris/skud-attendance/internal/domain/attendance"
	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSubmitter struct {
	requests []attendance.ScanRequest
	result   attendance.ScanResult
	err      error
}

func (f *fakeSubmitter) Submit(ctx context.Context, req attendance.ScanRequest) (attendance.ScanResult, error) {
	f.requests = append(f.requests, req)
	return f.result, f.err
}

func newTestIngestor(s Submitter) *Ingestor {
	return NewIngestor(config.MQTTConfig{ScanTopic: "skud/scans", ResultTopic: "skud/results"}, s, nil)
}

func decode(t *testing.T, body []byte) attendance.ScanResult {
	t.Helper()
	var result attendance.ScanResult
	require.NoError(t, json.Unmarshal(body, &result))
	return result
}

func TestProcess_Success(t *testing.T) {
	submitter := &fakeSubmitter{result: attendance.ScanResult{
		Status:   attendance.ScanStatusSuccess,
		Message:  "Arrival recorded",
		Employee: "Smith",
		Event:    attendance.EventArrival,
		Time:     "08:00",
		Date:     "2025-06-25",
	}}

	topic, body := newTestIngestor(submitter).process(context.Background(), []byte(`{"serial":" abc ","time":"2025-06-25 08:00"}`))

	assert.Equal(t, "skud/results/ABC", topic)
	assert.Equal(t, submitter.result, decode(t, body))
	require.Len(t, submitter.requests, 1)
	assert.Equal(t, "2025-06-25 08:00", submitter.requests[0].Time)
}

func TestProcess_UnknownCard(t *testing.T) {
	submitter := &fakeSubmitter{err: attendance.ErrUnknownDevice}

	topic, body := newTestIngestor(submitter).process(context.Background(), []byte(`{"serial":"XYZ","time":"2025-06-25 08:00"}`))

	assert.Equal(t, "skud/results/XYZ", topic)
	result := decode(t, body)
	assert.Equal(t, attendance.ScanStatusUnknown, result.Status)
	assert.Equal(t, "Unknown key: XYZ", result.Message)
}

func TestProcess_InvalidJSON(t *testing.T) {
	submitter := &fakeSubmitter{}

	topic, body := newTestIngestor(submitter).process(context.Background(), []byte(`not json`))

	assert.Equal(t, "skud/results", topic)
	assert.Equal(t, attendance.ScanStatusError, decode(t, body).Status)
	assert.Empty(t, submitter.requests)
}

func TestProcess_StorageFailureHidesDetails(t *testing.T) {
	submitter := &fakeSubmitter{err: errors.New("connection reset by peer")}

	_, body := newTestIngestor(submitter).process(context.Background(), []byte(`{"serial":"ABC","time":"2025-06-25 08:00"}`))

	result := decode(t, body)
	assert.Equal(t, attendance.ScanStatusError, result.Status)
	assert.Equal(t, "Internal server error", result.Message)
}

func TestResultTopic_WildcardsNotEchoed(t *testing.T) {
	assert.Equal(t, "skud/results", newTestIngestor(&fakeSubmitter{}).resultTopic("A/#"))
}

// stalledToken never completes until released, like a publish to a broker that stopped acking.
type stalledToken struct {
	done chan struct{}
}

func (t *stalledToken) Wait() bool {
	<-t.done
	return true
}

func (t *stalledToken) WaitTimeout(d time.Duration) bool {
	select {
	case <-t.done:
		return true
	case <-time.After(d):
		return false
	}
}

func (t *stalledToken) Done() <-chan struct{} { return t.done }
func (t *stalledToken) Error() error          { return nil }

type publishingClient struct {
	paho.Client
	token     *stalledToken
	published chan string
}

func (c *publishingClient) Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token {
	c.published <- topic
	return c.token
}

type scanMessage struct {
	paho.Message
	payload []byte
}

func (m scanMessage) Payload() []byte { return m.payload }

func TestHandle_DoesNotWaitForPublishAck(t *testing.T) {
	ingestor := newTestIngestor(&fakeSubmitter{err: attendance.ErrUnknownDevice})
	client := &publishingClient{token: &stalledToken{done: make(chan struct{})}, published: make(chan string, 1)}
	defer close(client.token.done)

	returned := make(chan struct{})
	go func() {
		ingestor.handle(client, scanMessage{payload: []byte(`{"serial":"XYZ","time":"2025-06-25 08:00"}`)})
		close(returned)
	}()

	select {
	case <-returned:
	case <-time.After(time.Second):
		t.Fatal("handler blocked on an unacknowledged publish")
	}
	assert.Equal(t, "skud/results/XYZ", <-client.published)
}

func TestClientOptions_HandlersRunConcurrently(t *testing.T) {
	opts := newTestIngestor(&fakeSubmitter{}).clientOptions()
	reader := paho.NewOptionsReader(opts)

	assert.False(t, reader.Order())
	assert.True(t, reader.AutoReconnect())
}
