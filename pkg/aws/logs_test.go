package aws

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	"github.com/stretchr/testify/assert"
)

type fakeLogsAPI struct {
	putErr   error
	messages []string
}

func (f *fakeLogsAPI) CreateLogStream(_ context.Context, _ *cloudwatchlogs.CreateLogStreamInput, _ ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.CreateLogStreamOutput, error) {
	return &cloudwatchlogs.CreateLogStreamOutput{}, nil
}

func (f *fakeLogsAPI) PutLogEvents(_ context.Context, in *cloudwatchlogs.PutLogEventsInput, _ ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.PutLogEventsOutput, error) {
	if f.putErr != nil {
		return nil, f.putErr
	}
	for _, e := range in.LogEvents {
		f.messages = append(f.messages, *e.Message)
	}
	return &cloudwatchlogs.PutLogEventsOutput{}, nil
}

func TestLogsWriterForwardsTrimmedLine(t *testing.T) {
	api := &fakeLogsAPI{}
	w := &LogsWriter{client: api, group: "/checkout/app", stream: "checkout-1"}

	line := `{"level":"info","msg":"Order submitted"}` + "\n"
	n, err := w.Write([]byte(line))

	assert.NoError(t, err)
	assert.Equal(t, len(line), n)
	assert.Equal(t, []string{`{"level":"info","msg":"Order submitted"}`}, api.messages)
}

func TestLogsWriterSkipsEmptyLines(t *testing.T) {
	api := &fakeLogsAPI{}
	w := &LogsWriter{client: api, group: "/checkout/app", stream: "checkout-1"}

	n, err := w.Write([]byte("\n"))

	assert.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Empty(t, api.messages)
}

func TestLogsWriterSurfacesPutFailure(t *testing.T) {
	api := &fakeLogsAPI{putErr: errors.New("throttled")}
	w := &LogsWriter{client: api, group: "/checkout/app", stream: "checkout-1"}

	_, err := w.Write([]byte("line\n"))
	assert.Error(t, err)
}
