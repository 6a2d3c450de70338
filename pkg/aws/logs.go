package aws

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	cwltypes "github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs/types"
)

// logsAPI is the slice of the CloudWatch Logs client the writer uses.
type logsAPI interface {
	CreateLogStream(ctx context.Context, in *cloudwatchlogs.CreateLogStreamInput, opts ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.CreateLogStreamOutput, error)
	PutLogEvents(ctx context.Context, in *cloudwatchlogs.PutLogEventsInput, opts ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.PutLogEventsOutput, error)
}

const putLogTimeout = 5 * time.Second

// LogsWriter is an io.Writer that forwards JSON log lines to a CloudWatch
// Logs stream. zap tees it with the console core, so a delivery failure
// never loses the console line.
type LogsWriter struct {
	client logsAPI
	group  string
	stream string
	mu     sync.Mutex
}

// NewLogsWriter binds a writer to group/stream, creating the stream if it
// does not exist yet.
func NewLogsWriter(ctx context.Context, cfg sdkaws.Config, group, stream string) (*LogsWriter, error) {
	client := cloudwatchlogs.NewFromConfig(cfg)
	w := &LogsWriter{client: client, group: group, stream: stream}

	_, err := client.CreateLogStream(ctx, &cloudwatchlogs.CreateLogStreamInput{
		LogGroupName:  sdkaws.String(group),
		LogStreamName: sdkaws.String(stream),
	})
	if err != nil {
		var exists *cwltypes.ResourceAlreadyExistsException
		if !errors.As(err, &exists) {
			return nil, fmt.Errorf("failed to create log stream %s/%s: %w", group, stream, err)
		}
	}
	return w, nil
}

func (w *LogsWriter) Write(p []byte) (int, error) {
	message := strings.TrimRight(string(p), "\n")
	if message == "" {
		return len(p), nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), putLogTimeout)
	defer cancel()

	// Serialized: events within a stream must be in timestamp order.
	w.mu.Lock()
	defer w.mu.Unlock()

	_, err := w.client.PutLogEvents(ctx, &cloudwatchlogs.PutLogEventsInput{
		LogGroupName:  sdkaws.String(w.group),
		LogStreamName: sdkaws.String(w.stream),
		LogEvents: []cwltypes.InputLogEvent{{
			Message:   sdkaws.String(message),
			Timestamp: sdkaws.Int64(time.Now().UnixMilli()),
		}},
	})
	if err != nil {
		return 0, err
	}
	return len(p), nil
}
