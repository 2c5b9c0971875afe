// Package jobtest provides an in-memory JobClient that records the commands
// a worker sends back to the broker.
package jobtest

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/camunda/zeebe/clients/go/v8/pkg/commands"
	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
)

// Client implements worker.JobClient on top of a recording gateway.
type Client struct {
	gateway *gateway
}

func NewClient() *Client {
	return &Client{gateway: &gateway{}}
}

// FailSends makes every command return err from Send.
func (c *Client) FailSends(err error) {
	c.gateway.mu.Lock()
	defer c.gateway.mu.Unlock()
	c.gateway.sendErr = err
}

func noRetry(context.Context, error) bool { return false }

func (c *Client) NewCompleteJobCommand() commands.CompleteJobCommandStep1 {
	return commands.NewCompleteJobCommand(c.gateway, noRetry)
}

func (c *Client) NewFailJobCommand() commands.FailJobCommandStep1 {
	return commands.NewFailJobCommand(c.gateway, noRetry)
}

func (c *Client) NewThrowErrorCommand() commands.ThrowErrorCommandStep1 {
	return commands.NewThrowErrorCommand(c.gateway, noRetry)
}

func (c *Client) Completed() []*pb.CompleteJobRequest {
	c.gateway.mu.Lock()
	defer c.gateway.mu.Unlock()
	return append([]*pb.CompleteJobRequest(nil), c.gateway.completed...)
}

func (c *Client) Failed() []*pb.FailJobRequest {
	c.gateway.mu.Lock()
	defer c.gateway.mu.Unlock()
	return append([]*pb.FailJobRequest(nil), c.gateway.failed...)
}

func (c *Client) Thrown() []*pb.ThrowErrorRequest {
	c.gateway.mu.Lock()
	defer c.gateway.mu.Unlock()
	return append([]*pb.ThrowErrorRequest(nil), c.gateway.thrown...)
}

// CompletedVariables decodes the variables of the single completed job into out.
func (c *Client) CompletedVariables(t *testing.T, out interface{}) {
	t.Helper()
	completed := c.Completed()
	require.Len(t, completed, 1, "expected exactly one completed job")
	require.NoError(t, json.Unmarshal([]byte(completed[0].Variables), out))
}

// ThrownCode returns the BPMN error code of the single thrown job.
func (c *Client) ThrownCode(t *testing.T) string {
	t.Helper()
	thrown := c.Thrown()
	require.Len(t, thrown, 1, "expected exactly one thrown error")
	return thrown[0].ErrorCode
}

// gateway records the job commands; any other RPC panics on the nil embed.
type gateway struct {
	pb.GatewayClient

	mu        sync.Mutex
	sendErr   error
	completed []*pb.CompleteJobRequest
	failed    []*pb.FailJobRequest
	thrown    []*pb.ThrowErrorRequest
}

func (g *gateway) CompleteJob(_ context.Context, req *pb.CompleteJobRequest, _ ...grpc.CallOption) (*pb.CompleteJobResponse, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.sendErr != nil {
		return nil, g.sendErr
	}
	g.completed = append(g.completed, req)
	return &pb.CompleteJobResponse{}, nil
}

func (g *gateway) FailJob(_ context.Context, req *pb.FailJobRequest, _ ...grpc.CallOption) (*pb.FailJobResponse, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.sendErr != nil {
		return nil, g.sendErr
	}
	g.failed = append(g.failed, req)
	return &pb.FailJobResponse{}, nil
}

func (g *gateway) ThrowError(_ context.Context, req *pb.ThrowErrorRequest, _ ...grpc.CallOption) (*pb.ThrowErrorResponse, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.sendErr != nil {
		return nil, g.sendErr
	}
	g.thrown = append(g.thrown, req)
	return &pb.ThrowErrorResponse{}, nil
}

// NewJob builds an activated job the way the broker hands it to a worker.
func NewJob(key int64, taskType string, variables interface{}) entities.Job {
	var vars string
	switch v := variables.(type) {
	case string:
		vars = v
	case nil:
		vars = "{}"
	default:
		raw, err := json.Marshal(v)
		if err != nil {
			panic(err)
		}
		vars = string(raw)
	}
	return entities.Job{
		ActivatedJob: &pb.ActivatedJob{
			Key:                key,
			Type:               taskType,
			ProcessInstanceKey: 67890,
			Retries:            3,
			Variables:          vars,
		},
	}
}
