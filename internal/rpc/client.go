package rpc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// #region client-struct
// Client calls a vitte.v1.Sampler server.
type Client struct {
	conn *grpc.ClientConn
	cc   grpc.ClientConnInterface
}

// #endregion client-struct

// #region constructor
// NewClient connects to the sampler server at addr.
func NewClient(addr string) (*Client, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("grpc dial %s: %w", addr, err)
	}
	return &Client{conn: conn, cc: conn}, nil
}

// NewClientWithConn creates a Client over an existing connection, which the
// caller keeps ownership of.
func NewClientWithConn(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// Close shuts down the gRPC connection if the client opened it.
func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

// #endregion constructor

// #region sample
// Sample requests a whole sample in one response.
func (c *Client) Sample(ctx context.Context, req Request) (Response, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, SampleMethod, encodeRequest(req), out); err != nil {
		return Response{}, fmt.Errorf("sample rpc: %w", err)
	}
	resp, err := decodeResponse(out)
	if err != nil {
		return Response{}, fmt.Errorf("decode sample response: %w", err)
	}
	return resp, nil
}

// #endregion sample

// #region stream
// Stream requests a sample and calls fn with each position as it arrives.
// It returns the seed the server used. An error from fn cancels the call.
func (c *Client) Stream(ctx context.Context, req Request, fn func(position int64) error) (uint64, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	stream, err := c.cc.NewStream(ctx, &ServiceDesc.Streams[0], StreamMethod)
	if err != nil {
		return 0, fmt.Errorf("stream rpc: %w", err)
	}
	if err := stream.SendMsg(encodeRequest(req)); err != nil {
		return 0, fmt.Errorf("send request: %w", err)
	}
	if err := stream.CloseSend(); err != nil {
		return 0, fmt.Errorf("close send: %w", err)
	}

	// A rejected call has no header; RecvMsg reports its status below.
	var seed uint64
	if header, err := stream.Header(); err == nil {
		if v := header.Get(SeedHeader); len(v) > 0 {
			seed, _ = strconv.ParseUint(v[0], 10, 64)
		}
	}

	for {
		pos := new(wrapperspb.Int64Value)
		err := stream.RecvMsg(pos)
		if errors.Is(err, io.EOF) {
			return seed, nil
		}
		if err != nil {
			return seed, fmt.Errorf("stream rpc: %w", err)
		}
		if err := fn(pos.GetValue()); err != nil {
			return seed, err
		}
	}
}

// #endregion stream
