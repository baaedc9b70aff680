package node

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// Client is a client of the ring service.
type Client struct {
	conn *grpc.ClientConn
}

// NewClient creates a client for target. Connections are insecure unless
// opts provide transport credentials.
func NewClient(target string, opts ...grpc.DialOption) (*Client, error) {
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.NewClient(target, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", target, err)
	}
	return &Client{conn: conn}, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// AddBucket adds bucket to the ring.
func (c *Client) AddBucket(ctx context.Context, bucket string) error {
	return c.conn.Invoke(ctx, fullMethod("AddBucket"), wrapperspb.String(bucket), &emptypb.Empty{})
}

// RemoveBucket removes bucket from the ring. It returns false when the
// server timed out waiting for in-flight listings of the bucket.
func (c *Client) RemoveBucket(ctx context.Context, bucket string) (bool, error) {
	out := &wrapperspb.BoolValue{}
	if err := c.conn.Invoke(ctx, fullMethod("RemoveBucket"), wrapperspb.String(bucket), out); err != nil {
		return false, err
	}
	return out.GetValue(), nil
}

// AddMember places member on the ring.
func (c *Client) AddMember(ctx context.Context, member string) error {
	return c.conn.Invoke(ctx, fullMethod("AddMember"), wrapperspb.String(member), &emptypb.Empty{})
}

// RemoveMember removes member from the ring.
func (c *Client) RemoveMember(ctx context.Context, member string) error {
	return c.conn.Invoke(ctx, fullMethod("RemoveMember"), wrapperspb.String(member), &emptypb.Empty{})
}

// MembersOf lists the members owned by bucket.
func (c *Client) MembersOf(ctx context.Context, bucket string) ([]string, error) {
	out := &structpb.ListValue{}
	if err := c.conn.Invoke(ctx, fullMethod("MembersOf"), wrapperspb.String(bucket), out); err != nil {
		return nil, err
	}
	return protoToMembers(out), nil
}

// Assignments lists the members of every bucket.
func (c *Client) Assignments(ctx context.Context) (map[string][]string, error) {
	out := &structpb.Struct{}
	if err := c.conn.Invoke(ctx, fullMethod("Assignments"), &emptypb.Empty{}, out); err != nil {
		return nil, err
	}
	return protoToAssignments(out), nil
}

// Owner returns the bucket owning member.
func (c *Client) Owner(ctx context.Context, member string) (string, error) {
	out := &wrapperspb.StringValue{}
	if err := c.conn.Invoke(ctx, fullMethod("Owner"), wrapperspb.String(member), out); err != nil {
		return "", err
	}
	return out.GetValue(), nil
}
