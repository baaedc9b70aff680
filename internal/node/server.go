package node

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"consistenthasher/internal/ring"
)

// Server implements RingServer on top of a string-keyed ring.
type Server struct {
	ring          *ring.Ring[string, string]
	removeTimeout time.Duration
	logger        *zap.Logger
}

// NewServer creates a new ring service. removeTimeout bounds how long
// RemoveBucket waits for in-flight listings of the bucket.
func NewServer(r *ring.Ring[string, string], removeTimeout time.Duration, logger *zap.Logger) *Server {
	return &Server{
		ring:          r,
		removeTimeout: removeTimeout,
		logger:        logger,
	}
}

// AddBucket handles AddBucket requests.
func (s *Server) AddBucket(_ context.Context, req *wrapperspb.StringValue) (*emptypb.Empty, error) {
	name, err := requireName(req, "bucket")
	if err != nil {
		return nil, err
	}
	if err := s.ring.AddBucket(name); err != nil {
		return nil, toStatus(err)
	}
	s.logger.Info("bucket added", zap.String("bucket", name))
	return &emptypb.Empty{}, nil
}

// RemoveBucket handles RemoveBucket requests. The wait for in-flight
// listings is bounded by removeTimeout and by the request context.
func (s *Server) RemoveBucket(ctx context.Context, req *wrapperspb.StringValue) (*wrapperspb.BoolValue, error) {
	name, err := requireName(req, "bucket")
	if err != nil {
		return nil, err
	}

	removeCtx, cancel := context.WithTimeout(ctx, s.removeTimeout)
	defer cancel()

	err = s.ring.RemoveBucket(removeCtx, name)
	switch {
	case err == nil:
		s.logger.Info("bucket removed", zap.String("bucket", name))
		return wrapperspb.Bool(true), nil
	case ctx.Err() == nil && errors.Is(err, context.DeadlineExceeded):
		s.logger.Warn("bucket removal timed out", zap.String("bucket", name), zap.Duration("timeout", s.removeTimeout))
		return wrapperspb.Bool(false), nil
	default:
		return nil, toStatus(err)
	}
}

// AddMember handles AddMember requests.
func (s *Server) AddMember(_ context.Context, req *wrapperspb.StringValue) (*emptypb.Empty, error) {
	name, err := requireName(req, "member")
	if err != nil {
		return nil, err
	}
	if err := s.ring.AddMember(name); err != nil {
		return nil, toStatus(err)
	}
	return &emptypb.Empty{}, nil
}

// RemoveMember handles RemoveMember requests.
func (s *Server) RemoveMember(_ context.Context, req *wrapperspb.StringValue) (*emptypb.Empty, error) {
	name, err := requireName(req, "member")
	if err != nil {
		return nil, err
	}
	if err := s.ring.RemoveMember(name); err != nil {
		return nil, toStatus(err)
	}
	return &emptypb.Empty{}, nil
}

// MembersOf handles MembersOf requests. An unknown bucket has no members.
func (s *Server) MembersOf(_ context.Context, req *wrapperspb.StringValue) (*structpb.ListValue, error) {
	name, err := requireName(req, "bucket")
	if err != nil {
		return nil, err
	}
	members, err := s.ring.MembersOf(name)
	if err != nil {
		return nil, toStatus(err)
	}
	return membersToProto(members), nil
}

// Assignments handles Assignments requests.
func (s *Server) Assignments(context.Context, *emptypb.Empty) (*structpb.Struct, error) {
	return assignmentsToProto(s.ring.AllBucketsToMembers()), nil
}

// Owner handles Owner requests.
func (s *Server) Owner(_ context.Context, req *wrapperspb.StringValue) (*wrapperspb.StringValue, error) {
	name, err := requireName(req, "member")
	if err != nil {
		return nil, err
	}
	bucket, found, err := s.ring.Owner(name)
	if err != nil {
		return nil, toStatus(err)
	}
	if !found {
		return nil, status.Error(codes.NotFound, "ring has no buckets")
	}
	return wrapperspb.String(bucket), nil
}

func requireName(req *wrapperspb.StringValue, what string) (string, error) {
	if req.GetValue() == "" {
		return "", status.Errorf(codes.InvalidArgument, "%s name cannot be empty", what)
	}
	return req.GetValue(), nil
}

func toStatus(err error) error {
	switch {
	case errors.Is(err, ring.ErrInvalidArgument):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}
