package node

import "google.golang.org/protobuf/types/known/structpb"

// membersToProto converts a member listing to a protobuf ListValue.
func membersToProto(members []string) *structpb.ListValue {
	values := make([]*structpb.Value, 0, len(members))
	for _, m := range members {
		values = append(values, structpb.NewStringValue(m))
	}
	return &structpb.ListValue{Values: values}
}

// protoToMembers converts a protobuf ListValue back to member names.
// Non-string values are skipped.
func protoToMembers(pb *structpb.ListValue) []string {
	if pb == nil {
		return []string{}
	}
	members := make([]string, 0, len(pb.GetValues()))
	for _, v := range pb.GetValues() {
		if s, ok := v.GetKind().(*structpb.Value_StringValue); ok {
			members = append(members, s.StringValue)
		}
	}
	return members
}

// assignmentsToProto converts a bucket -> members mapping to a protobuf Struct.
func assignmentsToProto(assignments map[string][]string) *structpb.Struct {
	fields := make(map[string]*structpb.Value, len(assignments))
	for bucket, members := range assignments {
		fields[bucket] = structpb.NewListValue(membersToProto(members))
	}
	return &structpb.Struct{Fields: fields}
}

// protoToAssignments converts a protobuf Struct back to a bucket -> members mapping.
func protoToAssignments(pb *structpb.Struct) map[string][]string {
	out := make(map[string][]string, len(pb.GetFields()))
	for bucket, v := range pb.GetFields() {
		out[bucket] = protoToMembers(v.GetListValue())
	}
	return out
}
