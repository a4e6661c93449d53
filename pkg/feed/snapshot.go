package feed

import (
	"fmt"
	"math"

	"github.com/golang/protobuf/proto"
	structpb "github.com/golang/protobuf/ptypes/struct"

	"github.com/robotalks/meter.go/pkg/display"
)

// Snapshot field names.
const (
	FieldRecords   = "records"
	FieldAway      = "away"
	FieldAwayRatio = "away_ratio"
	FieldHome      = "home"
	FieldHomeRatio = "home_ratio"
)

// EncodeRecords encodes a snapshot of records as a protobuf Struct:
//
//   { "records": [ { "away": ..., "away_ratio": ..., "home": ..., "home_ratio": ... } ] }
func EncodeRecords(records []display.Record) ([]byte, error) {
	values := make([]*structpb.Value, len(records))
	for n, rec := range records {
		values[n] = &structpb.Value{Kind: &structpb.Value_StructValue{StructValue: &structpb.Struct{
			Fields: map[string]*structpb.Value{
				FieldAway:      stringValue(rec.Away),
				FieldAwayRatio: numberValue(rec.AwayRatio),
				FieldHome:      stringValue(rec.Home),
				FieldHomeRatio: numberValue(rec.HomeRatio),
			},
		}}}
	}
	snapshot := &structpb.Struct{Fields: map[string]*structpb.Value{
		FieldRecords: {Kind: &structpb.Value_ListValue{ListValue: &structpb.ListValue{Values: values}}},
	}}
	return proto.Marshal(snapshot)
}

// DecodeRecords decodes a snapshot. Ratios are clamped to [0, 1].
func DecodeRecords(data []byte) ([]display.Record, error) {
	var snapshot structpb.Struct
	if err := proto.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadSnapshot, err)
	}
	list := snapshot.Fields[FieldRecords].GetListValue()
	if list == nil {
		return nil, fmt.Errorf("%w: missing %q", ErrBadSnapshot, FieldRecords)
	}
	records := make([]display.Record, 0, len(list.Values))
	for n, val := range list.Values {
		fields := val.GetStructValue().GetFields()
		if fields == nil {
			return nil, fmt.Errorf("%w: record %d is not a struct", ErrBadSnapshot, n)
		}
		records = append(records, display.Record{
			Away:      fields[FieldAway].GetStringValue(),
			AwayRatio: ratio(fields[FieldAwayRatio].GetNumberValue()),
			Home:      fields[FieldHome].GetStringValue(),
			HomeRatio: ratio(fields[FieldHomeRatio].GetNumberValue()),
		})
	}
	return records, nil
}

func stringValue(s string) *structpb.Value {
	return &structpb.Value{Kind: &structpb.Value_StringValue{StringValue: s}}
}

func numberValue(v float64) *structpb.Value {
	return &structpb.Value{Kind: &structpb.Value_NumberValue{NumberValue: v}}
}

func ratio(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
