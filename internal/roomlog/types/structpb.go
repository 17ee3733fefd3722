package types

import "google.golang.org/protobuf/types/known/structpb"

// SignResponseStruct renders a sign response as a protobuf Struct with the
// same field names as the JSON body.
func SignResponseStruct(resp SignResponse) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{
		"ok":          resp.OK,
		"mode":        string(resp.Mode),
		"event":       eventMap(resp.Event),
		"server_time": resp.ServerTime,
	})
}

// RowsStruct renders day rows as {"rows": [...]}.
func RowsStruct(rows []RowView) (*structpb.Struct, error) {
	list := make([]any, 0, len(rows))
	for _, r := range rows {
		pairs := make([]any, 0, len(r.Pairs))
		for _, p := range r.Pairs {
			pairs = append(pairs, map[string]any{"in": p.In, "out": p.Out})
		}
		list = append(list, map[string]any{
			"name":         r.Name,
			"date":         r.Date,
			"display_date": r.DisplayDate,
			"pairs":        pairs,
		})
	}
	return structpb.NewStruct(map[string]any{"rows": list})
}

func eventMap(e EventView) map[string]any {
	return map[string]any{
		"id":        e.ID,
		"name":      e.Name,
		"action":    string(e.Action),
		"timestamp": e.Timestamp,
		"date":      e.Date,
		"time":      e.Time,
	}
}
