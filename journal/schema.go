package journal

import (
	"github.com/apache/arrow-go/v18/arrow"
)

// FrameSchema returns the Arrow schema of a journal batch.
func FrameSchema() *arrow.Schema {
	return arrow.NewSchema(
		[]arrow.Field{
			{Name: "topic", Type: arrow.BinaryTypes.String},
			{Name: "sequence", Type: arrow.PrimitiveTypes.Uint32},
			{Name: "timestamp_ms", Type: arrow.PrimitiveTypes.Int64},
			{Name: "parts", Type: arrow.ListOf(arrow.BinaryTypes.Binary)},
		},
		nil,
	)
}
