package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protowire"
)

func sampleSnapshot() *Snapshot {
	return &Snapshot{
		Frame: 1200,
		Seed:  -42,
		Tiles: []TileState{
			{X: -5, Y: 3, Open: false},
			{X: 0, Y: 0, Open: true},
			{X: 2, Y: -1, Open: true},
		},
		Entities: []EntityState{
			{ID: 1, Type: "player", X: 10.5, Y: -3, VX: 500, Health: 7, MaxHealth: 10},
			{ID: 9, Type: "mob", X: -100, Y: 360, VY: -200, Health: 10, MaxHealth: 10},
		},
		PlayerID:       1,
		HealthFraction: 0.7,
		SelectedSlot:   1,
		CameraX:        12.25,
		CameraY:        -8,
	}
}

func TestSnapshotCodec(t *testing.T) {
	in := sampleSnapshot()
	out, err := Unmarshal(Marshal(in))
	require.NoError(t, err)
	assert.Equal(t, in, out)
	assert.Equal(t, 2, out.OpenTiles())
}

func TestUnmarshalSkipsUnknownFields(t *testing.T) {
	b := Marshal(&Snapshot{Frame: 3})
	b = protowire.AppendTag(b, 99, protowire.BytesType)
	b = protowire.AppendString(b, "future")

	out, err := Unmarshal(b)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), out.Frame)
}

func TestUnmarshalTruncated(t *testing.T) {
	b := Marshal(sampleSnapshot())
	_, err := Unmarshal(b[:len(b)-3])
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestUnmarshalRejectsWrongWireType(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"tiles как varint", protowire.AppendVarint(protowire.AppendTag(nil, snapTiles, protowire.VarintType), 7)},
		{"frame как fixed64", protowire.AppendFixed64(protowire.AppendTag(nil, snapFrame, protowire.Fixed64Type), 7)},
		{"x тайла как bytes", func() []byte {
			tile := protowire.AppendString(protowire.AppendTag(nil, tileX, protowire.BytesType), "1")
			b := protowire.AppendTag(nil, snapTiles, protowire.BytesType)
			return protowire.AppendBytes(b, tile)
		}()},
		{"тип сущности как varint", func() []byte {
			ent := protowire.AppendVarint(protowire.AppendTag(nil, entType, protowire.VarintType), 3)
			b := protowire.AppendTag(nil, snapEntities, protowire.BytesType)
			return protowire.AppendBytes(b, ent)
		}()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := Unmarshal(tt.data)
			assert.ErrorIs(t, err, ErrMalformed)
			assert.Nil(t, out)
		})
	}
}
