package protocol

import (
	"errors"
	"fmt"
	"math"

	"google.golang.org/protobuf/encoding/protowire"
)

var ErrMalformed = errors.New("malformed snapshot")

// Номера полей. Формат совместим с protobuf-сообщениями:
//
//	message Tile     { sint32 x = 1; sint32 y = 2; bool open = 3; }
//	message Entity   { uint64 id = 1; string type = 2; double x = 3; double y = 4;
//	                   double vx = 5; double vy = 6; double health = 7; double max_health = 8; }
//	message Snapshot { uint64 frame = 1; sint64 seed = 2; repeated Tile tiles = 3;
//	                   repeated Entity entities = 4; uint64 player_id = 5;
//	                   double health_fraction = 6; int32 selected_slot = 7;
//	                   double camera_x = 8; double camera_y = 9; }
const (
	snapFrame          protowire.Number = 1
	snapSeed           protowire.Number = 2
	snapTiles          protowire.Number = 3
	snapEntities       protowire.Number = 4
	snapPlayerID       protowire.Number = 5
	snapHealthFraction protowire.Number = 6
	snapSelectedSlot   protowire.Number = 7
	snapCameraX        protowire.Number = 8
	snapCameraY        protowire.Number = 9

	tileX    protowire.Number = 1
	tileY    protowire.Number = 2
	tileOpen protowire.Number = 3

	entID        protowire.Number = 1
	entType      protowire.Number = 2
	entX         protowire.Number = 3
	entY         protowire.Number = 4
	entVX        protowire.Number = 5
	entVY        protowire.Number = 6
	entHealth    protowire.Number = 7
	entMaxHealth protowire.Number = 8
)

// schema ожидаемые wire-типы известных полей
type schema map[protowire.Number]protowire.Type

var (
	snapshotSchema = schema{
		snapFrame:          protowire.VarintType,
		snapSeed:           protowire.VarintType,
		snapTiles:          protowire.BytesType,
		snapEntities:       protowire.BytesType,
		snapPlayerID:       protowire.VarintType,
		snapHealthFraction: protowire.Fixed64Type,
		snapSelectedSlot:   protowire.VarintType,
		snapCameraX:        protowire.Fixed64Type,
		snapCameraY:        protowire.Fixed64Type,
	}
	tileSchema = schema{
		tileX:    protowire.VarintType,
		tileY:    protowire.VarintType,
		tileOpen: protowire.VarintType,
	}
	entitySchema = schema{
		entID:        protowire.VarintType,
		entType:      protowire.BytesType,
		entX:         protowire.Fixed64Type,
		entY:         protowire.Fixed64Type,
		entVX:        protowire.Fixed64Type,
		entVY:        protowire.Fixed64Type,
		entHealth:    protowire.Fixed64Type,
		entMaxHealth: protowire.Fixed64Type,
	}
)

// Marshal кодирует снимок в бинарный protobuf-формат
func Marshal(s *Snapshot) []byte {
	var b []byte
	b = appendVarint(b, snapFrame, s.Frame)
	b = appendVarint(b, snapSeed, protowire.EncodeZigZag(s.Seed))
	for _, t := range s.Tiles {
		b = protowire.AppendTag(b, snapTiles, protowire.BytesType)
		b = protowire.AppendBytes(b, marshalTile(t))
	}
	for _, e := range s.Entities {
		b = protowire.AppendTag(b, snapEntities, protowire.BytesType)
		b = protowire.AppendBytes(b, marshalEntity(e))
	}
	b = appendVarint(b, snapPlayerID, s.PlayerID)
	b = appendDouble(b, snapHealthFraction, s.HealthFraction)
	b = appendVarint(b, snapSelectedSlot, uint64(s.SelectedSlot))
	b = appendDouble(b, snapCameraX, s.CameraX)
	b = appendDouble(b, snapCameraY, s.CameraY)
	return b
}

// Unmarshal разбирает снимок. Неизвестные поля пропускаются.
func Unmarshal(b []byte) (*Snapshot, error) {
	s := &Snapshot{}
	err := walk(b, snapshotSchema, func(num protowire.Number, v fieldValue) error {
		switch num {
		case snapFrame:
			s.Frame = v.varint
		case snapSeed:
			s.Seed = protowire.DecodeZigZag(v.varint)
		case snapTiles:
			t, err := unmarshalTile(v.bytes)
			if err != nil {
				return err
			}
			s.Tiles = append(s.Tiles, t)
		case snapEntities:
			e, err := unmarshalEntity(v.bytes)
			if err != nil {
				return err
			}
			s.Entities = append(s.Entities, e)
		case snapPlayerID:
			s.PlayerID = v.varint
		case snapHealthFraction:
			s.HealthFraction = v.double()
		case snapSelectedSlot:
			s.SelectedSlot = int32(v.varint)
		case snapCameraX:
			s.CameraX = v.double()
		case snapCameraY:
			s.CameraY = v.double()
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}

func marshalTile(t TileState) []byte {
	var b []byte
	b = appendVarint(b, tileX, protowire.EncodeZigZag(int64(t.X)))
	b = appendVarint(b, tileY, protowire.EncodeZigZag(int64(t.Y)))
	if t.Open {
		b = appendVarint(b, tileOpen, 1)
	}
	return b
}

func unmarshalTile(b []byte) (TileState, error) {
	var t TileState
	err := walk(b, tileSchema, func(num protowire.Number, v fieldValue) error {
		switch num {
		case tileX:
			t.X = int32(protowire.DecodeZigZag(v.varint))
		case tileY:
			t.Y = int32(protowire.DecodeZigZag(v.varint))
		case tileOpen:
			t.Open = v.varint != 0
		}
		return nil
	})
	return t, err
}

func marshalEntity(e EntityState) []byte {
	var b []byte
	b = appendVarint(b, entID, e.ID)
	b = protowire.AppendTag(b, entType, protowire.BytesType)
	b = protowire.AppendString(b, e.Type)
	b = appendDouble(b, entX, e.X)
	b = appendDouble(b, entY, e.Y)
	b = appendDouble(b, entVX, e.VX)
	b = appendDouble(b, entVY, e.VY)
	b = appendDouble(b, entHealth, e.Health)
	b = appendDouble(b, entMaxHealth, e.MaxHealth)
	return b
}

func unmarshalEntity(b []byte) (EntityState, error) {
	var e EntityState
	err := walk(b, entitySchema, func(num protowire.Number, v fieldValue) error {
		switch num {
		case entID:
			e.ID = v.varint
		case entType:
			e.Type = string(v.bytes)
		case entX:
			e.X = v.double()
		case entY:
			e.Y = v.double()
		case entVX:
			e.VX = v.double()
		case entVY:
			e.VY = v.double()
		case entHealth:
			e.Health = v.double()
		case entMaxHealth:
			e.MaxHealth = v.double()
		}
		return nil
	})
	return e, err
}

// fieldValue значение поля в зависимости от wire-типа
type fieldValue struct {
	varint uint64
	fixed  uint64
	bytes  []byte
}

func (v fieldValue) double() float64 {
	return math.Float64frombits(v.fixed)
}

// walk обходит поля сообщения и вызывает fn для полей из sc.
// Известное поле с другим wire-типом считается ошибкой, неизвестные пропускаются.
func walk(b []byte, sc schema, fn func(num protowire.Number, v fieldValue) error) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return fmt.Errorf("%w: %v", ErrMalformed, protowire.ParseError(n))
		}
		b = b[n:]

		want, known := sc[num]
		if known && want != typ {
			return fmt.Errorf("%w: field %d: wire type %d, want %d", ErrMalformed, num, typ, want)
		}

		var v fieldValue
		switch typ {
		case protowire.VarintType:
			v.varint, n = protowire.ConsumeVarint(b)
		case protowire.Fixed64Type:
			v.fixed, n = protowire.ConsumeFixed64(b)
		case protowire.BytesType:
			v.bytes, n = protowire.ConsumeBytes(b)
		default:
			n = protowire.ConsumeFieldValue(num, typ, b)
		}
		if n < 0 {
			return fmt.Errorf("%w: field %d: %v", ErrMalformed, num, protowire.ParseError(n))
		}
		b = b[n:]

		if !known {
			continue
		}
		if err := fn(num, v); err != nil {
			return err
		}
	}
	return nil
}

func appendVarint(b []byte, num protowire.Number, v uint64) []byte {
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

func appendDouble(b []byte, num protowire.Number, v float64) []byte {
	b = protowire.AppendTag(b, num, protowire.Fixed64Type)
	return protowire.AppendFixed64(b, math.Float64bits(v))
}
