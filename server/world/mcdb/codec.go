package mcdb

import (
	"fmt"

	"github.com/cespare/xxhash/v2"
	"github.com/df-mc/worldupgrader/blockupgrader"
	"github.com/dm-vev/islandcalc/server/world/chunk"
	"github.com/sandertv/gophertunnel/minecraft/nbt"
)

// columnData is the NBT representation of a stored chunk column.
type columnData struct {
	MinY          int32            `nbt:"MinY"`
	Version       int32            `nbt:"Version"`
	Palette       []string         `nbt:"Palette"`
	Blocks        []int32          `nbt:"Blocks"`
	BlockEntities []map[string]any `nbt:"BlockEntities"`
}

// encode encodes a column to its stored form: little endian NBT compressed
// with zstd.
func (db *DB) encode(col *chunk.Column) ([]byte, error) {
	data := columnData{
		MinY:          col.MinY,
		Version:       col.Version,
		Palette:       col.Palette,
		Blocks:        col.Blocks,
		BlockEntities: make([]map[string]any, 0, len(col.BlockEntities)),
	}
	if data.Palette == nil {
		data.Palette = []string{}
	}
	if data.Blocks == nil {
		data.Blocks = []int32{}
	}
	for _, be := range col.BlockEntities {
		m := make(map[string]any, len(be.Data)+4)
		for k, v := range be.Data {
			m[k] = v
		}
		m["x"], m["y"], m["z"], m["id"] = be.X, be.Y, be.Z, be.ID
		data.BlockEntities = append(data.BlockEntities, m)
	}
	b, err := nbt.MarshalEncoding(data, nbt.LittleEndian)
	if err != nil {
		return nil, fmt.Errorf("encode nbt: %w", err)
	}
	return db.enc.EncodeAll(b, nil), nil
}

// decode decodes a column from its stored form. The Digest of the column
// returned is the hash of raw.
func (db *DB) decode(raw []byte) (*chunk.Column, error) {
	b, err := db.dec.DecodeAll(raw, nil)
	if err != nil {
		return nil, fmt.Errorf("decompress: %w", err)
	}
	var data columnData
	if err := nbt.UnmarshalEncoding(b, &data, nbt.LittleEndian); err != nil {
		return nil, fmt.Errorf("decode nbt: %w", err)
	}
	col := &chunk.Column{
		MinY:          data.MinY,
		Version:       data.Version,
		Palette:       upgradePalette(data.Palette, data.Version),
		Blocks:        data.Blocks,
		BlockEntities: make([]chunk.BlockEntity, 0, len(data.BlockEntities)),
		Digest:        xxhash.Sum64(raw),
	}
	for _, m := range data.BlockEntities {
		be := chunk.BlockEntity{Data: make(map[string]any, len(m))}
		for k, v := range m {
			switch k {
			case "x":
				be.X, _ = v.(int32)
			case "y":
				be.Y, _ = v.(int32)
			case "z":
				be.Z, _ = v.(int32)
			case "id":
				be.ID, _ = v.(string)
			default:
				be.Data[k] = v
			}
		}
		col.BlockEntities = append(col.BlockEntities, be)
	}
	return col, nil
}

// upgradePalette upgrades block names written with an older block state
// version to their current names. Names of an unknown version are returned
// as stored.
func upgradePalette(palette []string, version int32) []string {
	if version <= 0 {
		return palette
	}
	for i, name := range palette {
		palette[i] = blockupgrader.Upgrade(blockupgrader.BlockState{
			Name:       name,
			Properties: map[string]any{},
			Version:    version,
		}).Name
	}
	return palette
}
