package graph

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"math"

	"github.com/aretw0/rigno/pkg/domain"
)

// CacheKey derives a stable identifier for a (geometry, config) pair.
// Graphs are reconstructible, so the key only has to distinguish inputs,
// not survive format changes: any change to geometry or construction
// parameters must produce a different key.
func CacheKey(cloud *domain.PointCloud, regions *domain.RegionSet, cfg Config) string {
	h := sha256.New()
	writeInt := func(v int) {
		var buf [8]byte
		binary.LittleEndian.PutUint64(buf[:], uint64(v))
		h.Write(buf[:])
	}
	writeFloats := func(vals []float64) {
		var buf [8]byte
		for _, v := range vals {
			binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
			h.Write(buf[:])
		}
	}

	writeInt(cloud.Dim)
	writeFloats(cloud.Coords)
	writeInt(regions.Len())
	writeFloats(regions.Coords)
	writeFloats([]float64{cfg.EncoderRadius, cfg.decoderRadius(), cfg.ProcessorRadius})
	writeInt(cfg.Levels)

	return hex.EncodeToString(h.Sum(nil))
}
