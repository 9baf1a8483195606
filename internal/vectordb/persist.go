package vectordb

import (
	"bytes"
	"encoding/gob"
	"fmt"
)

// On-disk names of the persisted file pair inside the store directory.
const (
	IndexFileName    = "index.gob"
	MetadataFileName = "metadata.json"
)

type flatIndexState struct {
	Dim     int
	Vectors [][]float32
}

type ivfIndexState struct {
	Dim       int
	NList     int
	NProbe    int
	Trained   bool
	Centroids [][]float32
	Lists     [][]int
	Vectors   [][]float32
}

// indexEnvelope is the gob-encoded index file. Exactly one of the state
// pointers is set, selected by Type.
type indexEnvelope struct {
	Type string
	Flat *flatIndexState
	IVF  *ivfIndexState
}

func encodeIndex(idx Index) ([]byte, error) {
	env := indexEnvelope{Type: idx.Type()}
	switch ix := idx.(type) {
	case *FlatIndex:
		env.Flat = &flatIndexState{Dim: ix.dim, Vectors: ix.vectors}
	case *IVFIndex:
		env.IVF = &ivfIndexState{
			Dim:       ix.dim,
			NList:     ix.nlist,
			NProbe:    ix.nprobe,
			Trained:   ix.trained,
			Centroids: ix.centroids,
			Lists:     ix.lists,
			Vectors:   ix.vectors,
		}
	default:
		return nil, fmt.Errorf("unsupported index type %q", idx.Type())
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(env); err != nil {
		return nil, fmt.Errorf("encode index: %w", err)
	}
	return buf.Bytes(), nil
}

func decodeIndex(data []byte) (Index, error) {
	var env indexEnvelope
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&env); err != nil {
		return nil, fmt.Errorf("decode index: %w", err)
	}

	switch env.Type {
	case IndexFlat:
		if env.Flat == nil {
			return nil, fmt.Errorf("index file missing flat state")
		}
		return &FlatIndex{dim: env.Flat.Dim, vectors: env.Flat.Vectors}, nil
	case IndexIVF:
		if env.IVF == nil {
			return nil, fmt.Errorf("index file missing ivf state")
		}
		st := env.IVF
		return &IVFIndex{
			dim:       st.Dim,
			nlist:     st.NList,
			nprobe:    st.NProbe,
			trained:   st.Trained,
			centroids: st.Centroids,
			lists:     st.Lists,
			vectors:   st.Vectors,
		}, nil
	default:
		return nil, fmt.Errorf("unknown index type %q in index file", env.Type)
	}
}
