package vectordb

import "testing"

func TestEncodeDecodeFlatIndex(t *testing.T) {
	idx := NewFlatIndex(3)
	if err := idx.Add([][]float32{{1, 0, 0}, {0, 1, 0}}); err != nil {
		t.Fatalf("Add: %v", err)
	}

	data, err := encodeIndex(idx)
	if err != nil {
		t.Fatalf("encodeIndex: %v", err)
	}
	decoded, err := decodeIndex(data)
	if err != nil {
		t.Fatalf("decodeIndex: %v", err)
	}

	if decoded.Type() != IndexFlat {
		t.Errorf("type: got %q, want %q", decoded.Type(), IndexFlat)
	}
	if decoded.Dim() != 3 || decoded.Len() != 2 {
		t.Errorf("dim/len: got %d/%d, want 3/2", decoded.Dim(), decoded.Len())
	}
	positions, _ := decoded.Search([]float32{0, 1, 0}, 1)
	if len(positions) != 1 || positions[0] != 1 {
		t.Errorf("search after decode: got %v, want [1]", positions)
	}
}

func TestEncodeDecodeIVFIndex(t *testing.T) {
	idx := NewIVFIndex(2, 2, 1)
	var vectors [][]float32
	for i := 0; i < 4; i++ {
		vectors = append(vectors, []float32{1, 0})
	}
	for i := 0; i < 4; i++ {
		vectors = append(vectors, []float32{0, 1})
	}
	if err := idx.Add(vectors); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if !idx.Trained() {
		t.Fatal("index not trained")
	}

	data, err := encodeIndex(idx)
	if err != nil {
		t.Fatalf("encodeIndex: %v", err)
	}
	decoded, err := decodeIndex(data)
	if err != nil {
		t.Fatalf("decodeIndex: %v", err)
	}

	ivf, ok := decoded.(*IVFIndex)
	if !ok {
		t.Fatalf("decoded index is %T, want *IVFIndex", decoded)
	}
	if !ivf.Trained() {
		t.Error("training state lost in round-trip")
	}
	if ivf.Len() != 8 || ivf.Dim() != 2 {
		t.Errorf("dim/len: got %d/%d, want 2/8", ivf.Dim(), ivf.Len())
	}
	positions, _ := ivf.Search([]float32{0, 1}, 1)
	if len(positions) != 1 || positions[0] != 4 {
		t.Errorf("search after decode: got %v, want [4]", positions)
	}
}

func TestDecodeIndex_Garbage(t *testing.T) {
	if _, err := decodeIndex([]byte("not a gob stream")); err == nil {
		t.Error("decodeIndex accepted garbage")
	}
}
