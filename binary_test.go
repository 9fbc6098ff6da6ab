package fixqdf

import (
	"bytes"
	"testing"
)

func TestBinaryWriterWriteUint(t *testing.T) {
	cases := []struct {
		val   uint64
		width int
		want  []byte
	}{
		{0, 1, []byte{0x00}},
		{255, 1, []byte{0xff}},
		{256, 2, []byte{0x01, 0x00}},
		{0x0102, 2, []byte{0x01, 0x02}},
		{65535, 2, []byte{0xff, 0xff}},
		{1, 0, []byte{}},
	}
	for _, c := range cases {
		var buf bytes.Buffer
		bw := newBinaryWriter(&buf)
		if err := bw.writeUint(c.val, c.width); err != nil {
			t.Fatalf("writeUint(%d, %d): %v", c.val, c.width, err)
		}
		if !bytes.Equal(buf.Bytes(), c.want) {
			t.Errorf("writeUint(%d, %d) = % x, want % x", c.val, c.width, buf.Bytes(), c.want)
		}
	}
}

func TestBinaryWriterWidthOverflowPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for width > 8")
		}
	}()
	var buf bytes.Buffer
	bw := newBinaryWriter(&buf)
	bw.writeUint(1, 9)
}
