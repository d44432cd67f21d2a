package frps

import (
	"bytes"
	"errors"
	"reflect"
	"testing"
)

type statReply struct {
	Host    string            `frps:"host"`
	Port    int               `frps:"port"`
	Uptime  float64           `frps:"uptime"`
	Alive   bool              `frps:"alive"`
	Tags    []string          `frps:"tags"`
	Blob    []byte            `frps:"blob"`
	Labels  map[string]string `frps:"labels"`
	Started DateTime          `frps:"started"`
	Skip    string            `frps:"-"`
	Plain   string
}

func encodeStatReply(t *testing.T) []byte {
	t.Helper()
	e := NewEncoder(Version3, 256)
	e.WriteResponseHeader()
	e.EncodeStructHeader(9)
	e.EncodeKey("host")
	e.EncodeString("db1")
	e.EncodeKey("port")
	e.EncodeInt(5432)
	e.EncodeKey("uptime")
	e.EncodeDouble(1.5)
	e.EncodeKey("alive")
	e.EncodeBool(true)
	e.EncodeKey("tags")
	e.EncodeArrayHeader(2)
	e.EncodeString("prod")
	e.EncodeString("eu")
	e.EncodeKey("blob")
	e.EncodeBinary([]byte{1, 2})
	e.EncodeKey("labels")
	e.EncodeStructHeader(1)
	e.EncodeKey("team")
	e.EncodeString("core")
	e.EncodeKey("started")
	e.EncodeDateTime(dtVector)
	e.EncodeKey("Plain")
	e.EncodeString("untagged")
	if e.Err() != nil {
		t.Fatal(e.Err())
	}
	return e.Bytes()
}

func TestUnmarshalStruct(t *testing.T) {
	var got statReply
	if err := UnmarshalStruct(encodeStatReply(t), &got); err != nil {
		t.Fatal(err)
	}
	want := statReply{
		Host:    "db1",
		Port:    5432,
		Uptime:  1.5,
		Alive:   true,
		Tags:    []string{"prod", "eu"},
		Blob:    []byte{1, 2},
		Labels:  map[string]string{"team": "core"},
		Started: dtVector,
		Plain:   "untagged",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("decoded\n got: %+v\nwant: %+v", got, want)
	}
}

func TestDecodeStructEmbedded(t *testing.T) {
	type base struct {
		ID int64 `frps:"id"`
	}
	type derived struct {
		base
		Name string `frps:"name"`
	}
	v := Value{Kind: KindStruct, Members: []Member{
		{Name: "id", Value: Value{Kind: KindInt, Int: 7}},
		{Name: "name", Value: Value{Kind: KindString, Bytes: []byte("x")}},
	}}
	var got derived
	if err := v.DecodeStruct(&got); err != nil {
		t.Fatal(err)
	}
	if got.ID != 7 || got.Name != "x" {
		t.Errorf("decoded %+v", got)
	}
}

func TestDecodeStructPointerFields(t *testing.T) {
	type dst struct {
		A *int64  `frps:"a"`
		B *string `frps:"b"`
	}
	v := Value{Kind: KindStruct, Members: []Member{
		{Name: "a", Value: Value{Kind: KindInt, Int: 3}},
		{Name: "b", Value: Value{Kind: KindNull}},
	}}
	got := dst{B: new(string)}
	if err := v.DecodeStruct(&got); err != nil {
		t.Fatal(err)
	}
	if got.A == nil || *got.A != 3 {
		t.Errorf("A = %v", got.A)
	}
	if got.B != nil {
		t.Errorf("B = %v, want nil", got.B)
	}
}

func TestDecodeStructInterfaceField(t *testing.T) {
	type dst struct {
		V any `frps:"v"`
	}
	v := Value{Kind: KindStruct, Members: []Member{
		{Name: "v", Value: Value{Kind: KindArray, Items: []Value{
			{Kind: KindInt, Int: 1},
			{Kind: KindStruct, Members: []Member{
				{Name: "k", Value: Value{Kind: KindBool, Bool: true}},
			}},
		}}},
	}}
	var got dst
	if err := v.DecodeStruct(&got); err != nil {
		t.Fatal(err)
	}
	want := []any{int64(1), map[string]any{"k": true}}
	if !reflect.DeepEqual(got.V, want) {
		t.Errorf("V = %#v, want %#v", got.V, want)
	}
}

func TestDecodeStructErrors(t *testing.T) {
	v := Value{Kind: KindStruct, Members: []Member{
		{Name: "n", Value: Value{Kind: KindString, Bytes: []byte("x")}},
	}}

	t.Run("not a pointer", func(t *testing.T) {
		var dst struct{ N int }
		if err := v.DecodeStruct(dst); !errors.Is(err, ErrNotPointer) {
			t.Errorf("err = %v", err)
		}
	})
	t.Run("nil pointer", func(t *testing.T) {
		var dst *struct{ N int }
		if err := v.DecodeStruct(dst); !errors.Is(err, ErrNotPointer) {
			t.Errorf("err = %v", err)
		}
	})
	t.Run("not a struct", func(t *testing.T) {
		var n int
		if err := v.DecodeStruct(&n); !errors.Is(err, ErrNotStruct) {
			t.Errorf("err = %v", err)
		}
	})
	t.Run("member type mismatch", func(t *testing.T) {
		var dst struct {
			N int `frps:"n"`
		}
		if err := v.DecodeStruct(&dst); !errors.Is(err, ErrTypeMismatch) {
			t.Errorf("err = %v", err)
		}
	})
	t.Run("value is not a struct", func(t *testing.T) {
		iv := Value{Kind: KindInt, Int: 1}
		var dst struct{}
		if err := iv.DecodeStruct(&dst); !errors.Is(err, ErrTypeMismatch) {
			t.Errorf("err = %v", err)
		}
	})
	t.Run("int overflow", func(t *testing.T) {
		ov := Value{Kind: KindStruct, Members: []Member{
			{Name: "n", Value: Value{Kind: KindInt, Int: 300}},
		}}
		var dst struct {
			N int8 `frps:"n"`
		}
		if err := ov.DecodeStruct(&dst); !errors.Is(err, ErrTypeMismatch) {
			t.Errorf("err = %v", err)
		}
	})
	t.Run("negative into uint", func(t *testing.T) {
		nv := Value{Kind: KindStruct, Members: []Member{
			{Name: "n", Value: Value{Kind: KindInt, Int: -1}},
		}}
		var dst struct {
			N uint `frps:"n"`
		}
		if err := nv.DecodeStruct(&dst); !errors.Is(err, ErrTypeMismatch) {
			t.Errorf("err = %v", err)
		}
	})
	t.Run("non-string map key", func(t *testing.T) {
		sv := Value{Kind: KindStruct, Members: []Member{
			{Name: "m", Value: Value{Kind: KindStruct}},
		}}
		var dst struct {
			M map[int]string `frps:"m"`
		}
		if err := sv.DecodeStruct(&dst); !errors.Is(err, ErrUnsupportedType) {
			t.Errorf("err = %v", err)
		}
	})
}

func TestUnmarshalStructFault(t *testing.T) {
	e := NewEncoder(Version2, 32)
	e.WriteFault(1, "boom")
	var dst struct{}
	if err := UnmarshalStruct(e.Bytes(), &dst); !errors.Is(err, ErrTypeMismatch) {
		t.Errorf("err = %v", err)
	}
}

func TestValueInterface(t *testing.T) {
	v := Value{Kind: KindStruct, Members: []Member{
		{Name: "b", Value: Value{Kind: KindBinary, Bytes: []byte{9}}},
		{Name: "d", Value: Value{Kind: KindDouble, Double: 0.5}},
		{Name: "d", Value: Value{Kind: KindInt, Int: 2}},
	}}
	got, ok := v.Interface().(map[string]any)
	if !ok {
		t.Fatalf("Interface() = %#v", v.Interface())
	}
	if !bytes.Equal(got["b"].([]byte), []byte{9}) {
		t.Errorf("b = %v", got["b"])
	}
	if got["d"] != 0.5 {
		t.Errorf("d = %v, want first occurrence 0.5", got["d"])
	}
}
