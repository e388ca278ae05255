package witbind

import (
	"reflect"
	"testing"

	"go.bytecodealliance.org/wit"

	"github.com/wippyai/structqs"
	"github.com/wippyai/structqs/errors"
)

func optionOf(t wit.Type) wit.Type {
	return &wit.TypeDef{Kind: &wit.Option{Type: t}}
}

func listOf(t wit.Type) wit.Type {
	return &wit.TypeDef{Kind: &wit.List{Type: t}}
}

func recordOf(fields ...wit.Field) wit.Type {
	return &wit.TypeDef{Kind: &wit.Record{Fields: fields}}
}

var (
	colorType = &wit.TypeDef{Kind: &wit.Enum{Cases: []wit.EnumCase{
		{Name: "red"}, {Name: "green"}, {Name: "blue"},
	}}}

	sortType = &wit.TypeDef{Kind: &wit.Variant{Cases: []wit.Case{
		{Name: "asc"},
		{Name: "desc"},
		{Name: "by", Type: wit.String{}},
	}}}

	permsType = &wit.TypeDef{Kind: &wit.Flags{Flags: []wit.Flag{
		{Name: "read"}, {Name: "write"}, {Name: "exec"},
	}}}

	rangeType = recordOf(
		wit.Field{Name: "from", Type: optionOf(wit.U32{})},
		wit.Field{Name: "to", Type: optionOf(wit.U32{})},
	)

	searchType = recordOf(
		wit.Field{Name: "keyword", Type: optionOf(wit.String{})},
		wit.Field{Name: "limit", Type: optionOf(wit.U16{})},
		wit.Field{Name: "filter", Type: optionOf(recordOf(
			wit.Field{Name: "category", Type: optionOf(wit.String{})},
			wit.Field{Name: "difficulty", Type: optionOf(rangeType)},
		))},
	)
)

func TestDecode_Search(t *testing.T) {
	got, err := Decode([]byte("keyword=foo&limit=20&filter.category=A&filter.difficulty.to=800"), searchType)
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]any{
		"keyword": "foo",
		"limit":   uint16(20),
		"filter": map[string]any{
			"category": "A",
			"difficulty": map[string]any{
				"from": nil,
				"to":   uint32(800),
			},
		},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %#v\nwant %#v", got, want)
	}
}

func TestDecode_Primitives(t *testing.T) {
	tests := []struct {
		name  string
		typ   wit.Type
		input string
		want  any
	}{
		{"bool", wit.Bool{}, "true", true},
		{"u8", wit.U8{}, "255", uint8(255)},
		{"u16", wit.U16{}, "65535", uint16(65535)},
		{"u32", wit.U32{}, "7", uint32(7)},
		{"u64", wit.U64{}, "18446744073709551615", uint64(18446744073709551615)},
		{"s8", wit.S8{}, "-128", int8(-128)},
		{"s16", wit.S16{}, "-2", int16(-2)},
		{"s32", wit.S32{}, "42", int32(42)},
		{"s64", wit.S64{}, "-9", int64(-9)},
		{"f32", wit.F32{}, "1.5", float32(1.5)},
		{"f64", wit.F64{}, "-2.25", float64(-2.25)},
		{"char", wit.Char{}, "%C3%A9", 'é'},
		{"string", wit.String{}, "a+b", "a b"},
		{"alias", &wit.TypeDef{Kind: wit.U32{}}, "9", uint32(9)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode([]byte("v="+tt.input), recordOf(wit.Field{Name: "v", Type: tt.typ}))
			if err != nil {
				t.Fatal(err)
			}
			if v := got.(map[string]any)["v"]; !reflect.DeepEqual(v, tt.want) {
				t.Errorf("got %#v (%T), want %#v (%T)", v, v, tt.want, tt.want)
			}
		})
	}
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name  string
		typ   wit.Type
		input string
		kind  errors.Kind
	}{
		{"overflow", wit.U8{}, "v=256", errors.KindOverflow},
		{"negative unsigned", wit.U32{}, "v=-1", errors.KindInvalidData},
		{"bad bool", wit.Bool{}, "v=yes", errors.KindInvalidData},
		{"bool digit", wit.Bool{}, "v=1", errors.KindInvalidData},
		{"bool shorthand", wit.Bool{}, "v=T", errors.KindInvalidData},
		{"two chars", wit.Char{}, "v=ab", errors.KindInvalidData},
		{"empty char", wit.Char{}, "v=", errors.KindInvalidData},
		{"missing", wit.String{}, "", errors.KindFieldMissing},
		{"unknown enum", colorType, "v=pink", errors.KindInvalidEnum},
		{"unknown flag", permsType, "v=read,fly", errors.KindInvalidEnum},
		{"payload required", sortType, "v=by", errors.KindInvalidVariant},
		{"unit payload", sortType, "v.asc=1", errors.KindInvalidVariant},
		{"list of records", listOf(rangeType), "v=1", errors.KindUnsupported},
		{"tuple", &wit.TypeDef{Kind: &wit.Tuple{Types: []wit.Type{wit.U8{}}}}, "v=1", errors.KindUnsupported},
		{"ambiguous", wit.String{}, "v=1&v=2", errors.KindAmbiguous},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.input), recordOf(wit.Field{Name: "v", Type: tt.typ}))
			if !errors.IsKind(err, tt.kind) {
				t.Errorf("got %v, want %s", err, tt.kind)
			}
		})
	}
}

func TestDecode_Containers(t *testing.T) {
	typ := recordOf(
		wit.Field{Name: "tags", Type: listOf(wit.String{})},
		wit.Field{Name: "colors", Type: listOf(colorType)},
		wit.Field{Name: "color", Type: colorType},
		wit.Field{Name: "sort", Type: sortType},
		wit.Field{Name: "order", Type: sortType},
		wit.Field{Name: "perms", Type: permsType},
		wit.Field{Name: "res", Type: &wit.TypeDef{Kind: &wit.Result{OK: wit.U8{}, Err: wit.String{}}}},
	)
	in := "tags=,a,,b,&colors=red,blue&color=green&sort.by=date&order.desc=&perms=exec,read,exec&res.err=boom"
	got, err := Decode([]byte(in), typ)
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]any{
		"tags":   []any{"a", "b"},
		"colors": []any{"red", "blue"},
		"color":  "green",
		"sort":   map[string]any{"by": "date"},
		"order":  map[string]any{"desc": nil},
		"perms":  []any{"read", "exec"},
		"res":    map[string]any{"err": "boom"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %#v\nwant %#v", got, want)
	}
}

func TestEncode(t *testing.T) {
	typ := recordOf(
		wit.Field{Name: "id", Type: wit.U64{}},
		wit.Field{Name: "name", Type: wit.String{}},
		wit.Field{Name: "note", Type: optionOf(wit.String{})},
		wit.Field{Name: "tags", Type: listOf(wit.String{})},
		wit.Field{Name: "range", Type: rangeType},
		wit.Field{Name: "color", Type: colorType},
		wit.Field{Name: "sort", Type: sortType},
		wit.Field{Name: "perms", Type: permsType},
		wit.Field{Name: "initial", Type: wit.Char{}},
	)
	v := map[string]any{
		"id":      uint64(7),
		"name":    "a b",
		"note":    nil,
		"tags":    []any{"x", "y"},
		"range":   map[string]any{"from": uint32(1)},
		"color":   "blue",
		"sort":    map[string]any{"by": "date"},
		"perms":   []any{"write", "read"},
		"initial": 'é',
	}
	got, err := Encode(v, typ)
	if err != nil {
		t.Fatal(err)
	}
	want := "id=7&name=a+b&tags=x%2Cy&range.from=1&color=blue&sort.by=date&perms=read%2Cwrite&initial=%C3%A9"
	if string(got) != want {
		t.Errorf("got  %q\nwant %q", got, want)
	}

	back, err := Decode(got, typ)
	if err != nil {
		t.Fatal(err)
	}
	v["range"] = map[string]any{"from": uint32(1), "to": nil}
	v["perms"] = []any{"read", "write"}
	if !reflect.DeepEqual(back, v) {
		t.Errorf("round trip:\n got %#v\nwant %#v", back, v)
	}
}

func TestEncode_Errors(t *testing.T) {
	tests := []struct {
		name string
		typ  wit.Type
		v    any
		kind errors.Kind
	}{
		{"wrong width", wit.U32{}, 5, errors.KindTypeMismatch},
		{"wrong record", rangeType, "x", errors.KindTypeMismatch},
		{"unknown enum", colorType, "pink", errors.KindInvalidEnum},
		{"enum not string", colorType, 1, errors.KindTypeMismatch},
		{"two cases", sortType, map[string]any{"asc": nil, "desc": nil}, errors.KindInvalidVariant},
		{"unknown case", sortType, map[string]any{"up": nil}, errors.KindInvalidEnum},
		{"unit with payload", sortType, map[string]any{"asc": "x"}, errors.KindInvalidVariant},
		{"unknown flag", permsType, []any{"fly"}, errors.KindInvalidEnum},
		{"comma in list", listOf(wit.String{}), []any{"a,b"}, errors.KindInvalidData},
		{"list not slice", listOf(wit.String{}), "a", errors.KindTypeMismatch},
		{"invalid rune", wit.Char{}, rune(0xD800), errors.KindInvalidData},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Encode(map[string]any{"v": tt.v}, recordOf(wit.Field{Name: "v", Type: tt.typ}))
			if !errors.IsKind(err, tt.kind) {
				t.Errorf("got %v, want %s", err, tt.kind)
			}
		})
	}

	_, err := Encode(map[string]any{}, recordOf(wit.Field{Name: "req", Type: wit.String{}}))
	if !errors.IsKind(err, errors.KindFieldMissing) {
		t.Errorf("missing field: got %v", err)
	}
	_, err = Encode(uint32(1), wit.U32{})
	if !errors.IsKind(err, errors.KindUnsupported) {
		t.Errorf("top-level scalar: got %v", err)
	}
}

func TestBinder_Config(t *testing.T) {
	b := New(structqs.New(structqs.Config{MaxDepth: 1}))
	_, err := b.Decode([]byte("a.b=1"), recordOf(wit.Field{Name: "a", Type: rangeType}))
	if !errors.IsKind(err, errors.KindOverflow) {
		t.Errorf("got %v, want overflow", err)
	}
}
