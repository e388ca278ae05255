package structqs_test

import (
	"fmt"

	"github.com/wippyai/structqs"
)

type Difficulty struct {
	From *int `qs:"from"`
	To   *int `qs:"to"`
}

type Filter struct {
	Category   *string     `qs:"category"`
	Difficulty *Difficulty `qs:"difficulty"`
}

type Search struct {
	Keyword *string  `qs:"keyword"`
	Limit   *int     `qs:"limit"`
	Filter  *Filter  `qs:"filter"`
	Tags    []string `qs:"tags"`
}

func ExampleUnmarshalString() {
	var s Search
	err := structqs.UnmarshalString("keyword=foo&limit=20&filter.difficulty.to=800&tags=go,,wasm", &s)
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println(*s.Keyword, *s.Limit, s.Filter.Category == nil, *s.Filter.Difficulty.To, s.Tags)
	// Output: foo 20 true 800 [go wasm]
}

func ExampleMarshalString() {
	limit := 20
	s, err := structqs.MarshalString(Search{Limit: &limit, Tags: []string{"a b", "c"}})
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println(s)
	// Output: limit=20&tags=a+b%2Cc
}

func ExampleDecoder_Record() {
	d, err := structqs.ParseString("user.name=ann&user.role=admin")
	if err != nil {
		fmt.Println(err)
		return
	}
	root, _ := d.Record()
	user, _ := root.Field("user")
	rec, _ := user.Record()
	for _, k := range rec.Keys() {
		f, _ := rec.Field(k)
		v, _ := f.Scalar()
		fmt.Printf("%s=%s\n", k, v)
	}
	// Output:
	// name=ann
	// role=admin
}
