package diffmap

import (
	"errors"
	"reflect"
	"testing"
)

func TestExtractJSONObjectPlain(t *testing.T) {
	got, err := ExtractJSONObject(`{"a": 1}`)
	if err != nil {
		t.Fatalf("ExtractJSONObject: %v", err)
	}
	if got["a"] != float64(1) {
		t.Fatalf("got %v", got)
	}
}

func TestExtractJSONObjectProseWrapped(t *testing.T) {
	got, err := ExtractJSONObject(`Here is the analysis you asked for:

{"pricing_model": "Freemium"}

Let me know if you need anything else.`)
	if err != nil {
		t.Fatalf("ExtractJSONObject: %v", err)
	}
	if got["pricing_model"] != "Freemium" {
		t.Fatalf("got %v", got)
	}
}

func TestExtractJSONObjectCodeFence(t *testing.T) {
	got, err := ExtractJSONObject("```json\n{\"k\": [\"v\"]}\n```")
	if err != nil {
		t.Fatalf("ExtractJSONObject: %v", err)
	}
	if _, ok := got["k"]; !ok {
		t.Fatalf("got %v", got)
	}
}

func TestExtractJSONObjectNoBraces(t *testing.T) {
	_, err := ExtractJSONObject("no json here at all")
	if !errors.Is(err, ErrMalformedResponse) {
		t.Fatalf("err = %v, want ErrMalformedResponse", err)
	}
}

func TestExtractJSONObjectInvalidJSON(t *testing.T) {
	_, err := ExtractJSONObject(`{"a": }`)
	if !errors.Is(err, ErrMalformedResponse) {
		t.Fatalf("err = %v, want ErrMalformedResponse", err)
	}
}

func TestAsStringSlice(t *testing.T) {
	got := asStringSlice([]any{"a", "", 3, "  b  "})
	if !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Fatalf("got %v", got)
	}
	if asStringSlice("not a list") != nil {
		t.Fatal("non-list input should yield nil")
	}
}

func TestAsText(t *testing.T) {
	cases := []struct {
		in   any
		want string
	}{
		{"  hello ", "hello"},
		{float64(4), "4"},
		{4.5, "4.5"},
		{true, "true"},
		{[]any{"x"}, ""},
		{nil, ""},
	}
	for _, tc := range cases {
		if got := asText(tc.in); got != tc.want {
			t.Errorf("asText(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
