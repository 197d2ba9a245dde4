package format

import (
	"bytes"
	"strings"
	"testing"
)

func TestWriteEDN(t *testing.T) {
	payload := map[string]any{
		"data": map[string]any{
			"id":          "t1",
			"parentId":    nil,
			"childIds":    []string{"a", "b"},
			"depth":       2,
			"trackedSecs": int64(9007199254740993),
			"done":        true,
		},
	}
	var buf bytes.Buffer
	if err := WriteEDN(&buf, payload, false); err != nil {
		t.Fatalf("WriteEDN: %v", err)
	}
	want := `{:data {:child-ids ["a" "b"] :depth 2 :done true :id "t1" :parent-id nil :tracked-secs 9007199254740993}}` + "\n"
	if got := buf.String(); got != want {
		t.Fatalf("got  %s\nwant %s", got, want)
	}
}

func TestWriteEDN_Pretty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteEDN(&buf, map[string]any{"xs": []int{1}, "empty": []int{}}, true); err != nil {
		t.Fatalf("WriteEDN: %v", err)
	}
	want := "{\n  :empty []\n  :xs [\n    1\n  ]\n}\n"
	if got := buf.String(); got != want {
		t.Fatalf("got:\n%s\nwant:\n%s", got, want)
	}
}

func TestKeyword(t *testing.T) {
	cases := map[string]string{
		"id":          ":id",
		"rootTaskIds": ":root-task-ids",
		"ID":          ":id",
		"userID":      ":user-id",
		"snake_case":  ":snake-case",
	}
	for in, want := range cases {
		if got := Keyword(in); got != want {
			t.Fatalf("Keyword(%q)=%q want %q", in, got, want)
		}
	}
}

func TestWrite_Formats(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, map[string]string{"a": "<b>"}, "", false); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if strings.TrimSpace(buf.String()) != `{"a":"<b>"}` {
		t.Fatalf("unexpected json: %s", buf.String())
	}
	if err := Write(&buf, nil, "yaml", false); err == nil {
		t.Fatalf("expected unknown format error")
	}
	if f, err := Normalize(" EDN "); err != nil || f != EDN {
		t.Fatalf("Normalize: %q %v", f, err)
	}
}
