package discord

import (
	"reflect"
	"testing"
)

func TestParseCommand(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		want    Parsed
		ok      bool
	}{
		{name: "prefixed", content: "!start_sprint 20", want: Parsed{Name: "start_sprint", Args: []string{"20"}}, ok: true},
		{name: "no args", content: "  !stop_sprint  ", want: Parsed{Name: "stop_sprint", Args: []string{}}, ok: true},
		{name: "upper case", content: "!Sprint SAME", want: Parsed{Name: "sprint", Args: []string{"SAME"}}, ok: true},
		{name: "mention", content: "<@42> help", want: Parsed{Name: "help", Args: []string{}, Mentioned: true}, ok: true},
		{name: "nick mention", content: "<@!42> help", want: Parsed{Name: "help", Args: []string{}, Mentioned: true}, ok: true},
		{name: "mention with prefix", content: "<@42> !version", want: Parsed{Name: "version", Args: []string{}, Mentioned: true}, ok: true},
		{name: "other mention", content: "<@7> help", ok: false},
		{name: "plain text", content: "hello there", ok: false},
		{name: "bare prefix", content: "!", ok: false},
		{name: "bare mention", content: "<@42>", ok: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseCommand(tt.content, "!", "42")
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if !tt.ok {
				return
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("parsed = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestParseCommandCustomPrefix(t *testing.T) {
	t.Parallel()

	if _, ok := ParseCommand("!sprint 5", "?", "42"); ok {
		t.Fatal("expected default prefix to be ignored")
	}
	got, ok := ParseCommand("?sprint 5", "?", "42")
	if !ok || got.Name != "sprint" || got.Args[0] != "5" {
		t.Fatalf("parsed = %+v, ok=%v", got, ok)
	}
}
