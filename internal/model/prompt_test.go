package model

import (
	"errors"
	"reflect"
	"testing"
)

func TestPrompt_Placeholders(t *testing.T) {
	p := &Prompt{Template: "Summarize {text} in {words} words. Keep {text} intact. {not valid}"}
	got := p.Placeholders()
	want := []string{"text", "words"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Placeholders() = %v, want %v", got, want)
	}
}

func TestPrompt_Render(t *testing.T) {
	p := &Prompt{Template: "Hello {name}, today is {day}. {literal}", Variables: []string{"name", "day"}}
	got, err := p.Render(map[string]string{"name": "Ada", "day": "Monday"})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if want := "Hello Ada, today is Monday. {literal}"; got != want {
		t.Fatalf("Render() = %q, want %q", got, want)
	}
}

func TestPrompt_RenderMissing(t *testing.T) {
	p := &Prompt{Template: "{a} {b}", Variables: []string{"a", "b"}}
	_, err := p.Render(map[string]string{"a": "x"})
	var mve *MissingVariableError
	if !errors.As(err, &mve) {
		t.Fatalf("Render error = %v, want *MissingVariableError", err)
	}
	if len(mve.Names) != 1 || mve.Names[0] != "b" {
		t.Fatalf("missing = %v, want [b]", mve.Names)
	}
}
