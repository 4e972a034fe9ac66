package signals

import (
	"testing"
)

func TestRouter_Match(t *testing.T) {
	tests := []struct {
		name     string
		patterns []string
		signal   string
		want     bool
	}{
		{"bare name under any message", []string{"Speed"}, "Engine.Speed", true},
		{"bare name other message", []string{"Speed"}, "Wheel.Speed", true},
		{"bare name is suffix anchored", []string{"Speed"}, "Engine.SpeedLimit", false},
		{"bare name needs separator", []string{"Speed"}, "Engine.MaxSpeed", false},
		{"message wildcard", []string{"Engine.*"}, "Engine.Speed", true},
		{"message wildcard other signal", []string{"Engine.*"}, "Engine.Torque", true},
		{"message wildcard other message", []string{"Engine.*"}, "Wheel.Speed", false},
		{"message is start anchored", []string{"Engine.*"}, "MyEngine.Speed", false},
		{"single wildcard", []string{"Eng?ne.Speed"}, "Engine.Speed", true},
		{"single wildcard other char", []string{"Eng?ne.Speed"}, "Engone.Speed", true},
		{"single wildcard exactly one", []string{"Eng?ne.Speed"}, "Engiine.Speed", false},
		{"single wildcard not zero", []string{"Eng?ne.Speed"}, "Engne.Speed", false},
		{"many wildcard in message", []string{"Eng*.Speed"}, "Engine.Speed", true},
		{"bare wildcard pattern still needs a message", []string{"Engine*d"}, "Engine.Speed", false},
		{"qualified many wildcard crosses separator", []string{"E*.*d"}, "Engine.Sub.Speed", true},
		{"many wildcard in signal", []string{"*Temp*"}, "Cooling.WaterTemperature", true},
		{"regex metachars are literal", []string{"Gear(1)"}, "Trans.Gear(1)", true},
		{"plus is literal", []string{"A+B"}, "M.AAB", false},
		{"dot is literal", []string{"Engine.Speed"}, "EngineXSpeed", false},
		{"catch all", []string{"*"}, "Anything.Goes", true},
		{"any of several", []string{"Torque", "Speed"}, "Engine.Speed", true},
		{"none of several", []string{"Torque", "Rpm"}, "Engine.Speed", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := Compile(tt.patterns)
			if err != nil {
				t.Fatalf("Compile() error = %v", err)
			}
			if got := r.Match(tt.signal); got != tt.want {
				t.Errorf("Match(%q) with %v = %v, want %v", tt.signal, tt.patterns, got, tt.want)
			}
		})
	}
}

func TestRouter_EmptyPatternsMatchEverything(t *testing.T) {
	r, err := Compile(nil)
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}

	for _, name := range []string{"Engine.Speed", "Wheel.Speed", "A.B"} {
		if !r.Match(name) {
			t.Errorf("Match(%q) = false, want true", name)
		}
	}

	if got := r.Patterns(); len(got) != 1 || got[0] != CatchAll {
		t.Errorf("Patterns() = %v, want [*]", got)
	}
}

func TestRouter_CacheIsStable(t *testing.T) {
	r := MustCompile("Speed")

	for i := 0; i < 3; i++ {
		if !r.Match("Engine.Speed") {
			t.Fatal("Match() changed after caching")
		}
		if r.Match("Engine.Torque") {
			t.Fatal("Match() changed after caching")
		}
	}
	if len(r.cache) != 2 {
		t.Errorf("cache size = %d, want 2", len(r.cache))
	}
}

func TestCompilePattern(t *testing.T) {
	tests := []struct {
		pattern string
		want    string
	}{
		{"*", `^.*\..*$`},
		{"Speed", `^.*\.Speed$`},
		{"Engine.*", `^Engine\..*$`},
		{"Eng?ne.Speed", `^Eng.ne\.Speed$`},
	}

	for _, tt := range tests {
		re, err := compilePattern(tt.pattern)
		if err != nil {
			t.Fatalf("compilePattern(%q) error = %v", tt.pattern, err)
		}
		if re.String() != tt.want {
			t.Errorf("compilePattern(%q) = %s, want %s", tt.pattern, re.String(), tt.want)
		}
	}
}
