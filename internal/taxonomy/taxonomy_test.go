package taxonomy

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault_BodyParts(t *testing.T) {
	got := Default().BodyParts()
	want := []string{"Ankle", "Back", "Elbow", "Hip", "Knee", "Shoulder", "Wrist"}
	if len(got) != len(want) {
		t.Fatalf("got %d body parts, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("body part %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestLookup_CaseInsensitive(t *testing.T) {
	p, ok := Default().Lookup("  kNeE ")
	if !ok {
		t.Fatal("expected knee to be found")
	}
	if p.Name != "Knee" {
		t.Errorf("name = %q, want Knee", p.Name)
	}
	if _, ok := Default().Lookup("nose"); ok {
		t.Error("expected unknown part to be missing")
	}
}

func TestCommonConditions_ByWeight(t *testing.T) {
	got := Default().CommonConditions("ankle")
	if len(got) != 4 {
		t.Fatalf("got %d conditions, want 4", len(got))
	}
	if got[0] != "Lateral ankle sprain" {
		t.Errorf("heaviest condition = %q, want Lateral ankle sprain", got[0])
	}
	if Default().CommonConditions("nose") != nil {
		t.Error("expected nil for unknown part")
	}
}

func TestRankedQuestions(t *testing.T) {
	got := Default().RankedQuestions("Knee")
	if len(got) != 4 {
		t.Fatalf("got %d questions", len(got))
	}
	if got[0] != "Is the pain below the kneecap when jumping?" {
		t.Errorf("first question = %q", got[0])
	}
	if got[3] != "Did you hear a pop when the injury happened?" {
		t.Errorf("last question = %q", got[3])
	}
}

func TestDetect(t *testing.T) {
	tests := []struct {
		text string
		want string
		ok   bool
	}{
		{"I hurt my knee landing", "Knee", true},
		{"pain in both ankles", "Ankle", true},
		{"my ACL feels weird", "Knee", true},
		{"the player's lower back is stiff", "Back", true},
		{"I feel dizzy", "", false},
		{"kneeling hurts", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got, ok := Default().Detect(tt.text)
			if ok != tt.ok || got != tt.want {
				t.Errorf("Detect(%q) = %q,%v want %q,%v", tt.text, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestMentioned(t *testing.T) {
	got := Default().Mentioned("Wrist sprain after I twisted my ankle")
	if len(got) != 2 || got[0] != "Ankle" || got[1] != "Wrist" {
		t.Fatalf("Mentioned = %v, want [Ankle Wrist]", got)
	}
	if got := Default().Mentioned("general fatigue"); len(got) != 0 {
		t.Fatalf("Mentioned = %v, want none", got)
	}
}

func TestLoad_JSONAndYAML(t *testing.T) {
	dir := t.TempDir()
	jsonPath := filepath.Join(dir, "injury_data.json")
	yamlPath := filepath.Join(dir, "injury_data.yaml")

	os.WriteFile(jsonPath, []byte(`{
		"Knee": {
			"questions": ["Does it swell?"],
			"conditions": {"Knee sprain": {"symptoms": ["swell"], "weight": 0.5}}
		}
	}`), 0o644)
	os.WriteFile(yamlPath, []byte(`
Knee:
  questions: ["Does it swell?"]
  conditions:
    Knee sprain:
      symptoms: [swell]
      weight: 0.5
`), 0o644)

	for _, path := range []string{jsonPath, yamlPath} {
		tax, err := Load(path)
		if err != nil {
			t.Fatalf("load %s: %v", path, err)
		}
		if got := tax.CommonConditions("knee"); len(got) != 1 || got[0] != "Knee sprain" {
			t.Errorf("%s: conditions = %v", path, got)
		}
	}
}

func TestParse_Errors(t *testing.T) {
	if _, err := Parse([]byte(`{}`), ".toml"); err == nil {
		t.Error("expected error for unsupported format")
	}
	if _, err := Parse([]byte(`{"Knee":{"conditions":{"x":{"weight":-1}}}}`), ".json"); err == nil {
		t.Error("expected error for negative weight")
	}
	if _, err := Parse([]byte(`{"Knee":{}, "knee":{}}`), ".json"); err == nil {
		t.Error("expected error for duplicate part")
	}
}
