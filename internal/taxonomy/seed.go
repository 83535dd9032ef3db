package taxonomy

import "sync"

var (
	defaultOnce sync.Once
	defaultTax  *Taxonomy
)

// Default returns the built-in taxonomy covering the seven body parts the
// interview supports.
func Default() *Taxonomy {
	defaultOnce.Do(func() {
		t, err := New(seedParts)
		if err != nil {
			panic("taxonomy: invalid seed: " + err.Error())
		}
		defaultTax = t
	})
	return defaultTax
}

// seedParts is the built-in injury taxonomy: 7 body parts, 3–4 conditions each.
var seedParts = map[string]BodyPart{
	"Ankle": {
		Aliases: []string{"achilles", "heel"},
		Questions: []string{
			"Did you roll your ankle landing from a jump?",
			"Is there swelling around the outside of the ankle?",
			"Can you bear weight on the foot?",
			"Do you feel pain at the back of the heel when pushing off?",
		},
		Conditions: map[string]Condition{
			"Lateral ankle sprain": {Symptoms: []string{"roll", "swelling", "outside"}, Weight: 0.9},
			"Achilles tendinitis":  {Symptoms: []string{"heel", "pushing off", "stiffness"}, Weight: 0.6},
			"High ankle sprain":    {Symptoms: []string{"twist", "above the ankle", "bear weight"}, Weight: 0.5},
			"Ankle fracture":       {Symptoms: []string{"bear weight", "deformity", "bruising"}, Weight: 0.4},
		},
	},
	"Knee": {
		Aliases: []string{"patella", "kneecap", "acl", "mcl", "meniscus"},
		Questions: []string{
			"Did you hear a pop when the injury happened?",
			"Does the knee feel unstable or give way?",
			"Is the pain below the kneecap when jumping?",
			"Does the knee lock or catch when you bend it?",
		},
		Conditions: map[string]Condition{
			"Patellar tendinitis (jumper's knee)": {Symptoms: []string{"below the kneecap", "jumping"}, Weight: 0.8},
			"ACL tear":                            {Symptoms: []string{"pop", "unstable", "give way"}, Weight: 0.6},
			"Meniscus tear":                       {Symptoms: []string{"lock", "catch", "twist"}, Weight: 0.6},
			"MCL sprain":                          {Symptoms: []string{"inside", "contact"}, Weight: 0.4},
		},
	},
	"Shoulder": {
		Aliases: []string{"rotator cuff", "collarbone"},
		Questions: []string{
			"Does it hurt to lift your arm overhead to shoot?",
			"Did the shoulder feel like it popped out?",
			"Is the pain worse at night?",
		},
		Conditions: map[string]Condition{
			"Rotator cuff strain":  {Symptoms: []string{"overhead", "night", "shoot"}, Weight: 0.7},
			"Shoulder dislocation": {Symptoms: []string{"popped out", "deformity"}, Weight: 0.5},
			"Shoulder impingement": {Symptoms: []string{"overhead", "pinch"}, Weight: 0.5},
		},
	},
	"Hip": {
		Aliases: []string{"groin", "hip flexor"},
		Questions: []string{
			"Is the pain in the groin when you sprint or cut?",
			"Does lifting your knee toward your chest hurt?",
			"Did you fall on your side?",
		},
		Conditions: map[string]Condition{
			"Groin strain":      {Symptoms: []string{"groin", "cut", "sprint"}, Weight: 0.7},
			"Hip flexor strain": {Symptoms: []string{"lifting your knee", "chest"}, Weight: 0.6},
			"Hip pointer":       {Symptoms: []string{"fall", "side", "bruise"}, Weight: 0.4},
		},
	},
	"Back": {
		Aliases: []string{"spine", "lumbar", "lower back"},
		Questions: []string{
			"Does bending forward make the pain worse?",
			"Does the pain travel down your leg?",
			"Did it start after a hard landing or twist?",
		},
		Conditions: map[string]Condition{
			"Lumbar muscle strain": {Symptoms: []string{"bending", "twist"}, Weight: 0.8},
			"Herniated disc":       {Symptoms: []string{"down your leg", "numb"}, Weight: 0.4},
			"Spondylolysis":        {Symptoms: []string{"arching", "landing"}, Weight: 0.3},
		},
	},
	"Wrist": {
		Aliases: []string{"hand", "finger", "thumb"},
		Questions: []string{
			"Did you fall on an outstretched hand?",
			"Is there pain on the thumb side of the wrist?",
			"Did a ball hit the tip of your finger?",
		},
		Conditions: map[string]Condition{
			"Wrist sprain":      {Symptoms: []string{"outstretched", "fall"}, Weight: 0.7},
			"Scaphoid fracture": {Symptoms: []string{"thumb side", "fall"}, Weight: 0.4},
			"Jammed finger":     {Symptoms: []string{"tip of your finger", "ball"}, Weight: 0.7},
		},
	},
	"Elbow": {
		Aliases: []string{"forearm"},
		Questions: []string{
			"Does the outside of the elbow hurt when gripping?",
			"Did you land on your elbow?",
			"Is there swelling at the back of the elbow?",
		},
		Conditions: map[string]Condition{
			"Lateral epicondylitis": {Symptoms: []string{"outside", "gripping"}, Weight: 0.5},
			"Elbow contusion":       {Symptoms: []string{"land", "bruise"}, Weight: 0.6},
			"Olecranon bursitis":    {Symptoms: []string{"swelling", "back of the elbow"}, Weight: 0.4},
		},
	},
}
