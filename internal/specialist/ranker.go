package specialist

import (
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/abhisek/hooptriage/internal/taxonomy"
	"github.com/abhisek/hooptriage/internal/triage"
)

// DefaultTopK is how many specialists a recommendation returns.
const DefaultTopK = 3

// Fallback is shown when no specialist scores above zero.
const Fallback = "No specific specialists found for this condition. Please consult a general sports medicine physician."

// stopwords never count as relevance terms.
var stopwords = map[string]bool{
	"a": true, "an": true, "and": true, "at": true, "in": true, "of": true,
	"on": true, "or": true, "the": true, "to": true, "with": true,
}

// Ranked is a specialist with its relevance score. The score only orders
// results.
type Ranked struct {
	Specialist
	Score float64 `json:"score"`
}

// Summary is the short form of a recommendation.
type Summary struct {
	Name        string `json:"name"`
	Specialties string `json:"specialties"`
	Location    string `json:"location"`
	Phone       string `json:"phone"`
}

// Ranker scores a fixed roster against diagnoses.
type Ranker struct {
	doctors []Specialist
	tax     *taxonomy.Taxonomy
	topK    int
}

// NewRanker creates a Ranker. A nil taxonomy uses the built-in one.
func NewRanker(roster *Roster, tax *taxonomy.Taxonomy) *Ranker {
	if tax == nil {
		tax = taxonomy.Default()
	}
	var doctors []Specialist
	if roster != nil {
		doctors = roster.Doctors
	}
	return &Ranker{doctors: doctors, tax: tax, topK: DefaultTopK}
}

// Terms returns the lowercase relevance terms for d: the words of every
// condition name plus the body parts those names mention.
func (r *Ranker) Terms(d triage.Diagnosis) []string {
	seen := map[string]bool{}
	var terms []string
	add := func(t string) {
		if len(t) < 2 || stopwords[t] || seen[t] {
			return
		}
		seen[t] = true
		terms = append(terms, t)
	}

	for _, c := range d.Conditions {
		name := strings.ToLower(c.Name)
		for _, w := range strings.FieldsFunc(name, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
		}) {
			add(strings.TrimSuffix(strings.Trim(w, "'"), "'s"))
		}
		for _, part := range r.tax.Mentioned(c.Name) {
			add(strings.ToLower(part))
		}
	}
	return terms
}

// Score rates one specialist: two points per specialty containing any
// term, plus the rating, plus a tenth of the years of experience capped
// at two.
func Score(s Specialist, terms []string) float64 {
	matched := 0
	for _, spec := range s.Specialties {
		spec = strings.ToLower(spec)
		for _, t := range terms {
			if strings.Contains(spec, t) {
				matched++
				break
			}
		}
	}
	return 2*float64(matched) + s.Rating + math.Min(s.Experience/10, 2)
}

// Rank returns the best specialists for d, highest score first. Ties keep
// roster order. An empty diagnosis ranks nobody.
func (r *Ranker) Rank(d triage.Diagnosis) []Ranked {
	out := []Ranked{}
	if d.Empty() {
		return out
	}
	terms := r.Terms(d)
	for _, s := range r.doctors {
		if score := Score(s, terms); score > 0 {
			out = append(out, Ranked{Specialist: s, Score: score})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if len(out) > r.topK {
		out = out[:r.topK]
	}
	return out
}

// Recommend ranks specialists for d and returns their summaries. An empty
// result means the caller should show Fallback.
func (r *Ranker) Recommend(d triage.Diagnosis) []Summary {
	ranked := r.Rank(d)
	out := make([]Summary, len(ranked))
	for i, s := range ranked {
		loc := s.Location
		if loc == "" {
			loc = s.Hospital
		}
		out[i] = Summary{
			Name:        s.Name,
			Specialties: strings.Join(s.Specialties, ", "),
			Location:    loc,
			Phone:       s.Contact.Phone,
		}
	}
	return out
}
