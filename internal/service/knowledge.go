package service

import (
	"context"
	"strings"

	"github.com/careloop/rxengine/internal/domain"
)

const (
	exactMatchScore    = 1.0
	categoryMatchScore = 0.5
)

// indicationRule maps one condition to its treatments: exact indications
// (the medicines directly indicated for it) and the broader therapeutic
// category keywords that earn partial credit.
type indicationRule struct {
	exact    []string
	category []string
}

// indicationTable is the static medicine-to-indication knowledge base,
// keyed by the condition/symptom keyword found in the query signal.
var indicationTable = map[string]indicationRule{
	// Pain & fever
	"fever":     {exact: []string{"paracetamol", "acetaminophen", "ibuprofen"}, category: []string{"antipyretic", "analgesic"}},
	"headache":  {exact: []string{"paracetamol", "aspirin", "ibuprofen"}, category: []string{"analgesic", "pain relief", "migraine"}},
	"pain":      {exact: []string{"paracetamol", "ibuprofen", "diclofenac"}, category: []string{"analgesic", "pain relief"}},
	"body ache": {exact: []string{"paracetamol"}, category: []string{"analgesic", "muscle relaxant"}},
	"chills":    {exact: []string{"paracetamol"}, category: []string{"antipyretic", "flu relief"}},

	// Respiratory
	"cough":       {exact: []string{"dextromethorphan"}, category: []string{"antitussive", "cough syrup", "expectorant"}},
	"cold":        {exact: []string{}, category: []string{"decongestant", "antihistamine", "cold relief"}},
	"congestion":  {exact: []string{"pseudoephedrine"}, category: []string{"decongestant", "nasal spray"}},
	"sore throat": {exact: []string{}, category: []string{"antiseptic", "lozenge", "throat relief"}},
	"runny nose":  {exact: []string{}, category: []string{"antihistamine", "decongestant"}},

	// Gastrointestinal
	"nausea":      {exact: []string{"domperidone", "ondansetron"}, category: []string{"antiemetic"}},
	"vomiting":    {exact: []string{"domperidone"}, category: []string{"antiemetic"}},
	"diarrhea":    {exact: []string{"loperamide"}, category: []string{"antidiarrheal", "oral rehydration"}},
	"acidity":     {exact: []string{"ranitidine", "omeprazole"}, category: []string{"antacid"}},
	"indigestion": {exact: []string{}, category: []string{"digestive", "antacid", "enzyme"}},

	// Allergies
	"allergy": {exact: []string{"cetirizine", "loratadine", "fexofenadine"}, category: []string{"antihistamine"}},
	"itching": {exact: []string{"calamine"}, category: []string{"antihistamine", "antipruritic"}},
	"rash":    {exact: []string{"calamine"}, category: []string{"antihistamine", "corticosteroid"}},

	// Infections
	"infection": {exact: []string{"amoxicillin", "azithromycin"}, category: []string{"antibiotic", "antimicrobial", "antiseptic"}},
	"bacterial": {exact: []string{"amoxicillin", "azithromycin"}, category: []string{"antibiotic"}},
	"viral":     {exact: []string{"oseltamivir"}, category: []string{"antiviral"}},
	"fungal":    {exact: []string{"clotrimazole", "fluconazole"}, category: []string{"antifungal"}},

	// Chronic conditions
	"diabetes":     {exact: []string{"metformin", "insulin"}, category: []string{"antidiabetic", "blood sugar"}},
	"hypertension": {exact: []string{"amlodipine", "losartan"}, category: []string{"antihypertensive", "blood pressure"}},
	"asthma":       {exact: []string{"salbutamol"}, category: []string{"bronchodilator", "inhaler", "corticosteroid"}},

	// Sleep & anxiety
	"insomnia": {exact: []string{"melatonin"}, category: []string{"sedative", "sleep aid"}},
	"anxiety":  {exact: []string{"alprazolam", "diazepam"}, category: []string{"anxiolytic"}},

	// Other
	"inflammation": {exact: []string{"ibuprofen", "diclofenac"}, category: []string{"anti-inflammatory", "nsaid", "corticosteroid"}},
	"fatigue":      {exact: []string{}, category: []string{"multivitamin", "vitamin", "iron", "supplement"}},
	"weakness":     {exact: []string{}, category: []string{"multivitamin", "vitamin", "iron", "supplement", "b12"}},
}

// KnowledgeScorer is the deterministic rule-based model: exact indication
// match scores 1.0, therapeutic-category match 0.5, otherwise 0.0.
type KnowledgeScorer struct {
	rules map[string]indicationRule
}

func NewKnowledgeScorer() *KnowledgeScorer {
	return &KnowledgeScorer{rules: indicationTable}
}

func (s *KnowledgeScorer) Name() domain.ModelName {
	return domain.ModelKnowledge
}

func (s *KnowledgeScorer) Score(_ context.Context, sig domain.QuerySignal, candidates []domain.Candidate) ([]float64, error) {
	scores := zeroScores(len(candidates))

	conditions := s.matchConditions(sig)
	if len(conditions) == 0 {
		return scores, nil
	}

	for i, cand := range candidates {
		nameTags := strings.ToLower(cand.Name)
		for _, tag := range cand.Tags {
			nameTags += " " + strings.ToLower(tag)
		}
		fullText := nameTags + " " + strings.ToLower(cand.Description)

		best := 0.0
		for _, cond := range conditions {
			rule := s.rules[cond]
			if containsAny(nameTags, rule.exact) || containsAny(nameTags, []string{cond}) {
				best = exactMatchScore
				break
			}
			if containsAny(fullText, rule.exact) {
				best = exactMatchScore
				break
			}
			if best < categoryMatchScore && containsAny(fullText, rule.category) {
				best = categoryMatchScore
			}
		}
		scores[i] = best
	}

	return scores, nil
}

// matchConditions collects the rule keys present in the signal: structured
// condition fields first, then a keyword scan of the free text.
func (s *KnowledgeScorer) matchConditions(sig domain.QuerySignal) []string {
	seen := make(map[string]bool)
	var conditions []string

	for _, cond := range sig.Conditions {
		key := strings.ToLower(strings.TrimSpace(cond))
		if _, ok := s.rules[key]; ok && !seen[key] {
			seen[key] = true
			conditions = append(conditions, key)
		}
	}

	text := strings.ToLower(sig.Text)
	for key := range s.rules {
		if !seen[key] && strings.Contains(text, key) {
			seen[key] = true
			conditions = append(conditions, key)
		}
	}

	return conditions
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if kw != "" && strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
