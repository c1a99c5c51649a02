package recommend

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"sort"
	"strings"
)

// Recipe is one corpus entry: a name and its comma-separated ingredients.
type Recipe struct {
	Name        string `json:"name"`
	Ingredients string `json:"ingredients"`
}

// Engine scores recipes against a set of ingredients using bag-of-words
// counts and cosine similarity. It is stateless after construction.
type Engine struct {
	recipes []Recipe
	vocab   map[string]int
	vectors [][]float64
	norms   []float64
}

// Load reads a recipe corpus from a JSON file and builds the engine.
func Load(path string) (*Engine, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read corpus: %w", err)
	}
	var recipes []Recipe
	if err := json.Unmarshal(data, &recipes); err != nil {
		return nil, fmt.Errorf("parse corpus: %w", err)
	}
	if len(recipes) == 0 {
		return nil, fmt.Errorf("corpus %s is empty", path)
	}
	return New(recipes), nil
}

// New builds an engine over the given corpus. The vocabulary is fixed at
// construction; query tokens outside it are ignored.
func New(recipes []Recipe) *Engine {
	e := &Engine{
		recipes: recipes,
		vocab:   make(map[string]int),
	}

	tokenized := make([][]string, len(recipes))
	for i, r := range recipes {
		tokens := tokenize(r.Ingredients)
		tokenized[i] = tokens
		for _, tok := range tokens {
			if _, ok := e.vocab[tok]; !ok {
				e.vocab[tok] = len(e.vocab)
			}
		}
	}

	e.vectors = make([][]float64, len(recipes))
	e.norms = make([]float64, len(recipes))
	for i, tokens := range tokenized {
		vec := make([]float64, len(e.vocab))
		for _, tok := range tokens {
			vec[e.vocab[tok]]++
		}
		e.vectors[i] = vec
		e.norms[i] = norm(vec)
	}

	return e
}

// Recommend returns the topN most similar recipes to the given ingredient
// list, best match first. Ties keep the later corpus entry first, matching
// an ascending argsort read back to front.
func (e *Engine) Recommend(ingredients []string, topN int) []Recipe {
	query := make([]float64, len(e.vocab))
	for _, tok := range tokenize(strings.Join(ingredients, ", ")) {
		if idx, ok := e.vocab[tok]; ok {
			query[idx]++
		}
	}
	queryNorm := norm(query)

	scores := make([]float64, len(e.recipes))
	if queryNorm > 0 {
		for i, vec := range e.vectors {
			if e.norms[i] == 0 {
				continue
			}
			scores[i] = dot(query, vec) / (queryNorm * e.norms[i])
		}
	}

	order := make([]int, len(scores))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return scores[order[a]] < scores[order[b]]
	})

	if topN > len(order) {
		topN = len(order)
	}
	results := make([]Recipe, 0, topN)
	for i := len(order) - 1; i >= len(order)-topN; i-- {
		results = append(results, e.recipes[order[i]])
	}
	return results
}

// Size returns the number of recipes in the corpus.
func (e *Engine) Size() int {
	return len(e.recipes)
}

// tokenize lowercases and splits an ingredient string on ", ".
func tokenize(s string) []string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return nil
	}
	return strings.Split(s, ", ")
}

func dot(a, b []float64) float64 {
	var sum float64
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

func norm(v []float64) float64 {
	return math.Sqrt(dot(v, v))
}
