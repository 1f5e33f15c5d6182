// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package score

import (
	"math"
	"sort"
	"strings"
)

// stopwords are dropped before vectorizing so similarity reflects content
// words rather than glue.
var stopwords = map[string]bool{
	"the": true, "and": true, "of": true, "to": true, "in": true, "a": true,
	"for": true, "with": true, "on": true, "at": true, "as": true, "is": true,
	"was": true, "an": true, "by": true, "from": true, "that": true,
	"this": true, "are": true, "be": true, "or": true, "have": true,
	"has": true, "had": true, "will": true, "can": true, "we": true, "i": true,
}

// tokenize lowercases, strips punctuation, and drops stopwords and
// single-character tokens.
func tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !(r >= 'a' && r <= 'z') && !(r >= '0' && r <= '9') && r != '+' && r != '#'
	})
	tokens := make([]string, 0, len(fields))
	for _, tok := range fields {
		if len(tok) < 2 || stopwords[tok] {
			continue
		}
		tokens = append(tokens, tok)
	}
	return tokens
}

// termFreq counts token occurrences.
func termFreq(tokens []string) map[string]float64 {
	tf := make(map[string]float64, len(tokens))
	for _, tok := range tokens {
		tf[tok]++
	}
	return tf
}

// cosineTFIDF computes the TF-IDF weighted cosine similarity between two
// texts over their shared two-document corpus. Terms are accumulated in
// sorted order so identical inputs always produce bit-identical results.
func cosineTFIDF(a, b string) float64 {
	tfA := termFreq(tokenize(a))
	tfB := termFreq(tokenize(b))
	if len(tfA) == 0 || len(tfB) == 0 {
		return 0
	}

	vocab := make(map[string]bool, len(tfA)+len(tfB))
	for term := range tfA {
		vocab[term] = true
	}
	for term := range tfB {
		vocab[term] = true
	}
	terms := make([]string, 0, len(vocab))
	for term := range vocab {
		terms = append(terms, term)
	}
	sort.Strings(terms)

	const nDocs = 2.0
	var dot, normA, normB float64
	for _, term := range terms {
		df := 0.0
		if tfA[term] > 0 {
			df++
		}
		if tfB[term] > 0 {
			df++
		}
		// Smoothed idf, so terms present in both documents still carry
		// some weight.
		idf := math.Log((1+nDocs)/(1+df)) + 1

		wa := tfA[term] * idf
		wb := tfB[term] * idf
		dot += wa * wb
		normA += wa * wa
		normB += wb * wb
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
