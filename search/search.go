// Package search provides a small inverted index over dialog titles,
// backing the :find command and the dialogs --filter flag.
package search

import (
	"sort"
	"strings"
	"unicode"

	snowballeng "github.com/kljensen/snowball/english"
)

// Index maps a stemmed token to the positions of the titles containing it.
type Index map[string][]int

// New builds an index over the given titles. Positions refer to the input
// slice, so callers can map hits back to their dialog list.
func New(titles []string) Index {
	idx := make(Index)
	for pos, title := range titles {
		for _, token := range analyze(title) {
			if contains(idx[token], pos) {
				continue
			}
			idx[token] = append(idx[token], pos)
		}
	}
	return idx
}

// Search returns the positions of titles containing every term of the
// query, in ascending order. An empty query matches nothing.
func (idx Index) Search(query string) []int {
	var result []int
	for _, token := range analyze(query) {
		positions, ok := idx[token]
		if !ok {
			return nil
		}
		if result == nil {
			result = positions
		} else {
			result = intersect(result, positions)
		}
	}
	sort.Ints(result)
	return result
}

// analyze runs the pipeline shared by indexing and querying: tokenize,
// lowercase, drop stop words, stem.
func analyze(text string) []string {
	tokens := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	result := make([]string, 0, len(tokens))
	for _, token := range tokens {
		token = strings.ToLower(token)
		if _, stop := stopWords[token]; stop {
			continue
		}
		result = append(result, snowballeng.Stem(token, false))
	}
	return result
}

var stopWords = map[string]struct{}{
	"a": {}, "and": {}, "be": {}, "have": {}, "i": {},
	"in": {}, "of": {}, "that": {}, "the": {}, "to": {},
}

func contains(positions []int, pos int) bool {
	for _, p := range positions {
		if p == pos {
			return true
		}
	}
	return false
}

// intersect merges two sorted posting lists, keeping common positions.
func intersect(a, b []int) []int {
	result := make([]int, 0, len(a))
	var i, j int
	for i < len(a) && j < len(b) {
		switch {
		case a[i] < b[j]:
			i++
		case a[i] > b[j]:
			j++
		default:
			result = append(result, a[i])
			i++
			j++
		}
	}
	return result
}
