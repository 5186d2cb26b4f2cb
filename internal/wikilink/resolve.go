package wikilink

import "sort"

// Candidate is the subset of a note's metadata the resolver needs to pick
// a target among several notes sharing a slug.
type Candidate struct {
	NotePath string
}

// Resolve implements the resolution algorithm of spec.md §4.4 steps 3-5:
// empty candidate set is unresolved; one candidate wins outright;
// multiple candidates prefer the source's own folder, then the
// lexicographically smallest note_path.
func Resolve(sourcePath string, candidates []Candidate) (target string, resolved bool) {
	if len(candidates) == 0 {
		return "", false
	}
	if len(candidates) == 1 {
		return candidates[0].NotePath, true
	}

	sourceFolder := Folder(sourcePath)
	var sameFolder []Candidate
	for _, c := range candidates {
		if Folder(c.NotePath) == sourceFolder {
			sameFolder = append(sameFolder, c)
		}
	}
	pool := candidates
	if len(sameFolder) > 0 {
		pool = sameFolder
	}
	sort.Slice(pool, func(i, j int) bool { return pool[i].NotePath < pool[j].NotePath })
	return pool[0].NotePath, true
}
