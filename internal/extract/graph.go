package extract

import (
	"sort"
	"time"

	"github.com/rkellner/gitline/internal/model"
)

// fallbackBranch labels commits no branch tip can reach, e.g. when a stale
// branch tip fell outside the maxCommits bound or the repo is in detached
// HEAD state.
const fallbackBranch = "(detached)"

// buildResult reconstructs the commit DAG from parsed records and refs:
// multi-branch membership via reachability from every branch tip, merge
// detection, synthesized tag and branch-creation events, and elided parent
// references at the truncation boundary.
func buildResult(records []commitRecord, refs []refInfo, extractedAt time.Time) *model.ExtractionResult {
	byHash := make(map[string]*commitRecord, len(records))
	for i := range records {
		byHash[records[i].hash] = &records[i]
	}

	var branches []refInfo
	var tags []refInfo
	for _, r := range refs {
		if r.isTag {
			tags = append(tags, r)
		} else {
			branches = append(branches, r)
		}
	}
	// Lexical order makes the closest-tip tie-break deterministic: the first
	// branch to claim a commit at a given distance keeps it.
	sort.Slice(branches, func(i, j int) bool { return branches[i].name < branches[j].name })

	membership := make(map[string][]string, len(records))
	primary := make(map[string]string, len(records))
	bestDist := make(map[string]int, len(records))

	for _, b := range branches {
		for hash, dist := range reachable(byHash, b.target) {
			membership[hash] = append(membership[hash], b.name)
			if cur, ok := bestDist[hash]; !ok || dist < cur {
				bestDist[hash] = dist
				primary[hash] = b.name
			}
		}
	}

	tagsByTarget := make(map[string][]refInfo)
	for _, t := range tags {
		tagsByTarget[t.target] = append(tagsByTarget[t.target], t)
	}

	var events []model.Event
	childIDs := make(map[string][]string)

	for _, rec := range records {
		evType := model.TypeCommit
		var hint *model.Hint
		if len(rec.parents) > 1 {
			evType = model.TypeMerge
			hint = &model.Hint{Icon: "merge"}
		}

		evBranches := membership[rec.hash]
		if evType == model.TypeMerge {
			// A merge joins its parents' branches: the event belongs to
			// the target branch and to every branch being merged in,
			// even though those tips cannot reach the merge commit.
			evBranches = unionBranches(evBranches, rec.parents, membership)
		}
		if len(evBranches) == 0 {
			evBranches = []string{fallbackBranch}
		}
		primaryBranch := primary[rec.hash]
		if primaryBranch == "" {
			primaryBranch = evBranches[0]
		}

		parentIDs := make([]string, 0, len(rec.parents))
		for _, p := range rec.parents {
			if _, ok := byHash[p]; ok {
				parentIDs = append(parentIDs, p)
				childIDs[p] = append(childIDs[p], rec.hash)
			} else {
				parentIDs = append(parentIDs, model.ElidedParentID(p))
			}
		}

		var tagNames []string
		for _, t := range tagsByTarget[rec.hash] {
			tagNames = append(tagNames, t.name)
		}

		events = append(events, model.Event{
			ID:            rec.hash,
			CanonicalID:   "commit:" + rec.hash,
			Type:          evType,
			Timestamp:     rec.when,
			Author:        rec.author,
			Title:         rec.subject,
			Description:   rec.body,
			Branches:      evBranches,
			PrimaryBranch: primaryBranch,
			ParentIDs:     parentIDs,
			Tags:          tagNames,
			Impact:        rec.impact,
			Metadata:      map[string]string{"hash": rec.hash},
			Hint:          hint,
		})
	}

	for i := range events {
		if children, ok := childIDs[events[i].ID]; ok {
			sort.Strings(children)
			events[i].ChildIDs = children
		}
	}

	events = append(events, synthesizeBranchEvents(branches, byHash, membership)...)
	events = append(events, synthesizeTagEvents(tags, byHash, membership, primary)...)

	model.SortEvents(events)
	return summarize(events, branches, extractedAt)
}

// reachable walks parent edges from a branch tip and returns every included
// commit it can reach, with its graph distance from the tip. Parents outside
// the included set end the walk there; they become elided references later.
func reachable(byHash map[string]*commitRecord, tip string) map[string]int {
	dist := make(map[string]int)
	if _, ok := byHash[tip]; !ok {
		return dist
	}
	queue := []string{tip}
	dist[tip] = 0
	for len(queue) > 0 {
		hash := queue[0]
		queue = queue[1:]
		rec := byHash[hash]
		for _, p := range rec.parents {
			if _, ok := byHash[p]; !ok {
				continue
			}
			if _, seen := dist[p]; seen {
				continue
			}
			dist[p] = dist[hash] + 1
			queue = append(queue, p)
		}
	}
	return dist
}

// synthesizeBranchEvents emits one branch-created event per branch, anchored
// at the oldest commit the branch contains.
func synthesizeBranchEvents(branches []refInfo, byHash map[string]*commitRecord, membership map[string][]string) []model.Event {
	var events []model.Event
	for _, b := range branches {
		var oldest *commitRecord
		for hash, names := range membership {
			if !containsName(names, b.name) {
				continue
			}
			rec := byHash[hash]
			if oldest == nil || rec.when.Before(oldest.when) {
				oldest = rec
			}
		}
		if oldest == nil {
			continue
		}
		events = append(events, model.Event{
			ID:            "branch:" + b.name,
			CanonicalID:   "branch:" + b.name,
			Type:          model.TypeBranchCreated,
			Timestamp:     oldest.when,
			Author:        oldest.author,
			Title:         "branch " + b.name + " created",
			Branches:      []string{b.name},
			PrimaryBranch: b.name,
			Metadata:      map[string]string{"tip": b.target, "root": oldest.hash},
			Hint:          &model.Hint{Icon: "branch"},
		})
	}
	return events
}

// synthesizeTagEvents emits one event per tag ref whose target commit is in
// the included set. Annotated tags become releases; lightweight tags stay
// plain tags. Canonical IDs are shared with the refs provider so the merge
// step collapses duplicates.
func synthesizeTagEvents(tags []refInfo, byHash map[string]*commitRecord, membership map[string][]string, primary map[string]string) []model.Event {
	var events []model.Event
	for _, t := range tags {
		rec, ok := byHash[t.target]
		if !ok {
			continue
		}
		evType := model.TypeTag
		kind := "tag"
		if t.annotated {
			evType = model.TypeRelease
			kind = "release"
		}
		branches := membership[t.target]
		if len(branches) == 0 {
			branches = []string{fallbackBranch}
		}
		primaryBranch := primary[t.target]
		if primaryBranch == "" {
			primaryBranch = branches[0]
		}
		events = append(events, model.Event{
			ID:            "tag:" + t.name,
			CanonicalID:   kind + ":" + t.name + ":" + t.target,
			Type:          evType,
			Timestamp:     rec.when,
			Author:        rec.author,
			Title:         kind + " " + t.name,
			Branches:      branches,
			PrimaryBranch: primaryBranch,
			Tags:          []string{t.name},
			Metadata:      map[string]string{"target": t.target},
			Hint:          &model.Hint{Icon: kind},
		})
	}
	return events
}

// summarize fills the result envelope: relationship edges, unique branches
// and authors, date range, counters.
func summarize(events []model.Event, branches []refInfo, extractedAt time.Time) *model.ExtractionResult {
	result := &model.ExtractionResult{Events: events}

	for _, b := range branches {
		result.Branches = append(result.Branches, b.name)
	}

	seenAuthors := make(map[string]struct{})
	for _, e := range events {
		for _, p := range e.ParentIDs {
			if model.IsElidedParent(p) {
				continue
			}
			result.Relationships = append(result.Relationships, model.Edge{ParentID: p, ChildID: e.ID})
		}
		key := e.Author.Email
		if key == "" {
			key = e.Author.Name
		}
		if key != "" {
			if _, ok := seenAuthors[key]; !ok {
				seenAuthors[key] = struct{}{}
				result.Authors = append(result.Authors, e.Author)
			}
		}
	}

	if len(events) > 0 {
		result.DateRange = model.DateRange{
			From: events[0].Timestamp,
			To:   events[len(events)-1].Timestamp,
		}
	}

	result.Meta = model.ResultMeta{
		TotalEvents:   len(events),
		UniqueAuthors: len(result.Authors),
		TotalBranches: len(result.Branches),
		ExtractedAt:   extractedAt,
	}
	return result
}

// unionBranches merges a commit's own branch membership with its parents',
// sorted for determinism.
func unionBranches(own []string, parents []string, membership map[string][]string) []string {
	seen := make(map[string]struct{})
	for _, b := range own {
		seen[b] = struct{}{}
	}
	for _, p := range parents {
		for _, b := range membership[p] {
			seen[b] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for b := range seen {
		out = append(out, b)
	}
	sort.Strings(out)
	return out
}

func containsName(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}
